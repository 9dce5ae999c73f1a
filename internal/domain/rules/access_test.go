package rules

import "testing"

func TestCanAccessLessonFirstLessonIsFree(t *testing.T) {
	if !CanAccessLesson(0, false) {
		t.Fatalf("lesson 0 must be open without enrollment")
	}
	if !CanAccessLesson(0, true) {
		t.Fatalf("lesson 0 must be open with enrollment")
	}
}

func TestCanAccessLessonRequiresEnrollmentAfterPreview(t *testing.T) {
	for _, idx := range []int{1, 2, 25} {
		if CanAccessLesson(idx, false) {
			t.Fatalf("lesson %d must be locked without enrollment", idx)
		}
		if !CanAccessLesson(idx, true) {
			t.Fatalf("lesson %d must be open with enrollment", idx)
		}
	}
}

func TestCanAccessLessonRejectsNegativeIndex(t *testing.T) {
	if CanAccessLesson(-1, true) {
		t.Fatalf("negative lesson index must never be accessible")
	}
}
