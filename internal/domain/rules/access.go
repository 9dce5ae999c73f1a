package rules

const (
	// FreePreviewLessons is the number of leading lessons open to everyone.
	FreePreviewLessons = 1
)

func IsPreviewLesson(lessonIndex int) bool {
	return lessonIndex >= 0 && lessonIndex < FreePreviewLessons
}

func CanAccessLesson(lessonIndex int, enrolled bool) bool {
	if lessonIndex < 0 {
		return false
	}
	return IsPreviewLesson(lessonIndex) || enrolled
}
