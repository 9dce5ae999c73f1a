package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

func seedCourse(t *testing.T, store *Store) model.Course {
	t.Helper()
	course, err := store.CreateCourse(context.Background(), model.Course{
		Title:        "Scratch Basics",
		Category:     "coding",
		AgeGroup:     "6-8",
		Difficulty:   "beginner",
		TotalLessons: 12,
		Price:        150000,
		IsPremium:    true,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func seedSubmission(t *testing.T, store *Store, userID, courseID uuid.UUID, name string) model.PaymentSubmission {
	t.Helper()
	sub, err := store.CreateSubmission(context.Background(), model.PaymentSubmission{
		UserID:        userID,
		CourseID:      courseID,
		StudentName:   name,
		PaymentMethod: enums.PaymentMethodKBZPay,
		SlipKey:       userID.String() + "/slip.png",
		CourseFee:     150000,
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	return sub
}

func TestReviewSubmissionOnlyOnceFromPending(t *testing.T) {
	store := NewStore()
	course := seedCourse(t, store)
	sub := seedSubmission(t, store, uuid.New(), course.ID, "Mya")

	reviewer := uuid.New()
	approved, err := store.ReviewSubmission(context.Background(), repo.ReviewInput{
		SubmissionID: sub.ID,
		Status:       enums.SubmissionStatusApproved,
		ReviewerID:   reviewer,
		ReviewedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("first review: %v", err)
	}
	if approved.Status != enums.SubmissionStatusApproved || approved.ReviewedBy == nil || *approved.ReviewedBy != reviewer {
		t.Fatalf("unexpected reviewed row: %+v", approved)
	}

	current, err := store.ReviewSubmission(context.Background(), repo.ReviewInput{
		SubmissionID: sub.ID,
		Status:       enums.SubmissionStatusRejected,
		ReviewerID:   uuid.New(),
		ReviewedAt:   time.Now(),
	})
	if !errors.Is(err, repo.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if current.Status != enums.SubmissionStatusApproved {
		t.Fatalf("second review must report current status, got %s", current.Status)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	course := seedCourse(t, store)
	userID := uuid.New()
	sub := seedSubmission(t, store, userID, course.ID, "Mya")

	boom := errors.New("boom")
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repo.Store) error {
		if _, err := tx.ReviewSubmission(ctx, repo.ReviewInput{
			SubmissionID: sub.ID,
			Status:       enums.SubmissionStatusApproved,
			ReviewerID:   uuid.New(),
			ReviewedAt:   time.Now(),
		}); err != nil {
			return err
		}
		if _, err := tx.UpsertEnrollment(ctx, model.Enrollment{
			UserID:        userID,
			CourseID:      course.ID,
			ChildName:     "Mya",
			PaymentStatus: enums.EnrollmentPaymentPaid,
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected tx error, got %v", err)
	}

	got, err := store.GetSubmission(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != enums.SubmissionStatusPending {
		t.Fatalf("status must roll back to pending, got %s", got.Status)
	}
	exists, err := store.EnrollmentExists(context.Background(), userID, course.ID)
	if err != nil {
		t.Fatalf("enrollment exists: %v", err)
	}
	if exists {
		t.Fatalf("enrollment must roll back")
	}
}

func TestUpsertEnrollmentKeepsSingleRowAndNeverDowngradesPaid(t *testing.T) {
	store := NewStore()
	course := seedCourse(t, store)
	userID := uuid.New()

	first, err := store.UpsertEnrollment(context.Background(), model.Enrollment{
		UserID:        userID,
		CourseID:      course.ID,
		ChildName:     "Mya",
		PaymentStatus: enums.EnrollmentPaymentPaid,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if _, err := store.UpdateEnrollmentProgress(context.Background(), first.ID, 3, 9); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	second, err := store.UpsertEnrollment(context.Background(), model.Enrollment{
		UserID:        userID,
		CourseID:      course.ID,
		ChildName:     "Mya",
		PaymentStatus: enums.EnrollmentPaymentFree,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same enrollment row")
	}
	if second.PaymentStatus != enums.EnrollmentPaymentPaid {
		t.Fatalf("paid enrollment must not be downgraded, got %s", second.PaymentStatus)
	}
	if second.CompletedLessons != 3 || second.StarsEarned != 9 {
		t.Fatalf("progress must be preserved: %+v", second)
	}

	items, err := store.ListEnrollmentsByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one enrollment, got %d", len(items))
	}
}

func TestLatestSubmissionUsesInsertionOrderOnTies(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return fixed })

	course := seedCourse(t, store)
	userID := uuid.New()
	_ = seedSubmission(t, store, userID, course.ID, "first")
	second := seedSubmission(t, store, userID, course.ID, "second")

	latest, err := store.LatestSubmission(context.Background(), userID, course.ID)
	if err != nil {
		t.Fatalf("latest submission: %v", err)
	}
	if latest.ID != second.ID {
		t.Fatalf("expected the later insert to win the tie")
	}
}

func TestListSubmissionsSearchesNameAndPhone(t *testing.T) {
	store := NewStore()
	course := seedCourse(t, store)

	phone := "09791234567"
	withPhone, err := store.CreateSubmission(context.Background(), model.PaymentSubmission{
		UserID:        uuid.New(),
		CourseID:      course.ID,
		StudentName:   "Zaw Min",
		PhoneNumber:   &phone,
		PaymentMethod: enums.PaymentMethodAYAPay,
		SlipKey:       "k1",
	})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	_ = seedSubmission(t, store, uuid.New(), course.ID, "Hnin Wai")

	byName, err := store.ListSubmissions(context.Background(), repo.SubmissionFilter{Search: "hnin"})
	if err != nil {
		t.Fatalf("list by name: %v", err)
	}
	if len(byName) != 1 || byName[0].StudentName != "Hnin Wai" {
		t.Fatalf("unexpected name search result: %+v", byName)
	}
	if byName[0].Course.Title != "Scratch Basics" {
		t.Fatalf("expected course summary join, got %+v", byName[0].Course)
	}

	byPhone, err := store.ListSubmissions(context.Background(), repo.SubmissionFilter{Search: "123456"})
	if err != nil {
		t.Fatalf("list by phone: %v", err)
	}
	if len(byPhone) != 1 || byPhone[0].ID != withPhone.ID {
		t.Fatalf("unexpected phone search result: %+v", byPhone)
	}

	byMethod, err := store.ListSubmissions(context.Background(), repo.SubmissionFilter{Method: enums.PaymentMethodAYAPay})
	if err != nil {
		t.Fatalf("list by method: %v", err)
	}
	if len(byMethod) != 1 {
		t.Fatalf("expected one aya_pay submission, got %d", len(byMethod))
	}
}

func TestConcurrentReviewsHaveSingleWinner(t *testing.T) {
	store := NewStore()
	course := seedCourse(t, store)
	sub := seedSubmission(t, store, uuid.New(), course.ID, "Mya")

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ReviewSubmission(context.Background(), repo.ReviewInput{
				SubmissionID: sub.ID,
				Status:       enums.SubmissionStatusApproved,
				ReviewerID:   uuid.New(),
				ReviewedAt:   time.Now(),
			})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
