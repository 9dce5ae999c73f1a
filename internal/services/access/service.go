package access

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/rules"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
)

type EnrollmentChecker interface {
	EnrollmentExists(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}

type Service struct {
	enrollments EnrollmentChecker
}

func NewService(enrollments EnrollmentChecker) *Service {
	return &Service{enrollments: enrollments}
}

// CanAccessLesson opens preview lessons to everyone and the rest to enrolled users.
func (s *Service) CanAccessLesson(ctx context.Context, userID, courseID uuid.UUID, lessonIndex int) (bool, error) {
	const op = "access.can_access_lesson"

	if lessonIndex < 0 {
		return false, apperr.ValidationField(op, "lesson_index", "lesson index must not be negative")
	}
	if rules.IsPreviewLesson(lessonIndex) {
		return true, nil
	}
	if userID == uuid.Nil || courseID == uuid.Nil {
		return false, apperr.ValidationField(op, "course_id", "user and course are required")
	}
	if s.enrollments == nil {
		return false, apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}

	enrolled, err := s.enrollments.EnrollmentExists(ctx, userID, courseID)
	if err != nil {
		return false, apperr.Persistence(op, err)
	}
	return rules.CanAccessLesson(lessonIndex, enrolled), nil
}
