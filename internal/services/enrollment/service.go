package enrollment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/domain/rules"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/pkg/validate"
	"github.com/ASK10520/codeplay-spark/internal/repo"
	auditsvc "github.com/ASK10520/codeplay-spark/internal/services/audit"
)

const reconcileBatch = 100

type AuditRecorder interface {
	Record(ctx context.Context, in auditsvc.RecordInput) (model.AuditLogEntry, error)
}

type Service struct {
	store  repo.Store
	audit  AuditRecorder
	logger *zap.Logger
	now    func() time.Time
}

type Dependencies struct {
	Store  repo.Store
	Audit  AuditRecorder
	Logger *zap.Logger
}

type ApproveResult struct {
	Submission model.PaymentSubmission
	Enrollment model.Enrollment
}

type FreeEnrollInput struct {
	UserID      uuid.UUID
	CourseID    uuid.UUID
	ChildName   string `json:"child_name" validate:"notblank,max=200"`
	ChildAge    int    `json:"child_age" validate:"gte=0,lte=18"`
	ParentName  string `json:"parent_name" validate:"max=200"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
}

type ProgressInput struct {
	CompletedLessons int `json:"completed_lessons" validate:"gte=0"`
	StarsEarned      int `json:"stars_earned" validate:"gte=0"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  deps.Store,
		audit:  deps.Audit,
		logger: logger,
		now:    time.Now,
	}
}

// Approve moves a pending submission to approved and grants the paid
// enrollment in the same transaction. The audit entry follows the commit.
func (s *Service) Approve(ctx context.Context, submissionID, reviewerID uuid.UUID) (ApproveResult, error) {
	const op = "enrollment.approve"

	if err := s.checkReview(op, submissionID, reviewerID); err != nil {
		return ApproveResult{}, err
	}

	var (
		result  ApproveResult
		current model.PaymentSubmission
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Store) error {
		sub, err := tx.ReviewSubmission(ctx, repo.ReviewInput{
			SubmissionID: submissionID,
			Status:       enums.SubmissionStatusApproved,
			ReviewerID:   reviewerID,
			ReviewedAt:   s.now().UTC(),
		})
		if err != nil {
			current = sub
			return err
		}

		enrollment, err := tx.UpsertEnrollment(ctx, s.paidEnrollment(sub))
		if err != nil {
			return apperr.Persistence(op, fmt.Errorf("grant enrollment: %w", err))
		}

		result = ApproveResult{Submission: sub, Enrollment: enrollment}
		return nil
	})
	if err != nil {
		return ApproveResult{}, reviewError(op, err, current)
	}

	s.logger.Info("payment approved",
		zap.String("submission_id", submissionID.String()),
		zap.String("reviewer_id", reviewerID.String()),
		zap.String("enrollment_id", result.Enrollment.ID.String()),
	)
	s.recordAudit(ctx, auditsvc.RecordInput{
		SubmissionID: submissionID,
		Action:       enums.AuditActionApproved,
		PerformedBy:  reviewerID,
		Details:      rules.ApproveDetails(result.Submission.CourseID.String()),
	})
	return result, nil
}

// Reject closes a pending submission. Enrollments are left untouched.
func (s *Service) Reject(ctx context.Context, submissionID, reviewerID uuid.UUID, reason *string) (model.PaymentSubmission, error) {
	const op = "enrollment.reject"

	if err := s.checkReview(op, submissionID, reviewerID); err != nil {
		return model.PaymentSubmission{}, err
	}

	// stored as given; only an empty reason is dropped
	var stored *string
	if reason != nil && *reason != "" {
		r := *reason
		stored = &r
	}

	sub, err := s.store.ReviewSubmission(ctx, repo.ReviewInput{
		SubmissionID:    submissionID,
		Status:          enums.SubmissionStatusRejected,
		ReviewerID:      reviewerID,
		RejectionReason: stored,
		ReviewedAt:      s.now().UTC(),
	})
	if err != nil {
		return model.PaymentSubmission{}, reviewError(op, err, sub)
	}

	s.logger.Info("payment rejected",
		zap.String("submission_id", submissionID.String()),
		zap.String("reviewer_id", reviewerID.String()),
	)
	s.recordAudit(ctx, auditsvc.RecordInput{
		SubmissionID: submissionID,
		Action:       enums.AuditActionRejected,
		PerformedBy:  reviewerID,
		Details:      rules.RejectDetails(stored),
	})
	return sub, nil
}

// Reconcile grants enrollments for approved submissions that lack one. It
// returns how many were repaired.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	const op = "enrollment.reconcile"

	if s.store == nil {
		return 0, apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}

	missing, err := s.store.ListApprovedWithoutEnrollment(ctx, reconcileBatch)
	if err != nil {
		return 0, apperr.Persistence(op, err)
	}

	repaired := 0
	var errs []error
	for _, sub := range missing {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		enrollment, err := s.store.UpsertEnrollment(ctx, s.paidEnrollment(sub))
		if err != nil {
			s.logger.Error("reconcile enrollment failed",
				zap.String("submission_id", sub.ID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("submission %s: %w", sub.ID, err))
			continue
		}
		repaired++
		s.logger.Warn("reconciled missing enrollment",
			zap.String("submission_id", sub.ID.String()),
			zap.String("enrollment_id", enrollment.ID.String()),
		)
	}
	if len(errs) > 0 {
		return repaired, apperr.Persistence(op, errors.Join(errs...))
	}
	return repaired, nil
}

// EnrollFree grants a free enrollment for courses that need no payment.
func (s *Service) EnrollFree(ctx context.Context, in FreeEnrollInput) (model.Enrollment, error) {
	const op = "enrollment.enroll_free"

	problems := validate.Struct(in)
	if problems == nil {
		problems = map[string]string{}
	}
	if in.UserID == uuid.Nil {
		problems["user_id"] = "user_id is required"
	}
	if in.CourseID == uuid.Nil {
		problems["course_id"] = "course_id is required"
	}
	if len(problems) > 0 {
		return model.Enrollment{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Enrollment{}, apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}

	course, err := s.store.GetCourse(ctx, in.CourseID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Enrollment{}, apperr.NotFound(op, "course not found")
		}
		return model.Enrollment{}, apperr.Persistence(op, err)
	}
	if !course.IsFree() {
		return model.Enrollment{}, apperr.ValidationField(op, "course_id", "course requires an approved payment")
	}

	parentName := strings.TrimSpace(in.ParentName)
	childName := strings.TrimSpace(in.ChildName)
	if parentName == "" {
		parentName = childName
	}

	enrollment, err := s.store.UpsertEnrollment(ctx, model.Enrollment{
		UserID:        in.UserID,
		CourseID:      in.CourseID,
		ChildName:     childName,
		ChildAge:      in.ChildAge,
		ParentName:    parentName,
		ParentEmail:   strings.TrimSpace(in.ParentEmail),
		PaymentStatus: enums.EnrollmentPaymentFree,
		EnrolledAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Enrollment{}, apperr.NotFound(op, "course not found")
		}
		return model.Enrollment{}, apperr.Persistence(op, err)
	}
	return enrollment, nil
}

func (s *Service) UpdateProgress(ctx context.Context, userID, enrollmentID uuid.UUID, in ProgressInput) (model.Enrollment, error) {
	const op = "enrollment.update_progress"

	if problems := validate.Struct(in); problems != nil {
		return model.Enrollment{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Enrollment{}, apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}

	current, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Enrollment{}, apperr.NotFound(op, "enrollment not found")
		}
		return model.Enrollment{}, apperr.Persistence(op, err)
	}
	if current.UserID != userID {
		return model.Enrollment{}, apperr.Forbidden(op, "enrollment belongs to another user")
	}

	course, err := s.store.GetCourse(ctx, current.CourseID)
	if err != nil {
		return model.Enrollment{}, apperr.Persistence(op, err)
	}
	if in.CompletedLessons > course.TotalLessons {
		return model.Enrollment{}, apperr.ValidationField(op, "completed_lessons",
			fmt.Sprintf("completed_lessons must be at most %d", course.TotalLessons))
	}

	updated, err := s.store.UpdateEnrollmentProgress(ctx, enrollmentID, in.CompletedLessons, in.StarsEarned)
	if err != nil {
		return model.Enrollment{}, apperr.Persistence(op, err)
	}
	return updated, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.EnrollmentWithCourse, error) {
	const op = "enrollment.list"

	if userID == uuid.Nil {
		return nil, apperr.ValidationField(op, "user_id", "user_id is required")
	}
	if s.store == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}

	items, err := s.store.ListEnrollmentsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return items, nil
}

func (s *Service) checkReview(op string, submissionID, reviewerID uuid.UUID) error {
	if submissionID == uuid.Nil {
		return apperr.ValidationField(op, "submission_id", "submission id is required")
	}
	if reviewerID == uuid.Nil {
		return apperr.ValidationField(op, "reviewer_id", "reviewer id is required")
	}
	if s.store == nil {
		return apperr.Persistence(op, fmt.Errorf("enrollment store is not configured"))
	}
	return nil
}

func (s *Service) paidEnrollment(sub model.PaymentSubmission) model.Enrollment {
	return model.Enrollment{
		UserID:        sub.UserID,
		CourseID:      sub.CourseID,
		ChildName:     sub.StudentName,
		ParentName:    sub.StudentName,
		PaymentStatus: enums.EnrollmentPaymentPaid,
		EnrolledAt:    s.now().UTC(),
	}
}

// recordAudit never fails the review that already committed.
func (s *Service) recordAudit(ctx context.Context, in auditsvc.RecordInput) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Record(context.WithoutCancel(ctx), in); err != nil {
		s.logger.Error("audit write failed",
			zap.String("submission_id", in.SubmissionID.String()),
			zap.String("action", string(in.Action)),
			zap.Error(err),
		)
	}
}

func reviewError(op string, err error, current model.PaymentSubmission) error {
	switch {
	case errors.Is(err, repo.ErrNotPending):
		return apperr.AlreadyReviewed(op, string(current.Status))
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(op, "submission not found")
	}
	if appErr, ok := apperr.As(err); ok {
		return appErr
	}
	return apperr.Persistence(op, err)
}
