package payments

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
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/pkg/validate"
	"github.com/ASK10520/codeplay-spark/internal/repo"
	"github.com/ASK10520/codeplay-spark/internal/services/slips"
)

const defaultIdempotencyTTL = 24 * time.Hour

type CourseReader interface {
	GetCourse(ctx context.Context, id uuid.UUID) (model.Course, error)
}

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub model.PaymentSubmission) (model.PaymentSubmission, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (model.PaymentSubmission, error)
	LatestSubmission(ctx context.Context, userID, courseID uuid.UUID) (model.PaymentSubmission, error)
	ListSubmissions(ctx context.Context, filter repo.SubmissionFilter) ([]model.SubmissionWithCourse, error)
	CountSubmissionsByStatus(ctx context.Context) (repo.StatusCounts, error)
}

type SlipStore interface {
	Check(slip *slips.Slip) string
	Upload(ctx context.Context, userID uuid.UUID, slip slips.Slip) (string, error)
	Discard(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string) (slips.SignedURL, error)
}

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Complete(ctx context.Context, key, result string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (int64, bool, error)
}

type Service struct {
	courses        CourseReader
	submissions    SubmissionStore
	slips          SlipStore
	idempotency    IdempotencyStore
	limiter        RateLimiter
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

type Dependencies struct {
	Courses     CourseReader
	Submissions SubmissionStore
	Slips       SlipStore
	// Idempotency and Limiter are optional; both need Redis.
	Idempotency    IdempotencyStore
	Limiter        RateLimiter
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

type SubmitInput struct {
	UserID         uuid.UUID
	CourseID       uuid.UUID
	StudentName    string
	PhoneNumber    *string
	PaymentMethod  string
	TransactionID  *string
	CourseFee      int64
	Slip           *slips.Slip
	IdempotencyKey string
}

type LatestStatus struct {
	SubmissionID    uuid.UUID
	Status          enums.SubmissionStatus
	RejectionReason *string
	CreatedAt       time.Time
}

type ListFilter struct {
	Status string
	Method string
	Search string
}

type Stats struct {
	Pending  int
	Approved int
	Rejected int
	Total    int
}

type submitFields struct {
	StudentName   string `json:"student_name" validate:"notblank,max=200"`
	PaymentMethod string `json:"payment_method" validate:"payment_method"`
	CourseFee     int64  `json:"course_fee" validate:"gte=0"`
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return &Service{
		courses:        deps.Courses,
		submissions:    deps.Submissions,
		slips:          deps.Slips,
		idempotency:    deps.Idempotency,
		limiter:        deps.Limiter,
		idempotencyTTL: ttl,
		logger:         logger,
	}
}

// Submit uploads the slip and records a pending submission. Retries are only
// safe when the caller supplies an idempotency key.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.PaymentSubmission, error) {
	const op = "payments.submit"

	if s.courses == nil || s.submissions == nil || s.slips == nil {
		return model.PaymentSubmission{}, apperr.Persistence(op, fmt.Errorf("payment dependencies are not configured"))
	}

	problems := validate.Struct(submitFields{
		StudentName:   in.StudentName,
		PaymentMethod: in.PaymentMethod,
		CourseFee:     in.CourseFee,
	})
	if problems == nil {
		problems = map[string]string{}
	}
	if in.UserID == uuid.Nil {
		problems["user_id"] = "user_id is required"
	}
	if in.CourseID == uuid.Nil {
		problems["course_id"] = "course_id is required"
	}
	if msg := s.slips.Check(in.Slip); msg != "" {
		problems["slip"] = msg
	}
	if len(problems) > 0 {
		return model.PaymentSubmission{}, apperr.Validation(op, problems)
	}
	method, _ := enums.ParsePaymentMethod(in.PaymentMethod)

	var idemKey *string
	reservedKey := ""
	if key := strings.TrimSpace(in.IdempotencyKey); key != "" {
		idemKey = &key
		if s.idempotency != nil {
			scoped := in.UserID.String() + ":" + key
			stored, reserved, err := s.idempotency.Reserve(ctx, scoped, s.idempotencyTTL)
			switch {
			case err != nil:
				s.logger.Warn("idempotency reserve failed", zap.String("user_id", in.UserID.String()), zap.Error(err))
			case !reserved:
				return s.replay(ctx, op, stored)
			default:
				reservedKey = scoped
			}
		}
	}

	release := func() {
		if reservedKey == "" {
			return
		}
		if err := s.idempotency.Release(context.WithoutCancel(ctx), reservedKey); err != nil {
			s.logger.Warn("idempotency release failed", zap.String("key", reservedKey), zap.Error(err))
		}
	}

	// replays are answered above and never count against the quota
	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.Allow(ctx, in.UserID.String())
		switch {
		case err != nil:
			s.logger.Warn("submission rate check failed", zap.String("user_id", in.UserID.String()), zap.Error(err))
		case !allowed:
			release()
			return model.PaymentSubmission{}, apperr.RateLimited(op, retryAfter)
		}
	}

	if _, err := s.courses.GetCourse(ctx, in.CourseID); err != nil {
		release()
		if errors.Is(err, repo.ErrNotFound) {
			return model.PaymentSubmission{}, apperr.NotFound(op, "course not found")
		}
		return model.PaymentSubmission{}, apperr.Persistence(op, err)
	}

	slipKey, err := s.slips.Upload(ctx, in.UserID, *in.Slip)
	if err != nil {
		release()
		return model.PaymentSubmission{}, err
	}

	sub, err := s.submissions.CreateSubmission(ctx, model.PaymentSubmission{
		UserID:         in.UserID,
		CourseID:       in.CourseID,
		StudentName:    strings.TrimSpace(in.StudentName),
		PhoneNumber:    trimmedOrNil(in.PhoneNumber),
		PaymentMethod:  method,
		TransactionID:  trimmedOrNil(in.TransactionID),
		SlipKey:        slipKey,
		CourseFee:      in.CourseFee,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		if derr := s.slips.Discard(context.WithoutCancel(ctx), slipKey); derr != nil {
			s.logger.Error("discard orphaned slip failed", zap.String("slip_key", slipKey), zap.Error(derr))
		}
		release()
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return model.PaymentSubmission{}, apperr.Conflict(op, "a submission with this idempotency key already exists")
		case errors.Is(err, repo.ErrNotFound):
			return model.PaymentSubmission{}, apperr.NotFound(op, "course not found")
		default:
			return model.PaymentSubmission{}, apperr.Persistence(op, err)
		}
	}

	if reservedKey != "" {
		if err := s.idempotency.Complete(ctx, reservedKey, sub.ID.String(), s.idempotencyTTL); err != nil {
			s.logger.Warn("idempotency complete failed", zap.String("key", reservedKey), zap.Error(err))
		}
	}

	s.logger.Info("payment submitted",
		zap.String("submission_id", sub.ID.String()),
		zap.String("user_id", sub.UserID.String()),
		zap.String("course_id", sub.CourseID.String()),
		zap.String("method", string(sub.PaymentMethod)),
	)
	return sub, nil
}

// replay resolves a repeated idempotency key to the submission it produced.
func (s *Service) replay(ctx context.Context, op, stored string) (model.PaymentSubmission, error) {
	if stored == "" {
		return model.PaymentSubmission{}, apperr.Conflict(op, "a submission with this idempotency key is in progress")
	}
	id, err := uuid.Parse(stored)
	if err != nil {
		return model.PaymentSubmission{}, apperr.Conflict(op, "idempotency key holds an unexpected value")
	}
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.PaymentSubmission{}, apperr.Conflict(op, "idempotency key refers to a missing submission")
		}
		return model.PaymentSubmission{}, apperr.Persistence(op, err)
	}
	return sub, nil
}

func (s *Service) LatestStatus(ctx context.Context, userID, courseID uuid.UUID) (LatestStatus, bool, error) {
	const op = "payments.latest_status"

	if userID == uuid.Nil || courseID == uuid.Nil {
		return LatestStatus{}, false, apperr.ValidationField(op, "course_id", "user and course are required")
	}
	if s.submissions == nil {
		return LatestStatus{}, false, apperr.Persistence(op, fmt.Errorf("submission store is not configured"))
	}

	sub, err := s.submissions.LatestSubmission(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LatestStatus{}, false, nil
		}
		return LatestStatus{}, false, apperr.Persistence(op, err)
	}
	return LatestStatus{
		SubmissionID:    sub.ID,
		Status:          sub.Status,
		RejectionReason: sub.RejectionReason,
		CreatedAt:       sub.CreatedAt,
	}, true, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.PaymentSubmission, error) {
	const op = "payments.get"

	if s.submissions == nil {
		return model.PaymentSubmission{}, apperr.Persistence(op, fmt.Errorf("submission store is not configured"))
	}
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.PaymentSubmission{}, apperr.NotFound(op, "submission not found")
		}
		return model.PaymentSubmission{}, apperr.Persistence(op, err)
	}
	return sub, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]model.SubmissionWithCourse, error) {
	const op = "payments.list"

	if s.submissions == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("submission store is not configured"))
	}

	var rf repo.SubmissionFilter
	problems := map[string]string{}
	if raw := strings.TrimSpace(filter.Status); raw != "" && raw != "all" {
		status, ok := enums.ParseSubmissionStatus(raw)
		if !ok {
			problems["status"] = "status must be one of pending, approved, rejected"
		}
		rf.Status = status
	}
	if raw := strings.TrimSpace(filter.Method); raw != "" && raw != "all" {
		method, ok := enums.ParsePaymentMethod(raw)
		if !ok {
			problems["method"] = "method must be one of kbz_pay, aya_pay, uab_pay"
		}
		rf.Method = method
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(op, problems)
	}
	rf.Search = strings.TrimSpace(filter.Search)

	items, err := s.submissions.ListSubmissions(ctx, rf)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return items, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	const op = "payments.stats"

	if s.submissions == nil {
		return Stats{}, apperr.Persistence(op, fmt.Errorf("submission store is not configured"))
	}
	counts, err := s.submissions.CountSubmissionsByStatus(ctx)
	if err != nil {
		return Stats{}, apperr.Persistence(op, err)
	}

	out := Stats{
		Pending:  counts[enums.SubmissionStatusPending],
		Approved: counts[enums.SubmissionStatusApproved],
		Rejected: counts[enums.SubmissionStatusRejected],
	}
	out.Total = out.Pending + out.Approved + out.Rejected
	return out, nil
}

// SignedSlipURL presigns a read of the slip object for reviewers.
func (s *Service) SignedSlipURL(ctx context.Context, slipKey string) (slips.SignedURL, error) {
	const op = "payments.signed_slip_url"

	if s.slips == nil {
		return slips.SignedURL{}, apperr.Storage(op, fmt.Errorf("slip storage is not configured"))
	}
	return s.slips.SignedURL(ctx, slipKey)
}

func (s *Service) SlipURLForSubmission(ctx context.Context, submissionID uuid.UUID) (slips.SignedURL, error) {
	sub, err := s.Get(ctx, submissionID)
	if err != nil {
		return slips.SignedURL{}, err
	}
	return s.SignedSlipURL(ctx, sub.SlipKey)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
