package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

type Store interface {
	AppendAudit(ctx context.Context, entry model.AuditLogEntry) (model.AuditLogEntry, error)
	ListAuditBySubmission(ctx context.Context, submissionID uuid.UUID) ([]model.AuditLogEntry, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

type RecordInput struct {
	SubmissionID uuid.UUID
	Action       enums.AuditAction
	PerformedBy  uuid.UUID
	Details      string
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Record appends one entry. Entries are never updated or removed.
func (s *Service) Record(ctx context.Context, in RecordInput) (model.AuditLogEntry, error) {
	const op = "audit.record"

	if in.SubmissionID == uuid.Nil || in.PerformedBy == uuid.Nil {
		return model.AuditLogEntry{}, apperr.ValidationField(op, "submission_id", "submission and actor are required")
	}
	if in.Action != enums.AuditActionApproved && in.Action != enums.AuditActionRejected {
		return model.AuditLogEntry{}, apperr.ValidationField(op, "action", "unknown audit action")
	}
	if s.store == nil {
		return model.AuditLogEntry{}, apperr.Persistence(op, fmt.Errorf("audit store is not configured"))
	}

	entry, err := s.store.AppendAudit(ctx, model.AuditLogEntry{
		SubmissionID: in.SubmissionID,
		Action:       in.Action,
		PerformedBy:  in.PerformedBy,
		Details:      in.Details,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.AuditLogEntry{}, apperr.NotFound(op, "submission not found")
		}
		return model.AuditLogEntry{}, apperr.Persistence(op, err)
	}
	return entry, nil
}

func (s *Service) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]model.AuditLogEntry, error) {
	const op = "audit.list"

	if submissionID == uuid.Nil {
		return nil, apperr.ValidationField(op, "submission_id", "submission id is required")
	}
	if s.store == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("audit store is not configured"))
	}

	entries, err := s.store.ListAuditBySubmission(ctx, submissionID)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return entries, nil
}
