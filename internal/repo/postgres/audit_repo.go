package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

type AuditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) AppendAudit(ctx context.Context, entry model.AuditLogEntry) (model.AuditLogEntry, error) {
	if r.db == nil {
		return model.AuditLogEntry{}, fmt.Errorf("postgres pool is nil")
	}

	var saved model.AuditLogEntry
	err := r.db.QueryRow(ctx, `
INSERT INTO payment_audit_log (
	submission_id,
	action,
	performed_by,
	details,
	created_at
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, submission_id, action, performed_by, details, created_at
`, entry.SubmissionID, string(entry.Action), entry.PerformedBy, entry.Details, entry.CreatedAt).Scan(
		&saved.ID,
		&saved.SubmissionID,
		&saved.Action,
		&saved.PerformedBy,
		&saved.Details,
		&saved.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.AuditLogEntry{}, repo.ErrNotFound
		}
		return model.AuditLogEntry{}, fmt.Errorf("append audit entry: %w", err)
	}
	return saved, nil
}

func (r *AuditRepo) ListAuditBySubmission(ctx context.Context, submissionID uuid.UUID) ([]model.AuditLogEntry, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT id, submission_id, action, performed_by, details, created_at
FROM payment_audit_log
WHERE submission_id = $1
ORDER BY created_at ASC, id ASC
`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		var entry model.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SubmissionID,
			&entry.Action,
			&entry.PerformedBy,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
