package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

type AuditLogEntry struct {
	ID           uuid.UUID         `json:"id"`
	SubmissionID uuid.UUID         `json:"submission_id"`
	Action       enums.AuditAction `json:"action"`
	PerformedBy  uuid.UUID         `json:"performed_by"`
	Details      string            `json:"details"`
	CreatedAt    time.Time         `json:"created_at"`
}
