package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

type PaymentSubmission struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	CourseID        uuid.UUID              `json:"course_id"`
	StudentName     string                 `json:"student_name"`
	PhoneNumber     *string                `json:"phone_number,omitempty"`
	PaymentMethod   enums.PaymentMethod    `json:"payment_method"`
	TransactionID   *string                `json:"transaction_id,omitempty"`
	SlipKey         string                 `json:"slip_key"`
	CourseFee       int64                  `json:"course_fee"`
	Status          enums.SubmissionStatus `json:"status"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID             `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time             `json:"reviewed_at,omitempty"`
	IdempotencyKey  *string                `json:"-"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type SubmissionWithCourse struct {
	PaymentSubmission
	Course CourseSummary `json:"course"`
}
