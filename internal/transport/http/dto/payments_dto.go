package dto

import "time"

type CourseSummaryResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Thumbnail    *string `json:"thumbnail,omitempty"`
	TotalLessons int     `json:"total_lessons"`
	Category     string  `json:"category"`
	Difficulty   string  `json:"difficulty"`
}

type PaymentSubmissionResponse struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	CourseID        string                 `json:"course_id"`
	StudentName     string                 `json:"student_name"`
	PhoneNumber     *string                `json:"phone_number,omitempty"`
	PaymentMethod   string                 `json:"payment_method"`
	TransactionID   *string                `json:"transaction_id,omitempty"`
	SlipKey         string                 `json:"slip_key"`
	CourseFee       int64                  `json:"course_fee"`
	Status          string                 `json:"status"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	ReviewedBy      *string                `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time             `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	Course          *CourseSummaryResponse `json:"course,omitempty"`
}

type PaymentSubmissionsListResponse struct {
	Items []PaymentSubmissionResponse `json:"items"`
}

type PaymentStatusResponse struct {
	Status          string  `json:"status"`
	SubmissionID    *string `json:"submission_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type PaymentStatsResponse struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

type RejectPaymentRequest struct {
	Reason *string `json:"reason"`
}

type ApprovePaymentResponse struct {
	Submission PaymentSubmissionResponse `json:"submission"`
	Enrollment EnrollmentResponse        `json:"enrollment"`
}

type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuditEntryResponse struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Action       string    `json:"action"`
	PerformedBy  string    `json:"performed_by"`
	Details      string    `json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditTrailResponse struct {
	Items []AuditEntryResponse `json:"items"`
}
