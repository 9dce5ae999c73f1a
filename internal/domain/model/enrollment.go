package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
)

type Enrollment struct {
	ID               uuid.UUID                     `json:"id"`
	UserID           uuid.UUID                     `json:"user_id"`
	CourseID         uuid.UUID                     `json:"course_id"`
	ChildName        string                        `json:"child_name"`
	ChildAge         int                           `json:"child_age"`
	ParentName       string                        `json:"parent_name"`
	ParentEmail      string                        `json:"parent_email"`
	PaymentStatus    enums.EnrollmentPaymentStatus `json:"payment_status"`
	CompletedLessons int                           `json:"completed_lessons"`
	StarsEarned      int                           `json:"stars_earned"`
	EnrolledAt       time.Time                     `json:"enrolled_at"`
}

type EnrollmentWithCourse struct {
	Enrollment
	Course CourseSummary `json:"course"`
}
