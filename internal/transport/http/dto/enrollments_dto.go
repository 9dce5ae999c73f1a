package dto

import "time"

type EnrollmentResponse struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	CourseID         string                 `json:"course_id"`
	ChildName        string                 `json:"child_name"`
	ChildAge         int                    `json:"child_age"`
	ParentName       string                 `json:"parent_name"`
	ParentEmail      string                 `json:"parent_email,omitempty"`
	PaymentStatus    string                 `json:"payment_status"`
	CompletedLessons int                    `json:"completed_lessons"`
	StarsEarned      int                    `json:"stars_earned"`
	EnrolledAt       time.Time              `json:"enrolled_at"`
	Course           *CourseSummaryResponse `json:"course,omitempty"`
}

type EnrollmentsListResponse struct {
	Items []EnrollmentResponse `json:"items"`
}

type FreeEnrollRequest struct {
	CourseID    string `json:"course_id"`
	ChildName   string `json:"child_name"`
	ChildAge    int    `json:"child_age"`
	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email"`
}

type UpdateProgressRequest struct {
	CompletedLessons int `json:"completed_lessons"`
	StarsEarned      int `json:"stars_earned"`
}
