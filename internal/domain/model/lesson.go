package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is one unit of a course. Lessons are shown in OrderIndex order.
type Lesson struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	Title      string    `json:"title"`
	Content    *string   `json:"content,omitempty"`
	VideoURL   *string   `json:"video_url,omitempty"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}
