package model

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	Category     string     `json:"category"`
	AgeGroup     string     `json:"age_group"`
	Difficulty   string     `json:"difficulty"`
	Grade        *string    `json:"grade,omitempty"`
	TotalLessons int        `json:"total_lessons"`
	Price        int64      `json:"price"`
	IsPremium    bool       `json:"is_premium"`
	Thumbnail    *string    `json:"thumbnail,omitempty"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CourseSummary is the slice of a course joined onto submissions and enrollments.
type CourseSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Thumbnail    *string   `json:"thumbnail,omitempty"`
	TotalLessons int       `json:"total_lessons"`
	Category     string    `json:"category"`
	Difficulty   string    `json:"difficulty"`
}

func (c Course) Summary() CourseSummary {
	return CourseSummary{
		ID:           c.ID,
		Title:        c.Title,
		Thumbnail:    c.Thumbnail,
		TotalLessons: c.TotalLessons,
		Category:     c.Category,
		Difficulty:   c.Difficulty,
	}
}

// IsFree reports whether the course can be enrolled in without a payment review.
func (c Course) IsFree() bool {
	return !c.IsPremium && c.Price <= 0
}
