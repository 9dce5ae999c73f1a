package dto

import "time"

type CourseResponse struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Category     string    `json:"category"`
	AgeGroup     string    `json:"age_group"`
	Difficulty   string    `json:"difficulty"`
	Grade        *string   `json:"grade,omitempty"`
	TotalLessons int       `json:"total_lessons"`
	Price        int64     `json:"price"`
	IsPremium    bool      `json:"is_premium"`
	Thumbnail    *string   `json:"thumbnail,omitempty"`
	CreatedBy    *string   `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CoursesListResponse struct {
	Items []CourseResponse `json:"items"`
}

type CreateCourseRequest struct {
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	Category     string  `json:"category"`
	AgeGroup     string  `json:"age_group"`
	Difficulty   string  `json:"difficulty"`
	Grade        *string `json:"grade"`
	TotalLessons int     `json:"total_lessons"`
	Price        int64   `json:"price"`
	IsPremium    bool    `json:"is_premium"`
	Thumbnail    *string `json:"thumbnail"`
}

type UpdateCourseRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	AgeGroup     *string `json:"age_group"`
	Difficulty   *string `json:"difficulty"`
	Grade        *string `json:"grade"`
	TotalLessons *int    `json:"total_lessons"`
	Price        *int64  `json:"price"`
	IsPremium    *bool   `json:"is_premium"`
	Thumbnail    *string `json:"thumbnail"`
}

type LessonAccessResponse struct {
	Allowed bool `json:"allowed"`
}
