package dto

import "time"

type LessonResponse struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"course_id"`
	Title      string    `json:"title"`
	Content    *string   `json:"content,omitempty"`
	VideoURL   *string   `json:"video_url,omitempty"`
	OrderIndex int       `json:"order_index"`
	Locked     bool      `json:"locked"`
	CreatedAt  time.Time `json:"created_at"`
}

type LessonsListResponse struct {
	Items []LessonResponse `json:"items"`
}

type CreateLessonRequest struct {
	Title      string  `json:"title"`
	Content    *string `json:"content"`
	VideoURL   *string `json:"video_url"`
	OrderIndex int     `json:"order_index"`
}

type UpdateLessonRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	VideoURL   *string `json:"video_url"`
	OrderIndex *int    `json:"order_index"`
}

type TeacherResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NameMM    *string   `json:"name_mm,omitempty"`
	Role      string    `json:"role"`
	PhotoURL  *string   `json:"photo_url,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type TeachersListResponse struct {
	Items []TeacherResponse `json:"items"`
}

type CreateTeacherRequest struct {
	Name     string  `json:"name"`
	NameMM   *string `json:"name_mm"`
	Role     string  `json:"role"`
	PhotoURL *string `json:"photo_url"`
	Bio      *string `json:"bio"`
}

type UpdateTeacherRequest struct {
	Name     *string `json:"name"`
	NameMM   *string `json:"name_mm"`
	Role     *string `json:"role"`
	PhotoURL *string `json:"photo_url"`
	Bio      *string `json:"bio"`
}
