package handlers

import (
	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/transport/http/dto"
)

func toCourseSummary(c model.CourseSummary) *dto.CourseSummaryResponse {
	return &dto.CourseSummaryResponse{
		ID:           c.ID.String(),
		Title:        c.Title,
		Thumbnail:    c.Thumbnail,
		TotalLessons: c.TotalLessons,
		Category:     c.Category,
		Difficulty:   c.Difficulty,
	}
}

func toSubmission(s model.PaymentSubmission) dto.PaymentSubmissionResponse {
	return dto.PaymentSubmissionResponse{
		ID:              s.ID.String(),
		UserID:          s.UserID.String(),
		CourseID:        s.CourseID.String(),
		StudentName:     s.StudentName,
		PhoneNumber:     s.PhoneNumber,
		PaymentMethod:   string(s.PaymentMethod),
		TransactionID:   s.TransactionID,
		SlipKey:         s.SlipKey,
		CourseFee:       s.CourseFee,
		Status:          string(s.Status),
		RejectionReason: s.RejectionReason,
		ReviewedBy:      uuidString(s.ReviewedBy),
		ReviewedAt:      s.ReviewedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toEnrollment(e model.Enrollment) dto.EnrollmentResponse {
	return dto.EnrollmentResponse{
		ID:               e.ID.String(),
		UserID:           e.UserID.String(),
		CourseID:         e.CourseID.String(),
		ChildName:        e.ChildName,
		ChildAge:         e.ChildAge,
		ParentName:       e.ParentName,
		ParentEmail:      e.ParentEmail,
		PaymentStatus:    string(e.PaymentStatus),
		CompletedLessons: e.CompletedLessons,
		StarsEarned:      e.StarsEarned,
		EnrolledAt:       e.EnrolledAt,
	}
}

func toCourse(c model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           c.ID.String(),
		Title:        c.Title,
		Description:  c.Description,
		Category:     c.Category,
		AgeGroup:     c.AgeGroup,
		Difficulty:   c.Difficulty,
		Grade:        c.Grade,
		TotalLessons: c.TotalLessons,
		Price:        c.Price,
		IsPremium:    c.IsPremium,
		Thumbnail:    c.Thumbnail,
		CreatedBy:    uuidString(c.CreatedBy),
		CreatedAt:    c.CreatedAt,
	}
}

func toAuditEntry(e model.AuditLogEntry) dto.AuditEntryResponse {
	return dto.AuditEntryResponse{
		ID:           e.ID.String(),
		SubmissionID: e.SubmissionID.String(),
		Action:       string(e.Action),
		PerformedBy:  e.PerformedBy.String(),
		Details:      e.Details,
		CreatedAt:    e.CreatedAt,
	}
}

func toLesson(l model.Lesson, locked bool) dto.LessonResponse {
	return dto.LessonResponse{
		ID:         l.ID.String(),
		CourseID:   l.CourseID.String(),
		Title:      l.Title,
		Content:    l.Content,
		VideoURL:   l.VideoURL,
		OrderIndex: l.OrderIndex,
		Locked:     locked,
		CreatedAt:  l.CreatedAt,
	}
}

func toTeacher(t model.Teacher) dto.TeacherResponse {
	return dto.TeacherResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		NameMM:    t.NameMM,
		Role:      t.Role,
		PhotoURL:  t.PhotoURL,
		Bio:       t.Bio,
		CreatedAt: t.CreatedAt,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
