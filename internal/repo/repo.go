// Package repo declares the persistence contracts shared by the postgres and
// in-memory stores.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when a review loses the pending -> terminal race.
	ErrNotPending = errors.New("submission is not pending")
	ErrDuplicate  = errors.New("record already exists")
	// ErrReferenced is returned when a delete would orphan dependent rows.
	ErrReferenced = errors.New("record is still referenced")
)

type CourseFilter struct {
	Category   string
	AgeGroup   string
	Difficulty string
	Premium    *bool
	CreatedBy  *uuid.UUID
}

type SubmissionFilter struct {
	Status enums.SubmissionStatus
	Method enums.PaymentMethod
	// Search matches student name case-insensitively or phone number as a substring.
	Search string
}

type ReviewInput struct {
	SubmissionID    uuid.UUID
	Status          enums.SubmissionStatus
	ReviewerID      uuid.UUID
	RejectionReason *string
	ReviewedAt      time.Time
}

type StatusCounts map[enums.SubmissionStatus]int

type CourseStore interface {
	CreateCourse(ctx context.Context, course model.Course) (model.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (model.Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]model.Course, error)
	UpdateCourse(ctx context.Context, course model.Course) (model.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

type SubmissionStore interface {
	CreateSubmission(ctx context.Context, sub model.PaymentSubmission) (model.PaymentSubmission, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (model.PaymentSubmission, error)
	LatestSubmission(ctx context.Context, userID, courseID uuid.UUID) (model.PaymentSubmission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.SubmissionWithCourse, error)
	CountSubmissionsByStatus(ctx context.Context) (StatusCounts, error)
	// ReviewSubmission moves a pending submission to a terminal status. When the
	// submission is no longer pending it returns the current row and ErrNotPending.
	ReviewSubmission(ctx context.Context, in ReviewInput) (model.PaymentSubmission, error)
	ListApprovedWithoutEnrollment(ctx context.Context, limit int) ([]model.PaymentSubmission, error)
}

type EnrollmentStore interface {
	// UpsertEnrollment keeps a single row per (user, course); an existing row is
	// reactivated with the new payment status and its progress is preserved.
	UpsertEnrollment(ctx context.Context, enrollment model.Enrollment) (model.Enrollment, error)
	GetEnrollment(ctx context.Context, id uuid.UUID) (model.Enrollment, error)
	EnrollmentExists(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.EnrollmentWithCourse, error)
	UpdateEnrollmentProgress(ctx context.Context, id uuid.UUID, completedLessons, starsEarned int) (model.Enrollment, error)
}

type AuditStore interface {
	AppendAudit(ctx context.Context, entry model.AuditLogEntry) (model.AuditLogEntry, error)
	ListAuditBySubmission(ctx context.Context, submissionID uuid.UUID) ([]model.AuditLogEntry, error)
}

type LessonStore interface {
	// CreateLesson returns ErrNotFound for an unknown course and ErrDuplicate
	// when the course already has a lesson at that order index.
	CreateLesson(ctx context.Context, lesson model.Lesson) (model.Lesson, error)
	GetLesson(ctx context.Context, id uuid.UUID) (model.Lesson, error)
	// ListLessonsByCourse orders by order index.
	ListLessonsByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error)
	UpdateLesson(ctx context.Context, lesson model.Lesson) (model.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error
	// SyncLessonCount stores the course's lesson row count as its total_lessons.
	SyncLessonCount(ctx context.Context, courseID uuid.UUID) (int, error)
}

type TeacherStore interface {
	CreateTeacher(ctx context.Context, teacher model.Teacher) (model.Teacher, error)
	GetTeacher(ctx context.Context, id uuid.UUID) (model.Teacher, error)
	// ListTeachers orders oldest first.
	ListTeachers(ctx context.Context) ([]model.Teacher, error)
	UpdateTeacher(ctx context.Context, teacher model.Teacher) (model.Teacher, error)
	DeleteTeacher(ctx context.Context, id uuid.UUID) error
}

type Store interface {
	CourseStore
	LessonStore
	TeacherStore
	SubmissionStore
	EnrollmentStore
	AuditStore

	// WithinTx runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
