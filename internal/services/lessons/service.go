// Package lessons serves a course's ordered lessons and locks the ones past
// the free preview for viewers without an enrollment.
package lessons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/domain/rules"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/pkg/validate"
	"github.com/ASK10520/codeplay-spark/internal/repo"
	coursesvc "github.com/ASK10520/codeplay-spark/internal/services/courses"
)

// View is a lesson as one viewer sees it. Locked lessons carry no content.
type View struct {
	model.Lesson
	Locked bool
}

type CreateInput struct {
	Title      string  `json:"title" validate:"notblank,max=200"`
	Content    *string `json:"content" validate:"omitempty,max=20000"`
	VideoURL   *string `json:"video_url" validate:"omitempty,url"`
	OrderIndex int     `json:"order_index" validate:"gte=0,lte=500"`
}

// UpdateInput applies only the non-nil fields.
type UpdateInput struct {
	Title      *string `json:"title" validate:"omitempty,notblank,max=200"`
	Content    *string `json:"content" validate:"omitempty,max=20000"`
	VideoURL   *string `json:"video_url" validate:"omitempty,url"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,gte=0,lte=500"`
}

type Service struct {
	store repo.Store
}

func NewService(store repo.Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, viewer coursesvc.Actor, courseID uuid.UUID) ([]View, error) {
	const op = "lessons.list"

	if s.store == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("lesson store is not configured"))
	}
	course, err := s.course(ctx, op, courseID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	enrolled, err := s.unlocked(ctx, viewer, course, len(items))
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	views := make([]View, 0, len(items))
	for i, lesson := range items {
		views = append(views, view(lesson, !rules.CanAccessLesson(i, enrolled)))
	}
	return views, nil
}

// Get returns one lesson. A locked lesson is forbidden rather than redacted.
func (s *Service) Get(ctx context.Context, viewer coursesvc.Actor, id uuid.UUID) (model.Lesson, error) {
	const op = "lessons.get"

	if s.store == nil {
		return model.Lesson{}, apperr.Persistence(op, fmt.Errorf("lesson store is not configured"))
	}
	lesson, err := s.lesson(ctx, op, id)
	if err != nil {
		return model.Lesson{}, err
	}
	course, err := s.course(ctx, op, lesson.CourseID)
	if err != nil {
		return model.Lesson{}, err
	}
	siblings, err := s.store.ListLessonsByCourse(ctx, lesson.CourseID)
	if err != nil {
		return model.Lesson{}, apperr.Persistence(op, err)
	}

	position := 0
	for i, l := range siblings {
		if l.ID == lesson.ID {
			position = i
			break
		}
	}
	if rules.IsPreviewLesson(position) {
		return lesson, nil
	}
	enrolled, err := s.unlocked(ctx, viewer, course, position+1)
	if err != nil {
		return model.Lesson{}, apperr.Persistence(op, err)
	}
	if !rules.CanAccessLesson(position, enrolled) {
		return model.Lesson{}, apperr.Forbidden(op, "enroll in the course to open this lesson")
	}
	return lesson, nil
}

func (s *Service) Create(ctx context.Context, actor coursesvc.Actor, courseID uuid.UUID, in CreateInput) (model.Lesson, error) {
	const op = "lessons.create"

	if problems := validate.Struct(in); problems != nil {
		return model.Lesson{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Lesson{}, apperr.Persistence(op, fmt.Errorf("lesson store is not configured"))
	}

	var created model.Lesson
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Store) error {
		if _, err := authored(ctx, tx, op, actor, courseID); err != nil {
			return err
		}
		lesson, err := tx.CreateLesson(ctx, model.Lesson{
			CourseID:   courseID,
			Title:      strings.TrimSpace(in.Title),
			Content:    in.Content,
			VideoURL:   in.VideoURL,
			OrderIndex: in.OrderIndex,
		})
		if err != nil {
			return writeError(op, err)
		}
		if _, err := tx.SyncLessonCount(ctx, courseID); err != nil {
			return apperr.Persistence(op, err)
		}
		created = lesson
		return nil
	})
	if err != nil {
		return model.Lesson{}, passThrough(op, err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, actor coursesvc.Actor, id uuid.UUID, in UpdateInput) (model.Lesson, error) {
	const op = "lessons.update"

	if problems := validate.Struct(in); problems != nil {
		return model.Lesson{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Lesson{}, apperr.Persistence(op, fmt.Errorf("lesson store is not configured"))
	}
	lesson, err := s.lesson(ctx, op, id)
	if err != nil {
		return model.Lesson{}, err
	}
	if _, err := authored(ctx, s.store, op, actor, lesson.CourseID); err != nil {
		return model.Lesson{}, err
	}

	if in.Title != nil {
		lesson.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		lesson.Content = in.Content
	}
	if in.VideoURL != nil {
		lesson.VideoURL = in.VideoURL
	}
	if in.OrderIndex != nil {
		lesson.OrderIndex = *in.OrderIndex
	}

	updated, err := s.store.UpdateLesson(ctx, lesson)
	if err != nil {
		return model.Lesson{}, writeError(op, err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor coursesvc.Actor, id uuid.UUID) error {
	const op = "lessons.delete"

	if s.store == nil {
		return apperr.Persistence(op, fmt.Errorf("lesson store is not configured"))
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repo.Store) error {
		lesson, err := tx.GetLesson(ctx, id)
		if err != nil {
			return writeError(op, err)
		}
		if _, err := authored(ctx, tx, op, actor, lesson.CourseID); err != nil {
			return err
		}
		if err := tx.DeleteLesson(ctx, id); err != nil {
			return writeError(op, err)
		}
		if _, err := tx.SyncLessonCount(ctx, lesson.CourseID); err != nil {
			return apperr.Persistence(op, err)
		}
		return nil
	})
	return passThrough(op, err)
}

// unlocked reports whether the viewer sees every lesson: authors always do,
// others need an enrollment. The lookup is skipped when only preview lessons
// are involved.
func (s *Service) unlocked(ctx context.Context, viewer coursesvc.Actor, course model.Course, count int) (bool, error) {
	if isAuthor(viewer, course) {
		return true, nil
	}
	if count <= rules.FreePreviewLessons || viewer.UserID == uuid.Nil {
		return false, nil
	}
	return s.store.EnrollmentExists(ctx, viewer.UserID, course.ID)
}

func (s *Service) course(ctx context.Context, op string, id uuid.UUID) (model.Course, error) {
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Course{}, apperr.NotFound(op, "course not found")
		}
		return model.Course{}, apperr.Persistence(op, err)
	}
	return course, nil
}

func (s *Service) lesson(ctx context.Context, op string, id uuid.UUID) (model.Lesson, error) {
	lesson, err := s.store.GetLesson(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Lesson{}, apperr.NotFound(op, "lesson not found")
		}
		return model.Lesson{}, apperr.Persistence(op, err)
	}
	return lesson, nil
}

// authored loads a course the actor may edit lessons of.
func authored(ctx context.Context, store repo.CourseStore, op string, actor coursesvc.Actor, courseID uuid.UUID) (model.Course, error) {
	if !actor.Admin && !actor.Teacher {
		return model.Course{}, apperr.Forbidden(op, "only teachers and admins can edit lessons")
	}
	course, err := store.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Course{}, apperr.NotFound(op, "course not found")
		}
		return model.Course{}, apperr.Persistence(op, err)
	}
	if !isAuthor(actor, course) {
		return model.Course{}, apperr.Forbidden(op, "course belongs to another teacher")
	}
	return course, nil
}

func isAuthor(actor coursesvc.Actor, course model.Course) bool {
	if actor.Admin {
		return true
	}
	return actor.Teacher && course.CreatedBy != nil && *course.CreatedBy == actor.UserID
}

func view(lesson model.Lesson, locked bool) View {
	if locked {
		lesson.Content = nil
		lesson.VideoURL = nil
	}
	return View{Lesson: lesson, Locked: locked}
}

func writeError(op string, err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return apperr.NotFound(op, "lesson not found")
	case errors.Is(err, repo.ErrDuplicate):
		return apperr.Conflict(op, "order index is already used in this course")
	default:
		return apperr.Persistence(op, err)
	}
}

// passThrough keeps typed errors from the transaction body and wraps the rest.
func passThrough(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Persistence(op, err)
}
