package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/pkg/apperr"
	"github.com/ASK10520/codeplay-spark/internal/pkg/validate"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

type Store interface {
	CreateCourse(ctx context.Context, course model.Course) (model.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (model.Course, error)
	ListCourses(ctx context.Context, filter repo.CourseFilter) ([]model.Course, error)
	UpdateCourse(ctx context.Context, course model.Course) (model.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
}

// Actor is the caller of a catalog write.
type Actor struct {
	UserID  uuid.UUID
	Admin   bool
	Teacher bool
}

type Filter struct {
	Category   string
	AgeGroup   string
	Difficulty string
	Premium    *bool
	CreatedBy  *uuid.UUID
}

type CreateInput struct {
	Title        string  `json:"title" validate:"notblank,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=4000"`
	Category     string  `json:"category" validate:"notblank,max=64"`
	AgeGroup     string  `json:"age_group" validate:"notblank,max=32"`
	Difficulty   string  `json:"difficulty" validate:"notblank,max=32"`
	Grade        *string `json:"grade" validate:"omitempty,max=32"`
	TotalLessons int     `json:"total_lessons" validate:"gte=0,lte=500"`
	Price        int64   `json:"price" validate:"gte=0"`
	IsPremium    bool    `json:"is_premium"`
	Thumbnail    *string `json:"thumbnail" validate:"omitempty,url"`
}

// UpdateInput applies only the non-nil fields.
type UpdateInput struct {
	Title        *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=4000"`
	Category     *string `json:"category" validate:"omitempty,notblank,max=64"`
	AgeGroup     *string `json:"age_group" validate:"omitempty,notblank,max=32"`
	Difficulty   *string `json:"difficulty" validate:"omitempty,notblank,max=32"`
	Grade        *string `json:"grade" validate:"omitempty,max=32"`
	TotalLessons *int    `json:"total_lessons" validate:"omitempty,gte=0,lte=500"`
	Price        *int64  `json:"price" validate:"omitempty,gte=0"`
	IsPremium    *bool   `json:"is_premium"`
	Thumbnail    *string `json:"thumbnail" validate:"omitempty,url"`
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context, filter Filter) ([]model.Course, error) {
	const op = "courses.list"

	if s.store == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("course store is not configured"))
	}
	items, err := s.store.ListCourses(ctx, repo.CourseFilter{
		Category:   strings.TrimSpace(filter.Category),
		AgeGroup:   strings.TrimSpace(filter.AgeGroup),
		Difficulty: strings.TrimSpace(filter.Difficulty),
		Premium:    filter.Premium,
		CreatedBy:  filter.CreatedBy,
	})
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Course, error) {
	const op = "courses.get"

	if s.store == nil {
		return model.Course{}, apperr.Persistence(op, fmt.Errorf("course store is not configured"))
	}
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Course{}, apperr.NotFound(op, "course not found")
		}
		return model.Course{}, apperr.Persistence(op, err)
	}
	return course, nil
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (model.Course, error) {
	const op = "courses.create"

	if !actor.Admin && !actor.Teacher {
		return model.Course{}, apperr.Forbidden(op, "only teachers and admins can create courses")
	}
	if problems := validate.Struct(in); problems != nil {
		return model.Course{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Course{}, apperr.Persistence(op, fmt.Errorf("course store is not configured"))
	}

	owner := actor.UserID
	course, err := s.store.CreateCourse(ctx, model.Course{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Category:     strings.TrimSpace(in.Category),
		AgeGroup:     strings.TrimSpace(in.AgeGroup),
		Difficulty:   strings.TrimSpace(in.Difficulty),
		Grade:        in.Grade,
		TotalLessons: in.TotalLessons,
		Price:        in.Price,
		IsPremium:    in.IsPremium,
		Thumbnail:    in.Thumbnail,
		CreatedBy:    &owner,
	})
	if err != nil {
		return model.Course{}, apperr.Persistence(op, err)
	}
	return course, nil
}

func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, in UpdateInput) (model.Course, error) {
	const op = "courses.update"

	if problems := validate.Struct(in); problems != nil {
		return model.Course{}, apperr.Validation(op, problems)
	}
	course, err := s.owned(ctx, op, actor, id)
	if err != nil {
		return model.Course{}, err
	}

	if in.Title != nil {
		course.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		course.Description = in.Description
	}
	if in.Category != nil {
		course.Category = strings.TrimSpace(*in.Category)
	}
	if in.AgeGroup != nil {
		course.AgeGroup = strings.TrimSpace(*in.AgeGroup)
	}
	if in.Difficulty != nil {
		course.Difficulty = strings.TrimSpace(*in.Difficulty)
	}
	if in.Grade != nil {
		course.Grade = in.Grade
	}
	if in.TotalLessons != nil {
		course.TotalLessons = *in.TotalLessons
	}
	if in.Price != nil {
		course.Price = *in.Price
	}
	if in.IsPremium != nil {
		course.IsPremium = *in.IsPremium
	}
	if in.Thumbnail != nil {
		course.Thumbnail = in.Thumbnail
	}

	updated, err := s.store.UpdateCourse(ctx, course)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Course{}, apperr.NotFound(op, "course not found")
		}
		return model.Course{}, apperr.Persistence(op, err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	const op = "courses.delete"

	if _, err := s.owned(ctx, op, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return apperr.NotFound(op, "course not found")
		case errors.Is(err, repo.ErrReferenced):
			return apperr.Conflict(op, "course has submissions or enrollments")
		default:
			return apperr.Persistence(op, err)
		}
	}
	return nil
}

// owned loads a course the actor may modify: admins any, teachers their own.
func (s *Service) owned(ctx context.Context, op string, actor Actor, id uuid.UUID) (model.Course, error) {
	if !actor.Admin && !actor.Teacher {
		return model.Course{}, apperr.Forbidden(op, "only teachers and admins can modify courses")
	}
	if s.store == nil {
		return model.Course{}, apperr.Persistence(op, fmt.Errorf("course store is not configured"))
	}

	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Course{}, apperr.NotFound(op, "course not found")
		}
		return model.Course{}, apperr.Persistence(op, err)
	}
	if actor.Admin {
		return course, nil
	}
	if course.CreatedBy == nil || *course.CreatedBy != actor.UserID {
		return model.Course{}, apperr.Forbidden(op, "course belongs to another teacher")
	}
	return course, nil
}
