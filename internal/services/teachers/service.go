// Package teachers manages the public teacher directory. Reads are open;
// writes are for admins.
package teachers

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

type CreateInput struct {
	Name     string  `json:"name" validate:"notblank,max=200"`
	NameMM   *string `json:"name_mm" validate:"omitempty,max=200"`
	Role     string  `json:"role" validate:"notblank,max=100"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,url"`
	Bio      *string `json:"bio" validate:"omitempty,max=4000"`
}

// UpdateInput applies only the non-nil fields.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=200"`
	NameMM   *string `json:"name_mm" validate:"omitempty,max=200"`
	Role     *string `json:"role" validate:"omitempty,notblank,max=100"`
	PhotoURL *string `json:"photo_url" validate:"omitempty,url"`
	Bio      *string `json:"bio" validate:"omitempty,max=4000"`
}

type Service struct {
	store repo.TeacherStore
}

func NewService(store repo.TeacherStore) *Service {
	return &Service{store: store}
}

func (s *Service) List(ctx context.Context) ([]model.Teacher, error) {
	const op = "teachers.list"

	if s.store == nil {
		return nil, apperr.Persistence(op, fmt.Errorf("teacher store is not configured"))
	}
	items, err := s.store.ListTeachers(ctx)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Teacher, error) {
	const op = "teachers.get"

	if s.store == nil {
		return model.Teacher{}, apperr.Persistence(op, fmt.Errorf("teacher store is not configured"))
	}
	teacher, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return model.Teacher{}, lookupError(op, err)
	}
	return teacher, nil
}

func (s *Service) Create(ctx context.Context, admin bool, in CreateInput) (model.Teacher, error) {
	const op = "teachers.create"

	if !admin {
		return model.Teacher{}, apperr.Forbidden(op, "only admins can edit the teacher directory")
	}
	if problems := validate.Struct(in); problems != nil {
		return model.Teacher{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Teacher{}, apperr.Persistence(op, fmt.Errorf("teacher store is not configured"))
	}

	teacher, err := s.store.CreateTeacher(ctx, model.Teacher{
		Name:     strings.TrimSpace(in.Name),
		NameMM:   in.NameMM,
		Role:     strings.TrimSpace(in.Role),
		PhotoURL: in.PhotoURL,
		Bio:      in.Bio,
	})
	if err != nil {
		return model.Teacher{}, apperr.Persistence(op, err)
	}
	return teacher, nil
}

func (s *Service) Update(ctx context.Context, admin bool, id uuid.UUID, in UpdateInput) (model.Teacher, error) {
	const op = "teachers.update"

	if !admin {
		return model.Teacher{}, apperr.Forbidden(op, "only admins can edit the teacher directory")
	}
	if problems := validate.Struct(in); problems != nil {
		return model.Teacher{}, apperr.Validation(op, problems)
	}
	if s.store == nil {
		return model.Teacher{}, apperr.Persistence(op, fmt.Errorf("teacher store is not configured"))
	}

	teacher, err := s.store.GetTeacher(ctx, id)
	if err != nil {
		return model.Teacher{}, lookupError(op, err)
	}
	if in.Name != nil {
		teacher.Name = strings.TrimSpace(*in.Name)
	}
	if in.NameMM != nil {
		teacher.NameMM = in.NameMM
	}
	if in.Role != nil {
		teacher.Role = strings.TrimSpace(*in.Role)
	}
	if in.PhotoURL != nil {
		teacher.PhotoURL = in.PhotoURL
	}
	if in.Bio != nil {
		teacher.Bio = in.Bio
	}

	updated, err := s.store.UpdateTeacher(ctx, teacher)
	if err != nil {
		return model.Teacher{}, lookupError(op, err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, admin bool, id uuid.UUID) error {
	const op = "teachers.delete"

	if !admin {
		return apperr.Forbidden(op, "only admins can edit the teacher directory")
	}
	if s.store == nil {
		return apperr.Persistence(op, fmt.Errorf("teacher store is not configured"))
	}
	if err := s.store.DeleteTeacher(ctx, id); err != nil {
		return lookupError(op, err)
	}
	return nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(op, "teacher not found")
	}
	return apperr.Persistence(op, err)
}
