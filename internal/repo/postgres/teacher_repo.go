package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

const teacherColumns = `id, name, name_mm, role, photo_url, bio, created_at`

type TeacherRepo struct {
	db DBTX
}

func NewTeacherRepo(db DBTX) *TeacherRepo {
	return &TeacherRepo{db: db}
}

func (r *TeacherRepo) CreateTeacher(ctx context.Context, teacher model.Teacher) (model.Teacher, error) {
	if r.db == nil {
		return model.Teacher{}, fmt.Errorf("postgres pool is nil")
	}

	created, err := scanTeacher(r.db.QueryRow(ctx, `
INSERT INTO teachers (name, name_mm, role, photo_url, bio, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING `+teacherColumns,
		teacher.Name,
		teacher.NameMM,
		teacher.Role,
		teacher.PhotoURL,
		teacher.Bio,
	))
	if err != nil {
		return model.Teacher{}, fmt.Errorf("create teacher: %w", err)
	}
	return created, nil
}

func (r *TeacherRepo) GetTeacher(ctx context.Context, id uuid.UUID) (model.Teacher, error) {
	if r.db == nil {
		return model.Teacher{}, fmt.Errorf("postgres pool is nil")
	}

	teacher, err := scanTeacher(r.db.QueryRow(ctx, `
SELECT `+teacherColumns+`
FROM teachers
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Teacher{}, repo.ErrNotFound
		}
		return model.Teacher{}, fmt.Errorf("get teacher: %w", err)
	}
	return teacher, nil
}

func (r *TeacherRepo) ListTeachers(ctx context.Context) ([]model.Teacher, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT `+teacherColumns+`
FROM teachers
ORDER BY created_at ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]model.Teacher, 0)
	for rows.Next() {
		teacher, err := scanTeacher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}
	return teachers, nil
}

func (r *TeacherRepo) UpdateTeacher(ctx context.Context, teacher model.Teacher) (model.Teacher, error) {
	if r.db == nil {
		return model.Teacher{}, fmt.Errorf("postgres pool is nil")
	}

	updated, err := scanTeacher(r.db.QueryRow(ctx, `
UPDATE teachers
SET
	name = $2,
	name_mm = $3,
	role = $4,
	photo_url = $5,
	bio = $6
WHERE id = $1
RETURNING `+teacherColumns,
		teacher.ID,
		teacher.Name,
		teacher.NameMM,
		teacher.Role,
		teacher.PhotoURL,
		teacher.Bio,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Teacher{}, repo.ErrNotFound
		}
		return model.Teacher{}, fmt.Errorf("update teacher: %w", err)
	}
	return updated, nil
}

func (r *TeacherRepo) DeleteTeacher(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanTeacher(row rowScanner) (model.Teacher, error) {
	var t model.Teacher
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.NameMM,
		&t.Role,
		&t.PhotoURL,
		&t.Bio,
		&t.CreatedAt,
	)
	return t, err
}
