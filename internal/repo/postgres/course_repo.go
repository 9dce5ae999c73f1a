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

const courseColumns = `id, title, description, category, age_group, difficulty, grade,
	total_lessons, price, is_premium, thumbnail, created_by, created_at`

type CourseRepo struct {
	db DBTX
}

func NewCourseRepo(db DBTX) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) CreateCourse(ctx context.Context, course model.Course) (model.Course, error) {
	if r.db == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	created, err := scanCourse(r.db.QueryRow(ctx, `
INSERT INTO courses (
	title,
	description,
	category,
	age_group,
	difficulty,
	grade,
	total_lessons,
	price,
	is_premium,
	thumbnail,
	created_by,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
RETURNING `+courseColumns,
		course.Title,
		course.Description,
		course.Category,
		course.AgeGroup,
		course.Difficulty,
		course.Grade,
		course.TotalLessons,
		course.Price,
		course.IsPremium,
		course.Thumbnail,
		course.CreatedBy,
	))
	if err != nil {
		return model.Course{}, fmt.Errorf("create course: %w", err)
	}
	return created, nil
}

func (r *CourseRepo) GetCourse(ctx context.Context, id uuid.UUID) (model.Course, error) {
	if r.db == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	course, err := scanCourse(r.db.QueryRow(ctx, `
SELECT `+courseColumns+`
FROM courses
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, repo.ErrNotFound
		}
		return model.Course{}, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

func (r *CourseRepo) ListCourses(ctx context.Context, filter repo.CourseFilter) ([]model.Course, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT `+courseColumns+`
FROM courses
WHERE ($1::text = '' OR category = $1)
  AND ($2::text = '' OR age_group = $2)
  AND ($3::text = '' OR difficulty = $3)
  AND ($4::boolean IS NULL OR is_premium = $4)
  AND ($5::uuid IS NULL OR created_by = $5)
ORDER BY created_at DESC, id DESC
`, filter.Category, filter.AgeGroup, filter.Difficulty, filter.Premium, filter.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := make([]model.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func (r *CourseRepo) UpdateCourse(ctx context.Context, course model.Course) (model.Course, error) {
	if r.db == nil {
		return model.Course{}, fmt.Errorf("postgres pool is nil")
	}

	updated, err := scanCourse(r.db.QueryRow(ctx, `
UPDATE courses
SET
	title = $2,
	description = $3,
	category = $4,
	age_group = $5,
	difficulty = $6,
	grade = $7,
	total_lessons = $8,
	price = $9,
	is_premium = $10,
	thumbnail = $11
WHERE id = $1
RETURNING `+courseColumns,
		course.ID,
		course.Title,
		course.Description,
		course.Category,
		course.AgeGroup,
		course.Difficulty,
		course.Grade,
		course.TotalLessons,
		course.Price,
		course.IsPremium,
		course.Thumbnail,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Course{}, repo.ErrNotFound
		}
		return model.Course{}, fmt.Errorf("update course: %w", err)
	}
	return updated, nil
}

func (r *CourseRepo) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repo.ErrReferenced
		}
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func scanCourse(row rowScanner) (model.Course, error) {
	var c model.Course
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Category,
		&c.AgeGroup,
		&c.Difficulty,
		&c.Grade,
		&c.TotalLessons,
		&c.Price,
		&c.IsPremium,
		&c.Thumbnail,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	return c, err
}
