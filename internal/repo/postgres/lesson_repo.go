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

const lessonColumns = `id, course_id, title, content, video_url, order_index, created_at`

type LessonRepo struct {
	db DBTX
}

func NewLessonRepo(db DBTX) *LessonRepo {
	return &LessonRepo{db: db}
}

func (r *LessonRepo) CreateLesson(ctx context.Context, lesson model.Lesson) (model.Lesson, error) {
	if r.db == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	created, err := scanLesson(r.db.QueryRow(ctx, `
INSERT INTO lessons (
	course_id,
	title,
	content,
	video_url,
	order_index,
	created_at
) VALUES ($1, $2, $3, $4, $5, NOW())
RETURNING `+lessonColumns,
		lesson.CourseID,
		lesson.Title,
		lesson.Content,
		lesson.VideoURL,
		lesson.OrderIndex,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return model.Lesson{}, repo.ErrDuplicate
		case isForeignKeyViolation(err):
			return model.Lesson{}, repo.ErrNotFound
		}
		return model.Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	return created, nil
}

func (r *LessonRepo) GetLesson(ctx context.Context, id uuid.UUID) (model.Lesson, error) {
	if r.db == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	lesson, err := scanLesson(r.db.QueryRow(ctx, `
SELECT `+lessonColumns+`
FROM lessons
WHERE id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lesson{}, repo.ErrNotFound
		}
		return model.Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}

func (r *LessonRepo) ListLessonsByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT `+lessonColumns+`
FROM lessons
WHERE course_id = $1
ORDER BY order_index ASC
`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]model.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return lessons, nil
}

func (r *LessonRepo) UpdateLesson(ctx context.Context, lesson model.Lesson) (model.Lesson, error) {
	if r.db == nil {
		return model.Lesson{}, fmt.Errorf("postgres pool is nil")
	}

	updated, err := scanLesson(r.db.QueryRow(ctx, `
UPDATE lessons
SET
	title = $2,
	content = $3,
	video_url = $4,
	order_index = $5
WHERE id = $1
RETURNING `+lessonColumns,
		lesson.ID,
		lesson.Title,
		lesson.Content,
		lesson.VideoURL,
		lesson.OrderIndex,
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return model.Lesson{}, repo.ErrNotFound
		case isUniqueViolation(err):
			return model.Lesson{}, repo.ErrDuplicate
		}
		return model.Lesson{}, fmt.Errorf("update lesson: %w", err)
	}
	return updated, nil
}

func (r *LessonRepo) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *LessonRepo) SyncLessonCount(ctx context.Context, courseID uuid.UUID) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var total int
	err := r.db.QueryRow(ctx, `
UPDATE courses
SET total_lessons = (SELECT COUNT(*) FROM lessons WHERE course_id = $1)
WHERE id = $1
RETURNING total_lessons
`, courseID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repo.ErrNotFound
		}
		return 0, fmt.Errorf("sync lesson count: %w", err)
	}
	return total, nil
}

func scanLesson(row rowScanner) (model.Lesson, error) {
	var l model.Lesson
	err := row.Scan(
		&l.ID,
		&l.CourseID,
		&l.Title,
		&l.Content,
		&l.VideoURL,
		&l.OrderIndex,
		&l.CreatedAt,
	)
	return l, err
}
