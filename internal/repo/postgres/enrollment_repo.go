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

const enrollmentColumns = `e.id, e.user_id, e.course_id, e.child_name, e.child_age, e.parent_name,
	e.parent_email, e.payment_status, e.completed_lessons, e.stars_earned, e.enrolled_at`

type EnrollmentRepo struct {
	db DBTX
}

func NewEnrollmentRepo(db DBTX) *EnrollmentRepo {
	return &EnrollmentRepo{db: db}
}

func (r *EnrollmentRepo) UpsertEnrollment(ctx context.Context, enrollment model.Enrollment) (model.Enrollment, error) {
	if r.db == nil {
		return model.Enrollment{}, fmt.Errorf("postgres pool is nil")
	}

	// a paid enrollment is never downgraded by a later free enroll
	saved, err := scanEnrollment(r.db.QueryRow(ctx, `
INSERT INTO enrollments AS e (
	user_id,
	course_id,
	child_name,
	child_age,
	parent_name,
	parent_email,
	payment_status,
	enrolled_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, course_id) DO UPDATE
SET payment_status = CASE
	WHEN e.payment_status = 'paid' THEN e.payment_status
	ELSE EXCLUDED.payment_status
END
RETURNING `+enrollmentColumns,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.ChildName,
		enrollment.ChildAge,
		enrollment.ParentName,
		enrollment.ParentEmail,
		string(enrollment.PaymentStatus),
		enrollment.EnrolledAt,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Enrollment{}, repo.ErrNotFound
		}
		return model.Enrollment{}, fmt.Errorf("upsert enrollment: %w", err)
	}
	return saved, nil
}

func (r *EnrollmentRepo) GetEnrollment(ctx context.Context, id uuid.UUID) (model.Enrollment, error) {
	if r.db == nil {
		return model.Enrollment{}, fmt.Errorf("postgres pool is nil")
	}

	enrollment, err := scanEnrollment(r.db.QueryRow(ctx, `
SELECT `+enrollmentColumns+`
FROM enrollments e
WHERE e.id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Enrollment{}, repo.ErrNotFound
		}
		return model.Enrollment{}, fmt.Errorf("get enrollment: %w", err)
	}
	return enrollment, nil
}

func (r *EnrollmentRepo) EnrollmentExists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM enrollments
	WHERE user_id = $1
	  AND course_id = $2
)
`, userID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

func (r *EnrollmentRepo) ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]model.EnrollmentWithCourse, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT `+enrollmentColumns+`,
	c.id, c.title, c.thumbnail, c.total_lessons, c.category, c.difficulty
FROM enrollments e
JOIN courses c ON c.id = e.course_id
WHERE e.user_id = $1
ORDER BY e.enrolled_at DESC, e.id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	items := make([]model.EnrollmentWithCourse, 0)
	for rows.Next() {
		var item model.EnrollmentWithCourse
		if err := rows.Scan(append(enrollmentDest(&item.Enrollment),
			&item.Course.ID,
			&item.Course.Title,
			&item.Course.Thumbnail,
			&item.Course.TotalLessons,
			&item.Course.Category,
			&item.Course.Difficulty,
		)...); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}
	return items, nil
}

func (r *EnrollmentRepo) UpdateEnrollmentProgress(ctx context.Context, id uuid.UUID, completedLessons, starsEarned int) (model.Enrollment, error) {
	if r.db == nil {
		return model.Enrollment{}, fmt.Errorf("postgres pool is nil")
	}

	updated, err := scanEnrollment(r.db.QueryRow(ctx, `
UPDATE enrollments AS e
SET
	completed_lessons = $2,
	stars_earned = $3
WHERE e.id = $1
RETURNING `+enrollmentColumns, id, completedLessons, starsEarned))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Enrollment{}, repo.ErrNotFound
		}
		return model.Enrollment{}, fmt.Errorf("update enrollment progress: %w", err)
	}
	return updated, nil
}

func enrollmentDest(e *model.Enrollment) []any {
	return []any{
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.ChildName,
		&e.ChildAge,
		&e.ParentName,
		&e.ParentEmail,
		&e.PaymentStatus,
		&e.CompletedLessons,
		&e.StarsEarned,
		&e.EnrolledAt,
	}
}

func scanEnrollment(row rowScanner) (model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(enrollmentDest(&e)...)
	return e, err
}
