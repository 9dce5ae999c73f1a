package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

const submissionColumns = `s.id, s.user_id, s.course_id, s.student_name, s.phone_number,
	s.payment_method, s.transaction_id, s.slip_key, s.course_fee, s.status,
	s.rejection_reason, s.reviewed_by, s.reviewed_at, s.idempotency_key,
	s.created_at, s.updated_at`

type SubmissionRepo struct {
	db DBTX
}

func NewSubmissionRepo(db DBTX) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

func (r *SubmissionRepo) CreateSubmission(ctx context.Context, sub model.PaymentSubmission) (model.PaymentSubmission, error) {
	if r.db == nil {
		return model.PaymentSubmission{}, fmt.Errorf("postgres pool is nil")
	}

	created, err := scanSubmission(r.db.QueryRow(ctx, `
INSERT INTO payment_submissions AS s (
	user_id,
	course_id,
	student_name,
	phone_number,
	payment_method,
	transaction_id,
	slip_key,
	course_fee,
	status,
	idempotency_key,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, NOW(), NOW())
RETURNING `+submissionColumns,
		sub.UserID,
		sub.CourseID,
		sub.StudentName,
		sub.PhoneNumber,
		string(sub.PaymentMethod),
		sub.TransactionID,
		sub.SlipKey,
		sub.CourseFee,
		sub.IdempotencyKey,
	))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return model.PaymentSubmission{}, repo.ErrDuplicate
		case isForeignKeyViolation(err):
			return model.PaymentSubmission{}, repo.ErrNotFound
		}
		return model.PaymentSubmission{}, fmt.Errorf("create payment submission: %w", err)
	}
	return created, nil
}

func (r *SubmissionRepo) GetSubmission(ctx context.Context, id uuid.UUID) (model.PaymentSubmission, error) {
	if r.db == nil {
		return model.PaymentSubmission{}, fmt.Errorf("postgres pool is nil")
	}

	sub, err := scanSubmission(r.db.QueryRow(ctx, `
SELECT `+submissionColumns+`
FROM payment_submissions s
WHERE s.id = $1
LIMIT 1
`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PaymentSubmission{}, repo.ErrNotFound
		}
		return model.PaymentSubmission{}, fmt.Errorf("get payment submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) LatestSubmission(ctx context.Context, userID, courseID uuid.UUID) (model.PaymentSubmission, error) {
	if r.db == nil {
		return model.PaymentSubmission{}, fmt.Errorf("postgres pool is nil")
	}

	sub, err := scanSubmission(r.db.QueryRow(ctx, `
SELECT `+submissionColumns+`
FROM payment_submissions s
WHERE s.user_id = $1
  AND s.course_id = $2
ORDER BY s.created_at DESC, s.id DESC
LIMIT 1
`, userID, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PaymentSubmission{}, repo.ErrNotFound
		}
		return model.PaymentSubmission{}, fmt.Errorf("get latest payment submission: %w", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) ListSubmissions(ctx context.Context, filter repo.SubmissionFilter) ([]model.SubmissionWithCourse, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	search := strings.TrimSpace(filter.Search)
	pattern := "%" + escapeLike(search) + "%"

	rows, err := r.db.Query(ctx, `
SELECT `+submissionColumns+`,
	c.id, c.title, c.thumbnail, c.total_lessons, c.category, c.difficulty
FROM payment_submissions s
JOIN courses c ON c.id = s.course_id
WHERE ($1::text = '' OR s.status = $1)
  AND ($2::text = '' OR s.payment_method = $2)
  AND ($3::text = '' OR s.student_name ILIKE $4 OR s.phone_number LIKE $4)
ORDER BY s.created_at DESC, s.id DESC
`, string(filter.Status), string(filter.Method), search, pattern)
	if err != nil {
		return nil, fmt.Errorf("list payment submissions: %w", err)
	}
	defer rows.Close()

	items := make([]model.SubmissionWithCourse, 0)
	for rows.Next() {
		var item model.SubmissionWithCourse
		if err := rows.Scan(append(submissionDest(&item.PaymentSubmission),
			&item.Course.ID,
			&item.Course.Title,
			&item.Course.Thumbnail,
			&item.Course.TotalLessons,
			&item.Course.Category,
			&item.Course.Difficulty,
		)...); err != nil {
			return nil, fmt.Errorf("scan payment submission: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment submissions: %w", err)
	}
	return items, nil
}

func (r *SubmissionRepo) CountSubmissionsByStatus(ctx context.Context) (repo.StatusCounts, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.db.Query(ctx, `
SELECT status, COUNT(*)
FROM payment_submissions
GROUP BY status
`)
	if err != nil {
		return nil, fmt.Errorf("count payment submissions: %w", err)
	}
	defer rows.Close()

	counts := repo.StatusCounts{}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan submission count: %w", err)
		}
		counts[enums.SubmissionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission counts: %w", err)
	}
	return counts, nil
}

func (r *SubmissionRepo) ReviewSubmission(ctx context.Context, in repo.ReviewInput) (model.PaymentSubmission, error) {
	if r.db == nil {
		return model.PaymentSubmission{}, fmt.Errorf("postgres pool is nil")
	}
	if !in.Status.Terminal() {
		return model.PaymentSubmission{}, fmt.Errorf("invalid review status %q", in.Status)
	}

	updated, err := scanSubmission(r.db.QueryRow(ctx, `
UPDATE payment_submissions AS s
SET
	status = $2,
	reviewed_by = $3,
	reviewed_at = $4,
	rejection_reason = $5,
	updated_at = $4
WHERE s.id = $1
  AND s.status = 'pending'
RETURNING `+submissionColumns,
		in.SubmissionID,
		string(in.Status),
		in.ReviewerID,
		in.ReviewedAt,
		in.RejectionReason,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.PaymentSubmission{}, fmt.Errorf("review payment submission: %w", err)
	}

	current, err := r.GetSubmission(ctx, in.SubmissionID)
	if err != nil {
		return model.PaymentSubmission{}, err
	}
	return current, repo.ErrNotPending
}

func (r *SubmissionRepo) ListApprovedWithoutEnrollment(ctx context.Context, limit int) ([]model.PaymentSubmission, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
SELECT `+submissionColumns+`
FROM payment_submissions s
WHERE s.status = 'approved'
  AND NOT EXISTS (
	SELECT 1
	FROM enrollments e
	WHERE e.user_id = s.user_id
	  AND e.course_id = s.course_id
  )
ORDER BY s.reviewed_at ASC NULLS LAST, s.id ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list approved submissions without enrollment: %w", err)
	}
	defer rows.Close()

	items := make([]model.PaymentSubmission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment submission: %w", err)
		}
		items = append(items, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment submissions: %w", err)
	}
	return items, nil
}

func submissionDest(s *model.PaymentSubmission) []any {
	return []any{
		&s.ID,
		&s.UserID,
		&s.CourseID,
		&s.StudentName,
		&s.PhoneNumber,
		&s.PaymentMethod,
		&s.TransactionID,
		&s.SlipKey,
		&s.CourseFee,
		&s.Status,
		&s.RejectionReason,
		&s.ReviewedBy,
		&s.ReviewedAt,
		&s.IdempotencyKey,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
}

func scanSubmission(row rowScanner) (model.PaymentSubmission, error) {
	var s model.PaymentSubmission
	err := row.Scan(submissionDest(&s)...)
	return s, err
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
