package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ASK10520/codeplay-spark/internal/repo"
)

// Store bundles the table repos over one pool, or over one transaction when
// obtained through WithinTx.
type Store struct {
	pool *pgxpool.Pool
	inTx bool

	*CourseRepo
	*LessonRepo
	*TeacherRepo
	*SubmissionRepo
	*EnrollmentRepo
	*AuditRepo
}

var _ repo.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	var db DBTX
	if pool != nil {
		db = pool
	}
	return newStore(pool, db, false)
}

func newStore(pool *pgxpool.Pool, db DBTX, inTx bool) *Store {
	return &Store{
		pool:           pool,
		inTx:           inTx,
		CourseRepo:     NewCourseRepo(db),
		LessonRepo:     NewLessonRepo(db),
		TeacherRepo:    NewTeacherRepo(db),
		SubmissionRepo: NewSubmissionRepo(db),
		EnrollmentRepo: NewEnrollmentRepo(db),
		AuditRepo:      NewAuditRepo(db),
	}
}

// reviewTxOptions is enough for the review flow: the pending check is a
// conditional UPDATE and the enrollment write is an upsert.
var reviewTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	if s.pool == nil {
		return errors.New("postgres pool is nil")
	}
	return pgx.BeginTxFunc(ctx, s.pool, reviewTxOptions, func(tx pgx.Tx) error {
		return fn(ctx, newStore(nil, tx, true))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	return s.pool.Ping(ctx)
}
