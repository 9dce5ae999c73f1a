// Package memory is a process-local repo.Store used by tests and the
// "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/enums"
	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

type state struct {
	mu   sync.Mutex
	txMu sync.Mutex

	seq         int64
	order       map[uuid.UUID]int64
	courses     map[uuid.UUID]model.Course
	lessons     map[uuid.UUID]model.Lesson
	teachers    map[uuid.UUID]model.Teacher
	submissions map[uuid.UUID]model.PaymentSubmission
	enrollments map[uuid.UUID]model.Enrollment
	audit       []model.AuditLogEntry
}

type Store struct {
	st  *state
	now func() time.Time
	// undo is non-nil for a store bound to a transaction.
	undo *[]func()
}

var _ repo.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		st: &state{
			order:       make(map[uuid.UUID]int64),
			courses:     make(map[uuid.UUID]model.Course),
			lessons:     make(map[uuid.UUID]model.Lesson),
			teachers:    make(map[uuid.UUID]model.Teacher),
			submissions: make(map[uuid.UUID]model.PaymentSubmission),
			enrollments: make(map[uuid.UUID]model.Enrollment),
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used for generated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repo.Store) error) error {
	if s.undo != nil {
		return fn(ctx, s)
	}

	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	journal := make([]func(), 0, 4)
	tx := &Store{st: s.st, now: s.now, undo: &journal}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		s.rollback(journal)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.rollback(journal)
		return err
	}
	return nil
}

func (s *Store) rollback(journal []func()) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for i := len(journal) - 1; i >= 0; i-- {
		journal[i]()
	}
}

// remember registers an undo step; callers hold st.mu.
func (s *Store) remember(undo func()) {
	if s.undo != nil {
		*s.undo = append(*s.undo, undo)
	}
}

func (s *Store) nextOrder(id uuid.UUID) {
	s.st.seq++
	s.st.order[id] = s.st.seq
}

func (s *Store) CreateCourse(_ context.Context, course model.Course) (model.Course, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	course.ID = uuid.New()
	course.CreatedAt = s.now().UTC()
	s.st.courses[course.ID] = course
	s.nextOrder(course.ID)

	id := course.ID
	s.remember(func() { delete(s.st.courses, id) })
	return course, nil
}

func (s *Store) GetCourse(_ context.Context, id uuid.UUID) (model.Course, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	course, ok := s.st.courses[id]
	if !ok {
		return model.Course{}, repo.ErrNotFound
	}
	return course, nil
}

func (s *Store) ListCourses(_ context.Context, filter repo.CourseFilter) ([]model.Course, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	out := make([]model.Course, 0, len(s.st.courses))
	for _, c := range s.st.courses {
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		if filter.AgeGroup != "" && c.AgeGroup != filter.AgeGroup {
			continue
		}
		if filter.Difficulty != "" && c.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Premium != nil && c.IsPremium != *filter.Premium {
			continue
		}
		if filter.CreatedBy != nil && (c.CreatedBy == nil || *c.CreatedBy != *filter.CreatedBy) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *Store) UpdateCourse(_ context.Context, course model.Course) (model.Course, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.courses[course.ID]
	if !ok {
		return model.Course{}, repo.ErrNotFound
	}
	course.CreatedAt = prev.CreatedAt
	course.CreatedBy = prev.CreatedBy
	s.st.courses[course.ID] = course
	s.remember(func() { s.st.courses[prev.ID] = prev })
	return course, nil
}

func (s *Store) DeleteCourse(_ context.Context, id uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.courses[id]
	if !ok {
		return repo.ErrNotFound
	}
	for _, sub := range s.st.submissions {
		if sub.CourseID == id {
			return repo.ErrReferenced
		}
	}
	for _, e := range s.st.enrollments {
		if e.CourseID == id {
			return repo.ErrReferenced
		}
	}
	delete(s.st.courses, id)
	s.remember(func() { s.st.courses[id] = prev })
	for lessonID, l := range s.st.lessons {
		if l.CourseID != id {
			continue
		}
		delete(s.st.lessons, lessonID)
		lesson := l
		s.remember(func() { s.st.lessons[lesson.ID] = lesson })
	}
	return nil
}

func (s *Store) CreateSubmission(_ context.Context, sub model.PaymentSubmission) (model.PaymentSubmission, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, ok := s.st.courses[sub.CourseID]; !ok {
		return model.PaymentSubmission{}, repo.ErrNotFound
	}
	if sub.IdempotencyKey != nil {
		for _, existing := range s.st.submissions {
			if existing.UserID == sub.UserID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *sub.IdempotencyKey {
				return model.PaymentSubmission{}, repo.ErrDuplicate
			}
		}
	}

	now := s.now().UTC()
	sub.ID = uuid.New()
	sub.Status = enums.SubmissionStatusPending
	sub.RejectionReason = nil
	sub.ReviewedBy = nil
	sub.ReviewedAt = nil
	sub.CreatedAt = now
	sub.UpdatedAt = now
	s.st.submissions[sub.ID] = sub
	s.nextOrder(sub.ID)

	id := sub.ID
	s.remember(func() { delete(s.st.submissions, id) })
	return sub, nil
}

func (s *Store) GetSubmission(_ context.Context, id uuid.UUID) (model.PaymentSubmission, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	sub, ok := s.st.submissions[id]
	if !ok {
		return model.PaymentSubmission{}, repo.ErrNotFound
	}
	return sub, nil
}

func (s *Store) LatestSubmission(_ context.Context, userID, courseID uuid.UUID) (model.PaymentSubmission, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	var (
		latest model.PaymentSubmission
		found  bool
	)
	for _, sub := range s.st.submissions {
		if sub.UserID != userID || sub.CourseID != courseID {
			continue
		}
		if !found || s.newer(sub.CreatedAt, sub.ID, latest.CreatedAt, latest.ID) {
			latest = sub
			found = true
		}
	}
	if !found {
		return model.PaymentSubmission{}, repo.ErrNotFound
	}
	return latest, nil
}

func (s *Store) ListSubmissions(_ context.Context, filter repo.SubmissionFilter) ([]model.SubmissionWithCourse, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	search := strings.TrimSpace(filter.Search)
	needle := strings.ToLower(search)

	out := make([]model.SubmissionWithCourse, 0)
	for _, sub := range s.st.submissions {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.Method != "" && sub.PaymentMethod != filter.Method {
			continue
		}
		if search != "" {
			nameHit := strings.Contains(strings.ToLower(sub.StudentName), needle)
			phoneHit := sub.PhoneNumber != nil && strings.Contains(*sub.PhoneNumber, search)
			if !nameHit && !phoneHit {
				continue
			}
		}
		course, ok := s.st.courses[sub.CourseID]
		if !ok {
			continue
		}
		out = append(out, model.SubmissionWithCourse{PaymentSubmission: sub, Course: course.Summary()})
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID)
	})
	return out, nil
}

func (s *Store) CountSubmissionsByStatus(_ context.Context) (repo.StatusCounts, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	counts := repo.StatusCounts{}
	for _, sub := range s.st.submissions {
		counts[sub.Status]++
	}
	return counts, nil
}

func (s *Store) ReviewSubmission(_ context.Context, in repo.ReviewInput) (model.PaymentSubmission, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.submissions[in.SubmissionID]
	if !ok {
		return model.PaymentSubmission{}, repo.ErrNotFound
	}
	if prev.Status != enums.SubmissionStatusPending {
		return prev, repo.ErrNotPending
	}

	reviewer := in.ReviewerID
	at := in.ReviewedAt.UTC()
	next := prev
	next.Status = in.Status
	next.ReviewedBy = &reviewer
	next.ReviewedAt = &at
	next.RejectionReason = in.RejectionReason
	next.UpdatedAt = at
	s.st.submissions[next.ID] = next
	s.remember(func() { s.st.submissions[prev.ID] = prev })
	return next, nil
}

func (s *Store) ListApprovedWithoutEnrollment(_ context.Context, limit int) ([]model.PaymentSubmission, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}

	out := make([]model.PaymentSubmission, 0)
	for _, sub := range s.st.submissions {
		if sub.Status != enums.SubmissionStatusApproved {
			continue
		}
		if _, ok := s.findEnrollment(sub.UserID, sub.CourseID); ok {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.st.order[out[i].ID] < s.st.order[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertEnrollment(_ context.Context, enrollment model.Enrollment) (model.Enrollment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, ok := s.st.courses[enrollment.CourseID]; !ok {
		return model.Enrollment{}, repo.ErrNotFound
	}

	if existing, ok := s.findEnrollment(enrollment.UserID, enrollment.CourseID); ok {
		prev := existing
		if existing.PaymentStatus != enums.EnrollmentPaymentPaid {
			existing.PaymentStatus = enrollment.PaymentStatus
		}
		s.st.enrollments[existing.ID] = existing
		s.remember(func() { s.st.enrollments[prev.ID] = prev })
		return existing, nil
	}

	enrollment.ID = uuid.New()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = s.now().UTC()
	}
	s.st.enrollments[enrollment.ID] = enrollment
	s.nextOrder(enrollment.ID)

	id := enrollment.ID
	s.remember(func() { delete(s.st.enrollments, id) })
	return enrollment, nil
}

func (s *Store) GetEnrollment(_ context.Context, id uuid.UUID) (model.Enrollment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	e, ok := s.st.enrollments[id]
	if !ok {
		return model.Enrollment{}, repo.ErrNotFound
	}
	return e, nil
}

func (s *Store) EnrollmentExists(_ context.Context, userID, courseID uuid.UUID) (bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	_, ok := s.findEnrollment(userID, courseID)
	return ok, nil
}

func (s *Store) ListEnrollmentsByUser(_ context.Context, userID uuid.UUID) ([]model.EnrollmentWithCourse, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	out := make([]model.EnrollmentWithCourse, 0)
	for _, e := range s.st.enrollments {
		if e.UserID != userID {
			continue
		}
		course, ok := s.st.courses[e.CourseID]
		if !ok {
			continue
		}
		out = append(out, model.EnrollmentWithCourse{Enrollment: e, Course: course.Summary()})
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].EnrolledAt, out[i].ID, out[j].EnrolledAt, out[j].ID)
	})
	return out, nil
}

func (s *Store) UpdateEnrollmentProgress(_ context.Context, id uuid.UUID, completedLessons, starsEarned int) (model.Enrollment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.enrollments[id]
	if !ok {
		return model.Enrollment{}, repo.ErrNotFound
	}
	next := prev
	next.CompletedLessons = completedLessons
	next.StarsEarned = starsEarned
	s.st.enrollments[id] = next
	s.remember(func() { s.st.enrollments[id] = prev })
	return next, nil
}

func (s *Store) AppendAudit(_ context.Context, entry model.AuditLogEntry) (model.AuditLogEntry, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, ok := s.st.submissions[entry.SubmissionID]; !ok {
		return model.AuditLogEntry{}, repo.ErrNotFound
	}

	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.st.audit = append(s.st.audit, entry)

	id := entry.ID
	s.remember(func() {
		for i := range s.st.audit {
			if s.st.audit[i].ID == id {
				s.st.audit = append(s.st.audit[:i], s.st.audit[i+1:]...)
				return
			}
		}
	})
	return entry, nil
}

func (s *Store) ListAuditBySubmission(_ context.Context, submissionID uuid.UUID) ([]model.AuditLogEntry, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	out := make([]model.AuditLogEntry, 0)
	for _, entry := range s.st.audit {
		if entry.SubmissionID == submissionID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// findEnrollment expects st.mu to be held.
func (s *Store) findEnrollment(userID, courseID uuid.UUID) (model.Enrollment, bool) {
	for _, e := range s.st.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e, true
		}
	}
	return model.Enrollment{}, false
}

// newer orders by timestamp, then by insertion order; callers hold st.mu.
func (s *Store) newer(at time.Time, id uuid.UUID, otherAt time.Time, otherID uuid.UUID) bool {
	if !at.Equal(otherAt) {
		return at.After(otherAt)
	}
	return s.st.order[id] > s.st.order[otherID]
}
