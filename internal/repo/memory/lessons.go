package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ASK10520/codeplay-spark/internal/domain/model"
	"github.com/ASK10520/codeplay-spark/internal/repo"
)

func (s *Store) CreateLesson(_ context.Context, lesson model.Lesson) (model.Lesson, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	if _, ok := s.st.courses[lesson.CourseID]; !ok {
		return model.Lesson{}, repo.ErrNotFound
	}
	if s.orderTaken(lesson.CourseID, lesson.OrderIndex, uuid.Nil) {
		return model.Lesson{}, repo.ErrDuplicate
	}

	lesson.ID = uuid.New()
	lesson.CreatedAt = s.now().UTC()
	s.st.lessons[lesson.ID] = lesson
	s.nextOrder(lesson.ID)

	id := lesson.ID
	s.remember(func() { delete(s.st.lessons, id) })
	return lesson, nil
}

func (s *Store) GetLesson(_ context.Context, id uuid.UUID) (model.Lesson, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	lesson, ok := s.st.lessons[id]
	if !ok {
		return model.Lesson{}, repo.ErrNotFound
	}
	return lesson, nil
}

func (s *Store) ListLessonsByCourse(_ context.Context, courseID uuid.UUID) ([]model.Lesson, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	out := make([]model.Lesson, 0)
	for _, l := range s.st.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return s.st.order[out[i].ID] < s.st.order[out[j].ID]
	})
	return out, nil
}

func (s *Store) UpdateLesson(_ context.Context, lesson model.Lesson) (model.Lesson, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.lessons[lesson.ID]
	if !ok {
		return model.Lesson{}, repo.ErrNotFound
	}
	if s.orderTaken(prev.CourseID, lesson.OrderIndex, prev.ID) {
		return model.Lesson{}, repo.ErrDuplicate
	}
	lesson.CourseID = prev.CourseID
	lesson.CreatedAt = prev.CreatedAt
	s.st.lessons[lesson.ID] = lesson
	s.remember(func() { s.st.lessons[prev.ID] = prev })
	return lesson, nil
}

func (s *Store) DeleteLesson(_ context.Context, id uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.lessons[id]
	if !ok {
		return repo.ErrNotFound
	}
	delete(s.st.lessons, id)
	s.remember(func() { s.st.lessons[id] = prev })
	return nil
}

func (s *Store) SyncLessonCount(_ context.Context, courseID uuid.UUID) (int, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.courses[courseID]
	if !ok {
		return 0, repo.ErrNotFound
	}
	total := 0
	for _, l := range s.st.lessons {
		if l.CourseID == courseID {
			total++
		}
	}
	next := prev
	next.TotalLessons = total
	s.st.courses[courseID] = next
	s.remember(func() { s.st.courses[courseID] = prev })
	return total, nil
}

// orderTaken expects st.mu to be held.
func (s *Store) orderTaken(courseID uuid.UUID, orderIndex int, except uuid.UUID) bool {
	for _, l := range s.st.lessons {
		if l.CourseID == courseID && l.OrderIndex == orderIndex && l.ID != except {
			return true
		}
	}
	return false
}

func (s *Store) CreateTeacher(_ context.Context, teacher model.Teacher) (model.Teacher, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	teacher.ID = uuid.New()
	teacher.CreatedAt = s.now().UTC()
	s.st.teachers[teacher.ID] = teacher
	s.nextOrder(teacher.ID)

	id := teacher.ID
	s.remember(func() { delete(s.st.teachers, id) })
	return teacher, nil
}

func (s *Store) GetTeacher(_ context.Context, id uuid.UUID) (model.Teacher, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	teacher, ok := s.st.teachers[id]
	if !ok {
		return model.Teacher{}, repo.ErrNotFound
	}
	return teacher, nil
}

func (s *Store) ListTeachers(_ context.Context) ([]model.Teacher, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	out := make([]model.Teacher, 0, len(s.st.teachers))
	for _, t := range s.st.teachers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[j].CreatedAt, out[j].ID, out[i].CreatedAt, out[i].ID)
	})
	return out, nil
}

func (s *Store) UpdateTeacher(_ context.Context, teacher model.Teacher) (model.Teacher, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.teachers[teacher.ID]
	if !ok {
		return model.Teacher{}, repo.ErrNotFound
	}
	teacher.CreatedAt = prev.CreatedAt
	s.st.teachers[teacher.ID] = teacher
	s.remember(func() { s.st.teachers[prev.ID] = prev })
	return teacher, nil
}

func (s *Store) DeleteTeacher(_ context.Context, id uuid.UUID) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	prev, ok := s.st.teachers[id]
	if !ok {
		return repo.ErrNotFound
	}
	delete(s.st.teachers, id)
	s.remember(func() { s.st.teachers[id] = prev })
	return nil
}
