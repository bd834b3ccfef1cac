package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
)

// Lessons хранит уроки. Проверка занятости и вставка выполняются под одним мьютексом.
type Lessons struct {
	mu      sync.RWMutex
	lessons map[uuid.UUID]*model.Lesson
	users   *Users
}

// NewLessons создаёт хранилище уроков. users нужен, чтобы подставлять ученика в списки.
func NewLessons(users *Users) *Lessons {
	return &Lessons{
		lessons: make(map[uuid.UUID]*model.Lesson),
		users:   users,
	}
}

func (s *Lessons) CreatePending(ctx context.Context, lesson *model.Lesson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := lesson.StartAt.UTC()
	for _, l := range s.lessons {
		if l.Status.Holds() && l.StartAt.Equal(start) {
			return repository.ErrConflict
		}
	}

	if lesson.ID == uuid.Nil {
		lesson.ID = uuid.New()
	}
	lesson.StartAt = start
	lesson.Status = model.LessonStatusPending
	if lesson.DurationMinutes == 0 {
		lesson.DurationMinutes = model.DefaultLessonDuration
	}

	stored := *lesson
	stored.Student = nil
	s.lessons[lesson.ID] = &stored
	return nil
}

func (s *Lessons) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	s.mu.RLock()
	l, ok := s.lessons[id]
	var c *model.Lesson
	if ok {
		c = s.copyLesson(ctx, l)
	}
	s.mu.RUnlock()

	return c, nil
}

func (s *Lessons) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.LessonStatus, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lessons[id]
	if !ok || l.Status != from {
		return false, nil
	}
	l.Status = to
	l.UpdatedAt = now
	return true, nil
}

func (s *Lessons) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Lesson, error) {
	return s.list(ctx, func(l *model.Lesson) bool {
		return l.Status == model.LessonStatusConfirmed && !l.StartAt.Before(from) && l.StartAt.Before(to)
	}), nil
}

func (s *Lessons) ListActiveByStudent(ctx context.Context, studentID int64, from time.Time) ([]*model.Lesson, error) {
	return s.list(ctx, func(l *model.Lesson) bool {
		return l.StudentID == studentID && l.Status.Holds() && !l.StartAt.Before(from)
	}), nil
}

func (s *Lessons) ListPending(ctx context.Context, from time.Time) ([]*model.Lesson, error) {
	return s.list(ctx, func(l *model.Lesson) bool {
		return l.Status == model.LessonStatusPending && !l.StartAt.Before(from)
	}), nil
}

func (s *Lessons) list(ctx context.Context, keep func(l *model.Lesson) bool) []*model.Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Lesson
	for _, l := range s.lessons {
		if keep(l) {
			out = append(out, s.copyLesson(ctx, l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out
}

func (s *Lessons) copyLesson(ctx context.Context, l *model.Lesson) *model.Lesson {
	c := *l
	if s.users != nil {
		c.Student, _ = s.users.GetByID(ctx, l.StudentID)
	}
	return &c
}
