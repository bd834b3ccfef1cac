package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/metrics"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
)

// maxStatusAttempts - сколько раз перечитываем урок, если статус поменяли параллельно.
// Цепочка статусов короче, так что повтор всегда сходится.
const maxStatusAttempts = 3

var errConcurrentUpdate = errors.New("lesson status changed concurrently")

// LessonService - журнал уроков и переходы их статусов
type LessonService struct {
	lessons  LessonStore
	clock    clock.Clock
	duration int
	logger   *zap.Logger
}

func NewLessonService(lessons LessonStore, clk clock.Clock, durationMinutes int, logger *zap.Logger) *LessonService {
	if durationMinutes <= 0 {
		durationMinutes = model.DefaultLessonDuration
	}
	return &LessonService{
		lessons:  lessons,
		clock:    clk,
		duration: durationMinutes,
		logger:   logger,
	}
}

// CreatePendingLesson создаёт заявку на время start.
// Если время уже занято ожидающей или подтверждённой заявкой, возвращает ErrSlotConflict.
func (s *LessonService) CreatePendingLesson(ctx context.Context, studentID int64, start time.Time) (*model.Lesson, error) {
	now := s.clock.Now()
	lesson := &model.Lesson{
		ID:              uuid.New(),
		StudentID:       studentID,
		StartAt:         start.UTC(),
		DurationMinutes: s.duration,
		Status:          model.LessonStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.lessons.CreatePending(ctx, lesson); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.logger.Info("Lesson slot already taken",
				zap.Int64("student_id", studentID),
				zap.Time("start_at", lesson.StartAt),
			)
			return nil, fmt.Errorf("create lesson at %s: %w", lesson.StartAt.Format(time.RFC3339), ErrSlotConflict)
		}
		return nil, persistence("create lesson", err)
	}

	metrics.RecordTransition(string(model.LessonStatusPending))
	s.logger.Info("Lesson requested",
		zap.String("lesson_id", lesson.ID.String()),
		zap.Int64("student_id", studentID),
		zap.Time("start_at", lesson.StartAt),
	)

	return lesson, nil
}

// UpdateStatus переводит урок в статус to.
// Неизвестный id и повторный перевод в тот же статус ничего не делают и не считаются ошибкой.
// changed == true только если статус действительно сменился этим вызовом.
func (s *LessonService) UpdateStatus(ctx context.Context, id uuid.UUID, to model.LessonStatus) (bool, error) {
	if !to.IsValid() {
		return false, fmt.Errorf("status %q: %w", to, ErrInvalidTransition)
	}

	for attempt := 0; attempt < maxStatusAttempts; attempt++ {
		lesson, err := s.lessons.GetByID(ctx, id)
		if err != nil {
			return false, persistence("get lesson", err)
		}
		if lesson == nil {
			s.logger.Debug("Status update for unknown lesson", zap.String("lesson_id", id.String()))
			return false, nil
		}
		if lesson.Status == to {
			return false, nil
		}
		if !lesson.Status.CanTransitionTo(to) {
			return false, fmt.Errorf("%s -> %s: %w", lesson.Status, to, ErrInvalidTransition)
		}

		ok, err := s.lessons.CompareAndSetStatus(ctx, id, lesson.Status, to, s.clock.Now())
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return false, fmt.Errorf("%s -> %s: %w", lesson.Status, to, ErrSlotConflict)
			}
			return false, persistence("update lesson status", err)
		}
		if ok {
			metrics.RecordTransition(string(to))
			s.logger.Info("Lesson status changed",
				zap.String("lesson_id", id.String()),
				zap.String("from", string(lesson.Status)),
				zap.String("to", string(to)),
			)
			return true, nil
		}
	}

	return false, persistence("update lesson status", errConcurrentUpdate)
}

// GetLessonByID возвращает урок или nil, если его нет
func (s *LessonService) GetLessonByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get lesson", err)
	}
	return lesson, nil
}

// ListStudentLessons возвращает будущие активные уроки ученика
func (s *LessonService) ListStudentLessons(ctx context.Context, studentID int64) ([]*model.Lesson, error) {
	lessons, err := s.lessons.ListActiveByStudent(ctx, studentID, s.clock.Now())
	if err != nil {
		return nil, persistence("list student lessons", err)
	}
	return lessons, nil
}

// ListPendingLessons возвращает будущие заявки, ожидающие решения репетитора
func (s *LessonService) ListPendingLessons(ctx context.Context) ([]*model.Lesson, error) {
	lessons, err := s.lessons.ListPending(ctx, s.clock.Now())
	if err != nil {
		return nil, persistence("list pending lessons", err)
	}
	return lessons, nil
}
