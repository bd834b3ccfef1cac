package service

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

const (
	minSlotDuration = 15
	maxSlotDuration = 240
)

// ScheduleService - управление расписанием репетитора: шаблоны по дням недели и исключения.
// Все методы доступны только репетитору.
type ScheduleService struct {
	recurring  RecurringSlotStore
	exceptions SlotExceptionStore
	clock      clock.Clock
	logger     *zap.Logger
}

func NewScheduleService(recurring RecurringSlotStore, exceptions SlotExceptionStore, clk clock.Clock, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		recurring:  recurring,
		exceptions: exceptions,
		clock:      clk,
		logger:     logger,
	}
}

// AddRecurringSlot добавляет еженедельный слот (weekday: 0 = понедельник)
func (s *ScheduleService) AddRecurringSlot(ctx context.Context, actor *model.User, weekday int, start civil.Time, durationMinutes int) (*model.RecurringSlot, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if weekday < 0 || weekday > 6 {
		return nil, fmt.Errorf("weekday %d: %w", weekday, ErrBadSchedule)
	}
	if !start.IsValid() {
		return nil, fmt.Errorf("start %s: %w", start, ErrBadTime)
	}
	if durationMinutes == 0 {
		durationMinutes = model.DefaultLessonDuration
	}
	if durationMinutes < minSlotDuration || durationMinutes > maxSlotDuration {
		return nil, fmt.Errorf("duration %d: %w", durationMinutes, ErrBadSchedule)
	}

	slot := &model.RecurringSlot{
		ID:              uuid.New(),
		Weekday:         weekday,
		StartTime:       civil.Time{Hour: start.Hour, Minute: start.Minute},
		DurationMinutes: durationMinutes,
		CreatedAt:       s.clock.Now(),
	}
	if err := s.recurring.Create(ctx, slot); err != nil {
		return nil, persistence("create recurring slot", err)
	}

	s.logger.Info("Recurring slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.Int("weekday", weekday),
		zap.String("start", clock.FormatTimeOfDay(slot.StartTime)),
		zap.Int("duration", durationMinutes),
	)

	return slot, nil
}

// ListRecurringSlots возвращает все шаблоны, упорядоченные по дню и времени
func (s *ScheduleService) ListRecurringSlots(ctx context.Context, actor *model.User) ([]*model.RecurringSlot, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	slots, err := s.recurring.List(ctx)
	if err != nil {
		return nil, persistence("list recurring slots", err)
	}
	return slots, nil
}

// DeleteRecurringSlot удаляет шаблон. Уже созданные заявки не затрагиваются.
func (s *ScheduleService) DeleteRecurringSlot(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	ok, err := s.recurring.Delete(ctx, id)
	if err != nil {
		return persistence("delete recurring slot", err)
	}
	if !ok {
		return fmt.Errorf("recurring slot %s: %w", id, ErrNotFound)
	}

	s.logger.Info("Recurring slot deleted", zap.String("slot_id", id.String()))
	return nil
}

// BlockDate закрывает дату целиком (until == nil) или с начала суток до until
func (s *ScheduleService) BlockDate(ctx context.Context, actor *model.User, date civil.Date, until *civil.Time) (*model.SlotException, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	if !date.IsValid() {
		return nil, fmt.Errorf("date %s: %w", date, ErrBadDate)
	}
	if until != nil && !until.IsValid() {
		return nil, fmt.Errorf("until %s: %w", until, ErrBadTime)
	}

	exception := &model.SlotException{
		ID:        uuid.New(),
		Date:      date,
		FullDay:   until == nil,
		UntilTime: until,
		CreatedAt: s.clock.Now(),
	}
	if err := s.exceptions.Create(ctx, exception); err != nil {
		return nil, persistence("create slot exception", err)
	}

	s.logger.Info("Slot exception created",
		zap.String("exception_id", exception.ID.String()),
		zap.String("date", date.String()),
		zap.Bool("full_day", exception.FullDay),
	)

	return exception, nil
}

// ListExceptions возвращает исключения на ближайшие days дней, начиная с сегодняшней даты в zone
func (s *ScheduleService) ListExceptions(ctx context.Context, actor *model.User, zone *clock.TimeZone, days int) ([]*model.SlotException, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}
	from := zone.Today(s.clock)
	exceptions, err := s.exceptions.ListBetween(ctx, from, from.AddDays(days))
	if err != nil {
		return nil, persistence("list slot exceptions", err)
	}
	return exceptions, nil
}

// UnblockDate удаляет исключение
func (s *ScheduleService) UnblockDate(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if err := requireOperator(actor); err != nil {
		return err
	}
	ok, err := s.exceptions.Delete(ctx, id)
	if err != nil {
		return persistence("delete slot exception", err)
	}
	if !ok {
		return fmt.Errorf("slot exception %s: %w", id, ErrNotFound)
	}

	s.logger.Info("Slot exception deleted", zap.String("exception_id", id.String()))
	return nil
}

func requireOperator(actor *model.User) error {
	if actor == nil || !actor.IsOperator() {
		return fmt.Errorf("operator role required: %w", ErrNotFound)
	}
	return nil
}
