package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/metrics"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
)

// DefaultHorizonDays - на сколько дней вперёд показывается календарь
const DefaultHorizonDays = 30

// Decision - решение репетитора по заявке
type Decision int

const (
	DecisionConfirm Decision = iota
	DecisionDecline
)

func (d Decision) status() model.LessonStatus {
	if d == DecisionConfirm {
		return model.LessonStatusConfirmed
	}
	return model.LessonStatusDeclined
}

// BookingOptions - настройки сценария записи
type BookingOptions struct {
	OperatorID  int64
	HorizonDays int
}

// CalendarResult - состояние после входа в запись и даты, доступные для выбора
type CalendarResult struct {
	State conversation.State
	Dates []civil.Date
}

// DayResult - выбранная дата и свободное время на неё
type DayResult struct {
	Date  civil.Date
	Slots []time.Time
}

// DecisionResult - урок после решения репетитора
type DecisionResult struct {
	Lesson  *model.Lesson
	Changed bool
}

// BookingService ведёт ученика по шагам записи и обрабатывает решения репетитора.
// Каждое действие выполняется как атомарное чтение-изменение-запись состояния пользователя.
type BookingService struct {
	users        UserStore
	availability *AvailabilityService
	lessons      *LessonService
	notifier     Notifier
	clock        clock.Clock
	zone         *clock.TimeZone
	opts         BookingOptions
	logger       *zap.Logger
}

func NewBookingService(
	users UserStore,
	availability *AvailabilityService,
	lessons *LessonService,
	notifier Notifier,
	clk clock.Clock,
	opts BookingOptions,
	logger *zap.Logger,
) *BookingService {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = DefaultHorizonDays
	}
	return &BookingService{
		users:        users,
		availability: availability,
		lessons:      lessons,
		notifier:     notifier,
		clock:        clk,
		zone:         availability.Zone(),
		opts:         opts,
		logger:       logger,
	}
}

// OnStartBooking начинает запись. Без имени профиля сначала спрашивает имя.
func (s *BookingService) OnStartBooking(ctx context.Context, actorID int64) (*CalendarResult, error) {
	user, err := s.transition(ctx, actorID, "start", func(u *model.User) error {
		next, err := conversation.StartBooking(u.State, u.HasDisplayName())
		u.State = next
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.calendar(ctx, user.State)
}

// OnProfileName сохраняет имя профиля и переводит к выбору даты.
// Некорректное имя оставляет пользователя на том же шаге.
func (s *BookingService) OnProfileName(ctx context.Context, actorID int64, raw string) (*CalendarResult, error) {
	user, err := s.transition(ctx, actorID, "profile_name", func(u *model.User) error {
		if _, ok := u.State.(conversation.AwaitingProfileName); ok {
			name, err := NormalizeDisplayName(raw)
			if err != nil {
				return err
			}
			u.DisplayName = name
		}
		next, err := conversation.SubmitProfileName(u.State)
		u.State = next
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Display name set",
		zap.Int64("telegram_id", actorID),
		zap.String("display_name", user.DisplayName),
	)

	return s.calendar(ctx, user.State)
}

// OnDateChosen принимает дату и возвращает свободное время на неё.
// Прошедшая дата, дата за горизонтом или день без слотов оставляют пользователя на выборе даты.
// Слоты считаются до блокировки пользователя: fn внутри UpdateState не ходит в хранилище.
func (s *BookingService) OnDateChosen(ctx context.Context, actorID int64, date civil.Date) (*DayResult, error) {
	var slots []time.Time
	dateErr := s.validateDate(date)
	if dateErr == nil {
		var err error
		slots, err = s.availability.ComputeAvailableSlots(ctx, date, s.clock.Now())
		if err != nil {
			return nil, err
		}
		if len(slots) == 0 {
			dateErr = fmt.Errorf("no slots on %s: %w", date, ErrSlotUnavailable)
		}
	}

	_, err := s.transition(ctx, actorID, "date", func(u *model.User) error {
		if _, ok := u.State.(conversation.ChoosingDate); ok && dateErr != nil {
			return dateErr
		}
		next, err := conversation.ChooseDate(u.State, date)
		u.State = next
		return err
	})
	if err != nil {
		return nil, err
	}

	return &DayResult{Date: date, Slots: slots}, nil
}

// maxTimeAttempts - сколько раз OnTimeChosen пересчитывает слоты, если дата сменилась под ним
const maxTimeAttempts = 3

// errDateMoved - дата диалога сменилась между расчётом слотов и блокировкой пользователя
var errDateMoved = errors.New("chosen date moved")

// OnTimeChosen соединяет выбранную дату со временем суток. Время должно быть среди свободных.
func (s *BookingService) OnTimeChosen(ctx context.Context, actorID int64, tod civil.Time) (time.Time, error) {
	for attempt := 0; attempt < maxTimeAttempts; attempt++ {
		date, slots, known, err := s.slotsForChosenDate(ctx, actorID)
		if err != nil {
			return time.Time{}, err
		}

		var start time.Time
		_, err = s.transition(ctx, actorID, "time", func(u *model.User) error {
			next, err := conversation.ChooseTime(u.State, tod, s.zone.Location())
			if err != nil {
				u.State = next
				return err
			}

			if !known || u.State.(conversation.ChoosingTime).Date != date {
				return errDateMoved
			}
			candidate := next.(conversation.Confirming).Start
			if !containsInstant(slots, candidate) {
				return fmt.Errorf("%s at %s: %w", date, clock.FormatTimeOfDay(tod), ErrSlotUnavailable)
			}

			start = candidate
			u.State = next
			return nil
		})
		if errors.Is(err, errDateMoved) {
			continue
		}
		if err != nil {
			return time.Time{}, err
		}
		return start, nil
	}

	return time.Time{}, fmt.Errorf("date kept changing at %s: %w", clock.FormatTimeOfDay(tod), ErrSlotUnavailable)
}

// slotsForChosenDate читает дату из диалога без блокировки и считает слоты на неё.
// known == false, если пользователь не выбирает время; тогда решает машина состояний.
func (s *BookingService) slotsForChosenDate(ctx context.Context, actorID int64) (civil.Date, []time.Time, bool, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return civil.Date{}, nil, false, persistence("get user", err)
	}
	if user == nil {
		return civil.Date{}, nil, false, nil
	}
	choosing, ok := user.State.(conversation.ChoosingTime)
	if !ok {
		return civil.Date{}, nil, false, nil
	}

	slots, err := s.availability.ComputeAvailableSlots(ctx, choosing.Date, s.clock.Now())
	if err != nil {
		return civil.Date{}, nil, false, err
	}
	return choosing.Date, slots, true, nil
}

// OnConfirm создаёт заявку на выбранное время. Диалог сбрасывается в Idle в любом случае.
// При успехе уведомляются ученик и репетитор, оба уведомления несут id урока.
func (s *BookingService) OnConfirm(ctx context.Context, actorID int64) (*model.Lesson, error) {
	var start time.Time
	user, err := s.transition(ctx, actorID, "confirm", func(u *model.User) error {
		var err error
		start, u.State, err = conversation.Confirm(u.State)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrStaleSession) {
			metrics.RecordBooking("stale")
		}
		return nil, err
	}

	if start.Before(s.clock.Now()) {
		metrics.RecordBooking("expired")
		return nil, fmt.Errorf("start %s has passed: %w", start.Format(time.RFC3339), ErrSlotUnavailable)
	}

	lesson, err := s.lessons.CreatePendingLesson(ctx, actorID, start)
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			metrics.RecordBooking("conflict")
		} else {
			metrics.RecordBooking("error")
		}
		return nil, err
	}
	metrics.RecordBooking("created")

	lesson.Student = user
	s.notify(ctx, Notification{Recipient: actorID, Kind: NotifyLessonRequested, Lesson: lesson})
	if s.opts.OperatorID != 0 {
		s.notify(ctx, Notification{Recipient: s.opts.OperatorID, Kind: NotifyLessonAwaitingDecision, Lesson: lesson})
	} else {
		s.logger.Warn("Operator is not configured, request is not forwarded",
			zap.String("lesson_id", lesson.ID.String()),
		)
	}

	return lesson, nil
}

// OnCancel сбрасывает начатую запись
func (s *BookingService) OnCancel(ctx context.Context, actorID int64) error {
	_, err := s.transition(ctx, actorID, "cancel", func(u *model.User) error {
		next, err := conversation.Cancel(u.State)
		u.State = next
		return err
	})
	return err
}

// OnOperatorDecision подтверждает или отклоняет заявку.
// Проверяется только роль: пользователь без роли репетитора получает ErrNotFound.
// Ученик уведомляется, только если статус действительно сменился.
func (s *BookingService) OnOperatorDecision(ctx context.Context, actorID int64, lessonID uuid.UUID, decision Decision) (*DecisionResult, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, persistence("get user", err)
	}
	if err := requireOperator(actor); err != nil {
		s.logger.Warn("Decision from non-operator rejected",
			zap.Int64("telegram_id", actorID),
			zap.String("lesson_id", lessonID.String()),
		)
		return nil, err
	}

	lesson, err := s.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}

	to := decision.status()
	changed, err := s.lessons.UpdateStatus(ctx, lessonID, to)
	if err != nil {
		return nil, err
	}
	if changed {
		lesson.Status = to
	}
	if err := s.attachStudent(ctx, lesson); err != nil {
		return nil, err
	}

	if changed {
		kind := NotifyLessonConfirmed
		if to == model.LessonStatusDeclined {
			kind = NotifyLessonDeclined
		}
		s.notify(ctx, Notification{Recipient: lesson.StudentID, Kind: kind, Lesson: lesson})
	}

	return &DecisionResult{Lesson: lesson, Changed: changed}, nil
}

// OnLessonCancel отменяет собственный урок ученика и сообщает репетитору
func (s *BookingService) OnLessonCancel(ctx context.Context, actorID int64, lessonID uuid.UUID) (*DecisionResult, error) {
	lesson, err := s.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil || lesson.StudentID != actorID {
		return nil, fmt.Errorf("lesson %s of student %d: %w", lessonID, actorID, ErrNotFound)
	}

	changed, err := s.lessons.UpdateStatus(ctx, lessonID, model.LessonStatusCanceled)
	if err != nil {
		return nil, err
	}
	if changed {
		lesson.Status = model.LessonStatusCanceled
	}
	if err := s.attachStudent(ctx, lesson); err != nil {
		return nil, err
	}

	if changed && s.opts.OperatorID != 0 {
		s.notify(ctx, Notification{Recipient: s.opts.OperatorID, Kind: NotifyLessonCanceled, Lesson: lesson})
	}

	return &DecisionResult{Lesson: lesson, Changed: changed}, nil
}

// transition выполняет fn над пользователем атомарно и сохраняет результат.
// Ошибка fn возвращается как есть, ошибки хранилища оборачиваются в ErrPersistence.
func (s *BookingService) transition(ctx context.Context, actorID int64, action string, fn func(u *model.User) error) (*model.User, error) {
	var fnErr error
	user, err := s.users.UpdateState(ctx, actorID, s.clock.Now(), func(u *model.User) error {
		fnErr = fn(u)
		return fnErr
	})
	// Ошибку fn хранилище возвращает как есть, всё остальное - ошибка хранилища
	if err != nil && err != fnErr {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", actorID, ErrNotFound)
		}
		return nil, persistence("update conversation state", err)
	}
	if fnErr != nil {
		if errors.Is(fnErr, ErrStateMismatch) {
			metrics.RecordMismatch(action)
		}
		s.logger.Debug("Conversation action rejected",
			zap.Int64("telegram_id", actorID),
			zap.String("action", action),
			zap.Error(fnErr),
		)
		return user, fnErr
	}
	return user, nil
}

func (s *BookingService) calendar(ctx context.Context, state conversation.State) (*CalendarResult, error) {
	result := &CalendarResult{State: state}
	if _, ok := state.(conversation.ChoosingDate); !ok {
		return result, nil
	}

	now := s.clock.Now()
	dates, err := s.availability.BookableDates(ctx, s.zone.DateOf(now), s.opts.HorizonDays, now)
	if err != nil {
		return nil, err
	}
	result.Dates = dates
	return result, nil
}

func (s *BookingService) validateDate(date civil.Date) error {
	if !date.IsValid() {
		return fmt.Errorf("date %s: %w", date, ErrBadDate)
	}
	today := s.zone.Today(s.clock)
	if date.Before(today) {
		return fmt.Errorf("date %s: %w", date, ErrDateInPast)
	}
	if !date.Before(today.AddDays(s.opts.HorizonDays)) {
		return fmt.Errorf("date %s: %w", date, ErrBeyondHorizon)
	}
	return nil
}

func (s *BookingService) attachStudent(ctx context.Context, lesson *model.Lesson) error {
	if lesson.Student != nil {
		return nil
	}
	student, err := s.users.GetByID(ctx, lesson.StudentID)
	if err != nil {
		return persistence("get student", err)
	}
	lesson.Student = student
	return nil
}

// notify отправляет уведомление. Ошибка доставки не отменяет уже выполненное действие.
func (s *BookingService) notify(ctx context.Context, n Notification) {
	err := s.notifier.Notify(ctx, n)
	metrics.RecordNotification(string(n.Kind), err)
	if err != nil {
		s.logger.Error("Failed to send notification",
			zap.Int64("recipient", n.Recipient),
			zap.String("kind", string(n.Kind)),
			zap.String("lesson_id", n.Lesson.ID.String()),
			zap.Error(err),
		)
	}
}

func containsInstant(slots []time.Time, t time.Time) bool {
	for _, s := range slots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}
