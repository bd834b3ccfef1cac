package service

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// DefaultLeadTime минимальный запас между "сейчас" и началом занятия
const DefaultLeadTime = 30 * time.Minute

// AvailabilityInput - всё, от чего зависит список свободного времени на дату
type AvailabilityInput struct {
	Date           civil.Date
	Now            time.Time
	Zone           *clock.TimeZone
	LeadTime       time.Duration
	RecurringSlots []*model.RecurringSlot
	Exceptions     []*model.SlotException
	Confirmed      []time.Time // моменты начала подтверждённых уроков
}

type interval struct {
	start, end time.Time
}

// FreeSlot - свободный интервал: момент начала и длительность шаблона
type FreeSlot struct {
	Start    time.Time
	Duration time.Duration
}

// End возвращает момент окончания интервала
func (f FreeSlot) End() time.Time {
	return f.Start.Add(f.Duration)
}

// ComputeAvailableSlots возвращает упорядоченные моменты начала, доступные для записи на дату.
// Чистая функция: не обращается к хранилищу и часам.
func ComputeAvailableSlots(in AvailabilityInput) []time.Time {
	var slots []time.Time
	for _, f := range ComputeFreeSlots(in) {
		slots = append(slots, f.Start)
	}
	return slots
}

// ComputeFreeSlots - то же, что ComputeAvailableSlots, но с длительностью шаблона.
// Из двух шаблонов с одним началом берётся более длинный.
func ComputeFreeSlots(in AvailabilityInput) []FreeSlot {
	zone := in.Zone
	if zone == nil {
		zone = clock.NewTimeZone(time.UTC)
	}

	// Шаблоны на этот день недели (0 = понедельник)
	weekday := clock.MondayIndex(in.Date.Weekday())
	var templates []*model.RecurringSlot
	for _, s := range in.RecurringSlots {
		if s.Weekday == weekday {
			templates = append(templates, s)
		}
	}
	if len(templates) == 0 {
		return nil
	}

	// Исключения на дату
	dayStart := zone.StartOfDay(in.Date)
	var blocked []interval
	for _, ex := range in.Exceptions {
		if ex.Date != in.Date {
			continue
		}
		if ex.FullDay {
			return nil
		}
		if ex.UntilTime != nil {
			blocked = append(blocked, interval{start: dayStart, end: zone.At(in.Date, *ex.UntilTime)})
		}
	}

	confirmed := make(map[int64]struct{}, len(in.Confirmed))
	for _, c := range in.Confirmed {
		confirmed[c.UnixNano()] = struct{}{}
	}

	earliest := in.Now.Add(in.LeadTime)
	index := make(map[int64]int, len(templates))
	var free []FreeSlot

	for _, tpl := range templates {
		start := zone.At(in.Date, tpl.StartTime)
		duration := tpl.Duration()

		if overlapsAny(start, start.Add(duration), blocked) {
			continue
		}
		key := start.UnixNano()
		if _, taken := confirmed[key]; taken {
			continue
		}
		if start.Before(earliest) {
			continue
		}
		if i, dup := index[key]; dup {
			if duration > free[i].Duration {
				free[i].Duration = duration
			}
			continue
		}
		index[key] = len(free)
		free = append(free, FreeSlot{Start: start, Duration: duration})
	}

	sort.Slice(free, func(i, j int) bool { return free[i].Start.Before(free[j].Start) })
	return free
}

// overlapsAny - пересечение полуоткрытых интервалов
func overlapsAny(start, end time.Time, blocked []interval) bool {
	for _, b := range blocked {
		if start.Before(b.end) && end.After(b.start) {
			return true
		}
	}
	return false
}

// AvailabilityService загружает расписание и считает свободное время
type AvailabilityService struct {
	recurring  RecurringSlotStore
	exceptions SlotExceptionStore
	lessons    LessonStore
	zone       *clock.TimeZone
	leadTime   time.Duration
	logger     *zap.Logger
}

func NewAvailabilityService(
	recurring RecurringSlotStore,
	exceptions SlotExceptionStore,
	lessons LessonStore,
	zone *clock.TimeZone,
	leadTime time.Duration,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		recurring:  recurring,
		exceptions: exceptions,
		lessons:    lessons,
		zone:       zone,
		leadTime:   leadTime,
		logger:     logger,
	}
}

// Zone возвращает часовой пояс расписания
func (s *AvailabilityService) Zone() *clock.TimeZone {
	return s.zone
}

// ComputeAvailableSlots возвращает свободное время на дату
func (s *AvailabilityService) ComputeAvailableSlots(ctx context.Context, date civil.Date, now time.Time) ([]time.Time, error) {
	free, err := s.FreeSlots(ctx, date, now)
	if err != nil {
		return nil, err
	}
	var slots []time.Time
	for _, f := range free {
		slots = append(slots, f.Start)
	}
	return slots, nil
}

// FreeSlots возвращает свободные интервалы на дату с длительностью шаблонов
func (s *AvailabilityService) FreeSlots(ctx context.Context, date civil.Date, now time.Time) ([]FreeSlot, error) {
	templates, err := s.recurring.ListByWeekday(ctx, clock.MondayIndex(date.Weekday()))
	if err != nil {
		return nil, persistence("list recurring slots", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	exceptions, err := s.exceptions.ListBetween(ctx, date, date)
	if err != nil {
		return nil, persistence("list slot exceptions", err)
	}

	confirmed, err := s.confirmedStarts(ctx, date, date)
	if err != nil {
		return nil, err
	}

	return ComputeFreeSlots(AvailabilityInput{
		Date:           date,
		Now:            now,
		Zone:           s.zone,
		LeadTime:       s.leadTime,
		RecurringSlots: templates,
		Exceptions:     exceptions,
		Confirmed:      confirmed,
	}), nil
}

// BookableDates возвращает даты из окна [from, from+days), на которые есть хотя бы один слот
func (s *AvailabilityService) BookableDates(ctx context.Context, from civil.Date, days int, now time.Time) ([]civil.Date, error) {
	if days <= 0 {
		return nil, nil
	}
	to := from.AddDays(days - 1)

	templates, err := s.recurring.List(ctx)
	if err != nil {
		return nil, persistence("list recurring slots", err)
	}
	if len(templates) == 0 {
		return nil, nil
	}

	exceptions, err := s.exceptions.ListBetween(ctx, from, to)
	if err != nil {
		return nil, persistence("list slot exceptions", err)
	}

	confirmed, err := s.confirmedStarts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var dates []civil.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		slots := ComputeAvailableSlots(AvailabilityInput{
			Date:           d,
			Now:            now,
			Zone:           s.zone,
			LeadTime:       s.leadTime,
			RecurringSlots: templates,
			Exceptions:     exceptions,
			Confirmed:      confirmed,
		})
		if len(slots) > 0 {
			dates = append(dates, d)
		}
	}

	s.logger.Debug("Bookable dates computed",
		zap.String("from", from.String()),
		zap.Int("days", days),
		zap.Int("bookable", len(dates)),
	)

	return dates, nil
}

// confirmedStarts возвращает моменты начала подтверждённых уроков в днях [from, to]
func (s *AvailabilityService) confirmedStarts(ctx context.Context, from, to civil.Date) ([]time.Time, error) {
	lessons, err := s.lessons.ListConfirmedBetween(ctx, s.zone.StartOfDay(from), s.zone.StartOfDay(to.AddDays(1)))
	if err != nil {
		return nil, persistence("list confirmed lessons", err)
	}
	starts := make([]time.Time, 0, len(lessons))
	for _, l := range lessons {
		starts = append(starts, l.StartAt)
	}
	return starts, nil
}
