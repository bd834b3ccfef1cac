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

// WeekDays - сколько дней показывает обзор недели
const WeekDays = 7

// WeekEntryKind - чем занят интервал в обзоре недели
type WeekEntryKind string

const (
	WeekEntryFree      WeekEntryKind = "free"
	WeekEntryPending   WeekEntryKind = "pending"
	WeekEntryConfirmed WeekEntryKind = "confirmed"
)

// WeekEntry - один интервал в обзоре недели
type WeekEntry struct {
	Start    time.Time
	Duration time.Duration
	Kind     WeekEntryKind
	Lesson   *model.Lesson // nil для свободного времени
}

// End возвращает момент окончания интервала
func (e WeekEntry) End() time.Time {
	return e.Start.Add(e.Duration)
}

// WeekView - расписание на WeekDays дней начиная с From
type WeekView struct {
	From       civil.Date
	Now        time.Time
	Entries    []WeekEntry
	Exceptions []*model.SlotException
}

// Days возвращает даты обзора по порядку
func (v *WeekView) Days() []civil.Date {
	days := make([]civil.Date, WeekDays)
	for i := range days {
		days[i] = v.From.AddDays(i)
	}
	return days
}

// WeekService собирает для репетитора обзор ближайшей недели:
// свободное время, заявки и подтверждённые уроки
type WeekService struct {
	availability *AvailabilityService
	lessons      LessonStore
	exceptions   SlotExceptionStore
	clock        clock.Clock
	logger       *zap.Logger
}

func NewWeekService(
	availability *AvailabilityService,
	lessons LessonStore,
	exceptions SlotExceptionStore,
	clk clock.Clock,
	logger *zap.Logger,
) *WeekService {
	return &WeekService{
		availability: availability,
		lessons:      lessons,
		exceptions:   exceptions,
		clock:        clk,
		logger:       logger,
	}
}

// Week возвращает обзор недели начиная с сегодняшнего дня в часовом поясе репетитора
func (s *WeekService) Week(ctx context.Context, actor *model.User) (*WeekView, error) {
	if err := requireOperator(actor); err != nil {
		return nil, err
	}

	zone := s.availability.Zone()
	now := s.clock.Now()
	from := zone.DateOf(now)
	to := from.AddDays(WeekDays - 1)
	windowStart, windowEnd := zone.StartOfDay(from), zone.StartOfDay(to.AddDays(1))

	view := &WeekView{From: from, Now: now}

	var free []WeekEntry
	for _, d := range view.Days() {
		slots, err := s.availability.FreeSlots(ctx, d, now)
		if err != nil {
			return nil, err
		}
		for _, f := range slots {
			free = append(free, WeekEntry{Start: f.Start, Duration: f.Duration, Kind: WeekEntryFree})
		}
	}

	confirmed, err := s.lessons.ListConfirmedBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return nil, persistence("list confirmed lessons", err)
	}
	for _, l := range confirmed {
		view.Entries = append(view.Entries, lessonEntry(l, WeekEntryConfirmed))
	}

	pending, err := s.lessons.ListPending(ctx, now)
	if err != nil {
		return nil, persistence("list pending lessons", err)
	}
	var held []WeekEntry
	for _, l := range pending {
		if l.StartAt.Before(windowEnd) {
			held = append(held, lessonEntry(l, WeekEntryPending))
		}
	}
	view.Entries = append(view.Entries, held...)

	// Время под заявкой свободно для расчёта, но на картинке показывается заявкой
	for _, e := range free {
		if !overlapsEntry(e, held) {
			view.Entries = append(view.Entries, e)
		}
	}

	view.Exceptions, err = s.exceptions.ListBetween(ctx, from, to)
	if err != nil {
		return nil, persistence("list slot exceptions", err)
	}

	sort.SliceStable(view.Entries, func(i, j int) bool {
		return view.Entries[i].Start.Before(view.Entries[j].Start)
	})

	s.logger.Debug("Week view built",
		zap.String("from", from.String()),
		zap.Int("entries", len(view.Entries)),
		zap.Int("exceptions", len(view.Exceptions)),
	)

	return view, nil
}

func lessonEntry(l *model.Lesson, kind WeekEntryKind) WeekEntry {
	return WeekEntry{
		Start:    l.StartAt,
		Duration: time.Duration(l.DurationMinutes) * time.Minute,
		Kind:     kind,
		Lesson:   l,
	}
}

func overlapsEntry(e WeekEntry, others []WeekEntry) bool {
	for _, o := range others {
		if e.Start.Before(o.End()) && o.Start.Before(e.End()) {
			return true
		}
	}
	return false
}
