package service

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/memory"
)

var (
	monday     = civil.Date{Year: 2024, Month: time.June, Day: 10}
	sundayZero = time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC)
	utcZone    = clock.NewTimeZone(time.UTC)
)

func mondayAt(hour int) *model.RecurringSlot {
	return &model.RecurringSlot{Weekday: 0, StartTime: civil.Time{Hour: hour}, DurationMinutes: 60}
}

func at(d civil.Date, hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
}

func TestComputeAvailableSlotsRecurringSlotOffered(t *testing.T) {
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            sundayZero,
		Zone:           utcZone,
		LeadTime:       DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10)},
	})

	assert.Equal(t, []time.Time{at(monday, 10, 0)}, slots)
}

func TestComputeAvailableSlotsExcludesConfirmed(t *testing.T) {
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            sundayZero,
		Zone:           utcZone,
		LeadTime:       DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10), mondayAt(12)},
		Confirmed:      []time.Time{at(monday, 10, 0)},
	})

	assert.Equal(t, []time.Time{at(monday, 12, 0)}, slots)
}

func TestComputeAvailableSlotsOtherWeekday(t *testing.T) {
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday.AddDays(1),
		Now:            sundayZero,
		Zone:           utcZone,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10)},
	})

	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsFullDayException(t *testing.T) {
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            sundayZero,
		Zone:           utcZone,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10), mondayAt(15)},
		Exceptions:     []*model.SlotException{{Date: monday, FullDay: true}},
	})

	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsPartialException(t *testing.T) {
	until := civil.Time{Hour: 12}
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:     monday,
		Now:      sundayZero,
		Zone:     utcZone,
		LeadTime: DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{
			mondayAt(9),
			{Weekday: 0, StartTime: civil.Time{Hour: 11, Minute: 30}, DurationMinutes: 60},
			mondayAt(12),
			mondayAt(15),
		},
		Exceptions: []*model.SlotException{
			{Date: monday, UntilTime: &until},
			// Исключение на другой день не влияет
			{Date: monday.AddDays(7), FullDay: true},
		},
	})

	// 11:30-12:30 пересекается с блоком до 12:00, 12:00 уже нет
	assert.Equal(t, []time.Time{at(monday, 12, 0), at(monday, 15, 0)}, slots)
}

func TestComputeAvailableSlotsLeadTime(t *testing.T) {
	now := at(monday, 9, 30)

	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            now,
		Zone:           utcZone,
		LeadTime:       DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{mondayAt(9), mondayAt(10), mondayAt(11)},
	})
	// Ровно now+30m ещё доступно
	assert.Equal(t, []time.Time{at(monday, 10, 0), at(monday, 11, 0)}, slots)

	slots = ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            now.Add(time.Minute),
		Zone:           utcZone,
		LeadTime:       DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10), mondayAt(11)},
	})
	assert.Equal(t, []time.Time{at(monday, 11, 0)}, slots)
}

func TestComputeAvailableSlotsSortedAndDeduplicated(t *testing.T) {
	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            sundayZero,
		Zone:           utcZone,
		RecurringSlots: []*model.RecurringSlot{mondayAt(16), mondayAt(10), mondayAt(16), mondayAt(13)},
	})

	assert.Equal(t, []time.Time{at(monday, 10, 0), at(monday, 13, 0), at(monday, 16, 0)}, slots)
}

func TestComputeAvailableSlotsUsesZone(t *testing.T) {
	msk, err := clock.LoadTimeZone("Europe/Moscow")
	require.NoError(t, err)

	slots := ComputeAvailableSlots(AvailabilityInput{
		Date:           monday,
		Now:            sundayZero,
		Zone:           msk,
		RecurringSlots: []*model.RecurringSlot{mondayAt(10)},
	})

	// 10:00 по Москве = 07:00 UTC
	assert.Equal(t, []time.Time{at(monday, 7, 0)}, slots)
}

func newAvailabilityFixture(t *testing.T) (*AvailabilityService, *memory.RecurringSlots, *memory.SlotExceptions, *memory.Lessons) {
	t.Helper()
	recurring := memory.NewRecurringSlots()
	exceptions := memory.NewSlotExceptions()
	lessons := memory.NewLessons(nil)
	svc := NewAvailabilityService(recurring, exceptions, lessons, utcZone, DefaultLeadTime, zap.NewNop())
	return svc, recurring, exceptions, lessons
}

func TestAvailabilityServiceIgnoresPendingLessons(t *testing.T) {
	ctx := context.Background()
	svc, recurring, _, lessons := newAvailabilityFixture(t)
	require.NoError(t, recurring.Create(ctx, mondayAt(10)))
	require.NoError(t, recurring.Create(ctx, mondayAt(12)))

	pending := &model.Lesson{StudentID: 1, StartAt: at(monday, 10, 0)}
	require.NoError(t, lessons.CreatePending(ctx, pending))

	slots, err := svc.ComputeAvailableSlots(ctx, monday, sundayZero)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	_, err = lessons.CompareAndSetStatus(ctx, pending.ID, model.LessonStatusPending, model.LessonStatusConfirmed, sundayZero)
	require.NoError(t, err)

	slots, err = svc.ComputeAvailableSlots(ctx, monday, sundayZero)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(monday, 12, 0)}, slots)
}

func TestAvailabilityServiceBookableDates(t *testing.T) {
	ctx := context.Background()
	svc, recurring, exceptions, _ := newAvailabilityFixture(t)
	require.NoError(t, recurring.Create(ctx, mondayAt(10)))
	require.NoError(t, recurring.Create(ctx, &model.RecurringSlot{Weekday: 2, StartTime: civil.Time{Hour: 10}, DurationMinutes: 60}))
	require.NoError(t, exceptions.Create(ctx, &model.SlotException{Date: monday.AddDays(2), FullDay: true}))

	sunday := monday.AddDays(-1)
	dates, err := svc.BookableDates(ctx, sunday, 14, sundayZero)
	require.NoError(t, err)

	// Среда 12 июня закрыта целиком
	assert.Equal(t, []civil.Date{monday, monday.AddDays(7), monday.AddDays(9)}, dates)

	dates, err = svc.BookableDates(ctx, sunday, 0, sundayZero)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestAvailabilityServiceNoTemplates(t *testing.T) {
	svc, _, _, _ := newAvailabilityFixture(t)

	slots, err := svc.ComputeAvailableSlots(context.Background(), monday, sundayZero)
	require.NoError(t, err)
	assert.Empty(t, slots)

	dates, err := svc.BookableDates(context.Background(), monday, 30, sundayZero)
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestComputeFreeSlotsKeepsTemplateDuration(t *testing.T) {
	free := ComputeFreeSlots(AvailabilityInput{
		Date:     monday,
		Now:      sundayZero,
		Zone:     utcZone,
		LeadTime: DefaultLeadTime,
		RecurringSlots: []*model.RecurringSlot{
			{Weekday: 0, StartTime: civil.Time{Hour: 9}, DurationMinutes: 90},
			{Weekday: 0, StartTime: civil.Time{Hour: 12}, DurationMinutes: 45},
			{Weekday: 0, StartTime: civil.Time{Hour: 12}, DurationMinutes: 120},
		},
	})

	require.Len(t, free, 2)
	assert.Equal(t, FreeSlot{Start: at(monday, 9, 0), Duration: 90 * time.Minute}, free[0])
	assert.Equal(t, FreeSlot{Start: at(monday, 12, 0), Duration: 2 * time.Hour}, free[1])
	assert.Equal(t, at(monday, 10, 30), free[0].End())
}
