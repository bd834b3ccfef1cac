package service

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/memory"
)

var (
	operator = &model.User{ID: operatorID, Role: model.RoleOperator}
	student  = &model.User{ID: studentID, Role: model.RoleStudent}
)

func newScheduleService() *ScheduleService {
	return NewScheduleService(memory.NewRecurringSlots(), memory.NewSlotExceptions(), clock.Fixed{T: sundayZero}, zap.NewNop())
}

func TestAddRecurringSlot(t *testing.T) {
	ctx := context.Background()
	svc := newScheduleService()

	slot, err := svc.AddRecurringSlot(ctx, operator, 0, civil.Time{Hour: 10, Minute: 30, Second: 15}, 0)
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 10, Minute: 30}, slot.StartTime)
	assert.Equal(t, model.DefaultLessonDuration, slot.DurationMinutes)

	slots, err := svc.ListRecurringSlots(ctx, operator)
	require.NoError(t, err)
	assert.Len(t, slots, 1)

	require.NoError(t, svc.DeleteRecurringSlot(ctx, operator, slot.ID))
	assert.ErrorIs(t, svc.DeleteRecurringSlot(ctx, operator, slot.ID), ErrNotFound)
}

func TestAddRecurringSlotValidation(t *testing.T) {
	ctx := context.Background()
	svc := newScheduleService()

	_, err := svc.AddRecurringSlot(ctx, operator, 7, civil.Time{Hour: 10}, 60)
	assert.ErrorIs(t, err, ErrBadSchedule)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddRecurringSlot(ctx, operator, 1, civil.Time{Hour: 25}, 60)
	assert.ErrorIs(t, err, ErrBadTime)

	_, err = svc.AddRecurringSlot(ctx, operator, 1, civil.Time{Hour: 10}, 500)
	assert.ErrorIs(t, err, ErrBadSchedule)
}

func TestScheduleRequiresOperator(t *testing.T) {
	ctx := context.Background()
	svc := newScheduleService()

	_, err := svc.AddRecurringSlot(ctx, student, 0, civil.Time{Hour: 10}, 60)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ListRecurringSlots(ctx, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.BlockDate(ctx, student, monday, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.UnblockDate(ctx, student, uuid.New()), ErrNotFound)
}

func TestBlockAndUnblockDate(t *testing.T) {
	ctx := context.Background()
	svc := newScheduleService()

	full, err := svc.BlockDate(ctx, operator, monday, nil)
	require.NoError(t, err)
	assert.True(t, full.FullDay)

	until := civil.Time{Hour: 13}
	partial, err := svc.BlockDate(ctx, operator, monday.AddDays(1), &until)
	require.NoError(t, err)
	assert.False(t, partial.FullDay)
	assert.Equal(t, &until, partial.UntilTime)

	list, err := svc.ListExceptions(ctx, operator, utcZone, 30)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.UnblockDate(ctx, operator, full.ID))
	assert.ErrorIs(t, svc.UnblockDate(ctx, operator, full.ID), ErrNotFound)
}

func TestNormalizeDisplayName(t *testing.T) {
	name, err := NormalizeDisplayName("  Анна \n Иванова ")
	require.NoError(t, err)
	assert.Equal(t, "Анна Иванова", name)

	_, err = NormalizeDisplayName("Я")
	assert.ErrorIs(t, err, ErrBadName)

	_, err = NormalizeDisplayName(string(make([]rune, 65)))
	assert.ErrorIs(t, err, ErrBadName)
}

func TestRegisterAssignsOperatorRole(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(memory.NewUsers(), clock.Fixed{T: sundayZero}, operatorID, zap.NewNop())

	op, err := svc.Register(ctx, model.Profile{TelegramID: operatorID, FirstName: "Анна"})
	require.NoError(t, err)
	assert.True(t, op.IsOperator())
	assert.Equal(t, "Анна", op.DisplayName)

	st, err := svc.Register(ctx, model.Profile{TelegramID: studentID, FirstName: "Иван", LastName: "Петров"})
	require.NoError(t, err)
	assert.False(t, st.IsOperator())
	assert.Equal(t, "Иван Петров", st.DisplayName)
	assert.Equal(t, sundayZero, st.LastActivity)
}
