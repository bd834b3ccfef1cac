package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
)

var now = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestUsersUpsertKeepsOperatorRole(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()

	u, err := users.Upsert(ctx, model.Profile{TelegramID: 1, FirstName: "Анна"}, model.RoleOperator, now)
	require.NoError(t, err)
	assert.True(t, u.IsOperator())
	assert.Equal(t, conversation.Idle{}, u.State)

	u, err = users.Upsert(ctx, model.Profile{TelegramID: 1, FirstName: "Аня"}, model.RoleStudent, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, u.IsOperator())
	assert.Equal(t, "Аня", u.FirstName)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUsersGetMissing(t *testing.T) {
	u, err := NewUsers().GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUsersUpdateStatePersistsOnError(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	_, err := users.Upsert(ctx, model.Profile{TelegramID: 1}, model.RoleStudent, now)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = users.UpdateState(ctx, 1, now, func(u *model.User) error {
		u.State = conversation.ChoosingDate{}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, conversation.ChoosingDate{}, u.State)
}

func TestUsersUpdateStateMissing(t *testing.T) {
	_, err := NewUsers().UpdateState(context.Background(), 1, now, func(*model.User) error { return nil })
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsersUpdateStateSerializesPerUser(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	_, err := users.Upsert(ctx, model.Profile{TelegramID: 1}, model.RoleStudent, now)
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = users.UpdateState(ctx, 1, now, func(u *model.User) error {
				u.DisplayName += "x"
				return nil
			})
		}()
	}
	wg.Wait()

	u, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, u.DisplayName, workers)
}

func TestUsersResetStaleStates(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	for id := int64(1); id <= 3; id++ {
		_, err := users.Upsert(ctx, model.Profile{TelegramID: id}, model.RoleStudent, now)
		require.NoError(t, err)
	}
	set := func(id int64, s conversation.State, at time.Time) {
		_, err := users.UpdateState(ctx, id, at, func(u *model.User) error {
			u.State = s
			return nil
		})
		require.NoError(t, err)
	}
	set(1, conversation.ChoosingDate{}, now)
	set(2, conversation.ChoosingDate{}, now.Add(time.Hour))

	n, err := users.ResetStaleStates(ctx, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	u1, _ := users.GetByID(ctx, 1)
	u2, _ := users.GetByID(ctx, 2)
	assert.Equal(t, conversation.Idle{}, u1.State)
	assert.Equal(t, conversation.ChoosingDate{}, u2.State)
}

func TestLessonsConflictWhileHeld(t *testing.T) {
	ctx := context.Background()
	lessons := NewLessons(nil)
	start := now.Add(24 * time.Hour)

	first := &model.Lesson{StudentID: 1, StartAt: start}
	require.NoError(t, lessons.CreatePending(ctx, first))
	assert.Equal(t, model.LessonStatusPending, first.Status)
	assert.Equal(t, model.DefaultLessonDuration, first.DurationMinutes)

	err := lessons.CreatePending(ctx, &model.Lesson{StudentID: 2, StartAt: start})
	assert.ErrorIs(t, err, repository.ErrConflict)

	ok, err := lessons.CompareAndSetStatus(ctx, first.ID, model.LessonStatusPending, model.LessonStatusDeclined, now)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, lessons.CreatePending(ctx, &model.Lesson{StudentID: 2, StartAt: start}))
}

func TestLessonsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	lessons := NewLessons(nil)
	l := &model.Lesson{StudentID: 1, StartAt: now}
	require.NoError(t, lessons.CreatePending(ctx, l))

	ok, err := lessons.CompareAndSetStatus(ctx, l.ID, model.LessonStatusConfirmed, model.LessonStatusCanceled, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = lessons.CompareAndSetStatus(ctx, l.ID, model.LessonStatusPending, model.LessonStatusConfirmed, now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := lessons.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LessonStatusConfirmed, got.Status)
}

func TestLessonsConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	lessons := NewLessons(nil)
	start := now.Add(48 * time.Hour)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(student int64) {
			defer wg.Done()
			if err := lessons.CreatePending(ctx, &model.Lesson{StudentID: student, StartAt: start}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestLessonsListings(t *testing.T) {
	ctx := context.Background()
	users := NewUsers()
	_, err := users.Upsert(ctx, model.Profile{TelegramID: 7, FirstName: "Олег"}, model.RoleStudent, now)
	require.NoError(t, err)
	lessons := NewLessons(users)

	later := &model.Lesson{StudentID: 7, StartAt: now.Add(3 * time.Hour)}
	earlier := &model.Lesson{StudentID: 7, StartAt: now.Add(time.Hour)}
	past := &model.Lesson{StudentID: 7, StartAt: now.Add(-time.Hour)}
	for _, l := range []*model.Lesson{later, earlier, past} {
		require.NoError(t, lessons.CreatePending(ctx, l))
	}
	_, err = lessons.CompareAndSetStatus(ctx, later.ID, model.LessonStatusPending, model.LessonStatusConfirmed, now)
	require.NoError(t, err)

	active, err := lessons.ListActiveByStudent(ctx, 7, now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, earlier.ID, active[0].ID)
	assert.Equal(t, later.ID, active[1].ID)
	require.NotNil(t, active[0].Student)
	assert.Equal(t, "Олег", active[0].Student.FirstName)

	pending, err := lessons.ListPending(ctx, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, earlier.ID, pending[0].ID)

	confirmed, err := lessons.ListConfirmedBetween(ctx, now, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, confirmed)

	confirmed, err = lessons.ListConfirmedBetween(ctx, now, now.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)
}

func TestSlotExceptionsListBetweenInclusive(t *testing.T) {
	ctx := context.Background()
	store := NewSlotExceptions()
	d := civil.Date{Year: 2024, Month: time.June, Day: 10}
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, &model.SlotException{Date: d.AddDays(i), FullDay: true}))
	}

	got, err := store.ListBetween(ctx, d.AddDays(1), d.AddDays(3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, d.AddDays(1), got[0].Date)
	assert.Equal(t, d.AddDays(3), got[2].Date)

	ok, err := store.Delete(ctx, got[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Delete(ctx, got[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecurringSlotsByWeekday(t *testing.T) {
	ctx := context.Background()
	store := NewRecurringSlots()
	require.NoError(t, store.Create(ctx, &model.RecurringSlot{Weekday: 0, StartTime: civil.Time{Hour: 15}, DurationMinutes: 60}))
	require.NoError(t, store.Create(ctx, &model.RecurringSlot{Weekday: 0, StartTime: civil.Time{Hour: 10}, DurationMinutes: 60}))
	require.NoError(t, store.Create(ctx, &model.RecurringSlot{Weekday: 2, StartTime: civil.Time{Hour: 10}, DurationMinutes: 60}))

	monday, err := store.ListByWeekday(ctx, 0)
	require.NoError(t, err)
	require.Len(t, monday, 2)
	assert.Equal(t, 10, monday[0].StartTime.Hour)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
