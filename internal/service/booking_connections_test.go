package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/memory"
)

// connPool ведёт себя как пул соединений pgxpool: каждое обращение занимает соединение,
// UpdateState держит своё на всё время fn
type connPool chan struct{}

func (p connPool) acquire(ctx context.Context) (func(), error) {
	select {
	case p <- struct{}{}:
		return func() { <-p }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type pooledUsers struct {
	*memory.Users
	pool connPool
}

func (s pooledUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.Users.GetByID(ctx, id)
}

func (s pooledUsers) UpdateState(ctx context.Context, id int64, now time.Time, fn func(u *model.User) error) (*model.User, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.Users.UpdateState(ctx, id, now, fn)
}

type pooledRecurring struct {
	*memory.RecurringSlots
	pool connPool
}

func (s pooledRecurring) ListByWeekday(ctx context.Context, weekday int) ([]*model.RecurringSlot, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.RecurringSlots.ListByWeekday(ctx, weekday)
}

type pooledExceptions struct {
	*memory.SlotExceptions
	pool connPool
}

func (s pooledExceptions) ListBetween(ctx context.Context, from, to civil.Date) ([]*model.SlotException, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.SlotExceptions.ListBetween(ctx, from, to)
}

type pooledLessons struct {
	*memory.Lessons
	pool connPool
}

func (s pooledLessons) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Lesson, error) {
	release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.Lessons.ListConfirmedBetween(ctx, from, to)
}

func newPooledBookingService(t *testing.T, conns int) (*BookingService, *memory.Users) {
	t.Helper()
	ctx := context.Background()
	clk := clock.Fixed{T: sundayZero}
	logger := zap.NewNop()
	pool := make(connPool, conns)

	users := memory.NewUsers()
	lessons := memory.NewLessons(users)
	recurring := memory.NewRecurringSlots()
	require.NoError(t, recurring.Create(ctx, mondayAt(10)))
	require.NoError(t, recurring.Create(ctx, mondayAt(12)))

	availability := NewAvailabilityService(
		pooledRecurring{recurring, pool},
		pooledExceptions{memory.NewSlotExceptions(), pool},
		pooledLessons{lessons, pool},
		utcZone, DefaultLeadTime, logger,
	)
	ledger := NewLessonService(lessons, clk, 60, logger)
	svc := NewBookingService(pooledUsers{users, pool}, availability, ledger, &recordingNotifier{}, clk,
		BookingOptions{OperatorID: operatorID}, logger)

	for _, id := range []int64{studentID, otherID} {
		_, err := users.Upsert(ctx, model.Profile{TelegramID: id, FirstName: "Ученик"}, model.RoleStudent, sundayZero)
		require.NoError(t, err)
	}
	return svc, users
}

func setPooledState(t *testing.T, users *memory.Users, id int64, s conversation.State) {
	t.Helper()
	_, err := users.UpdateState(context.Background(), id, sundayZero, func(u *model.User) error {
		u.State = s
		return nil
	})
	require.NoError(t, err)
}

func TestDateAndTimeStepsWithSingleConnection(t *testing.T) {
	svc, users := newPooledBookingService(t, 1)
	setPooledState(t, users, studentID, conversation.ChoosingDate{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	day, err := svc.OnDateChosen(ctx, studentID, monday)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 2)

	start, err := svc.OnTimeChosen(ctx, studentID, civil.Time{Hour: 12})
	require.NoError(t, err)
	assert.Equal(t, at(monday, 12, 0), start)

	u, err := users.GetByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, conversation.Confirming{Start: at(monday, 12, 0)}, u.State)
}

func TestConcurrentDateChoicesDoNotExhaustConnections(t *testing.T) {
	svc, users := newPooledBookingService(t, 2)
	for _, id := range []int64{studentID, otherID} {
		setPooledState(t, users, id, conversation.ChoosingDate{})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int64{studentID, otherID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = svc.OnDateChosen(ctx, id, monday)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range []int64{studentID, otherID} {
		u, err := users.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, conversation.ChoosingTime{Date: monday}, u.State)
	}
}

func TestTimeOnDayWithoutSlotsKeepsState(t *testing.T) {
	svc, users := newPooledBookingService(t, 4)
	setPooledState(t, users, studentID, conversation.ChoosingTime{Date: monday.AddDays(1)})

	// Дата без слотов: время отклоняется, шаг остаётся прежним
	_, err := svc.OnTimeChosen(context.Background(), studentID, civil.Time{Hour: 10})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	u, err := users.GetByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, conversation.ChoosingTime{Date: monday.AddDays(1)}, u.State)
}
