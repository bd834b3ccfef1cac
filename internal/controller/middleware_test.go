package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/actor"
	"github.com/Freeeeeet/tutor_bot/internal/controller/dedup"
	"github.com/Freeeeeet/tutor_bot/internal/controller/telegramtest"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/memory"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

type failingStore struct{}

func (failingStore) MarkSeen(context.Context, int64) (bool, error) {
	return false, errors.New("redis is down")
}

func newMiddlewares(t *testing.T, store dedup.Store, limiter *RateLimiter) (*Middlewares, *memory.Users) {
	t.Helper()
	users := memory.NewUsers()
	userSvc := service.NewUserService(users, clock.Fixed{T: sundayZero}, operatorID, zap.NewNop())
	return NewMiddlewares(userSvc, store, limiter, zap.NewNop()), users
}

func textUpdate(id, from int64, text string) *models.Update {
	return &models.Update{
		ID: id,
		Message: &models.Message{
			From: &models.User{ID: from, FirstName: "Иван"},
			Chat: models.Chat{ID: from},
			Text: text,
		},
	}
}

func counting(calls *int) bot.HandlerFunc {
	return func(context.Context, *bot.Bot, *models.Update) { *calls++ }
}

func TestDedupDropsRepeatedUpdate(t *testing.T) {
	mw, _ := newMiddlewares(t, dedup.NewMemoryStore(clock.Fixed{T: sundayZero}, time.Hour), nil)
	calls := 0
	h := mw.Dedup(counting(&calls))

	h(context.Background(), nil, textUpdate(7, studentID, "/book"))
	h(context.Background(), nil, textUpdate(7, studentID, "/book"))
	h(context.Background(), nil, textUpdate(8, studentID, "/book"))

	assert.Equal(t, 2, calls)
}

func TestDedupFailsOpen(t *testing.T) {
	mw, _ := newMiddlewares(t, failingStore{}, nil)
	calls := 0
	h := mw.Dedup(counting(&calls))

	h(context.Background(), nil, textUpdate(7, studentID, "/book"))
	h(context.Background(), nil, textUpdate(7, studentID, "/book"))

	assert.Equal(t, 2, calls)
}

func TestRateLimitPerUser(t *testing.T) {
	tg := telegramtest.NewServer(t)
	b := tg.Bot(t)

	limiter := NewRateLimiter(0.001, 2)
	require.NotNil(t, limiter)
	mw, _ := newMiddlewares(t, nil, limiter)
	calls := 0
	h := mw.RateLimit(counting(&calls))

	for i := 0; i < 3; i++ {
		h(context.Background(), b, textUpdate(int64(i), studentID, "/book"))
	}
	assert.Equal(t, 2, calls)

	// У другого пользователя свой лимит
	h(context.Background(), b, textUpdate(10, nameless, "/book"))
	assert.Equal(t, 3, calls)

	h(context.Background(), b, &models.Update{
		ID:            11,
		CallbackQuery: &models.CallbackQuery{ID: "cb-limited", From: models.User{ID: studentID}, Data: "noop"},
	})
	assert.Equal(t, 3, calls)
	answer := tg.Last(t, "answerCallbackQuery")
	assert.Equal(t, "cb-limited", answer.Params["callback_query_id"])
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0, 10)
	assert.Nil(t, limiter)
	assert.True(t, limiter.Allow(studentID))
}

func TestRateLimiterEvictsIdleUsers(t *testing.T) {
	limiter := NewRateLimiter(1, 5)
	require.NotNil(t, limiter)
	assert.Equal(t, limiterIdleTTL, limiter.idleTTL)

	limiter.clock = clock.Fixed{T: sundayZero}
	for id := int64(1000); id < 1100; id++ {
		assert.True(t, limiter.Allow(id))
	}
	assert.Equal(t, 100, limiter.tracked())

	// Активный пользователь остаётся, остальные удаляются после простоя
	limiter.clock = clock.Fixed{T: sundayZero.Add(limiterIdleTTL / 2)}
	assert.True(t, limiter.Allow(1000))
	limiter.clock = clock.Fixed{T: sundayZero.Add(limiterIdleTTL + time.Second)}
	assert.True(t, limiter.Allow(studentID))
	assert.Equal(t, 2, limiter.tracked())

	limiter.clock = clock.Fixed{T: sundayZero.Add(3 * limiterIdleTTL)}
	assert.True(t, limiter.Allow(studentID))
	assert.Equal(t, 1, limiter.tracked())
}

func TestRateLimiterIdleTTLCoversRefill(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	require.NotNil(t, limiter)
	assert.InDelta(t, float64(2000*time.Second), float64(limiter.idleTTL), float64(time.Millisecond))
}

func TestRegisterPutsUserIntoContext(t *testing.T) {
	mw, users := newMiddlewares(t, nil, nil)

	var seen *model.User
	h := mw.Register(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		seen = actor.FromContext(ctx)
	})

	h(context.Background(), nil, textUpdate(1, studentID, "/start"))
	require.NotNil(t, seen)
	assert.Equal(t, studentID, seen.ID)
	assert.Equal(t, "Иван", seen.DisplayName)
	assert.Equal(t, model.RoleStudent, seen.Role)

	stored, err := users.GetByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, "Иван", stored.FirstName)

	h(context.Background(), nil, textUpdate(2, operatorID, "/start"))
	assert.Equal(t, model.RoleOperator, seen.Role)
}

func TestRegisterSkipsUpdatesWithoutSender(t *testing.T) {
	mw, _ := newMiddlewares(t, nil, nil)
	calls := 0
	var seen *model.User
	h := mw.Register(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		calls++
		seen = actor.FromContext(ctx)
	})

	h(context.Background(), nil, &models.Update{ID: 1})
	assert.Equal(t, 1, calls)
	assert.Nil(t, seen)
}

func TestMetricsRecoversPanic(t *testing.T) {
	mw, _ := newMiddlewares(t, nil, nil)
	h := mw.Metrics(func(context.Context, *bot.Bot, *models.Update) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		h(context.Background(), nil, textUpdate(1, studentID, "/book"))
	})
}

func TestChainOrder(t *testing.T) {
	mw, _ := newMiddlewares(t, dedup.NewMemoryStore(clock.Fixed{T: sundayZero}, time.Hour), nil)

	var handler bot.HandlerFunc = func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		require.NotNil(t, actor.FromContext(ctx))
	}
	chain := mw.Chain()
	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	handler(context.Background(), nil, textUpdate(1, studentID, "/book"))
}

func TestNotifierRendersEveryKind(t *testing.T) {
	tg := telegramtest.NewServer(t)
	n := NewNotifier(tg.Bot(t), clock.NewTimeZone(time.UTC))

	lesson := &model.Lesson{
		ID:              uuid.New(),
		StudentID:       studentID,
		StartAt:         time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.LessonStatusPending,
		Student:         &model.User{ID: studentID, DisplayName: "Иван <script>"},
	}

	kinds := []service.NotificationKind{
		service.NotifyLessonRequested,
		service.NotifyLessonAwaitingDecision,
		service.NotifyLessonConfirmed,
		service.NotifyLessonDeclined,
		service.NotifyLessonCanceled,
	}
	for _, kind := range kinds {
		require.NoError(t, n.Notify(context.Background(), service.Notification{
			Recipient: operatorID, Kind: kind, Lesson: lesson,
		}), kind)
	}

	msgs := tg.Messages(operatorID)
	require.Len(t, msgs, len(kinds))
	for _, m := range msgs {
		assert.Contains(t, m.Text(), "10 июня 2024")
		assert.Equal(t, "HTML", m.Params["parse_mode"])
	}
	assert.Len(t, msgs[1].CallbackData(), 2)
	assert.Contains(t, msgs[1].Text(), "Иван &lt;script&gt;")
	assert.Empty(t, msgs[0].CallbackData())

	err := n.Notify(context.Background(), service.Notification{Recipient: operatorID, Kind: "bogus", Lesson: lesson})
	assert.Error(t, err)
	err = n.Notify(context.Background(), service.Notification{Recipient: operatorID, Kind: service.NotifyLessonConfirmed})
	assert.Error(t, err)
}
