package controller

import (
	"context"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/actor"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutor_bot/internal/controller/dedup"
	"github.com/Freeeeeet/tutor_bot/internal/metrics"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Результаты обработки обновления для метрик
const (
	resultHandled     = "handled"
	resultDuplicate   = "duplicate"
	resultRateLimited = "rate_limited"
	resultError       = "error"
	resultPanic       = "panic"
)

type resultKey struct{}

func setResult(ctx context.Context, result string) {
	if p, ok := ctx.Value(resultKey{}).(*string); ok {
		*p = result
	}
}

// limiterIdleTTL - минимальный простой, после которого лимитер пользователя удаляется
const limiterIdleTTL = 10 * time.Minute

// RateLimiter ограничивает частоту обновлений от одного пользователя.
// nil-лимитер пропускает всё.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*userLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	clock     clock.Clock
	nextSweep time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter возвращает nil, если ограничение выключено (perSecond <= 0)
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}

	// Простаивающий дольше idleTTL лимитер уже полон, удалить его - то же, что создать заново
	idleTTL := time.Duration(float64(burst) / perSecond * float64(time.Second))
	if idleTTL < limiterIdleTTL {
		idleTTL = limiterIdleTTL
	}

	return &RateLimiter{
		limiters: make(map[int64]*userLimiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		idleTTL:  idleTTL,
		clock:    clock.System{},
	}
}

// Allow проверяет, можно ли обработать ещё одно обновление пользователя
func (l *RateLimiter) Allow(telegramID int64) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	now := l.clock.Now()
	if now.After(l.nextSweep) {
		for id, ul := range l.limiters {
			if now.Sub(ul.lastSeen) >= l.idleTTL {
				delete(l.limiters, id)
			}
		}
		l.nextSweep = now.Add(l.idleTTL)
	}

	ul, exists := l.limiters[telegramID]
	if !exists {
		ul = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[telegramID] = ul
	}
	ul.lastSeen = now
	l.mu.Unlock()

	return ul.limiter.Allow()
}

// tracked возвращает число пользователей, для которых хранится лимитер
func (l *RateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middlewares - обёртки вокруг всех обработчиков бота
type Middlewares struct {
	users   *service.UserService
	dedup   dedup.Store
	limiter *RateLimiter
	logger  *zap.Logger
}

func NewMiddlewares(users *service.UserService, store dedup.Store, limiter *RateLimiter, logger *zap.Logger) *Middlewares {
	return &Middlewares{
		users:   users,
		dedup:   store,
		limiter: limiter,
		logger:  logger,
	}
}

// Chain возвращает middlewares в порядке применения, первый - внешний
func (m *Middlewares) Chain() []bot.Middleware {
	return []bot.Middleware{m.Metrics, m.Dedup, m.RateLimit, m.Register}
}

// Metrics считает обновления и время их обработки, перехватывает панику обработчика
func (m *Middlewares) Metrics(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		started := time.Now()
		result := resultHandled
		ctx = context.WithValue(ctx, resultKey{}, &result)

		defer func() {
			if r := recover(); r != nil {
				result = resultPanic
				m.logger.Error("Handler panicked",
					zap.Int64("update_id", update.ID),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
			}
			metrics.RecordUpdate(actor.Kind(update), result, time.Since(started).Seconds())
		}()

		next(ctx, b, update)
	}
}

// Dedup отбрасывает повторно доставленные обновления. Ошибка хранилища не блокирует обработку.
func (m *Middlewares) Dedup(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if m.dedup == nil {
			next(ctx, b, update)
			return
		}

		first, err := m.dedup.MarkSeen(ctx, update.ID)
		if err != nil {
			m.logger.Warn("Update dedup unavailable", zap.Int64("update_id", update.ID), zap.Error(err))
			next(ctx, b, update)
			return
		}
		if !first {
			setResult(ctx, resultDuplicate)
			m.logger.Debug("Duplicate update skipped", zap.Int64("update_id", update.ID))
			return
		}

		next(ctx, b, update)
	}
}

// RateLimit отбрасывает обновления пользователя сверх лимита
func (m *Middlewares) RateLimit(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		sender := actor.Sender(update)
		if sender == nil || m.limiter.Allow(sender.ID) {
			next(ctx, b, update)
			return
		}

		setResult(ctx, resultRateLimited)
		m.logger.Warn("Rate limit exceeded", zap.Int64("telegram_id", sender.ID))
		if update.CallbackQuery != nil {
			common.AnswerCallback(ctx, b, update.CallbackQuery.ID, "⏳ Слишком много запросов, подождите немного")
		}
	}
}

// Register создаёт пользователя при первом контакте, обновляет профиль и время активности.
// Зарегистрированный пользователь доступен обработчикам через actor.FromContext.
func (m *Middlewares) Register(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		sender := actor.Sender(update)
		if sender == nil || sender.IsBot {
			next(ctx, b, update)
			return
		}

		user, err := m.users.Register(ctx, actor.Profile(sender))
		if err != nil {
			setResult(ctx, resultError)
			m.logger.Error("Failed to register user", zap.Int64("telegram_id", sender.ID), zap.Error(err))

			text := common.ErrorMessage(err)
			switch {
			case update.CallbackQuery != nil:
				common.AnswerCallbackAlert(ctx, b, update.CallbackQuery.ID, text)
			case update.Message != nil:
				b.SendMessage(ctx, &bot.SendMessageParams{ChatID: update.Message.Chat.ID, Text: text})
			}
			return
		}

		next(actor.WithUser(ctx, user), b, update)
	}
}
