package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/metrics"
)

// StateResetter сбрасывает диалоги без активности
type StateResetter interface {
	ResetStaleStates(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper периодически возвращает в Idle диалоги, брошенные на середине
type Sweeper struct {
	users    StateResetter
	clock    clock.Clock
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewSweeper создаёт задачу. Интервал проверки - четверть TTL, но не меньше минуты.
func NewSweeper(users StateResetter, clk clock.Clock, ttl time.Duration, logger *zap.Logger) *Sweeper {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Sweeper{
		users:    users,
		clock:    clk,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает фоновую задачу
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting stale session sweeper",
		zap.Duration("ttl", s.ttl),
		zap.Duration("interval", s.interval),
	)

	go s.run(ctx)
}

// Stop останавливает фоновую задачу
func (s *Sweeper) Stop() {
	s.logger.Info("Stopping stale session sweeper")
	close(s.stopChan)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep выполняет один проход
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.users.ResetStaleStates(ctx, s.clock.Now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("Failed to reset stale sessions", zap.Error(err))
		return 0
	}
	if n > 0 {
		metrics.StaleSessionsReset.Add(float64(n))
		s.logger.Info("Stale sessions reset", zap.Int64("count", n))
	}
	return n
}
