package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/app"
	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/config"
	"github.com/Freeeeeet/tutor_bot/internal/controller/dedup"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
	"github.com/Freeeeeet/tutor_bot/internal/repository/memory"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

const shutdownTimeout = 10 * time.Second

// stores - хранилища, выбранные по STORAGE
type stores struct {
	users      service.UserStore
	lessons    service.LessonStore
	recurring  service.RecurringSlotStore
	exceptions service.SlotExceptionStore
	pool       *pgxpool.Pool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("👋 Bot stopped")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting tutor bot",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.TimeZone),
		zap.Int64("operator_id", cfg.OperatorID),
		zap.Bool("webhook", cfg.UseWebhook()),
	)
	if cfg.OperatorID == 0 {
		logger.Warn("OPERATOR_ID is not set, lesson requests will not be forwarded")
	}

	zone, err := clock.LoadTimeZone(cfg.TimeZone)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if st.pool != nil {
		defer st.pool.Close()
	}

	clk := clock.System{}
	svc := buildServices(cfg, st, zone, clk, logger)

	seen, closeSeen, err := openDedup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSeen()

	mw := svc.middlewares(seen)

	opts := []bot.Option{
		bot.WithMiddlewares(mw.Chain()...),
		bot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram API error", zap.Error(err))
		}),
	}
	if cfg.UseWebhook() && cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}

	b, err := bot.New(cfg.TelegramToken, opts...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	botController := svc.controller(b)

	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично, бот работает и без него
		logger.Warn("Failed to register bot commands", zap.Error(err))
	}

	var db app.Pinger
	if st.pool != nil {
		db = st.pool
	}
	var hook http.Handler
	if cfg.UseWebhook() {
		hook = botController.WebhookHandler()
	}
	server := app.NewServer(cfg.HTTPAddr, app.NewRouter(db, hook, logger), logger)
	server.Start()

	if cfg.StateTTL > 0 {
		sweeper := app.NewSweeper(st.users, clk, cfg.StateTTL, logger)
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	if cfg.UseWebhook() {
		url := strings.TrimRight(cfg.WebhookURL, "/") + "/webhook"
		if err := botController.StartWebhook(ctx, url, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("start webhook: %w", err)
		}
	} else {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			logger.Warn("Failed to delete webhook", zap.Error(err))
		}
		botController.Start(ctx)
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		users := memory.NewUsers()
		return &stores{
			users:      users,
			lessons:    memory.NewLessons(users),
			recurring:  memory.NewRecurringSlots(),
			exceptions: memory.NewSlotExceptions(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		users:      repository.NewUserRepository(pool, logger),
		lessons:    repository.NewLessonRepository(pool),
		recurring:  repository.NewRecurringSlotRepository(pool),
		exceptions: repository.NewSlotExceptionRepository(pool),
		pool:       pool,
	}, nil
}

// openDedup выбирает хранилище id обновлений: Redis, если задан REDIS_ADDR, иначе память процесса
func openDedup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (dedup.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return dedup.NewMemoryStore(clock.System{}, dedup.DefaultTTL), func() {}, nil
	}

	client := dedup.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	store := dedup.NewRedisStore(client, dedup.DefaultTTL)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info("✅ Connected to Redis", zap.String("addr", cfg.RedisAddr))

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close redis", zap.Error(err))
		}
	}, nil
}
