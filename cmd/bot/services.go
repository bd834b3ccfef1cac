package main

import (
	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/config"
	"github.com/Freeeeeet/tutor_bot/internal/controller"
	"github.com/Freeeeeet/tutor_bot/internal/controller/dedup"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// services - сервисы поверх выбранных хранилищ
type services struct {
	users        *service.UserService
	availability *service.AvailabilityService
	lessons      *service.LessonService
	schedule     *service.ScheduleService
	week         *service.WeekService

	cfg    *config.Config
	st     *stores
	zone   *clock.TimeZone
	clock  clock.Clock
	logger *zap.Logger
}

func buildServices(cfg *config.Config, st *stores, zone *clock.TimeZone, clk clock.Clock, logger *zap.Logger) *services {
	availability := service.NewAvailabilityService(st.recurring, st.exceptions, st.lessons, zone, cfg.LeadTime, logger)
	return &services{
		users:        service.NewUserService(st.users, clk, cfg.OperatorID, logger),
		availability: availability,
		lessons:      service.NewLessonService(st.lessons, clk, cfg.LessonDuration, logger),
		schedule:     service.NewScheduleService(st.recurring, st.exceptions, clk, logger),
		week:         service.NewWeekService(availability, st.lessons, st.exceptions, clk, logger),
		cfg:          cfg,
		st:           st,
		zone:         zone,
		clock:        clk,
		logger:       logger,
	}
}

// middlewares нужны до создания бота: они передаются в bot.New
func (s *services) middlewares(seen dedup.Store) *controller.Middlewares {
	limiter := controller.NewRateLimiter(s.cfg.RateLimitPerSec, s.cfg.RateLimitBurst)
	return controller.NewMiddlewares(s.users, seen, limiter, s.logger)
}

// booking собирается отдельно: Notifier появляется только после создания бота
func (s *services) booking(notifier service.Notifier) *service.BookingService {
	return service.NewBookingService(s.st.users, s.availability, s.lessons, notifier, s.clock,
		service.BookingOptions{OperatorID: s.cfg.OperatorID, HorizonDays: s.cfg.BookingHorizonDays}, s.logger)
}

// controller собирает обработчики бота. Notifier нужен бот, а бот уже создан: цикла нет.
func (s *services) controller(b *bot.Bot) *controller.BotController {
	return controller.NewBotController(b, controller.Deps{
		Users:       s.users,
		Booking:     s.booking(controller.NewNotifier(b, s.zone)),
		Lessons:     s.lessons,
		Schedule:    s.schedule,
		Week:        s.week,
		Zone:        s.zone,
		HorizonDays: s.cfg.BookingHorizonDays,
	}, s.logger)
}
