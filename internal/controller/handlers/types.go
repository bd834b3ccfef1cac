package handlers

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService     *service.UserService
	bookingService  *service.BookingService
	lessonService   *service.LessonService
	scheduleService *service.ScheduleService
	weekService     *service.WeekService
	zone            *clock.TimeZone
	horizonDays     int
	logger          *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	lessonService *service.LessonService,
	scheduleService *service.ScheduleService,
	weekService *service.WeekService,
	zone *clock.TimeZone,
	horizonDays int,
	logger *zap.Logger,
) *Handlers {
	if horizonDays <= 0 {
		horizonDays = service.DefaultHorizonDays
	}
	return &Handlers{
		userService:     userService,
		bookingService:  bookingService,
		lessonService:   lessonService,
		scheduleService: scheduleService,
		weekService:     weekService,
		zone:            zone,
		horizonDays:     horizonDays,
		logger:          logger,
	}
}
