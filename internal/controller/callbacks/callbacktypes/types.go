package callbacktypes

import (
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Handler содержит общие зависимости для всех callback handlers
type Handler struct {
	UserService     *service.UserService
	BookingService  *service.BookingService
	LessonService   *service.LessonService
	ScheduleService *service.ScheduleService
	Zone            *clock.TimeZone
	Logger          *zap.Logger
}
