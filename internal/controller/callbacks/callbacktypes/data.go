package callbacktypes

import (
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
)

// Форматы callback data. Telegram ограничивает data 64 байтами.
const (
	Noop = "noop"

	// Запись ученика
	ChooseDate     = "date:" // date:2024-06-10
	ChooseTime     = "time:" // time:10:00
	ConfirmBooking = "confirm_booking"
	Cancel         = "cancel"

	// Решение репетитора
	ConfirmLesson = "confirm_lesson:" // confirm_lesson:<uuid>
	DeclineLesson = "decline_lesson:" // decline_lesson:<uuid>

	// Отмена урока учеником
	CancelLesson = "cancel_lesson:" // cancel_lesson:<uuid>
)

// DateData возвращает data кнопки даты
func DateData(d civil.Date) string {
	return ChooseDate + d.String()
}

// TimeData возвращает data кнопки времени
func TimeData(t civil.Time) string {
	return ChooseTime + clock.FormatTimeOfDay(t)
}

// LessonData возвращает data кнопки действия с уроком
func LessonData(prefix string, id uuid.UUID) string {
	return prefix + id.String()
}
