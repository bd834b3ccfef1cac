package common

import (
	"errors"

	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Ошибки разбора обновлений
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNotAnOperator = errors.New("user is not an operator")
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки.
// Порядок важен: более узкие ошибки проверяются раньше тех, что они оборачивают.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return "❌ Пользователь не найден. Используйте /start"
	case errors.Is(err, ErrNotAnOperator):
		return "❌ Эта функция доступна только репетитору"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"

	case errors.Is(err, service.ErrStaleSession):
		return "⌛ Сессия устарела. Начните запись заново."
	case errors.Is(err, service.ErrStateMismatch):
		return "⌛ Это действие уже неактуально. Начните запись заново."

	case errors.Is(err, service.ErrDateInPast):
		return "📅 Эта дата уже прошла. Выберите другую."
	case errors.Is(err, service.ErrBeyondHorizon):
		return "📅 Запись на эту дату ещё не открыта. Выберите дату поближе."
	case errors.Is(err, service.ErrBadDate):
		return "📅 Неверная дата"
	case errors.Is(err, service.ErrBadTime):
		return "🕐 Неверное время"
	case errors.Is(err, service.ErrBadName):
		return "✏️ Имя должно быть от 2 до 64 символов. Попробуйте ещё раз."
	case errors.Is(err, service.ErrBadSchedule):
		return "❌ Неверные параметры расписания"
	case errors.Is(err, service.ErrValidation):
		return "❌ Неверные данные"

	case errors.Is(err, service.ErrSlotUnavailable):
		return "🕐 Это время недоступно. Выберите другое."
	case errors.Is(err, service.ErrSlotConflict):
		return "🕐 К сожалению, это время уже занято. Выберите другое."

	case errors.Is(err, service.ErrNotFound):
		return "❌ Доступ запрещён или заявка не найдена"
	case errors.Is(err, service.ErrInvalidTransition):
		return "❌ Статус этой записи уже нельзя изменить"
	case errors.Is(err, service.ErrPersistence):
		return "❌ Сервис временно недоступен. Попробуйте позже."
	default:
		return "❌ Произошла ошибка"
	}
}

// IsUserError - ошибка вызвана действием пользователя, а не сбоем
func IsUserError(err error) bool {
	return errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrStateMismatch) ||
		errors.Is(err, service.ErrSlotConflict) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidFormat)
}
