package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
)

var (
	// ErrValidation - некорректный ввод пользователя, можно переспросить
	ErrValidation    = errors.New("validation error")
	ErrBadDate       = fmt.Errorf("%w: bad date", ErrValidation)
	ErrBadTime       = fmt.Errorf("%w: bad time", ErrValidation)
	ErrDateInPast    = fmt.Errorf("%w: date in the past", ErrValidation)
	ErrBeyondHorizon = fmt.Errorf("%w: date beyond booking horizon", ErrValidation)
	ErrBadName       = fmt.Errorf("%w: bad display name", ErrValidation)
	ErrBadSchedule   = fmt.Errorf("%w: bad schedule entry", ErrValidation)

	// Ошибки шага диалога
	ErrStateMismatch = conversation.ErrStateMismatch
	ErrStaleSession  = conversation.ErrStaleSession

	// ErrSlotConflict - время уже занято другой заявкой
	ErrSlotConflict = errors.New("slot conflict")
	// ErrSlotUnavailable - выбранного времени нет среди доступных слотов
	ErrSlotUnavailable = fmt.Errorf("%w: slot is not offered", ErrSlotConflict)

	// ErrNotFound - урок не найден или у пользователя нет прав на действие
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition - недопустимая смена статуса урока
	ErrInvalidTransition = errors.New("invalid lesson status transition")

	// ErrPersistence - хранилище недоступно
	ErrPersistence = errors.New("persistence failure")
)

// persistence оборачивает ошибку хранилища так, чтобы её можно было узнать через errors.Is
func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
