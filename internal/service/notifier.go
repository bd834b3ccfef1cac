package service

import (
	"context"

	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// NotificationKind - что произошло с уроком с точки зрения получателя
type NotificationKind string

const (
	// Ученику: заявка принята и ждёт решения
	NotifyLessonRequested NotificationKind = "lesson_requested"
	// Репетитору: новая заявка с кнопками подтверждения
	NotifyLessonAwaitingDecision NotificationKind = "lesson_awaiting_decision"
	// Ученику: репетитор подтвердил
	NotifyLessonConfirmed NotificationKind = "lesson_confirmed"
	// Ученику: репетитор отклонил
	NotifyLessonDeclined NotificationKind = "lesson_declined"
	// Репетитору: ученик отменил запись
	NotifyLessonCanceled NotificationKind = "lesson_canceled"
)

// Notification - исходящее сообщение, привязанное к уроку по его id
type Notification struct {
	Recipient int64
	Kind      NotificationKind
	Lesson    *model.Lesson
}

// Notifier доставляет уведомления. Текст и кнопки - забота реализации.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
