// Package actor передаёт пользователя, от которого пришло обновление, через context.
package actor

import (
	"context"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/model"
)

type ctxKey struct{}

// WithUser кладёт пользователя в контекст обработки обновления
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext возвращает пользователя, зарегистрированного middleware, или nil
func FromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKey{}).(*model.User)
	return user
}

// Sender возвращает отправителя обновления
func Sender(update *models.Update) *models.User {
	switch {
	case update == nil:
		return nil
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return &update.CallbackQuery.From
	}
	return nil
}

// Profile переводит Telegram-пользователя в профиль модели
func Profile(u *models.User) model.Profile {
	return model.Profile{
		TelegramID: u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

// Kind - тип обновления для логов и метрик
func Kind(update *models.Update) string {
	switch {
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback_query"
	}
	return "other"
}
