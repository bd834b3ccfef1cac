package common

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
)

// Helper functions для всех callback handlers

// AnswerCallback отвечает на callback query (без alert)
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert отвечает на callback query с alert (всплывающее окно)
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback извлекает сообщение из callback query
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// IsMessageNotModifiedError - Telegram отказался править сообщение без изменений
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// ParseDateFromCallback извлекает дату: "date:2024-06-10" -> 2024-06-10
func ParseDateFromCallback(data, prefix string) (civil.Date, error) {
	value, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, data, err)
	}
	return d, nil
}

// ParseTimeFromCallback извлекает время суток: "time:10:00" -> 10:00
func ParseTimeFromCallback(data, prefix string) (civil.Time, error) {
	value, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return civil.Time{}, fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	t, err := clock.ParseTimeOfDay(value)
	if err != nil {
		return civil.Time{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return t, nil
}

// ParseIDFromCallback извлекает id урока: "confirm_lesson:<uuid>" -> uuid
func ParseIDFromCallback(data, prefix string) (uuid.UUID, error) {
	value, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, data, err)
	}
	return id, nil
}
