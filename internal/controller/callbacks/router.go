package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Route распределяет callback query по соответствующим обработчикам
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	switch {
	case data == callbacktypes.Noop:
		common.AnswerCallback(ctx, b, callback.ID, "")

	// ===== Запись ученика =====
	case strings.HasPrefix(data, callbacktypes.ChooseDate):
		HandleDateChosen(ctx, b, callback, h)
	case strings.HasPrefix(data, callbacktypes.ChooseTime):
		HandleTimeChosen(ctx, b, callback, h)
	case data == callbacktypes.ConfirmBooking:
		HandleConfirmBooking(ctx, b, callback, h)
	case data == callbacktypes.Cancel:
		HandleCancel(ctx, b, callback, h)

	// ===== Решение репетитора =====
	case strings.HasPrefix(data, callbacktypes.ConfirmLesson):
		HandleLessonDecision(ctx, b, callback, h, callbacktypes.ConfirmLesson, service.DecisionConfirm)
	case strings.HasPrefix(data, callbacktypes.DeclineLesson):
		HandleLessonDecision(ctx, b, callback, h, callbacktypes.DeclineLesson, service.DecisionDecline)

	// ===== Отмена урока учеником =====
	case strings.HasPrefix(data, callbacktypes.CancelLesson):
		HandleLessonCancel(ctx, b, callback, h)

	default:
		common.AnswerCallbackAlert(ctx, b, callback.ID, "❓ Неизвестная команда")
	}
}
