package callbacks

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// HandleLessonDecision подтверждает или отклоняет заявку.
// Права проверяет сервис: не-репетитор получает тот же ответ, что и на несуществующую заявку.
func HandleLessonDecision(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	prefix string,
	decision service.Decision,
) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		lessonID, err := common.ParseIDFromCallback(callback.Data, prefix)
		if err != nil {
			common.HandleError(hc, err, "parse_lesson_id")
			return
		}

		result, err := h.BookingService.OnOperatorDecision(ctx, hc.TelegramID, lessonID, decision)
		if err != nil {
			common.HandleError(hc, err, "lesson_decision")
			return
		}

		if err := hc.SetKeyboard(keyboard.Decided(result.Lesson.Status)); err != nil {
			h.Logger.Warn("Failed to update request buttons",
				zap.String("lesson_id", lessonID.String()),
				zap.Error(err))
		}

		if !result.Changed {
			hc.Answer("Заявка уже обработана: " + formatting.GetLessonStatusDisplay(result.Lesson.Status).Text)
			return
		}

		h.Logger.Info("Lesson decided",
			zap.Int64("operator_id", hc.TelegramID),
			zap.String("lesson_id", lessonID.String()),
			zap.String("status", string(result.Lesson.Status)),
		)
		if result.Lesson.Status == model.LessonStatusConfirmed {
			hc.Answer("Подтверждено")
		} else {
			hc.Answer("Отклонено")
		}
	})
}

// HandleLessonCancel отменяет урок ученика и обновляет список его записей
func HandleLessonCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		lessonID, err := common.ParseIDFromCallback(callback.Data, callbacktypes.CancelLesson)
		if err != nil {
			common.HandleError(hc, err, "parse_lesson_id")
			return
		}

		result, err := h.BookingService.OnLessonCancel(ctx, hc.TelegramID, lessonID)
		if err != nil {
			common.HandleError(hc, err, "lesson_cancel")
			return
		}

		lessons, err := h.LessonService.ListStudentLessons(ctx, hc.TelegramID)
		if err != nil {
			h.Logger.Error("Failed to list lessons", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		} else {
			hc.SetKeyboard(keyboard.StudentLessons(lessons, h.Zone))
		}

		if !result.Changed {
			hc.Answer("Эта запись уже неактивна")
			return
		}

		hc.SendMessage("❌ Запись на "+formatting.FormatDateTime(result.Lesson.StartAt, h.Zone)+" отменена.", nil)
		hc.Answer("Запись отменена")
	})
}
