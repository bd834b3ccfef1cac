package callbacks

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// HandleDateChosen показывает свободное время на выбранную дату
func HandleDateChosen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		date, err := common.ParseDateFromCallback(callback.Data, callbacktypes.ChooseDate)
		if err != nil {
			common.HandleError(hc, err, "parse_date")
			return
		}

		day, err := h.BookingService.OnDateChosen(ctx, hc.TelegramID, date)
		if err != nil {
			rejectStep(hc, err, "choose_date")
			return
		}

		hc.SetKeyboard(keyboard.Empty())
		text := fmt.Sprintf("📅 Выбрана дата: <b>%s</b>\n\nТеперь выберите время (%s):",
			formatting.FormatDateLong(day.Date), h.Zone.Name())
		if err := hc.SendMessage(text, keyboard.Times(day.Slots, h.Zone)); err != nil {
			h.Logger.Error("Failed to send times", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		}
		hc.Answer("Дата выбрана")
	})
}

// HandleTimeChosen просит подтвердить выбранное время
func HandleTimeChosen(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		tod, err := common.ParseTimeFromCallback(callback.Data, callbacktypes.ChooseTime)
		if err != nil {
			common.HandleError(hc, err, "parse_time")
			return
		}

		start, err := h.BookingService.OnTimeChosen(ctx, hc.TelegramID, tod)
		if err != nil {
			rejectStep(hc, err, "choose_time")
			return
		}

		hc.SetKeyboard(keyboard.Empty())
		text := fmt.Sprintf("Вы хотите записаться на:\n<b>%s</b>\n\nПодтвердить?",
			formatting.FormatDateTimeLong(start, h.Zone))
		if err := hc.SendMessage(text, keyboard.ConfirmBooking()); err != nil {
			h.Logger.Error("Failed to send confirmation prompt", zap.Int64("telegram_id", hc.TelegramID), zap.Error(err))
		}
		hc.Answer("Время выбрано")
	})
}

// HandleConfirmBooking создаёт заявку. Сообщения о заявке рассылает notifier.
func HandleConfirmBooking(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		// После подтверждения диалог всегда в Idle, кнопки больше не нужны
		hc.SetKeyboard(keyboard.Empty())

		lesson, err := h.BookingService.OnConfirm(ctx, hc.TelegramID)
		if err != nil {
			if errors.Is(err, service.ErrSlotConflict) {
				// Объяснение уходит сообщением с меню, всплывающее окно не дублирует его
				h.Logger.Info("Booking lost the slot",
					zap.Int64("telegram_id", hc.TelegramID),
					zap.Error(err),
				)
				if sendErr := hc.SendMessage(common.ErrorMessage(err), keyboard.MainMenu(hc.User)); sendErr != nil {
					h.Logger.Error("Failed to send conflict message", zap.Int64("telegram_id", hc.TelegramID), zap.Error(sendErr))
				}
				hc.Answer("Время занято")
				return
			}
			common.HandleError(hc, err, "confirm_booking")
			return
		}

		h.Logger.Info("Lesson requested",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("lesson_id", lesson.ID.String()),
			zap.Time("start_at", lesson.StartAt),
		)
		hc.Answer("Заявка создана")
	})
}

// HandleCancel сбрасывает начатую запись
func HandleCancel(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithUser(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.SetKeyboard(keyboard.Empty())

		if err := h.BookingService.OnCancel(ctx, hc.TelegramID); err != nil {
			if errors.Is(err, service.ErrStateMismatch) {
				hc.Answer("Нечего отменять")
				return
			}
			common.HandleError(hc, err, "cancel_booking")
			return
		}

		hc.SendMessage("Отменено. Возвращаемся в главное меню.", keyboard.MainMenu(hc.User))
		hc.Answer("Действие отменено")
	})
}

// rejectStep объясняет, почему шаг не принят. Если диалог сброшен, убирает кнопки.
func rejectStep(hc *common.HandlerContext, err error, operation string) {
	if errors.Is(err, service.ErrStateMismatch) {
		hc.SetKeyboard(keyboard.Empty())
	}
	common.HandleError(hc, err, operation)
}
