package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// HandleStart обрабатывает команду /start. Пользователь уже зарегистрирован middleware.
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	var welcome string
	if user.IsOperator() {
		welcome = fmt.Sprintf("👋 Добро пожаловать, %s!\n\n"+
			"Сюда приходят заявки учеников. Новые заявки: «%s», расписание: «%s».",
			html.EscapeString(user.Name()), keyboard.MenuRequests, keyboard.MenuSchedule)
	} else {
		welcome = fmt.Sprintf("👋 Привет, %s!\n\n"+
			"Я помогу записаться на занятие к репетитору.\n\nВыбери действие:",
			html.EscapeString(user.Name()))
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, welcome, keyboard.MainMenu(user))
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/book - Записаться на занятие\n" +
		"/mylessons - Мои записи\n" +
		"/cancel - Отменить текущую запись\n" +
		"/help - Показать эту справку"

	if user.IsOperator() {
		helpText += "\n\nДля репетитора:\n" +
			"/requests - Заявки, ожидающие решения\n" +
			"/slots - Расписание и исключения\n" +
			"/week - Картинка занятости на неделю\n" +
			"/addslot &lt;день&gt; &lt;ЧЧ:ММ&gt; [мин] - Добавить еженедельный слот\n" +
			"/delslot &lt;id&gt; - Удалить слот\n" +
			"/block &lt;ГГГГ-ММ-ДД&gt; [ЧЧ:ММ] - Закрыть день целиком или до времени\n" +
			"/unblock &lt;id&gt; - Снять исключение"
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, keyboard.MainMenu(user))
}

// HandleBook начинает запись на занятие
func (h *Handlers) HandleBook(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	result, err := h.bookingService.OnStartBooking(ctx, user.ID)
	if errors.Is(err, service.ErrStateMismatch) {
		// Запись уже шла: диалог сброшен в Idle, начинаем заново
		h.logger.Info("Restarting booking", zap.Int64("telegram_id", user.ID))
		result, err = h.bookingService.OnStartBooking(ctx, user.ID)
	}
	if err != nil {
		h.reportError(ctx, b, chatID, "start_booking", err)
		return
	}

	h.showCalendar(ctx, b, chatID, user.ID, result)
}

// HandleCancel обрабатывает команду /cancel - отмена текущей записи
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if err := h.bookingService.OnCancel(ctx, user.ID); err != nil {
		if errors.Is(err, service.ErrStateMismatch) {
			h.sendMessage(ctx, b, chatID, "❌ Нет активных операций для отмены.", keyboard.MainMenu(user))
			return
		}
		h.reportError(ctx, b, chatID, "cancel_booking", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.",
		keyboard.MainMenu(user))
}

// HandleTextMessage обрабатывает текст вне команд: имя профиля или подсказку меню
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	if strings.HasPrefix(text, "/") {
		h.sendMessage(ctx, b, chatID, "❓ Неизвестная команда. Используйте /help", keyboard.MainMenu(user))
		return
	}

	if _, awaiting := user.State.(conversation.AwaitingProfileName); awaiting {
		h.handleProfileName(ctx, b, chatID, user, text)
		return
	}

	h.sendMessage(ctx, b, chatID, "Используйте меню ниже ↓", keyboard.MainMenu(user))
}

func (h *Handlers) handleProfileName(ctx context.Context, b *bot.Bot, chatID int64, user *model.User, text string) {
	result, err := h.bookingService.OnProfileName(ctx, user.ID, text)
	if err != nil {
		h.reportError(ctx, b, chatID, "profile_name", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "👍 Отлично, имя сохранено.", nil)
	h.showCalendar(ctx, b, chatID, user.ID, result)
}

// showCalendar показывает следующий шаг после начала записи
func (h *Handlers) showCalendar(ctx context.Context, b *bot.Bot, chatID, userID int64, result *service.CalendarResult) {
	switch result.State.(type) {
	case conversation.AwaitingProfileName:
		h.sendMessage(ctx, b, chatID,
			"✏️ Сначала заполните профиль, чтобы репетитор знал, с кем занимается.\n\n"+
				"Напишите, как к вам обращаться:",
			&models.ReplyKeyboardRemove{RemoveKeyboard: true})
		return
	case conversation.ChoosingDate:
	default:
		h.logger.Warn("Unexpected state after booking start",
			zap.Int64("telegram_id", userID),
			zap.String("state", string(result.State.Kind())))
		return
	}

	if len(result.Dates) == 0 {
		// Выбирать не из чего: не оставляем пользователя на шаге выбора даты
		if err := h.bookingService.OnCancel(ctx, userID); err != nil {
			h.logger.Warn("Failed to reset empty booking", zap.Int64("telegram_id", userID), zap.Error(err))
		}
		h.sendMessage(ctx, b, chatID,
			fmt.Sprintf("😔 На ближайшие %d дней свободного времени нет. Попробуйте позже.", h.horizonDays), nil)
		return
	}

	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("📅 Выберите дату занятия (ближайшие %d дней, время %s):", h.horizonDays, h.zone.Name()),
		keyboard.Calendar(result.Dates))
}
