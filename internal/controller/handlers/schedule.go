package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/controller/weekimage"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

const scheduleUsage = "Команды:\n" +
	"/addslot &lt;день&gt; &lt;ЧЧ:ММ&gt; [мин] - например <code>/addslot пн 10:00 60</code>\n" +
	"/delslot &lt;id&gt;\n" +
	"/block &lt;ГГГГ-ММ-ДД&gt; [ЧЧ:ММ] - без времени закрывает весь день\n" +
	"/unblock &lt;id&gt;"

// HandleSchedule показывает еженедельные слоты и ближайшие исключения
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slots, err := h.scheduleService.ListRecurringSlots(ctx, operator)
	if err != nil {
		h.reportError(ctx, b, chatID, "list_slots", err)
		return
	}
	exceptions, err := h.scheduleService.ListExceptions(ctx, operator, h.zone, h.horizonDays)
	if err != nil {
		h.reportError(ctx, b, chatID, "list_exceptions", err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 <b>Расписание</b> (%s)\n\n", h.zone.Name())
	if len(slots) == 0 {
		sb.WriteString("Еженедельных слотов нет.\n")
	} else {
		fmt.Fprintf(&sb, "Еженедельно, %d %s:\n", len(slots), formatting.PluralizeSlots(len(slots)))
		for _, s := range slots {
			fmt.Fprintf(&sb, "• %s <code>%s</code>\n", formatting.FormatRecurringSlot(s), s.ID)
		}
	}

	if len(exceptions) > 0 {
		sb.WriteString("\nИсключения:\n")
		for _, e := range exceptions {
			fmt.Fprintf(&sb, "• %s <code>%s</code>\n", formatting.FormatException(e), e.ID)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(scheduleUsage)

	h.sendMessage(ctx, b, chatID, sb.String(), nil)
}

// HandleAddSlot: /addslot <день> <ЧЧ:ММ> [мин]
func (h *Handlers) HandleAddSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 2 || len(args) > 3 {
		h.sendMessage(ctx, b, chatID, "❌ Формат: /addslot &lt;день&gt; &lt;ЧЧ:ММ&gt; [мин]", nil)
		return
	}

	weekday, ok := formatting.ParseWeekday(args[0])
	if !ok {
		h.sendMessage(ctx, b, chatID, "❌ Неизвестный день недели. Используйте пн, вт, … вс или 1..7", nil)
		return
	}
	start, err := clock.ParseTimeOfDay(args[1])
	if err != nil {
		h.reportError(ctx, b, chatID, "add_slot", fmt.Errorf("%w: %v", service.ErrBadTime, err))
		return
	}
	duration := 0
	if len(args) == 3 {
		duration, err = strconv.Atoi(args[2])
		if err != nil {
			h.reportError(ctx, b, chatID, "add_slot", fmt.Errorf("%w: duration %q", service.ErrBadSchedule, args[2]))
			return
		}
	}

	slot, err := h.scheduleService.AddRecurringSlot(ctx, operator, weekday, start, duration)
	if err != nil {
		h.reportError(ctx, b, chatID, "add_slot", err)
		return
	}

	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("✅ Слот добавлен: %s\n<code>%s</code>", formatting.FormatRecurringSlot(slot), slot.ID), nil)
}

// HandleDeleteSlot: /delslot <id>
func (h *Handlers) HandleDeleteSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := h.parseIDArg(ctx, b, chatID, update.Message.Text, "/delslot")
	if !ok {
		return
	}

	if err := h.scheduleService.DeleteRecurringSlot(ctx, operator, id); err != nil {
		h.reportError(ctx, b, chatID, "delete_slot", err)
		return
	}
	h.sendMessage(ctx, b, chatID, "🗑 Слот удалён.", nil)
}

// HandleBlock: /block <ГГГГ-ММ-ДД> [ЧЧ:ММ]
func (h *Handlers) HandleBlock(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 || len(args) > 2 {
		h.sendMessage(ctx, b, chatID, "❌ Формат: /block &lt;ГГГГ-ММ-ДД&gt; [ЧЧ:ММ]", nil)
		return
	}

	date, err := civil.ParseDate(args[0])
	if err != nil {
		h.reportError(ctx, b, chatID, "block_date", fmt.Errorf("%w: %v", service.ErrBadDate, err))
		return
	}
	var until *civil.Time
	if len(args) == 2 {
		t, err := clock.ParseTimeOfDay(args[1])
		if err != nil {
			h.reportError(ctx, b, chatID, "block_date", fmt.Errorf("%w: %v", service.ErrBadTime, err))
			return
		}
		until = &t
	}

	exception, err := h.scheduleService.BlockDate(ctx, operator, date, until)
	if err != nil {
		h.reportError(ctx, b, chatID, "block_date", err)
		return
	}

	h.logger.Info("Date blocked by operator",
		zap.String("date", date.String()),
		zap.String("exception_id", exception.ID.String()))
	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("🚫 Закрыто: %s\n<code>%s</code>", formatting.FormatException(exception), exception.ID), nil)
}

// HandleUnblock: /unblock <id>
func (h *Handlers) HandleUnblock(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := h.parseIDArg(ctx, b, chatID, update.Message.Text, "/unblock")
	if !ok {
		return
	}

	if err := h.scheduleService.UnblockDate(ctx, operator, id); err != nil {
		h.reportError(ctx, b, chatID, "unblock_date", err)
		return
	}
	h.sendMessage(ctx, b, chatID, "✅ Исключение снято.", nil)
}

func (h *Handlers) parseIDArg(ctx context.Context, b *bot.Bot, chatID int64, text, command string) (uuid.UUID, bool) {
	args := commandArgs(text)
	if len(args) != 1 {
		h.sendMessage(ctx, b, chatID, fmt.Sprintf("❌ Формат: %s &lt;id&gt;", command), nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		h.sendMessage(ctx, b, chatID, "❌ Неверный id. Скопируйте его из /slots", nil)
		return uuid.Nil, false
	}
	return id, true
}

// HandleWeek присылает картинку занятости на ближайшие дни
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	operator, ok := h.requireOperator(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	view, err := h.weekService.Week(ctx, operator)
	if err != nil {
		h.reportError(ctx, b, chatID, "week_view", err)
		return
	}

	image, err := weekimage.Render(view, h.zone)
	if err != nil {
		h.reportError(ctx, b, chatID, "week_image", err)
		return
	}

	counts := make(map[service.WeekEntryKind]int)
	for _, e := range view.Entries {
		counts[e.Kind]++
	}
	caption := fmt.Sprintf("🖼 Неделя с %s\n🟢 Свободно: %d\n🟡 Заявки: %d\n🌸 Подтверждено: %d",
		formatting.FormatDate(view.From),
		counts[service.WeekEntryFree],
		counts[service.WeekEntryPending],
		counts[service.WeekEntryConfirmed],
	)

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(image)},
		Caption: caption,
	})
	if err != nil {
		h.logger.Error("Failed to send week image", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
