package controller

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/tutor_bot/internal/service"
)

// Notifier доставляет уведомления о заявках сообщениями Telegram
type Notifier struct {
	bot  *bot.Bot
	zone *clock.TimeZone
}

func NewNotifier(b *bot.Bot, zone *clock.TimeZone) *Notifier {
	return &Notifier{bot: b, zone: zone}
}

var _ service.Notifier = (*Notifier)(nil)

// Notify отправляет одно сообщение получателю
func (n *Notifier) Notify(ctx context.Context, notification service.Notification) error {
	text, markup, err := n.render(notification)
	if err != nil {
		return err
	}

	params := &bot.SendMessageParams{
		ChatID:    notification.Recipient,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send %s to %d: %w", notification.Kind, notification.Recipient, err)
	}
	return nil
}

func (n *Notifier) render(notification service.Notification) (string, models.ReplyMarkup, error) {
	lesson := notification.Lesson
	if lesson == nil {
		return "", nil, fmt.Errorf("notification %s without lesson", notification.Kind)
	}
	when := formatting.FormatDateTimeLong(lesson.StartAt, n.zone)

	switch notification.Kind {
	case service.NotifyLessonRequested:
		return fmt.Sprintf("⏳ Заявка отправлена репетитору.\n\n📅 %s\n\n"+
			"Как только репетитор её рассмотрит, придёт уведомление.", when), nil, nil

	case service.NotifyLessonAwaitingDecision:
		return formatting.FormatLessonRequest(lesson, n.zone), keyboard.Decision(lesson), nil

	case service.NotifyLessonConfirmed:
		return fmt.Sprintf("✅ Ваша запись подтверждена!\n\n📅 %s\n⏱ Длительность: %s",
			when, formatting.FormatDuration(lesson.DurationMinutes)), nil, nil

	case service.NotifyLessonDeclined:
		return fmt.Sprintf("😔 К сожалению, репетитор отклонил заявку на %s.\n\n"+
			"Выберите другое время: /book", when), nil, nil

	case service.NotifyLessonCanceled:
		return fmt.Sprintf("❌ %s отменил(а) запись на %s.",
			formatting.StudentName(lesson), when), nil, nil
	}

	return "", nil, fmt.Errorf("unknown notification kind %q", notification.Kind)
}
