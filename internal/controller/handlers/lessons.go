package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/keyboard"
)

// maxRequestsShown - сколько заявок присылать за раз
const maxRequestsShown = 20

// HandleMyLessons показывает будущие записи ученика с кнопками отмены
func (h *Handlers) HandleMyLessons(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	lessons, err := h.lessonService.ListStudentLessons(ctx, user.ID)
	if err != nil {
		h.reportError(ctx, b, chatID, "list_lessons", err)
		return
	}

	if len(lessons) == 0 {
		h.sendMessage(ctx, b, chatID,
			fmt.Sprintf("📚 У вас пока нет записей.\n\nНажмите «%s», чтобы выбрать время.", keyboard.MenuBook),
			keyboard.MainMenu(user))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 <b>Мои записи</b> (%d %s):\n\n", len(lessons), formatting.PluralizeLessons(len(lessons)))
	for _, l := range lessons {
		sb.WriteString(formatting.FormatLesson(l, h.zone))
		sb.WriteString("\n")
	}

	h.sendMessage(ctx, b, chatID, sb.String(), keyboard.StudentLessons(lessons, h.zone))
}

// HandleRequests присылает репетитору заявки, ожидающие решения, каждую со своими кнопками
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireOperator(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	pending, err := h.lessonService.ListPendingLessons(ctx)
	if err != nil {
		h.reportError(ctx, b, chatID, "list_requests", err)
		return
	}

	if len(pending) == 0 {
		h.sendMessage(ctx, b, chatID, "📋 Новых заявок нет.", nil)
		return
	}

	header := fmt.Sprintf("📋 Ожидают решения: %d %s", len(pending), formatting.PluralizeRequests(len(pending)))
	if len(pending) > maxRequestsShown {
		header += fmt.Sprintf("\nПоказаны ближайшие %d.", maxRequestsShown)
		pending = pending[:maxRequestsShown]
	}
	h.sendMessage(ctx, b, chatID, header, nil)

	for _, l := range pending {
		h.sendMessage(ctx, b, chatID, formatting.FormatLessonRequest(l, h.zone), keyboard.Decision(l))
	}
}
