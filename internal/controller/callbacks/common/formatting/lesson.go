package formatting

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// StudentName - имя ученика для сообщений репетитору, экранированное для HTML
func StudentName(lesson *model.Lesson) string {
	if lesson.Student == nil {
		return fmt.Sprintf("ученик %d", lesson.StudentID)
	}
	return html.EscapeString(lesson.Student.Name())
}

// FormatLesson - строка урока в списке
func FormatLesson(lesson *model.Lesson, zone *clock.TimeZone) string {
	display := GetLessonStatusDisplay(lesson.Status)
	return fmt.Sprintf("%s %s (%s) — %s",
		display.Emoji,
		FormatDateTime(lesson.StartAt, zone),
		FormatDuration(lesson.DurationMinutes),
		display.Text,
	)
}

// FormatLessonRequest - заявка для репетитора
func FormatLessonRequest(lesson *model.Lesson, zone *clock.TimeZone) string {
	var sb strings.Builder
	sb.WriteString("📥 <b>Новая заявка</b>\n\n")
	fmt.Fprintf(&sb, "👤 Ученик: %s", StudentName(lesson))
	if lesson.Student != nil && lesson.Student.Username != "" {
		fmt.Fprintf(&sb, " (@%s)", html.EscapeString(lesson.Student.Username))
	}
	fmt.Fprintf(&sb, "\n🆔 Telegram ID: %d\n", lesson.StudentID)
	fmt.Fprintf(&sb, "📅 %s (%s)\n", FormatDateTimeLong(lesson.StartAt, zone), zone.Name())
	fmt.Fprintf(&sb, "⏱ %s", FormatDuration(lesson.DurationMinutes))
	return sb.String()
}

// FormatLessonDecision - заявка после решения, текст для сообщения репетитора
func FormatLessonDecision(lesson *model.Lesson, zone *clock.TimeZone) string {
	display := GetLessonStatusDisplay(lesson.Status)
	return fmt.Sprintf("%s %s\n👤 %s\n📅 %s",
		display.Emoji,
		display.Text,
		StudentName(lesson),
		FormatDateTime(lesson.StartAt, zone),
	)
}

// FormatRecurringSlot - строка шаблона расписания
func FormatRecurringSlot(slot *model.RecurringSlot) string {
	return fmt.Sprintf("%s %s (%s)",
		weekdayShortNames[slot.Weekday],
		clock.FormatTimeOfDay(slot.StartTime),
		FormatDuration(slot.DurationMinutes),
	)
}

// FormatException - строка исключения расписания
func FormatException(exception *model.SlotException) string {
	if exception.FullDay || exception.UntilTime == nil {
		return fmt.Sprintf("%s — весь день", FormatDate(exception.Date))
	}
	return fmt.Sprintf("%s — до %s", FormatDate(exception.Date), clock.FormatTimeOfDay(*exception.UntilTime))
}
