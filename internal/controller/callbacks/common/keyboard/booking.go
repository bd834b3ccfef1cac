package keyboard

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

const (
	datesPerRow = 3
	timesPerRow = 4
)

// Calendar - даты, на которые есть свободное время
func Calendar(dates []civil.Date) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(dates))
	for _, d := range dates {
		buttons = append(buttons, Button(formatting.FormatDateButton(d), callbacktypes.DateData(d)))
	}
	return NewBuilder().Grid(datesPerRow, buttons...).AddCancelButton().Build()
}

// Times - свободное время на выбранную дату
func Times(slots []time.Time, zone *clock.TimeZone) *models.InlineKeyboardMarkup {
	buttons := make([]models.InlineKeyboardButton, 0, len(slots))
	for _, s := range slots {
		local := zone.Local(s)
		tod := civil.Time{Hour: local.Hour(), Minute: local.Minute()}
		buttons = append(buttons, Button(clock.FormatTimeOfDay(tod), callbacktypes.TimeData(tod)))
	}
	return NewBuilder().Grid(timesPerRow, buttons...).AddCancelButton().Build()
}

// ConfirmBooking - подтверждение выбранного времени
func ConfirmBooking() *models.InlineKeyboardMarkup {
	return NewBuilder().Row(
		Button("✅ Да, записаться", callbacktypes.ConfirmBooking),
		CancelButton(),
	).Build()
}

// Decision - кнопки репетитора под заявкой
func Decision(lesson *model.Lesson) *models.InlineKeyboardMarkup {
	return NewBuilder().Row(
		Button("✅ Подтвердить", callbacktypes.LessonData(callbacktypes.ConfirmLesson, lesson.ID)),
		Button("❌ Отклонить", callbacktypes.LessonData(callbacktypes.DeclineLesson, lesson.ID)),
	).Build()
}

// Decided заменяет кнопки заявки итоговым статусом
func Decided(status model.LessonStatus) *models.InlineKeyboardMarkup {
	display := formatting.GetLessonStatusDisplay(status)
	return NewBuilder().Row(Button(display.Emoji+" "+display.Text, callbacktypes.Noop)).Build()
}

// StudentLessons - кнопки отмены для активных уроков ученика
func StudentLessons(lessons []*model.Lesson, zone *clock.TimeZone) *models.InlineKeyboardMarkup {
	b := NewBuilder()
	for _, l := range lessons {
		if !l.Status.Holds() {
			continue
		}
		b.Row(Button(
			fmt.Sprintf("❌ Отменить %s", formatting.FormatDateTime(l.StartAt, zone)),
			callbacktypes.LessonData(callbacktypes.CancelLesson, l.ID),
		))
	}
	return b.Build()
}
