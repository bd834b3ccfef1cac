package formatting

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

func TestDateFormats(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.June, Day: 10}

	assert.Equal(t, "10.06.2024", FormatDate(d))
	assert.Equal(t, "Пн 10.06", FormatDateButton(d))
	assert.Equal(t, "понедельник, 10 июня 2024", FormatDateLong(d))
	assert.Equal(t, "Вс 16.06", FormatDateButton(d.AddDays(6)))
}

func TestDateTimeUsesTutorZone(t *testing.T) {
	moscow := clock.NewTimeZone(time.FixedZone("MSK", 3*60*60))
	// 22:30 UTC уже следующий день по Москве
	at := time.Date(2024, time.June, 9, 22, 30, 0, 0, time.UTC)

	assert.Equal(t, "10.06.2024 01:30", FormatDateTime(at, moscow))
	assert.Equal(t, "понедельник, 10 июня 2024, 01:30", FormatDateTimeLong(at, moscow))
	assert.Equal(t, "01:30", FormatTime(at, moscow))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 мин", FormatDuration(45))
	assert.Equal(t, "1 ч", FormatDuration(60))
	assert.Equal(t, "1 ч 30 мин", FormatDuration(90))
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]int{
		"пн":          0,
		"Пн":          0,
		"понедельник": 0,
		"ср":          2,
		"вс":          6,
		"1":           0,
		"7":           6,
	}
	for in, want := range cases {
		got, ok := ParseWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "8", "xx", "monday"} {
		_, ok := ParseWeekday(bad)
		assert.False(t, ok, bad)
	}
}

func TestPlurals(t *testing.T) {
	assert.Equal(t, "заявка", PluralizeRequests(1))
	assert.Equal(t, "заявки", PluralizeRequests(3))
	assert.Equal(t, "заявок", PluralizeRequests(5))
	assert.Equal(t, "заявок", PluralizeRequests(11))
	assert.Equal(t, "заявка", PluralizeRequests(21))
	assert.Equal(t, "занятия", PluralizeLessons(22))
	assert.Equal(t, "слотов", PluralizeSlots(14))
}

func TestScheduleLines(t *testing.T) {
	slot := &model.RecurringSlot{Weekday: 2, StartTime: civil.Time{Hour: 18, Minute: 30}, DurationMinutes: 90}
	assert.Equal(t, "Ср 18:30 (1 ч 30 мин)", FormatRecurringSlot(slot))

	d := civil.Date{Year: 2024, Month: time.June, Day: 10}
	until := civil.Time{Hour: 14}
	assert.Equal(t, "10.06.2024 — весь день", FormatException(&model.SlotException{Date: d, FullDay: true}))
	assert.Equal(t, "10.06.2024 — до 14:00", FormatException(&model.SlotException{Date: d, UntilTime: &until}))
}

func TestLessonRequestEscapesName(t *testing.T) {
	lesson := &model.Lesson{
		StudentID:       42,
		StartAt:         time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          model.LessonStatusPending,
		Student:         &model.User{ID: 42, DisplayName: "<b>Иван</b>", Username: "ivan"},
	}

	text := FormatLessonRequest(lesson, clock.NewTimeZone(time.UTC))
	assert.Contains(t, text, "&lt;b&gt;Иван&lt;/b&gt; (@ivan)")
	assert.Contains(t, text, "Telegram ID: 42")
	assert.Contains(t, text, "понедельник, 10 июня 2024, 10:00 (UTC)")

	lesson.Student = nil
	assert.Equal(t, "ученик 42", StudentName(lesson))
}

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "✅", GetLessonStatusDisplay(model.LessonStatusConfirmed).Emoji)
	assert.Equal(t, "Отменено", GetLessonStatusDisplay(model.LessonStatusCanceled).Text)
}
