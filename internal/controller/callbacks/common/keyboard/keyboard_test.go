package keyboard

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

func callbackRows(kb *models.InlineKeyboardMarkup) [][]string {
	rows := make([][]string, 0, len(kb.InlineKeyboard))
	for _, row := range kb.InlineKeyboard {
		data := make([]string, 0, len(row))
		for _, btn := range row {
			data = append(data, btn.CallbackData)
		}
		rows = append(rows, data)
	}
	return rows
}

func TestCalendarGrid(t *testing.T) {
	start := civil.Date{Year: 2024, Month: time.June, Day: 10}
	dates := []civil.Date{start, start.AddDays(1), start.AddDays(2), start.AddDays(7)}

	kb := Calendar(dates)
	assert.Equal(t, [][]string{
		{"date:2024-06-10", "date:2024-06-11", "date:2024-06-12"},
		{"date:2024-06-17"},
		{"cancel"},
	}, callbackRows(kb))
	assert.Equal(t, "Пн 10.06", kb.InlineKeyboard[0][0].Text)
}

func TestTimesAreShownInTutorZone(t *testing.T) {
	moscow := clock.NewTimeZone(time.FixedZone("MSK", 3*60*60))
	slots := []time.Time{
		time.Date(2024, time.June, 10, 7, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 10, 7, 30, 0, 0, time.UTC),
	}

	kb := Times(slots, moscow)
	assert.Equal(t, [][]string{{"time:10:00", "time:10:30"}, {"cancel"}}, callbackRows(kb))
	assert.Equal(t, "10:00", kb.InlineKeyboard[0][0].Text)
}

func TestDecisionCarriesLessonID(t *testing.T) {
	lesson := &model.Lesson{ID: uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001")}

	assert.Equal(t, [][]string{{
		"confirm_lesson:6f1c2d3e-0000-4000-8000-000000000001",
		"decline_lesson:6f1c2d3e-0000-4000-8000-000000000001",
	}}, callbackRows(Decision(lesson)))

	for _, row := range callbackRows(Decision(lesson)) {
		for _, data := range row {
			assert.LessOrEqual(t, len(data), 64, "callback data limit")
		}
	}
}

func TestDecidedIsInert(t *testing.T) {
	kb := Decided(model.LessonStatusConfirmed)
	assert.Equal(t, [][]string{{"noop"}}, callbackRows(kb))
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "Подтверждено")
}

func TestStudentLessonsOnlyActive(t *testing.T) {
	utc := clock.NewTimeZone(time.UTC)
	at := time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC)
	pending := &model.Lesson{ID: uuid.New(), StartAt: at, Status: model.LessonStatusPending}
	confirmed := &model.Lesson{ID: uuid.New(), StartAt: at.Add(time.Hour), Status: model.LessonStatusConfirmed}
	declined := &model.Lesson{ID: uuid.New(), StartAt: at.Add(2 * time.Hour), Status: model.LessonStatusDeclined}

	kb := StudentLessons([]*model.Lesson{pending, declined, confirmed}, utc)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "cancel_lesson:"+pending.ID.String(), kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "❌ Отменить 10.06.2024 11:00", kb.InlineKeyboard[1][0].Text)

	assert.Empty(t, StudentLessons([]*model.Lesson{declined}, utc).InlineKeyboard)
}

func TestMainMenuByRole(t *testing.T) {
	student := MainMenu(&model.User{Role: model.RoleStudent})
	assert.Equal(t, MenuBook, student.Keyboard[0][0].Text)
	assert.True(t, student.ResizeKeyboard)

	operator := MainMenu(&model.User{Role: model.RoleOperator})
	assert.Equal(t, MenuRequests, operator.Keyboard[0][0].Text)
	assert.Equal(t, MenuSchedule, operator.Keyboard[0][1].Text)
	assert.Equal(t, MenuHelp, operator.Keyboard[len(operator.Keyboard)-1][0].Text)
}

func TestGridSkipsEmptyRows(t *testing.T) {
	kb := NewBuilder().Grid(3).Row().Build()
	assert.Empty(t, kb.InlineKeyboard)
}
