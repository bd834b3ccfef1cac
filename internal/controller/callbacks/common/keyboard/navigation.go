package keyboard

import (
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/tutor_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// Тексты кнопок главного меню
const (
	MenuBook     = "📅 Записаться на занятие"
	MenuLessons  = "📚 Мои записи"
	MenuRequests = "📋 Заявки"
	MenuSchedule = "🗓 Расписание"
	MenuWeek     = "🖼 Неделя"
	MenuHelp     = "❓ Помощь"
)

// CancelButton создаёт кнопку "Отмена" для сценария записи
func CancelButton() models.InlineKeyboardButton {
	return Button("❌ Отмена", callbacktypes.Cancel)
}

// AddCancelButton добавляет кнопку "Отмена" к builder
func (b *Builder) AddCancelButton() *Builder {
	return b.Row(CancelButton())
}

// MainMenu возвращает постоянную клавиатуру в зависимости от роли
func MainMenu(user *model.User) *models.ReplyKeyboardMarkup {
	var rows [][]models.KeyboardButton

	if user != nil && user.IsOperator() {
		rows = append(rows,
			[]models.KeyboardButton{{Text: MenuRequests}, {Text: MenuSchedule}},
			[]models.KeyboardButton{{Text: MenuWeek}},
		)
	} else {
		rows = append(rows,
			[]models.KeyboardButton{{Text: MenuBook}},
			[]models.KeyboardButton{{Text: MenuLessons}},
		)
	}
	rows = append(rows, []models.KeyboardButton{{Text: MenuHelp}})

	return &models.ReplyKeyboardMarkup{
		Keyboard:       rows,
		ResizeKeyboard: true,
	}
}
