package formatting

import "github.com/Freeeeeet/tutor_bot/internal/model"

// LessonStatusDisplay представляет отображение статуса урока
type LessonStatusDisplay struct {
	Emoji string
	Text  string
}

// GetLessonStatusDisplay возвращает emoji и текст для статуса урока
func GetLessonStatusDisplay(status model.LessonStatus) LessonStatusDisplay {
	displays := map[model.LessonStatus]LessonStatusDisplay{
		model.LessonStatusPending:   {"⏳", "Ожидает подтверждения"},
		model.LessonStatusConfirmed: {"✅", "Подтверждено"},
		model.LessonStatusDeclined:  {"🚫", "Отклонено"},
		model.LessonStatusCanceled:  {"❌", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return LessonStatusDisplay{"❓", "Неизвестно"}
}
