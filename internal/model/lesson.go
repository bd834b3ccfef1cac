package model

import (
	"time"

	"github.com/google/uuid"
)

type LessonStatus string

const (
	LessonStatusPending   LessonStatus = "pending"   // Ожидает решения репетитора
	LessonStatusConfirmed LessonStatus = "confirmed" // Подтверждено
	LessonStatusDeclined  LessonStatus = "declined"  // Отклонено репетитором
	LessonStatusCanceled  LessonStatus = "canceled"  // Отменено
)

// DefaultLessonDuration длительность занятия по умолчанию, минуты
const DefaultLessonDuration = 60

// lessonTransitions допустимые переходы статусов
var lessonTransitions = map[LessonStatus][]LessonStatus{
	LessonStatusPending:   {LessonStatusConfirmed, LessonStatusDeclined, LessonStatusCanceled},
	LessonStatusConfirmed: {LessonStatusCanceled},
	LessonStatusDeclined:  {},
	LessonStatusCanceled:  {},
}

// IsValid проверяет, что статус известен
func (s LessonStatus) IsValid() bool {
	_, ok := lessonTransitions[s]
	return ok
}

// CanTransitionTo проверяет допустимость перехода
func (s LessonStatus) CanTransitionTo(target LessonStatus) bool {
	for _, t := range lessonTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Holds - занимает ли урок в этом статусе своё время
func (s LessonStatus) Holds() bool {
	return s == LessonStatusPending || s == LessonStatusConfirmed
}

type Lesson struct {
	ID              uuid.UUID    `json:"id"`
	StudentID       int64        `json:"student_id"`
	StartAt         time.Time    `json:"start_at"` // Абсолютный момент начала (UTC)
	DurationMinutes int          `json:"duration_minutes"`
	Status          LessonStatus `json:"status"`
	Notes           string       `json:"notes,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Student *User `json:"student,omitempty"`
}

// EndAt возвращает момент окончания занятия
func (l *Lesson) EndAt() time.Time {
	return l.StartAt.Add(time.Duration(l.DurationMinutes) * time.Minute)
}
