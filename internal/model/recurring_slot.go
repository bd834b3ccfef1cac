package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// RecurringSlot еженедельный шаблон времени занятия
type RecurringSlot struct {
	ID              uuid.UUID  `json:"id"`
	Weekday         int        `json:"weekday"`          // 0 = понедельник, 6 = воскресенье
	StartTime       civil.Time `json:"start_time"`       // время суток в часовом поясе репетитора
	DurationMinutes int        `json:"duration_minutes"` // длительность в минутах
	CreatedAt       time.Time  `json:"created_at"`
}

// Duration возвращает длительность слота
func (s *RecurringSlot) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
