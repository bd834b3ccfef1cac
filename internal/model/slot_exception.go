package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// SlotException закрывает конкретный день целиком или до UntilTime
type SlotException struct {
	ID        uuid.UUID   `json:"id"`
	Date      civil.Date  `json:"date"`
	FullDay   bool        `json:"full_day"`
	UntilTime *civil.Time `json:"until_time"` // учитывается только при FullDay == false
	CreatedAt time.Time   `json:"created_at"`
}
