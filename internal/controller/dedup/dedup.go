// Package dedup отбрасывает повторно доставленные обновления Telegram.
// Telegram повторяет вебхук, если ответ не пришёл вовремя, и обновление может прийти дважды.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL - сколько помнить обработанный update_id
const DefaultTTL = time.Hour

// Store отмечает обработанные обновления
type Store interface {
	// MarkSeen возвращает true, если обновление встретилось впервые
	MarkSeen(ctx context.Context, updateID int64) (bool, error)
}
