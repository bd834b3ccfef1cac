package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
)

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time { return c.now }

func TestMemoryStoreMarksOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(clock.Fixed{T: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)}, time.Minute)

	first, err := store.MarkSeen(ctx, 42)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkSeen(ctx, 42)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.MarkSeen(ctx, 43)
	require.NoError(t, err)
	assert.True(t, other)
}

func TestMemoryStoreForgetsAfterTTL(t *testing.T) {
	ctx := context.Background()
	clk := &steppingClock{now: time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStore(clk, time.Minute)

	first, _ := store.MarkSeen(ctx, 7)
	require.True(t, first)

	clk.now = clk.now.Add(30 * time.Second)
	again, _ := store.MarkSeen(ctx, 7)
	assert.False(t, again)

	clk.now = clk.now.Add(2 * time.Minute)
	expired, _ := store.MarkSeen(ctx, 7)
	assert.True(t, expired)

	store.mu.Lock()
	assert.Len(t, store.seen, 1)
	store.mu.Unlock()
}

func TestRedisStoreReportsConnectionErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Порт 1 закрыт: ошибка должна вернуться вызывающему, а не превратиться в "повтор"
	store := NewRedisStore(NewRedisClient("127.0.0.1:1", "", 0), 0)
	defer store.Close()

	first, err := store.MarkSeen(ctx, 1)
	assert.Error(t, err)
	assert.False(t, first)
	assert.Equal(t, DefaultTTL, store.ttl)
}
