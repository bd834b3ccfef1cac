package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
)

// MemoryStore - отметки в памяти процесса, для одной реплики
type MemoryStore struct {
	mu        sync.Mutex
	seen      map[int64]time.Time // update_id -> момент истечения
	ttl       time.Duration
	clock     clock.Clock
	nextSweep time.Time
}

func NewMemoryStore(clk clock.Clock, ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		seen:  make(map[int64]time.Time),
		ttl:   ttl,
		clock: clk,
	}
}

func (s *MemoryStore) MarkSeen(_ context.Context, updateID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if now.After(s.nextSweep) {
		for id, expires := range s.seen {
			if !now.Before(expires) {
				delete(s.seen, id)
			}
		}
		s.nextSweep = now.Add(s.ttl)
	}

	if expires, ok := s.seen[updateID]; ok && now.Before(expires) {
		return false, nil
	}
	s.seen[updateID] = now.Add(s.ttl)
	return true, nil
}
