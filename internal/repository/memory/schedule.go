package memory

import (
	"context"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// RecurringSlots хранит еженедельные шаблоны
type RecurringSlots struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*model.RecurringSlot
}

func NewRecurringSlots() *RecurringSlots {
	return &RecurringSlots{slots: make(map[uuid.UUID]*model.RecurringSlot)}
}

func (s *RecurringSlots) List(ctx context.Context) ([]*model.RecurringSlot, error) {
	return s.filter(func(*model.RecurringSlot) bool { return true }), nil
}

func (s *RecurringSlots) ListByWeekday(ctx context.Context, weekday int) ([]*model.RecurringSlot, error) {
	return s.filter(func(r *model.RecurringSlot) bool { return r.Weekday == weekday }), nil
}

func (s *RecurringSlots) Create(ctx context.Context, slot *model.RecurringSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	c := *slot
	s.slots[slot.ID] = &c
	return nil
}

func (s *RecurringSlots) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return false, nil
	}
	delete(s.slots, id)
	return true, nil
}

func (s *RecurringSlots) filter(keep func(*model.RecurringSlot) bool) []*model.RecurringSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.RecurringSlot
	for _, r := range s.slots {
		if keep(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// SlotExceptions хранит исключения расписания
type SlotExceptions struct {
	mu         sync.RWMutex
	exceptions map[uuid.UUID]*model.SlotException
}

func NewSlotExceptions() *SlotExceptions {
	return &SlotExceptions{exceptions: make(map[uuid.UUID]*model.SlotException)}
}

func (s *SlotExceptions) ListBetween(ctx context.Context, from, to civil.Date) ([]*model.SlotException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.SlotException
	for _, e := range s.exceptions {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *SlotExceptions) Create(ctx context.Context, exception *model.SlotException) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exception.ID == uuid.Nil {
		exception.ID = uuid.New()
	}
	c := *exception
	s.exceptions[exception.ID] = &c
	return nil
}

func (s *SlotExceptions) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exceptions[id]; !ok {
		return false, nil
	}
	delete(s.exceptions, id)
	return true, nil
}
