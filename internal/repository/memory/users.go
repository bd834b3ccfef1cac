// Package memory - хранилище в памяти процесса для STORAGE=memory и тестов.
// Данные теряются при перезапуске.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository"
)

// Users хранит пользователей. Изменения состояния одного пользователя сериализуются
// отдельным мьютексом, разные пользователи друг друга не блокируют.
type Users struct {
	mu    sync.RWMutex
	users map[int64]*model.User
	locks map[int64]*sync.Mutex
}

// NewUsers создаёт пустое хранилище пользователей
func NewUsers() *Users {
	return &Users{
		users: make(map[int64]*model.User),
		locks: make(map[int64]*sync.Mutex),
	}
}

func (s *Users) Upsert(ctx context.Context, profile model.Profile, role model.Role, now time.Time) (*model.User, error) {
	lock := s.lockFor(profile.TelegramID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.users[profile.TelegramID]
	if !exists {
		u = &model.User{
			ID:          profile.TelegramID,
			DisplayName: profile.DefaultDisplayName(),
			Role:        role,
			State:       conversation.Idle{},
			CreatedAt:   now,
		}
		s.users[profile.TelegramID] = u
	}

	u.Username = profile.Username
	u.FirstName = profile.FirstName
	u.LastName = profile.LastName
	u.LastActivity = now
	// Роль репетитора не понижается
	if role == model.RoleOperator {
		u.Role = model.RoleOperator
	}

	return copyUser(u), nil
}

func (s *Users) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (s *Users) UpdateState(ctx context.Context, id int64, now time.Time, fn func(u *model.User) error) (*model.User, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	stored, ok := s.users[id]
	var working *model.User
	if ok {
		working = copyUser(stored)
	}
	s.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}

	fnErr := fn(working)
	if working.State == nil {
		working.State = conversation.Idle{}
	}
	working.LastActivity = now

	s.mu.Lock()
	s.users[id] = copyUser(working)
	s.mu.Unlock()

	return working, fnErr
}

func (s *Users) ResetStaleStates(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if conversation.IsIdle(u.State) || !u.LastActivity.Before(before) {
			continue
		}
		u.State = conversation.Idle{}
		n++
	}
	return n, nil
}

func (s *Users) lockFor(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}
