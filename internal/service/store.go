package service

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/Freeeeeet/tutor_bot/internal/model"
)

// Интерфейсы хранилища, которыми пользуются сервисы.
// Реализации: internal/repository (PostgreSQL) и internal/repository/memory.

// UserStore хранит пользователей и их состояние диалога
type UserStore interface {
	// Upsert создаёт пользователя при первом контакте или обновляет профиль и время активности
	Upsert(ctx context.Context, profile model.Profile, role model.Role, now time.Time) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// UpdateState атомарно читает пользователя, вызывает fn и сохраняет результат.
	// Сохранение происходит даже если fn вернула ошибку; ошибка fn возвращается вызывающему.
	// fn выполняется под блокировкой строки и не должна обращаться к хранилищам.
	UpdateState(ctx context.Context, id int64, now time.Time, fn func(u *model.User) error) (*model.User, error)
	// ResetStaleStates сбрасывает в Idle диалоги без активности с момента before
	ResetStaleStates(ctx context.Context, before time.Time) (int64, error)
}

// LessonStore хранит уроки
type LessonStore interface {
	// CreatePending вставляет урок, если его время не занято; иначе repository.ErrConflict
	CreatePending(ctx context.Context, lesson *model.Lesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error)
	// CompareAndSetStatus меняет статус, только если текущий равен from
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.LessonStatus, now time.Time) (bool, error)
	ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Lesson, error)
	ListActiveByStudent(ctx context.Context, studentID int64, from time.Time) ([]*model.Lesson, error)
	ListPending(ctx context.Context, from time.Time) ([]*model.Lesson, error)
}

// RecurringSlotStore хранит еженедельные шаблоны
type RecurringSlotStore interface {
	List(ctx context.Context) ([]*model.RecurringSlot, error)
	ListByWeekday(ctx context.Context, weekday int) ([]*model.RecurringSlot, error)
	Create(ctx context.Context, slot *model.RecurringSlot) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// SlotExceptionStore хранит исключения расписания
type SlotExceptionStore interface {
	// ListBetween возвращает исключения с датами в [from, to] включительно
	ListBetween(ctx context.Context, from, to civil.Date) ([]*model.SlotException, error)
	Create(ctx context.Context, exception *model.SlotException) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
