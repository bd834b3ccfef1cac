package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/base"
)

// RecurringSlotRepository управляет еженедельными шаблонами в базе данных
type RecurringSlotRepository struct {
	*base.Repository
}

// NewRecurringSlotRepository создаёт новый репозиторий
func NewRecurringSlotRepository(pool *pgxpool.Pool) *RecurringSlotRepository {
	return &RecurringSlotRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новый шаблон
func (r *RecurringSlotRepository) Create(ctx context.Context, slot *model.RecurringSlot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	query := `
		INSERT INTO recurring_slots (id, weekday, start_time, duration_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		slot.ID,
		slot.Weekday,
		pgTime(slot.StartTime),
		slot.DurationMinutes,
		createdAtOrNow(slot.CreatedAt),
	).Scan(&slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("create recurring slot: %w", err)
	}

	return nil
}

// List возвращает все шаблоны
func (r *RecurringSlotRepository) List(ctx context.Context) ([]*model.RecurringSlot, error) {
	return r.list(ctx, `
		SELECT id, weekday, start_time, duration_minutes, created_at
		FROM recurring_slots
		ORDER BY weekday, start_time
	`)
}

// ListByWeekday возвращает шаблоны на день недели (0 = понедельник)
func (r *RecurringSlotRepository) ListByWeekday(ctx context.Context, weekday int) ([]*model.RecurringSlot, error) {
	return r.list(ctx, `
		SELECT id, weekday, start_time, duration_minutes, created_at
		FROM recurring_slots
		WHERE weekday = $1
		ORDER BY start_time
	`, weekday)
}

// Delete удаляет шаблон
func (r *RecurringSlotRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.ExecAffected(ctx, `DELETE FROM recurring_slots WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete recurring slot: %w", err)
	}
	return n > 0, nil
}

func (r *RecurringSlotRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.RecurringSlot, error) {
	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recurring slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.RecurringSlot
	for rows.Next() {
		slot, err := scanRecurringSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recurring slots: %w", err)
	}

	return slots, nil
}

func scanRecurringSlot(row pgx.Row) (*model.RecurringSlot, error) {
	var (
		slot  model.RecurringSlot
		start pgtype.Time
	)
	err := row.Scan(&slot.ID, &slot.Weekday, &start, &slot.DurationMinutes, &slot.CreatedAt)
	if err != nil {
		return nil, err
	}
	slot.StartTime = civilTime(start)
	return &slot, nil
}
