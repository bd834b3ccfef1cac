package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/base"
)

type SlotExceptionRepository struct {
	*base.Repository
}

func NewSlotExceptionRepository(pool *pgxpool.Pool) *SlotExceptionRepository {
	return &SlotExceptionRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет исключение. UntilTime пишется только для неполного дня.
func (r *SlotExceptionRepository) Create(ctx context.Context, exception *model.SlotException) error {
	if exception.ID == uuid.Nil {
		exception.ID = uuid.New()
	}

	var until pgtype.Time
	if !exception.FullDay && exception.UntilTime != nil {
		until = pgTime(*exception.UntilTime)
	}

	err := r.Pool().QueryRow(ctx, `
		INSERT INTO slot_exceptions (id, date, full_day, until_time, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`,
		exception.ID,
		pgDate(exception.Date),
		exception.FullDay,
		until,
		createdAtOrNow(exception.CreatedAt),
	).Scan(&exception.CreatedAt)
	if err != nil {
		return fmt.Errorf("create slot exception: %w", err)
	}

	return nil
}

// ListBetween возвращает исключения с датами в [from, to]
func (r *SlotExceptionRepository) ListBetween(ctx context.Context, from, to civil.Date) ([]*model.SlotException, error) {
	rows, err := r.Pool().Query(ctx, `
		SELECT id, date, full_day, until_time, created_at
		FROM slot_exceptions
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, created_at
	`, pgDate(from), pgDate(to))
	if err != nil {
		return nil, fmt.Errorf("list slot exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []*model.SlotException
	for rows.Next() {
		var (
			e     model.SlotException
			date  pgtype.Date
			until pgtype.Time
		)
		if err := rows.Scan(&e.ID, &date, &e.FullDay, &until, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan slot exception: %w", err)
		}
		e.Date = civilDate(date)
		if until.Valid {
			t := civilTime(until)
			e.UntilTime = &t
		}
		exceptions = append(exceptions, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list slot exceptions: %w", err)
	}

	return exceptions, nil
}

// Delete удаляет исключение
func (r *SlotExceptionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := r.ExecAffected(ctx, `DELETE FROM slot_exceptions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete slot exception: %w", err)
	}
	return n > 0, nil
}
