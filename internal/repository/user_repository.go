package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/base"
)

const userColumns = `id, username, first_name, last_name, display_name, role, state, state_data, last_activity, created_at`

type UserRepository struct {
	*base.Repository
	logger *zap.Logger
}

func NewUserRepository(pool *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Upsert создаёт пользователя при первом контакте или обновляет профиль.
// Роль operator, однажды выданная, не понижается.
func (r *UserRepository) Upsert(ctx context.Context, profile model.Profile, role model.Role, now time.Time) (*model.User, error) {
	query := `
		INSERT INTO users (id, username, first_name, last_name, display_name, role, state, last_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'idle', $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = CASE WHEN users.role = 'operator' THEN users.role ELSE EXCLUDED.role END,
			last_activity = EXCLUDED.last_activity
		RETURNING ` + userColumns

	user, err := r.scanUser(r.Pool().QueryRow(
		ctx, query,
		profile.TelegramID,
		profile.Username,
		profile.FirstName,
		profile.LastName,
		profile.DefaultDisplayName(),
		string(role),
		now,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return user, nil
}

// GetByID получает пользователя по Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := r.scanUser(r.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// UpdateState блокирует строку пользователя, вызывает fn и сохраняет результат в той же транзакции
func (r *UserRepository) UpdateState(ctx context.Context, id int64, now time.Time, fn func(u *model.User) error) (*model.User, error) {
	var (
		user  *model.User
		fnErr error
	)

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

		var err error
		user, err = r.scanUser(tx.QueryRow(ctx, query, id))
		if err != nil {
			if base.IsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		fnErr = fn(user)
		if user.State == nil {
			user.State = conversation.Idle{}
		}
		user.LastActivity = now

		state, data := EncodeState(user.State)
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET display_name = $1, state = $2, state_data = $3, last_activity = $4
			WHERE id = $5
		`, user.DisplayName, state, data, now, id)
		if err != nil {
			return fmt.Errorf("save user state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, fnErr
}

// ResetStaleStates сбрасывает в idle диалоги, в которых не было активности с before
func (r *UserRepository) ResetStaleStates(ctx context.Context, before time.Time) (int64, error) {
	n, err := r.ExecAffected(ctx, `
		UPDATE users
		SET state = 'idle', state_data = NULL
		WHERE state <> 'idle' AND last_activity < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("reset stale states: %w", err)
	}
	return n, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*model.User, error) {
	var (
		user  model.User
		role  string
		state string
		data  *string
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.DisplayName,
		&role,
		&state,
		&data,
		&user.LastActivity,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.Role = model.Role(role)
	user.State, err = DecodeState(state, data)
	if err != nil {
		// Повреждённое состояние читаем как idle, дальше сработает проверка шага
		r.logger.Warn("Undecodable conversation state, treating as idle",
			zap.Int64("telegram_id", user.ID),
			zap.String("state", state),
			zap.Error(err),
		)
		user.State = conversation.Idle{}
	}
	user.LastActivity = user.LastActivity.UTC()
	user.CreatedAt = user.CreatedAt.UTC()

	return &user, nil
}
