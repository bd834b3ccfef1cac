package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/tutor_bot/internal/model"
	"github.com/Freeeeeet/tutor_bot/internal/repository/base"
)

// Урок вместе с именем ученика, чтобы списки можно было показать без второго запроса
const lessonSelect = `
	SELECT l.id, l.student_id, l.start_at, l.duration_minutes, l.status, l.notes, l.created_at, l.updated_at,
		u.username, u.first_name, u.last_name, u.display_name
	FROM lessons l
	JOIN users u ON u.id = l.student_id
`

type LessonRepository struct {
	*base.Repository
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{Repository: base.NewRepository(pool)}
}

// CreatePending вставляет ожидающую заявку, если момент не занят ожидающей или подтверждённой.
// Проверка и вставка сериализуются advisory-блокировкой по моменту начала,
// частичные уникальные индексы страхуют от гонки на уровне базы.
func (r *LessonRepository) CreatePending(ctx context.Context, lesson *model.Lesson) error {
	lesson.StartAt = lesson.StartAt.UTC()
	lesson.Status = model.LessonStatusPending
	if lesson.ID == uuid.Nil {
		lesson.ID = uuid.New()
	}
	if lesson.DurationMinutes == 0 {
		lesson.DurationMinutes = model.DefaultLessonDuration
	}

	return r.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lesson.StartAt.Unix()); err != nil {
			return fmt.Errorf("lock lesson start: %w", err)
		}

		var taken bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM lessons
				WHERE start_at = $1 AND status IN ('pending', 'confirmed')
			)
		`, lesson.StartAt).Scan(&taken)
		if err != nil {
			return fmt.Errorf("check lesson start: %w", err)
		}
		if taken {
			return ErrConflict
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO lessons (id, student_id, start_at, duration_minutes, status, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			RETURNING created_at, updated_at
		`,
			lesson.ID,
			lesson.StudentID,
			lesson.StartAt,
			lesson.DurationMinutes,
			string(lesson.Status),
			lesson.Notes,
			createdAtOrNow(lesson.CreatedAt),
		).Scan(&lesson.CreatedAt, &lesson.UpdatedAt)
		if err != nil {
			if base.IsUniqueViolation(err) {
				return ErrConflict
			}
			return fmt.Errorf("create lesson: %w", err)
		}
		return nil
	})
}

// GetByID получает урок по ID
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	lesson, err := scanLesson(r.Pool().QueryRow(ctx, lessonSelect+` WHERE l.id = $1`, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}
	return lesson, nil
}

// CompareAndSetStatus меняет статус, только если текущий равен from
func (r *LessonRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.LessonStatus, now time.Time) (bool, error) {
	n, err := r.ExecAffected(ctx, `
		UPDATE lessons
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(to), now, id, string(from))
	if err != nil {
		if base.IsUniqueViolation(err) {
			return false, ErrConflict
		}
		return false, fmt.Errorf("update lesson status: %w", err)
	}
	return n == 1, nil
}

// ListConfirmedBetween возвращает подтверждённые уроки с началом в [from, to)
func (r *LessonRepository) ListConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Lesson, error) {
	return r.list(ctx, "list confirmed lessons", lessonSelect+`
		WHERE l.status = 'confirmed' AND l.start_at >= $1 AND l.start_at < $2
		ORDER BY l.start_at
	`, from, to)
}

// ListActiveByStudent возвращает ожидающие и подтверждённые уроки ученика начиная с from
func (r *LessonRepository) ListActiveByStudent(ctx context.Context, studentID int64, from time.Time) ([]*model.Lesson, error) {
	return r.list(ctx, "list student lessons", lessonSelect+`
		WHERE l.student_id = $1 AND l.status IN ('pending', 'confirmed') AND l.start_at >= $2
		ORDER BY l.start_at
	`, studentID, from)
}

// ListPending возвращает заявки, ожидающие решения, начиная с from
func (r *LessonRepository) ListPending(ctx context.Context, from time.Time) ([]*model.Lesson, error) {
	return r.list(ctx, "list pending lessons", lessonSelect+`
		WHERE l.status = 'pending' AND l.start_at >= $1
		ORDER BY l.start_at
	`, from)
}

func (r *LessonRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*model.Lesson, error) {
	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lessons []*model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return lessons, nil
}

func scanLesson(row pgx.Row) (*model.Lesson, error) {
	var (
		lesson  model.Lesson
		student model.User
		status  string
	)
	err := row.Scan(
		&lesson.ID,
		&lesson.StudentID,
		&lesson.StartAt,
		&lesson.DurationMinutes,
		&status,
		&lesson.Notes,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
		&student.Username,
		&student.FirstName,
		&student.LastName,
		&student.DisplayName,
	)
	if err != nil {
		return nil, err
	}

	lesson.Status = model.LessonStatus(status)
	lesson.StartAt = lesson.StartAt.UTC()
	student.ID = lesson.StudentID
	student.Role = model.RoleStudent
	lesson.Student = &student

	return &lesson, nil
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
