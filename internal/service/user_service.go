package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
	"github.com/Freeeeeet/tutor_bot/internal/model"
)

const (
	minDisplayNameLen = 2
	maxDisplayNameLen = 64
)

type UserService struct {
	users      UserStore
	clock      clock.Clock
	operatorID int64
	logger     *zap.Logger
}

func NewUserService(users UserStore, clk clock.Clock, operatorID int64, logger *zap.Logger) *UserService {
	return &UserService{
		users:      users,
		clock:      clk,
		operatorID: operatorID,
		logger:     logger,
	}
}

// Register регистрирует пользователя при первом контакте или обновляет профиль и время активности.
// Роль репетитора получает только пользователь с OPERATOR_ID.
func (s *UserService) Register(ctx context.Context, profile model.Profile) (*model.User, error) {
	role := model.RoleStudent
	if s.operatorID != 0 && profile.TelegramID == s.operatorID {
		role = model.RoleOperator
	}

	user, err := s.users.Upsert(ctx, profile, role, s.clock.Now())
	if err != nil {
		return nil, persistence("upsert user", err)
	}

	s.logger.Debug("User registered",
		zap.Int64("telegram_id", profile.TelegramID),
		zap.String("username", profile.Username),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// GetByID получает пользователя по Telegram ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get user", err)
	}
	return user, nil
}

// OperatorID возвращает Telegram ID репетитора (0, если не настроен)
func (s *UserService) OperatorID() int64 {
	return s.operatorID
}

// NormalizeDisplayName проверяет имя профиля, введённое пользователем
func NormalizeDisplayName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	n := utf8.RuneCountInString(name)
	if n < minDisplayNameLen || n > maxDisplayNameLen {
		return "", fmt.Errorf("display name of %d characters: %w", n, ErrBadName)
	}
	return name, nil
}
