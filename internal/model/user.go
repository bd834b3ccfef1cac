package model

import (
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_bot/internal/conversation"
)

// Role роль пользователя в боте
type Role string

const (
	RoleStudent  Role = "student"  // Ученик
	RoleOperator Role = "operator" // Репетитор, подтверждает заявки
)

// User - участник диалога. ID совпадает с Telegram ID.
type User struct {
	ID           int64              `json:"id"`
	Username     string             `json:"username"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	DisplayName  string             `json:"display_name"` // Имя, которое видит репетитор
	Role         Role               `json:"role"`
	State        conversation.State `json:"-"` // Текущий шаг диалога записи
	LastActivity time.Time          `json:"last_activity"`
	CreatedAt    time.Time          `json:"created_at"`
}

// IsOperator проверяет, что пользователь - репетитор
func (u *User) IsOperator() bool {
	return u.Role == RoleOperator
}

// HasDisplayName проверяет, заполнено ли имя профиля
func (u *User) HasDisplayName() bool {
	return u.DisplayName != ""
}

// Name возвращает имя для сообщений
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "без имени"
}

// Profile - данные Telegram-профиля, пришедшие с обновлением
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// DefaultDisplayName - имя и фамилия из Telegram, используется при первом контакте
func (p Profile) DefaultDisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
