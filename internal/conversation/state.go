// Package conversation описывает машину состояний диалога записи на занятие.
//
// Каждое состояние - отдельный тип, который несёт только свои данные,
// поэтому пара «состояние + данные» не может разойтись.
package conversation

import (
	"time"

	"cloud.google.com/go/civil"
)

// Kind - тег состояния, под которым оно хранится в базе
type Kind string

const (
	KindIdle                Kind = "idle"
	KindAwaitingProfileName Kind = "awaiting_profile_name"
	KindChoosingDate        Kind = "choosing_date"
	KindChoosingTime        Kind = "choosing_time"
	KindConfirming          Kind = "confirming"
)

// State - текущий шаг пользователя в диалоге записи
type State interface {
	Kind() Kind
	isState()
}

// Idle - нет активного диалога
type Idle struct{}

// AwaitingProfileName - ждём, пока пользователь укажет имя
type AwaitingProfileName struct{}

// ChoosingDate - показан календарь, ждём выбора даты
type ChoosingDate struct{}

// ChoosingTime - показан список времени на выбранную дату
type ChoosingTime struct {
	Date civil.Date
}

// Confirming - показан запрос подтверждения для выбранного момента
type Confirming struct {
	Start time.Time
}

func (Idle) Kind() Kind                { return KindIdle }
func (AwaitingProfileName) Kind() Kind { return KindAwaitingProfileName }
func (ChoosingDate) Kind() Kind        { return KindChoosingDate }
func (ChoosingTime) Kind() Kind        { return KindChoosingTime }
func (Confirming) Kind() Kind          { return KindConfirming }

func (Idle) isState()                {}
func (AwaitingProfileName) isState() {}
func (ChoosingDate) isState()        {}
func (ChoosingTime) isState()        {}
func (Confirming) isState()          {}

// IsIdle проверяет, что диалог не начат. nil считается Idle.
func IsIdle(s State) bool {
	if s == nil {
		return true
	}
	return s.Kind() == KindIdle
}
