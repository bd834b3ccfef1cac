package conversation

import (
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

var (
	// ErrStateMismatch - действие не соответствует текущему шагу диалога
	ErrStateMismatch = errors.New("action does not match conversation state")

	// ErrStaleSession - подтверждение пришло из устаревшего диалога
	ErrStaleSession = fmt.Errorf("%w: stale session", ErrStateMismatch)
)

// Все переходы - чистые функции: принимают текущее состояние и возвращают следующее.
// При несовпадении шага возвращается Idle вместе с ошибкой, вызывающий сохраняет
// результат как есть.

// StartBooking начинает запись. Допустимо только из Idle.
// Без отображаемого имени диалог сначала уходит в AwaitingProfileName.
func StartBooking(s State, hasDisplayName bool) (State, error) {
	if !IsIdle(s) {
		return Idle{}, ErrStateMismatch
	}
	if !hasDisplayName {
		return AwaitingProfileName{}, nil
	}
	return ChoosingDate{}, nil
}

// SubmitProfileName переводит к выбору даты после того, как имя сохранено
func SubmitProfileName(s State) (State, error) {
	if _, ok := s.(AwaitingProfileName); !ok {
		return Idle{}, ErrStateMismatch
	}
	return ChoosingDate{}, nil
}

// ChooseDate принимает дату только на шаге выбора даты
func ChooseDate(s State, date civil.Date) (State, error) {
	if _, ok := s.(ChoosingDate); !ok {
		return Idle{}, ErrStateMismatch
	}
	return ChoosingTime{Date: date}, nil
}

// ChooseTime соединяет сохранённую дату с выбранным временем суток в часовом поясе loc
func ChooseTime(s State, tod civil.Time, loc *time.Location) (State, error) {
	st, ok := s.(ChoosingTime)
	if !ok {
		return Idle{}, ErrStateMismatch
	}
	if loc == nil {
		loc = time.UTC
	}
	d := st.Date
	start := time.Date(d.Year, d.Month, d.Day, tod.Hour, tod.Minute, tod.Second, tod.Nanosecond, loc).UTC()
	return Confirming{Start: start}, nil
}

// Confirm забирает выбранный момент. Диалог в любом случае возвращается в Idle.
func Confirm(s State) (time.Time, State, error) {
	st, ok := s.(Confirming)
	if !ok || st.Start.IsZero() {
		return time.Time{}, Idle{}, ErrStaleSession
	}
	return st.Start, Idle{}, nil
}

// Cancel сбрасывает любой начатый диалог
func Cancel(s State) (State, error) {
	if IsIdle(s) {
		return Idle{}, ErrStateMismatch
	}
	return Idle{}, nil
}
