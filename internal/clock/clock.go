// Package clock изолирует получение текущего времени и работу с часовым поясом репетитора.
package clock

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Clock возвращает текущий момент времени
type Clock interface {
	Now() time.Time
}

// System читает системные часы
type System struct{}

// Now возвращает текущий момент в UTC
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed всегда возвращает один и тот же момент (для тестов)
type Fixed struct {
	T time.Time
}

// Now возвращает зафиксированный момент
func (f Fixed) Now() time.Time {
	return f.T
}

// TimeZone переводит календарные даты и время суток репетитора в абсолютные моменты и обратно
type TimeZone struct {
	loc *time.Location
}

// NewTimeZone создаёт адаптер поверх уже загруженной локации
func NewTimeZone(loc *time.Location) *TimeZone {
	if loc == nil {
		loc = time.UTC
	}
	return &TimeZone{loc: loc}
}

// LoadTimeZone загружает часовой пояс по IANA-имени (например, "Europe/Moscow")
func LoadTimeZone(name string) (*TimeZone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return &TimeZone{loc: loc}, nil
}

// Location возвращает локацию
func (z *TimeZone) Location() *time.Location {
	return z.loc
}

// Name возвращает имя часового пояса
func (z *TimeZone) Name() string {
	return z.loc.String()
}

// Local переводит момент в локальное время репетитора
func (z *TimeZone) Local(t time.Time) time.Time {
	return t.In(z.loc)
}

// DateOf возвращает локальную дату момента
func (z *TimeZone) DateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(z.loc))
}

// Today возвращает сегодняшнюю дату в часовом поясе репетитора
func (z *TimeZone) Today(c Clock) civil.Date {
	return z.DateOf(c.Now())
}

// StartOfDay возвращает момент начала суток
func (z *TimeZone) StartOfDay(d civil.Date) time.Time {
	return d.In(z.loc).UTC()
}

// At собирает абсолютный момент из локальной даты и времени суток.
// Несуществующее из-за перевода часов время сдвигается так же, как в time.Date.
func (z *TimeZone) At(d civil.Date, t civil.Time) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, z.loc).UTC()
}

// MondayIndex переводит день недели в нумерацию с понедельника (0 = понедельник … 6 = воскресенье)
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// ParseTimeOfDay разбирает время в формате ЧЧ:ММ
func ParseTimeOfDay(s string) (civil.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return civil.Time{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return civil.Time{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FormatTimeOfDay форматирует время суток как ЧЧ:ММ
func FormatTimeOfDay(t civil.Time) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
