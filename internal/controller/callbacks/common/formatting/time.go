package formatting

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Freeeeeet/tutor_bot/internal/clock"
)

// FormatDate форматирует дату как ДД.ММ.ГГГГ
func FormatDate(d civil.Date) string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

// FormatDateButton - короткая подпись даты для кнопки календаря: "Пн 10.06"
func FormatDateButton(d civil.Date) string {
	return fmt.Sprintf("%s %02d.%02d", GetWeekdayShort(d.In(time.UTC).Weekday()), d.Day, int(d.Month))
}

// FormatDateLong форматирует дату с днём недели: "понедельник, 10 июня 2024"
func FormatDateLong(d civil.Date) string {
	return fmt.Sprintf("%s, %d %s %d",
		GetWeekdayName(d.In(time.UTC).Weekday()), d.Day, GetMonthGenitive(d.Month), d.Year)
}

// FormatDateTime показывает момент в часовом поясе репетитора: "10.06.2024 10:00"
func FormatDateTime(t time.Time, zone *clock.TimeZone) string {
	return zone.Local(t).Format("02.01.2006 15:04")
}

// FormatDateTimeLong - "понедельник, 10 июня 2024, 10:00"
func FormatDateTimeLong(t time.Time, zone *clock.TimeZone) string {
	local := zone.Local(t)
	return fmt.Sprintf("%s, %s", FormatDateLong(civil.DateOf(local)), local.Format("15:04"))
}

// FormatTime показывает только время в часовом поясе репетитора
func FormatTime(t time.Time, zone *clock.TimeZone) string {
	return zone.Local(t).Format("15:04")
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// Названия с понедельника, как в расписании репетитора
var (
	weekdayNames      = []string{"понедельник", "вторник", "среда", "четверг", "пятница", "суббота", "воскресенье"}
	weekdayShortNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
)

// GetWeekdayName возвращает название дня недели на русском
func GetWeekdayName(wd time.Weekday) string {
	return weekdayNames[clock.MondayIndex(wd)]
}

// GetWeekdayShort возвращает короткое название дня недели
func GetWeekdayShort(wd time.Weekday) string {
	return weekdayShortNames[clock.MondayIndex(wd)]
}

// GetWeekdayByIndex - название по индексу с понедельника (0..6)
func GetWeekdayByIndex(index int) string {
	if index >= 0 && index < len(weekdayNames) {
		return weekdayNames[index]
	}
	return "?"
}

// ParseWeekday понимает "пн", "понедельник" и номер 1..7 (1 = понедельник).
// Возвращает индекс с понедельника.
func ParseWeekday(s string) (int, bool) {
	for i := range weekdayNames {
		if equalFold(s, weekdayNames[i]) || equalFold(s, weekdayShortNames[i]) {
			return i, true
		}
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '7' {
		return int(s[0] - '1'), true
	}
	return 0, false
}

// GetMonthGenitive возвращает месяц в родительном падеже: "июня"
func GetMonthGenitive(month time.Month) string {
	names := map[time.Month]string{
		time.January:   "января",
		time.February:  "февраля",
		time.March:     "марта",
		time.April:     "апреля",
		time.May:       "мая",
		time.June:      "июня",
		time.July:      "июля",
		time.August:    "августа",
		time.September: "сентября",
		time.October:   "октября",
		time.November:  "ноября",
		time.December:  "декабря",
	}
	return names[month]
}
