package clock

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMondayIndex(t *testing.T) {
	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 5, MondayIndex(time.Saturday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))
}

func TestTimeZoneAt(t *testing.T) {
	tz, err := LoadTimeZone("Europe/Moscow")
	require.NoError(t, err)

	d := civil.Date{Year: 2024, Month: time.June, Day: 10}
	got := tz.At(d, civil.Time{Hour: 13})

	assert.Equal(t, time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, d, tz.DateOf(got))
}

func TestTimeZoneDateOfCrossesMidnight(t *testing.T) {
	tz, err := LoadTimeZone("Europe/Moscow")
	require.NoError(t, err)

	// 22:30 UTC - это уже следующий день по Москве
	instant := time.Date(2024, time.June, 9, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 10}, tz.DateOf(instant))
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 10}, tz.Today(Fixed{T: instant}))
}

func TestStartOfDay(t *testing.T) {
	tz := NewTimeZone(nil)
	d := civil.Date{Year: 2024, Month: time.June, Day: 10}
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), tz.StartOfDay(d))
}

func TestLoadTimeZoneUnknown(t *testing.T) {
	_, err := LoadTimeZone("Mars/Olympus")
	require.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("09:30")
	require.NoError(t, err)
	assert.Equal(t, civil.Time{Hour: 9, Minute: 30}, got)
	assert.Equal(t, "09:30", FormatTimeOfDay(got))

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("утро")
	assert.Error(t, err)
}
