package repository

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestPgTimeRoundTrip(t *testing.T) {
	for _, tc := range []civil.Time{
		{},
		{Hour: 10},
		{Hour: 23, Minute: 59, Second: 59},
		{Hour: 7, Minute: 30, Second: 1, Nanosecond: 250000000},
	} {
		assert.Equal(t, tc, civilTime(pgTime(tc)), tc.String())
	}

	assert.Equal(t, int64(10*3600+30*60)*1_000_000, pgTime(civil.Time{Hour: 10, Minute: 30}).Microseconds)
}

func TestPgDate(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.June, Day: 10}

	pg := pgDate(d)
	assert.True(t, pg.Valid)
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), pg.Time)
	assert.Equal(t, d, civilDate(pg))
}
