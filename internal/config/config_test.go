package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DB_DSN", "postgres://localhost/tutor")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "Europe/Moscow", cfg.TimeZone)
	assert.Equal(t, 30*time.Minute, cfg.LeadTime)
	assert.Equal(t, 30, cfg.BookingHorizonDays)
	assert.Equal(t, 60, cfg.LessonDuration)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Duration(0), cfg.StateTTL)
	assert.Equal(t, 2.0, cfg.RateLimitPerSec)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.False(t, cfg.UseWebhook())
}

func TestOverridesFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("OPERATOR_ID", "123456")
	t.Setenv("LEAD_TIME", "1h")
	t.Setenv("STATE_TTL", "24h")
	t.Setenv("WEBHOOK_URL", "https://example.org")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, int64(123456), cfg.OperatorID)
	assert.Equal(t, time.Hour, cfg.LeadTime)
	assert.Equal(t, 24*time.Hour, cfg.StateTTL)
	assert.True(t, cfg.UseWebhook())
}

func TestValidation(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "")
		t.Setenv("STORAGE", "memory")
		_, err := FromViper(viper.New())
		assert.ErrorContains(t, err, "TELEGRAM_TOKEN")
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "token")
		t.Setenv("DB_DSN", "")
		_, err := FromViper(viper.New())
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("unknown storage", func(t *testing.T) {
		t.Setenv("TELEGRAM_TOKEN", "token")
		t.Setenv("STORAGE", "sqlite")
		_, err := FromViper(viper.New())
		assert.ErrorContains(t, err, "STORAGE")
	})
}
