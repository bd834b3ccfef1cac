package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Storage       string `mapstructure:"STORAGE"`
	Environment   string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	// Репетитор: получает заявки и управляет расписанием
	OperatorID int64 `mapstructure:"OPERATOR_ID"`

	// Расписание
	TimeZone           string        `mapstructure:"TIMEZONE"`
	LeadTime           time.Duration `mapstructure:"LEAD_TIME"`
	BookingHorizonDays int           `mapstructure:"BOOKING_HORIZON_DAYS"`
	LessonDuration     int           `mapstructure:"LESSON_DURATION"`

	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	// HTTP: health, metrics, webhook
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	WebhookURL    string `mapstructure:"WEBHOOK_URL"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`

	// Redis для дедупликации обновлений (пусто = в памяти)
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Сброс зависших диалогов (0 = выключен)
	StateTTL time.Duration `mapstructure:"STATE_TTL"`

	RateLimitPerSec float64 `mapstructure:"RATE_LIMIT_PER_SEC"`
	RateLimitBurst  int     `mapstructure:"RATE_LIMIT_BURST"`
}

var defaults = map[string]interface{}{
	"TELEGRAM_TOKEN":       "",
	"DB_DSN":               "",
	"STORAGE":              StoragePostgres,
	"ENV":                  "development",
	"LOG_LEVEL":            "info",
	"OPERATOR_ID":          0,
	"TIMEZONE":             "Europe/Moscow",
	"LEAD_TIME":            "30m",
	"BOOKING_HORIZON_DAYS": 30,
	"LESSON_DURATION":      60,
	"MIGRATIONS_DIR":       "migrations",
	"HTTP_ADDR":            ":8080",
	"WEBHOOK_URL":          "",
	"WEBHOOK_SECRET":       "",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"STATE_TTL":            "0s",
	"RATE_LIMIT_PER_SEC":   2.0,
	"RATE_LIMIT_BURST":     5,
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromViper(viper.New())
}

// FromViper читает конфигурацию из переменных окружения через переданный экземпляр viper
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.LeadTime < 0 {
		return fmt.Errorf("LEAD_TIME must not be negative")
	}
	if c.BookingHorizonDays <= 0 {
		return fmt.Errorf("BOOKING_HORIZON_DAYS must be positive")
	}
	if c.LessonDuration <= 0 {
		return fmt.Errorf("LESSON_DURATION must be positive")
	}
	if c.StateTTL < 0 {
		return fmt.Errorf("STATE_TTL must not be negative")
	}

	return nil
}

// UseWebhook - работать через вебхук вместо long polling
func (c *Config) UseWebhook() bool {
	return c.WebhookURL != ""
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}
