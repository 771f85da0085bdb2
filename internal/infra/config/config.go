package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	OwnerTelegramID int64
	DatabaseURL     string
	RedisURL        string // empty selects the in-memory queue
	HTTPListen      string // empty disables the HTTP API
	Timezone        string
	Location        *time.Location
	CalendarName    string
	LogLevel        string
	Environment     string

	CronSpecDispatch   string // drains due reminders
	CronSpecClassRearm string // re-plans class reminders
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load does not override variables that are already set.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	ownerIDStr := os.Getenv("OWNER_TELEGRAM_ID")
	if ownerIDStr == "" {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is not set")
	}
	cfg.OwnerTelegramID, err = strconv.ParseInt(ownerIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid OWNER_TELEGRAM_ID: %w", err)
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")

	listen, ok := os.LookupEnv("HTTP_LISTEN")
	if !ok {
		listen = ":8080"
	}
	cfg.HTTPListen = listen

	cfg.Timezone = getenvDefault("TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.CalendarName = getenvDefault("CALENDAR_NAME", "Student Schedule")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenvDefault("ENVIRONMENT", "development"))

	cfg.CronSpecDispatch = getenvDefault("CRON_SPEC_DISPATCH", "@every 15s")
	cfg.CronSpecClassRearm = getenvDefault("CRON_SPEC_CLASS_REARM", "0 6 * * *") // 6 AM daily

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
