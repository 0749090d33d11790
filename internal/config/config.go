package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN               string
	Environment         string
	LogLevel            string
	TelegramToken       string // пустой: уведомления только в лог
	HTTPAddr            string
	SentryDSN           string
	UnusedCheckInterval time.Duration
	MigrationsEnabled   bool
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv()
}

// FromEnv читает конфиг из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		Environment:   getenv("ENV", "development"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	interval, err := time.ParseDuration(getenv("UNUSED_CHECK_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("UNUSED_CHECK_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("UNUSED_CHECK_INTERVAL must be positive")
	}
	cfg.UnusedCheckInterval = interval

	migrations, err := strconv.ParseBool(getenv("MIGRATIONS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("MIGRATIONS_ENABLED: %w", err)
	}
	cfg.MigrationsEnabled = migrations

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsProduction включает production-логгер
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
