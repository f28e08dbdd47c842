package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBPath           string
	LogLevel         string
	JWTSecret        string
	PollInterval     time.Duration
	SweepWorkerCount int
	SweepQueueSize   int
	DailyTargetHours float64
	Timezone         string
	RedisURL         string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:             envOr("ADDR", ":8080"),
		DBPath:           envOr("DB_PATH", "file:cognivia.db"),
		LogLevel:         envOr("LOG_LEVEL", "INFO"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		PollInterval:     envDurationOr("POLL_INTERVAL", time.Minute),
		SweepWorkerCount: envIntOr("SWEEP_WORKER_COUNT", 2),
		SweepQueueSize:   envIntOr("SWEEP_QUEUE_SIZE", 128),
		DailyTargetHours: envFloatOr("DAILY_TARGET_HOURS", 2),
		Timezone:         envOr("TIMEZONE", "Local"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be at least 1s (got %s)", c.PollInterval))
	}
	if c.SweepWorkerCount < 1 {
		errs = append(errs, fmt.Errorf("SWEEP_WORKER_COUNT must be positive (got %d)", c.SweepWorkerCount))
	}
	if c.SweepQueueSize < 1 {
		errs = append(errs, fmt.Errorf("SWEEP_QUEUE_SIZE must be positive (got %d)", c.SweepQueueSize))
	}
	if c.DailyTargetHours <= 0 || c.DailyTargetHours > 24 {
		errs = append(errs, fmt.Errorf("DAILY_TARGET_HOURS must be in (0, 24] (got %g)", c.DailyTargetHours))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone; "" and "Local" mean the process time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
