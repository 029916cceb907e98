// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"dailychow-wallet/pkg/db"

	"github.com/joho/godotenv"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Redis      RedisConfig
	Paystack   PaystackConfig
	Scheduler  SchedulerConfig
}

// RedisConfig configures the optional read cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PaystackConfig configures the payment provider adapter.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	CallbackURL string
}

// SchedulerConfig configures the daily allowance job.
type SchedulerConfig struct {
	Hour    int
	Enabled bool
}

// LoadConfig loads configuration from a .env file (if present) and the
// environment. It returns an AppConfig instance or an error if any required
// variable is missing or invalid.
func LoadConfig() (*AppConfig, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	dbPort, err := envInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	schedulerHour, err := envInt("SCHEDULER_HOUR", 6)
	if err != nil {
		return nil, err
	}
	if schedulerHour < 0 || schedulerHour > 23 {
		return nil, fmt.Errorf("SCHEDULER_HOUR must be between 0 and 23, got %d", schedulerHour)
	}

	paystackSecret := os.Getenv("PAYSTACK_SECRET_KEY")
	if paystackSecret == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required")
	}

	return &AppConfig{
		ServerPort: envString("SERVER_PORT", "8080"),
		DB: db.Config{
			Host:     envString("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     envString("DB_USER", "user"),
			Password: envString("DB_PASSWORD", "password"),
			DBName:   envString("DB_NAME", "dailychow"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Paystack: PaystackConfig{
			SecretKey:   paystackSecret,
			BaseURL:     envString("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL: os.Getenv("PAYSTACK_CALLBACK_URL"),
		},
		Scheduler: SchedulerConfig{
			Hour:    schedulerHour,
			Enabled: envString("SCHEDULER_ENABLED", "true") == "true",
		},
	}, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
