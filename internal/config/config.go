package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration values.
type Config struct {
	Secret      string        `envconfig:"SECRET" default:"dev_secret"`
	DatabaseDSN string        `envconfig:"DATABASE_DSN" default:"pharmacy.db"`
	HTTPPort    string        `envconfig:"HTTP_PORT" default:"8080"`
	LogFormat   string        `envconfig:"LOG_FORMAT" default:"text"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	CartIdle    time.Duration `envconfig:"CART_IDLE_TIMEOUT" default:"8h"`

	SeedPath         string `envconfig:"SEED_PATH" default:"assets/drugs.csv"`
	ExpiryWindowDays int    `envconfig:"EXPIRY_WINDOW_DAYS" default:"30"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:"admin123"`
	AdminFullName string `envconfig:"ADMIN_FULL_NAME" default:"System Administrator"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		slog.Default().Warn("invalid HTTP_PORT, defaulting to 8080", slog.String("value", cfg.HTTPPort))
		cfg.HTTPPort = "8080"
	}
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 30
	}
	if cfg.Secret == "" {
		return Config{}, errors.New("config: SECRET must not be empty")
	}
	return cfg, nil
}

// NewLogger returns a slog.Logger using the configured output format.
func NewLogger(cfg Config) *slog.Logger {
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
