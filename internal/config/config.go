// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/currency"
)

// Config holds everything cmd/server needs at startup.
type Config struct {
	Port   int    `env:"PORT"    envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./data/splitledger.db"`

	// BaseCurrency is used for events created without one.
	BaseCurrency string `env:"BASE_CURRENCY" envDefault:"EUR"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	RatesAPIURL  string        `env:"RATES_API_URL" envDefault:"https://api.fxratesapi.com"`
	RatesTimeout time.Duration `env:"RATES_TIMEOUT" envDefault:"10s"`

	// AllocationSeed makes remainder distribution reproducible. Zero
	// leaves it unseeded.
	AllocationSeed uint64 `env:"ALLOCATION_SEED" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file (existing variables win) and parses
// the environment into a Config.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing file is fine; the environment may be set directly.
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if _, err := currency.Normalize(c.BaseCurrency); err != nil {
		problems = append(problems, fmt.Sprintf("invalid BASE_CURRENCY: %v", err))
	}
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.RatesAPIURL == "" {
		problems = append(problems, "RATES_API_URL cannot be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q: must be text or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
