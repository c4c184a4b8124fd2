package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment after an
// optional .env file.
type Config struct {
	Port           string        `env:"PORT" envDefault:"4000"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	Store          string        `env:"STORE" envDefault:"postgres"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile        string        `env:"LOG_FILE"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	DrawInterval   time.Duration `env:"DRAW_INTERVAL" envDefault:"6s"`
	Countdown      time.Duration `env:"COUNTDOWN" envDefault:"30s"`
	RoundPause     time.Duration `env:"ROUND_PAUSE" envDefault:"7s"`
	PayoutSweep    time.Duration `env:"PAYOUT_SWEEP" envDefault:"1m"`
	PresetsFile    string        `env:"PRESETS_FILE"`
	CardsFile      string        `env:"CARDS_FILE"`
	CardCacheSize  int           `env:"CARD_CACHE_SIZE" envDefault:"1024"`
	StartingCoins  int64         `env:"STARTING_COINS" envDefault:"100"`
	Seed           int64         `env:"SEED" envDefault:"0"`

	// DotEnv is set when Load found a .env file.
	DotEnv bool
}

// Load reads .env if present and parses the environment.
func Load() (Config, error) {
	var cfg Config
	cfg.DotEnv = godotenv.Load() == nil
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks settings that depend on each other.
func (c Config) Validate() error {
	switch c.Store {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE must be postgres or memory, got %q", c.Store)
	}
	if c.DrawInterval <= 0 || c.Countdown <= 0 || c.RoundPause < 0 {
		return fmt.Errorf("DRAW_INTERVAL and COUNTDOWN must be positive")
	}
	if c.CardCacheSize < 1 {
		return fmt.Errorf("CARD_CACHE_SIZE must be positive")
	}
	return nil
}
