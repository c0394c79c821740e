// Package config loads draftd settings from the environment and draft presets from YAML.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config is the draftd configuration.
type Config struct {
	Env      string `env:"ENV" envDefault:"development"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver string   `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath  string   `env:"SQLITE_PATH" envDefault:"draft.db"`
	Database    Database `envPrefix:"DB_"`

	// NATSURL empty disables the JetStream sink.
	NATSURL           string `env:"NATS_URL"`
	NATSStream        string `env:"NATS_STREAM" envDefault:"DRAFT_EVENTS"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"draft.events"`

	PoolDir          string        `env:"POOL_DIR" envDefault:"pools"`
	// PoolURL, when set, serves rankings files over HTTP instead of PoolDir.
	PoolURL          string        `env:"POOL_URL"`
	PresetsFile      string        `env:"DRAFT_PRESETS_FILE"`
	FastMode         bool          `env:"DRAFT_FAST_MODE" envDefault:"false"`
	FastModePickTime time.Duration `env:"DRAFT_FAST_MODE_PICK_TIME" envDefault:"10s"`
	EventBuffer      int           `env:"EVENT_BUFFER" envDefault:"1024"`
	CommitTimeout    time.Duration `env:"COMMIT_TIMEOUT" envDefault:"5s"`

	RateLimitRPS   float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"40"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Database holds Postgres connection settings.
type Database struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Name     string `env:"NAME" envDefault:"dynasty_draft"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// DSN returns the Postgres connection URL.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// Load parses the process environment and validates the result.
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("environment variables are invalid: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if !slices.Contains([]string{StoreMemory, StoreSQLite, StorePostgres}, c.StoreDriver) {
		return fmt.Errorf("STORE_DRIVER must be one of memory, sqlite, postgres, got %q", c.StoreDriver)
	}
	if c.StoreDriver == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
	}
	if c.StoreDriver == StorePostgres && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("DB_HOST and DB_NAME are required when STORE_DRIVER=postgres")
	}
	if c.FastMode && c.FastModePickTime <= 0 {
		return fmt.Errorf("DRAFT_FAST_MODE_PICK_TIME must be positive, got %s", c.FastModePickTime)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("EVENT_BUFFER must be positive, got %d", c.EventBuffer)
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("COMMIT_TIMEOUT must be positive, got %s", c.CommitTimeout)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Level is the parsed LOG_LEVEL.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// PickTimeOverride is the per-pick duration forced on every draft, or zero outside fast mode.
func (c *Config) PickTimeOverride() time.Duration {
	if !c.FastMode {
		return 0
	}
	return c.FastModePickTime
}
