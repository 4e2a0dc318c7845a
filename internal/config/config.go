package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Data backends understood by the binaries.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env               string        `env:"APP_ENV" envDefault:"development"`
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	CampaignHTTPPort  int           `env:"CAMPAIGN_HTTP_PORT" envDefault:"8081"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`

	DataBackend string `env:"DATA_BACKEND" envDefault:"memory"`

	DatabaseURL       string        `env:"DATABASE_URL"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"organizador.db"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"30m"`

	// DefaultUserID scopes requests that carry no X-User-ID header. Zero
	// makes the header mandatory.
	DefaultUserID  int64 `env:"DEFAULT_USER_ID" envDefault:"1"`
	SeedSampleData bool  `env:"SEED_SAMPLE_DATA" envDefault:"false"`
	MetricsEnabled bool  `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads configuration values from the environment, applying defaults where necessary.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DataBackend = strings.ToLower(strings.TrimSpace(cfg.DataBackend))
	if cfg.DataBackend == "" {
		cfg.DataBackend = BackendMemory
	}

	switch cfg.DataBackend {
	case BackendMemory:
		// no-op
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when DATA_BACKEND=postgres")
		}
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH is required when DATA_BACKEND=sqlite")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATA_BACKEND value: %s", cfg.DataBackend)
	}

	if cfg.DefaultUserID < 0 {
		return Config{}, fmt.Errorf("DEFAULT_USER_ID must not be negative")
	}

	return cfg, nil
}

// UsesDatabase reports whether the configured backend needs a SQL connection.
func (c Config) UsesDatabase() bool {
	return c.DataBackend == BackendPostgres || c.DataBackend == BackendSQLite
}
