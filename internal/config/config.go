package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Port                  int    `env:"PORT" envDefault:"3000"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
	Timezone              string `env:"TIMEZONE" envDefault:"America/Costa_Rica"`
	WebhookURL            string `env:"WEBHOOK_URL,required"`
	WebhookMethod         string `env:"WEBHOOK_METHOD" envDefault:"POST"`
	WebhookTimeoutSeconds int    `env:"WEBHOOK_TIMEOUT_SECONDS" envDefault:"10"`
	StoreBackend          string `env:"STORE_BACKEND" envDefault:"file"`
	DataDir               string `env:"DATA_DIR" envDefault:"./data"`
	SeedDefaultCode       bool   `env:"SEED_DEFAULT_CODE" envDefault:"true"`
	DatabaseURL           string `env:"DATABASE_URL"`
	RedisURL              string `env:"REDIS_URL"`
	AdminCode             string `env:"ADMIN_CODE"`
	AdminCodeHash         string `env:"ADMIN_CODE_HASH"`
	LogUnknownPINs        bool   `env:"LOG_UNKNOWN_PINS" envDefault:"true"`
	LogListLimit          int    `env:"LOG_LIST_LIMIT" envDefault:"50"`
	LogRetentionDays      int    `env:"LOG_RETENTION_DAYS" envDefault:"0"`
	OpenRateLimitPerMin   int    `env:"OPEN_RATE_LIMIT_PER_MIN" envDefault:"10"`
	CORSAllowOrigin       string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
	CORSAllowMethods      string `env:"CORS_ALLOW_METHODS" envDefault:"GET, POST, PUT, DELETE, OPTIONS"`
	CORSAllowHeaders      string `env:"CORS_ALLOW_HEADERS" envDefault:"Content-Type, X-Admin-Code"`
	StaticDir             string `env:"STATIC_DIR" envDefault:"static"`
	HSTSEnabled           bool   `env:"HSTS_ENABLED" envDefault:"false"`
	MetricsEnabled        bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}

func (c *Config) LogRetention() time.Duration {
	return time.Duration(c.LogRetentionDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AdminProtected reports whether admin routes require the static admin code.
func (c *Config) AdminProtected() bool {
	return c.AdminCode != "" || c.AdminCodeHash != ""
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendPostgres, BackendSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", c.StoreBackend)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of file, postgres, sqlite (got %q)", c.StoreBackend)
	}

	if c.Timezone == "" {
		return fmt.Errorf("TIMEZONE must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	if c.WebhookTimeoutSeconds <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT_SECONDS must be positive")
	}

	if c.AdminCodeHash != "" {
		if !strings.HasPrefix(c.AdminCodeHash, "$2a$") &&
			!strings.HasPrefix(c.AdminCodeHash, "$2b$") &&
			!strings.HasPrefix(c.AdminCodeHash, "$2y$") {
			return fmt.Errorf("ADMIN_CODE_HASH must be a bcrypt hash (generate with: go run scripts/hash-admin-code.go <code>)")
		}
	}

	if !c.AdminProtected() {
		log.Warn().Msg("ADMIN_CODE is not set: code and log management endpoints are unauthenticated")
	}
	if strings.HasPrefix(c.WebhookURL, "http://") {
		log.Warn().Msg("WEBHOOK_URL uses http:// (not TLS): consider using https://")
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
