package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("WebhookTimeout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{WebhookTimeoutSeconds: 10}
		assert.Equal(t, 10*time.Second, cfg.WebhookTimeout())
	})

	t.Run("LogRetention converts days to duration", func(t *testing.T) {
		cfg := &Config{LogRetentionDays: 2}
		assert.Equal(t, 48*time.Hour, cfg.LogRetention())
	})

	t.Run("AdminProtected with plain or hashed code", func(t *testing.T) {
		assert.False(t, (&Config{}).AdminProtected())
		assert.True(t, (&Config{AdminCode: "secret"}).AdminProtected())
		assert.True(t, (&Config{AdminCodeHash: "$2a$10$abc"}).AdminProtected())
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Timezone:              "America/Costa_Rica",
			WebhookURL:            "https://example.com/hook",
			WebhookTimeoutSeconds: 10,
			StoreBackend:          BackendFile,
			DataDir:               "./data",
			AdminCode:             "admin-code",
		}
	}

	t.Run("accepts file backend", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.StoreBackend = "mongo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("requires DATABASE_URL for SQL backends", func(t *testing.T) {
		for _, backend := range []string{BackendPostgres, BackendSQLite} {
			cfg := valid()
			cfg.StoreBackend = backend
			assert.Error(t, cfg.Validate(), backend)

			cfg.DatabaseURL = "file::memory:"
			assert.NoError(t, cfg.Validate(), backend)
		}
	})

	t.Run("rejects unknown timezone", func(t *testing.T) {
		cfg := valid()
		cfg.Timezone = "Mars/Olympus_Mons"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive webhook timeout", func(t *testing.T) {
		cfg := valid()
		cfg.WebhookTimeoutSeconds = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-bcrypt admin hash", func(t *testing.T) {
		cfg := valid()
		cfg.AdminCodeHash = "plaintext"
		assert.Error(t, cfg.Validate())

		cfg.AdminCodeHash = "$2a$12$abcdefghijklmnopqrstuv"
		assert.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "WEBHOOK_URL", "TIMEZONE", "STORE_BACKEND", "LOG_LEVEL",
		"WEBHOOK_TIMEOUT_SECONDS", "LOG_UNKNOWN_PINS", "LOG_LIST_LIMIT", "HSTS_ENABLED", "METRICS_ENABLED",
	}
	originalEnv := make(map[string]string, len(keys))
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		for _, k := range keys {
			os.Unsetenv(k)
		}
		os.Setenv("WEBHOOK_URL", "https://example.com/api/webhook/gate")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "https://example.com/api/webhook/gate", cfg.WebhookURL)
		assert.Equal(t, "America/Costa_Rica", cfg.Timezone)
		assert.Equal(t, BackendFile, cfg.StoreBackend)
		assert.Equal(t, 10, cfg.WebhookTimeoutSeconds)
		assert.True(t, cfg.LogUnknownPINs)
		assert.Equal(t, 50, cfg.LogListLimit)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.HSTSEnabled)
		assert.True(t, cfg.MetricsEnabled)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("WEBHOOK_URL", "https://example.com/hook")
		os.Setenv("PORT", "8080")
		os.Setenv("TIMEZONE", "UTC")
		os.Setenv("STORE_BACKEND", "sqlite")
		os.Setenv("LOG_UNKNOWN_PINS", "false")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "UTC", cfg.Timezone)
		assert.Equal(t, BackendSQLite, cfg.StoreBackend)
		assert.False(t, cfg.LogUnknownPINs)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required WEBHOOK_URL", func(t *testing.T) {
		os.Unsetenv("WEBHOOK_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
