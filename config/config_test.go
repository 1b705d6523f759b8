package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "PORT",
		"DATABASE_DRIVER", "DATABASE_URL", "DATABASE_MAX_OPEN_CONNS",
		"LOG_LEVEL",
		"AUTH_JWT_SECRET", "AUTH_DEV_OWNER",
		"NUMBERING_SCOPE", "NUMBERING_MAX_RETRIES",
		"STORAGE_BUCKET", "STORAGE_REGION", "STORAGE_PREFIX", "STORAGE_PUBLIC_BASE_URL",
		"RENDER_LOGO_TIMEOUT", "RENDER_LOGO_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, "dev-owner", cfg.Auth.DevOwner)
	assert.Equal(t, "owner", cfg.Numbering.Scope)
	assert.Equal(t, uint64(3), cfg.Numbering.MaxRetries)
	assert.Equal(t, "logos", cfg.Storage.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Render.LogoTimeout)
	assert.Empty(t, cfg.Render.LogoOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://invoicehub@localhost:5432/invoicehub?sslmode=disable")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("NUMBERING_SCOPE", "global")
	t.Setenv("NUMBERING_MAX_RETRIES", "5")
	t.Setenv("STORAGE_BUCKET", "logos-bucket")
	t.Setenv("STORAGE_REGION", "eu-west-1")
	t.Setenv("RENDER_LOGO_TIMEOUT", "1500ms")
	t.Setenv("RENDER_LOGO_ORIGINS", "https://cdn.example.test/logos/,https://assets.example.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.URL, "localhost:5432")
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "global", cfg.Numbering.Scope)
	assert.Equal(t, uint64(5), cfg.Numbering.MaxRetries)
	assert.Equal(t, "logos-bucket", cfg.Storage.Bucket)
	assert.Equal(t, 1500*time.Millisecond, cfg.Render.LogoTimeout)
	assert.Equal(t, []string{"https://cdn.example.test/logos/", "https://assets.example.test/"}, cfg.Render.LogoOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "sqlite"}},
		{"unknown scope", map[string]string{"DATABASE_DRIVER": "memory", "NUMBERING_SCOPE": "tenant"}},
		{"bucket without region", map[string]string{"DATABASE_DRIVER": "memory", "STORAGE_BUCKET": "b"}},
		{"bad log level", map[string]string{"DATABASE_DRIVER": "memory", "LOG_LEVEL": "verbose"}},
		{"bad logo origin", map[string]string{"DATABASE_DRIVER": "memory", "RENDER_LOGO_ORIGINS": "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LogConfig{Level: "warn"}.SlogLevel())
	assert.Equal(t, slog.LevelError, LogConfig{Level: "error"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, LogConfig{Level: ""}.SlogLevel())
}
