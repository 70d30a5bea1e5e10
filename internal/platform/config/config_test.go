package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"CONSENT_ADDR", "CONSENT_STORAGE", "LOG_LEVEL", "COOKIE_SECURE", "REDIS_URL", "DATABASE_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageCookie, cfg.Storage)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, 5*time.Second, cfg.TransitionTimeout)
	assert.Equal(t, "consent_slots", cfg.Database.Table)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("CONSENT_ADDR", ":9090")
	t.Setenv("CONSENT_STORAGE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REDIS_POOL_SIZE", "42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CONSENT_TRANSITION_TIMEOUT", "250ms")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, StorageRedis, cfg.Storage)
	assert.Equal(t, 42, cfg.Redis.PoolSize)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, 250*time.Millisecond, cfg.TransitionTimeout)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown storage", env: map[string]string{"CONSENT_STORAGE": "etcd"}},
		{name: "redis without url", env: map[string]string{"CONSENT_STORAGE": "redis", "REDIS_URL": ""}},
		{name: "postgres without url", env: map[string]string{"CONSENT_STORAGE": "postgres", "DATABASE_URL": ""}},
		{name: "bad log level", env: map[string]string{"CONSENT_STORAGE": "", "LOG_LEVEL": "chatty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONSENT_DOTENV_SAMPLE=from-file\n"), 0o600))
	t.Setenv("CONSENT_DOTENV_SAMPLE", "")
	require.NoError(t, os.Unsetenv("CONSENT_DOTENV_SAMPLE"))

	LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "from-file", os.Getenv("CONSENT_DOTENV_SAMPLE"))
}
