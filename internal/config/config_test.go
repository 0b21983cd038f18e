package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.AppPort)
	require.Equal(t, "disk", cfg.StorageBackend)
	require.Equal(t, "jsonfile", cfg.MetaBackend)
	require.Equal(t, 24*time.Hour, cfg.FileTTL)
	require.Equal(t, time.Minute, cfg.SweepInterval)
	require.Equal(t, int64(1<<30), cfg.MaxUploadBytes)
	require.False(t, cfg.StrictMeta)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("FILE_TTL", "30m")
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("STRICT_META", "true")
	t.Setenv("META_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.AppPort)
	require.Equal(t, 30*time.Minute, cfg.FileTTL)
	require.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	require.True(t, cfg.StrictMeta)
	require.Equal(t, "redis", cfg.MetaBackend)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "tape")
	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestValidateRejectsBadTTL(t *testing.T) {
	t.Setenv("FILE_TTL", "-1h")
	_, err := LoadFromEnv()
	require.Error(t, err)
}

// Секреты не светятся в строковом представлении.
func TestStringMasksSecrets(t *testing.T) {
	cfg := &Config{
		MetaBackend:   "redis",
		RedisPassword: "hunter2",
	}
	s := cfg.String()
	require.NotContains(t, s, "hunter2")
	require.Contains(t, s, "********")
}
