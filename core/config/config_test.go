package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 16, cfg.Server.BodyLimitMB)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 30, cfg.Database.TimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "reference", cfg.Fetch.Mode)
	assert.Equal(t, int64(10485760), cfg.Fetch.MaxAssetBytes)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, "incremental", cfg.Ingest.Kind)
	assert.Equal(t, 4, cfg.Ingest.Parallel)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", ":memory:")
	t.Setenv("FETCH_MODE", "content")
	t.Setenv("SERVER_KEYS", "k2:bob")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Name)
	assert.Equal(t, "content", cfg.Fetch.Mode)
	assert.Equal(t, map[string]string{"k2": "bob"}, cfg.Server.Principals())
	assert.True(t, cfg.Storage.UseSSL)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INGEST_PRINCIPAL=carol\nLOG_FORMAT=console\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("INGEST_PRINCIPAL")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "carol", cfg.Ingest.Principal)
	assert.Equal(t, "console", cfg.Log.Format)
}
