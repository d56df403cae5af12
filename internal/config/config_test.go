package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
	assert.Equal(t, 15*time.Second, cfg.Server.Timeout)
	assert.Equal(t, ":memory:", cfg.Cache.Path)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ETEBASE_SERVER_URL", "https://sync.example.com")
	t.Setenv("ETEBASE_SERVER_TIMEOUT", "30s")
	t.Setenv("ETEBASE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_JSONFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"url": "https://file.example.com", "timeout": 20000000000},
		"cache": {"path": "/tmp/cache.db"}
	}`), 0o600))

	t.Setenv("ETEBASE_CONFIG", path)
	t.Setenv("ETEBASE_SERVER_URL", "https://env.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	// Env beats file; file beats defaults.
	assert.Equal(t, "https://env.example.com", cfg.Server.URL)
	assert.Equal(t, 20*time.Second, cfg.Server.Timeout)
	assert.Equal(t, "/tmp/cache.db", cfg.Cache.Path)
}

func TestLoad_RejectsBadTimeout(t *testing.T) {
	t.Setenv("ETEBASE_SERVER_TIMEOUT", "-5s")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingJSONFileFails(t *testing.T) {
	t.Setenv("ETEBASE_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	_, err := Load()
	require.Error(t, err)
}
