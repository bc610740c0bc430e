package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, DefaultDataDir, cfg.Storage.DataDir)
	assert.Equal(t, DefaultPageSize, cfg.History.PageSize)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"storage": {"backend": "sql", "driver": "sqlite3", "dsn": "nutrichef.db"},
		"history": {"page_size": 20}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQL, cfg.Storage.Backend)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, 20, cfg.History.PageSize)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: redis
  redis_url: redis://localhost:6379/0
log:
  development: true
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage": `), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestRead_DefersValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  data_dir: \"\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	cfg, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Storage.DataDir)

	cfg.Storage.DataDir = "elsewhere"
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }},
		{"sql without driver", func(c *Config) { c.Storage.Backend = BackendSQL; c.Storage.DSN = "x" }},
		{"sql without dsn", func(c *Config) { c.Storage.Backend = BackendSQL; c.Storage.Driver = "postgres" }},
		{"redis without url", func(c *Config) { c.Storage.Backend = BackendRedis }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"page size too small", func(c *Config) { c.History.PageSize = 4 }},
		{"page size too large", func(c *Config) { c.History.PageSize = 21 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
