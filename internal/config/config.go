package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDataDir is where collections are stored unless configured otherwise.
const DefaultDataDir = "nutrichef_data"

// Storage backends.
const (
	BackendFile  = "file"
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

// History page size bounds offered by the history view.
const (
	MinPageSize     = 5
	MaxPageSize     = 20
	DefaultPageSize = 10
)

// Config represents the application configuration.
type Config struct {
	Storage Storage `json:"storage" yaml:"storage"`
	Server  Server  `json:"server" yaml:"server"`
	Log     Log     `json:"log" yaml:"log"`
	History History `json:"history" yaml:"history"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Backend     string `json:"backend" yaml:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	Driver      string `json:"driver" yaml:"driver"`
	DSN         string `json:"dsn" yaml:"dsn"`
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Log configures the process logger.
type Log struct {
	Development bool   `json:"development" yaml:"development"`
	Level       string `json:"level" yaml:"level"`
}

// History configures the history view.
type History struct {
	PageSize int `json:"page_size" yaml:"page_size"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend: BackendFile,
			DataDir: DefaultDataDir,
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:8081"},
		},
		Log: Log{
			Level: "info",
		},
		History: History{
			PageSize: DefaultPageSize,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads the configuration file at path on top of the defaults without
// validating it, so callers can apply overrides first. JSON is used unless
// the extension is .yaml or .yml. A missing file is not an error.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return errors.New("storage.data_dir is required for the file backend")
		}
	case BackendSQL:
		if c.Storage.Driver != "postgres" && c.Storage.Driver != "sqlite3" {
			return fmt.Errorf("storage.driver must be postgres or sqlite3, got %q", c.Storage.Driver)
		}
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the sql backend")
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			return errors.New("storage.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.History.PageSize < MinPageSize || c.History.PageSize > MaxPageSize {
		return fmt.Errorf("history.page_size must be between %d and %d, got %d", MinPageSize, MaxPageSize, c.History.PageSize)
	}
	return nil
}
