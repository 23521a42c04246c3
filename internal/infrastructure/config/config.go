package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Autosave  AutosaveConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Editor    EditorConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// StoreConfig selects and tunes the persistence driver.
type StoreConfig struct {
	Driver    string `envconfig:"STORE_DRIVER" default:"file"`
	Path      string `envconfig:"STORE_PATH" default:"~/.codepad"`
	Compress  bool   `envconfig:"STORE_COMPRESS" default:"false"`
	Backups   int    `envconfig:"STORE_BACKUPS" default:"5"`
	KeyPrefix string `envconfig:"STORE_KEY_PREFIX" default:"codepad_"`
}

// Dir returns Path with a leading "~" expanded to the home directory
func (s StoreConfig) Dir() string {
	if s.Path == "~" || strings.HasPrefix(s.Path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(s.Path, "~"))
		}
	}
	return s.Path
}

// AutosaveConfig holds debounce and write guard settings.
type AutosaveConfig struct {
	Delay            time.Duration `envconfig:"AUTOSAVE_DELAY" default:"1s"`
	ActiveDelay      time.Duration `envconfig:"AUTOSAVE_ACTIVE_DELAY" default:"500ms"`
	FailureThreshold int           `envconfig:"AUTOSAVE_FAILURE_THRESHOLD" default:"5"`
	Cooldown         time.Duration `envconfig:"AUTOSAVE_COOLDOWN" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// EditorConfig points at an optional preferences file.
type EditorConfig struct {
	SettingsFile string `envconfig:"EDITOR_SETTINGS_FILE" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("invalid config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Backups < 0 {
		return fmt.Errorf("invalid config: negative store backups")
	}
	if c.Autosave.Delay <= 0 || c.Autosave.ActiveDelay <= 0 {
		return fmt.Errorf("invalid config: autosave delays must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Store: StoreConfig{
			Driver:    DriverFile,
			Path:      "~/.codepad",
			Backups:   5,
			KeyPrefix: "codepad_",
		},
		Autosave: AutosaveConfig{
			Delay:            time.Second,
			ActiveDelay:      500 * time.Millisecond,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
