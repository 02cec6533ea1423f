/*
Package config loads the leave engine's runtime configuration.

PURPOSE:
  One YAML file configures the HTTP server, the SQLite database, the grant
  notice scheduler and logging. Every field has a default, so a missing
  file is not an error.

FILE FORMAT:
  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
    read_timeout: 15s
    write_timeout: 15s
    idle_timeout: 60s
    shutdown_timeout: 30s
  database:
    path: leave.db
  scheduler:
    enabled: true
    interval: 1h
    lookahead_days: 30
    concurrency: 4
  log:
    level: info
    development: false

PRECEDENCE:
  defaults < file < environment < command-line flags

ENVIRONMENT:
  LEAVE_CONFIG   Config file path when --config is not given
  LEAVE_DB       Overrides database.path
  LEAVE_PORT     Overrides server.port

SEE ALSO:
  - internal/logging: Builds the zap logger from Log
  - cmd/leave: Flag overrides
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "LEAVE_CONFIG"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// DatabaseConfig points at the SQLite file. ":memory:" is allowed.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig controls the grant notice sweep.
type SchedulerConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	LookaheadDays int           `yaml:"lookahead_days"`
	Concurrency   int           `yaml:"concurrency"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:8080"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "leave.db",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			Interval:      time.Hour,
			LookaheadDays: 30,
			Concurrency:   4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of defaults. A missing file yields the defaults;
// an empty path falls back to $LEAVE_CONFIG.
func Load(path string, defaults *Config) (*Config, error) {
	if defaults == nil {
		defaults = Default()
	}
	cfg := *defaults

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults stand
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if p := os.Getenv("LEAVE_DB"); p != "" {
		c.Database.Path = p
	}
	if p := os.Getenv("LEAVE_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("LEAVE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			errs = append(errs, errors.New("scheduler.interval must be positive"))
		}
		if c.Scheduler.LookaheadDays < 0 {
			errs = append(errs, errors.New("scheduler.lookahead_days must not be negative"))
		}
		if c.Scheduler.Concurrency < 1 {
			errs = append(errs, errors.New("scheduler.concurrency must be at least 1"))
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q unknown", c.Log.Level))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
