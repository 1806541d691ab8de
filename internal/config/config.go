// Package config loads the gigmarket server configuration.
//
// Values come from defaults, then an optional YAML file, then environment variables,
// then command-line flags (applied by the caller). Later sources win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Environment overrides
const (
	EnvPort     = "PORT"
	EnvStore    = "GIGMARKET_STORE"
	EnvDSN      = "GIGMARKET_DSN"
	EnvLogLevel = "GIGMARKET_LOG_LEVEL"
)

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Address string `yaml:"address"`
}

// StoreConfig selects the persistent store
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// LogConfig controls logrus
type LogConfig struct {
	Level string `yaml:"level"`
}

// SeedUser is a directory entry loaded at startup. The external identity provider owns real
// registrations; seeding lets a standalone server accept callers.
type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Config is the full server configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`

	// OperationTimeout bounds every request's work against the store
	OperationTimeout time.Duration `yaml:"operation_timeout"`

	Users []SeedUser `yaml:"users,omitempty"`
}

// Default returns a configuration that runs a memory-backed server on :8080
func Default() Config {
	return Config{
		Server:           ServerConfig{Address: ":8080"},
		Store:            StoreConfig{Driver: DriverMemory},
		Log:              LogConfig{Level: "info"},
		OperationTimeout: 5 * time.Second,
	}
}

// Load reads path over the defaults. Keys absent from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. PORT takes a bare port number.
func (c *Config) ApplyEnv() {
	if p := os.Getenv(EnvPort); p != "" {
		c.Server.Address = ":" + strings.TrimPrefix(p, ":")
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate reports every problem in c at once
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Address) == "" {
		errs = append(errs, errors.New("server.address is required"))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			errs = append(errs, errors.New("store.dsn is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of %s, %s", c.Store.Driver, DriverMemory, DriverSQLite))
	}

	if c.OperationTimeout <= 0 {
		errs = append(errs, errors.New("operation_timeout must be positive"))
	}

	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if strings.TrimSpace(u.ID) == "" {
			errs = append(errs, fmt.Errorf("users[%d].id is required", i))
			continue
		}
		if seen[u.ID] {
			errs = append(errs, fmt.Errorf("users[%d].id %q is duplicated", i, u.ID))
		}
		seen[u.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
