// Package config loads runtime configuration for the taskweave core from
// a YAML file with environment variable overrides.
//
// Precedence, lowest to highest: built-in defaults, YAML file, TASKWEAVE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI and embedding applications need to
// construct a store and dispatcher.
type Config struct {
	// DBPath is the SQLite database file backing the store.
	DBPath string `yaml:"db_path" env:"TASKWEAVE_DB_PATH"`

	// HistoryCapacity bounds the dispatcher's event history ring buffer.
	HistoryCapacity int `yaml:"history_capacity" env:"TASKWEAVE_HISTORY_CAPACITY"`

	// SweepInterval is how often the background sweeper runs.
	SweepInterval time.Duration `yaml:"sweep_interval" env:"TASKWEAVE_SWEEP_INTERVAL"`

	// BackupRetention is how long backup snapshots are kept.
	BackupRetention time.Duration `yaml:"backup_retention" env:"TASKWEAVE_BACKUP_RETENTION"`

	// Redis configures the optional Redis backend. An empty Addr means
	// the SQLite backend is used.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the Redis adapter.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"TASKWEAVE_REDIS_ADDR"`
	Password string `yaml:"password" env:"TASKWEAVE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"TASKWEAVE_REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"TASKWEAVE_REDIS_PREFIX"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:          "taskweave.db",
		HistoryCapacity: 100,
		SweepInterval:   time.Minute,
		BackupRetention: 7 * 24 * time.Hour,
	}
}

// Load reads configuration from path (optional, "" skips the file) and
// then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be positive, got %d", c.HistoryCapacity)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if c.BackupRetention <= 0 {
		return fmt.Errorf("backup_retention must be positive, got %s", c.BackupRetention)
	}
	return nil
}
