package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Journal JournalConfig `yaml:"journal"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
	// SyncEveryRecord fsyncs after each append instead of leaving it to Close.
	SyncEveryRecord bool `yaml:"sync_every_record"`
}

// StoreConfig is optional; an empty driver disables the event store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "postgres", "sqlite" or ""
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	if c.Store.Driver != "" && c.Store.Table == "" {
		c.Store.Table = "performance_events"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	if c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required")
	}
	switch c.Store.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when store.driver is %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", c.Log.Level)
	}
	return nil
}
