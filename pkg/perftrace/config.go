package perftrace

import (
	"github.com/ghalamif/perftrace/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// JournalConfig configures on-disk durability.
	JournalConfig = config.JournalConfig
	// StoreConfig selects the optional SQL event store.
	StoreConfig = config.StoreConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// LogConfig configures the zap logger.
	LogConfig = config.LogConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
