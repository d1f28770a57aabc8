package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: sqlite
  dsn: ./data/events.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Journal.Dir != "./data/journal" {
		t.Fatalf("expected default journal dir ./data/journal, got %s", cfg.Journal.Dir)
	}
	if cfg.Store.Table != "performance_events" {
		t.Fatalf("expected default table performance_events, got %s", cfg.Store.Table)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr :9100, got %s", cfg.Metrics.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestLoadWithoutStore(t *testing.T) {
	path := writeConfig(t, `
journal:
  dir: /var/lib/perftrace
  sync_every_record: true
log:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Store.Driver != "" || cfg.Store.Table != "" {
		t.Fatalf("expected store to stay disabled, got %+v", cfg.Store)
	}
	if !cfg.Journal.SyncEveryRecord || !cfg.Log.Development {
		t.Fatalf("expected flags to be parsed, got %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown driver": "store:\n  driver: mysql\n  dsn: x\n",
		"missing dsn":    "store:\n  driver: postgres\n",
		"bad log level":  "log:\n  level: loud\n",
		"bad yaml":       "journal: [",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	_, err := Load(writeConfig(t, "store:\n  driver: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "store.dsn") {
		t.Fatalf("expected store.dsn error, got %v", err)
	}
}
