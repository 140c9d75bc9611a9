package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 6806 {
		t.Errorf("server.port = %d, want 6806", cfg.Server.Port)
	}
	if cfg.Store.Backend != "pebble" {
		t.Errorf("store.backend = %q, want pebble", cfg.Store.Backend)
	}
	if cfg.Journal.Driver != "sqlite" {
		t.Errorf("journal.driver = %q, want sqlite", cfg.Journal.Driver)
	}
	if !strings.HasSuffix(cfg.JournalDSN(), "journal.db") {
		t.Errorf("journal dsn = %q", cfg.JournalDSN())
	}
	if cfg.StorePath() != filepath.Join(cfg.DataDir, "store") {
		t.Errorf("store path = %q", cfg.StorePath())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marketd.toml")
	content := `
data_dir = "/tmp/marketd-test"

[server]
host = "0.0.0.0"
port = 9000

[engine]
standalone = true

[store]
backend = "memory"

[journal]
driver = "sqlite"
dsn = ":memory:"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddr() != "0.0.0.0:9000" {
		t.Errorf("rpc addr = %q", cfg.RPCAddr())
	}
	if !cfg.Engine.Standalone {
		t.Error("standalone not set")
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("store.backend = %q", cfg.Store.Backend)
	}
	if cfg.Path() != path {
		t.Errorf("config path = %q", cfg.Path())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/marketd.toml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad backend", func(c *Config) { c.Store.Backend = "rocksdb" }},
		{"negative cache", func(c *Config) { c.Store.CacheSize = -1 }},
		{"bad driver", func(c *Config) { c.Journal.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Journal.Driver = "postgres"; c.Journal.DSN = "" }},
		{"persistent store without path", func(c *Config) { c.DataDir = ""; c.Store.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
