package config

import "fmt"

var validBackends = map[string]bool{
	"memory":  true,
	"pebble":  true,
	"leveldb": true,
}

var validDrivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
}

// Validate checks the assembled configuration for contradictions.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if !validBackends[cfg.Store.Backend] {
		return fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}
	if cfg.Store.CacheSize < 0 {
		return fmt.Errorf("store.cache_size must not be negative")
	}
	if cfg.Journal.Driver != "" && !validDrivers[cfg.Journal.Driver] {
		return fmt.Errorf("unknown journal.driver %q", cfg.Journal.Driver)
	}
	if cfg.Journal.Driver == "postgres" && cfg.Journal.DSN == "" {
		return fmt.Errorf("journal.driver postgres requires journal.dsn")
	}
	if cfg.Store.Backend != "memory" && cfg.DataDir == "" && cfg.Store.Path == "" {
		return fmt.Errorf("persistent store.backend %q requires data_dir or store.path", cfg.Store.Backend)
	}
	return nil
}
