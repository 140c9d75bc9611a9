// Package config loads the marketd configuration from defaults, an
// optional TOML file and MARKETD_-prefixed environment variables.
package config

import (
	"fmt"
	"path/filepath"
)

// Config is the complete marketd configuration.
type Config struct {
	// Server section
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Engine section
	Engine EngineConfig `toml:"engine" mapstructure:"engine"`

	// Store section
	Store StoreConfig `toml:"store" mapstructure:"store"`

	// Journal section
	Journal JournalConfig `toml:"journal" mapstructure:"journal"`

	// DataDir is the root directory for all node state.
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`

	configPath string
}

// ServerConfig covers the JSON-RPC listener.
type ServerConfig struct {
	// Host is the listen address for the RPC server.
	Host string `toml:"host" mapstructure:"host"`

	// Port is the RPC listen port.
	Port int `toml:"port" mapstructure:"port"`

	// AdminHosts may call admin methods; empty allows none.
	AdminHosts []string `toml:"admin_hosts" mapstructure:"admin_hosts"`
}

// EngineConfig covers transaction engine behavior.
type EngineConfig struct {
	// Standalone runs the node without peers; submissions may omit
	// signatures.
	Standalone bool `toml:"standalone" mapstructure:"standalone"`
}

// StoreConfig selects the snapshot key-value backend.
type StoreConfig struct {
	// Backend is memory, pebble or leveldb.
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path overrides the default location under DataDir.
	Path string `toml:"path" mapstructure:"path"`

	// CacheSize is the read cache capacity in entries.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`

	// Compress enables lz4 compression of stored values.
	Compress bool `toml:"compress" mapstructure:"compress"`
}

// JournalConfig selects the transaction journal database.
type JournalConfig struct {
	// Driver is sqlite or postgres.
	Driver string `toml:"driver" mapstructure:"driver"`

	// DSN is the connection string; for sqlite, a file path. Empty
	// defaults to a file under DataDir.
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

// RPCAddr returns the host:port the RPC server listens on.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StorePath resolves the snapshot store location.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, "store")
}

// JournalDSN resolves the journal connection string.
func (c *Config) JournalDSN() string {
	if c.Journal.DSN != "" {
		return c.Journal.DSN
	}
	if c.Journal.Driver == "" || c.Journal.Driver == "sqlite" {
		return filepath.Join(c.DataDir, "journal.db")
	}
	return ""
}

// Path returns the config file the configuration was loaded from, or
// empty when running on defaults.
func (c *Config) Path() string {
	return c.configPath
}
