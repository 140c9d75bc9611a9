package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration in priority order: defaults, then the
// config file (if given), then MARKETD_ environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("MARKETD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.configPath = path

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", defaultDataDir())

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 6806)
	v.SetDefault("server.admin_hosts", []string{"127.0.0.1"})

	v.SetDefault("engine.standalone", false)

	v.SetDefault("store.backend", "pebble")
	v.SetDefault("store.cache_size", 16384)
	v.SetDefault("store.compress", true)

	v.SetDefault("journal.driver", "sqlite")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marketd"
	}
	return home + "/.marketd"
}
