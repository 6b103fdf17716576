// Package config loads the themeforge configuration and builds the
// process logger from it.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from an optional file and the environment.
// Every key carries a default, so a missing config file is not an error;
// an unreadable or malformed one is.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/themeforge.db")

	// Fetching
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("fetch.max_css_files", 10)
	v.SetDefault("fetch.render_js", false)
	v.SetDefault("fetch.js_wait", "2s")

	// Portal
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("overrides.dir", "./overrides")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("themeforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/themeforge")
	}

	// Environment variable support: THEMEFORGE_PORT=9090
	v.SetEnvPrefix("THEMEFORGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}
