package server

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("labportal")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/labportal")
	}

	// Environment variable support: LP_SERVER_PORT=9090
	v.SetEnvPrefix("LP")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// SetDefaults installs every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.path", "./data/labportal.db")

	v.SetDefault("portal.config_file", "./portal.config.json")
	v.SetDefault("portal.config_url", "")
	v.SetDefault("portal.ping_url", "")
	v.SetDefault("portal.manifest_version", "")
	v.SetDefault("portal.request_timeout", "6s")
	v.SetDefault("portal.watch", true)
	v.SetDefault("portal.fetch.max_attempts", 5)
	v.SetDefault("portal.fetch.base_delay", "300ms")
	v.SetDefault("portal.fetch.attempt_timeout", "5s")
	v.SetDefault("portal.fetch.attempt_timeout_step", "2s")

	v.SetDefault("homeassistant.url", "http://homeassistant.local:8123")
	v.SetDefault("homeassistant.token", "")
	v.SetDefault("homeassistant.states_path", "/api/states")

	v.SetDefault("poller.interval", "10s")
	v.SetDefault("poller.timeout", "6s")

	v.SetDefault("theme.system_default", "light")

	v.SetDefault("edge.origin_url", "")
	v.SetDefault("edge.no_store_prefix", "/portal/")
}
