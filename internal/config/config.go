// Package config turns the Viper instance built by server.LoadConfig into a
// typed, validated Config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full labportal configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Portal        PortalConfig        `mapstructure:"portal"`
	HomeAssistant HomeAssistantConfig `mapstructure:"homeassistant"`
	Poller        PollerConfig        `mapstructure:"poller"`
	Theme         ThemeConfig         `mapstructure:"theme"`
	Edge          EdgeConfig          `mapstructure:"edge"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DevMode bool   `mapstructure:"dev_mode"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL is the loopback URL the process uses to reach its own endpoints.
func (s ServerConfig) BaseURL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PortalConfig struct {
	ConfigFile      string        `mapstructure:"config_file"`
	ConfigURL       string        `mapstructure:"config_url"`
	PingURL         string        `mapstructure:"ping_url"`
	ManifestVersion string        `mapstructure:"manifest_version"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	Watch           bool          `mapstructure:"watch"`
	Fetch           FetchConfig   `mapstructure:"fetch"`
}

// FetchConfig tunes the backoff loop used for the portal config.
type FetchConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts"`
	BaseDelay          time.Duration `mapstructure:"base_delay"`
	AttemptTimeout     time.Duration `mapstructure:"attempt_timeout"`
	AttemptTimeoutStep time.Duration `mapstructure:"attempt_timeout_step"`
}

type HomeAssistantConfig struct {
	URL        string `mapstructure:"url"`
	Token      string `mapstructure:"token"`
	StatesPath string `mapstructure:"states_path"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ThemeConfig struct {
	SystemDefault string `mapstructure:"system_default"`
}

type EdgeConfig struct {
	OriginURL     string `mapstructure:"origin_url"`
	NoStorePrefix string `mapstructure:"no_store_prefix"`
}

// New unmarshals v into a Config and validates it.
func New(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Portal.Fetch.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("portal.fetch.max_attempts must be at least 1, got %d", c.Portal.Fetch.MaxAttempts))
	}
	if c.Portal.Fetch.BaseDelay < 0 {
		errs = append(errs, errors.New("portal.fetch.base_delay must not be negative"))
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, errors.New("poller.interval must be positive"))
	}
	switch strings.ToLower(c.Theme.SystemDefault) {
	case "light", "dark":
	default:
		errs = append(errs, fmt.Errorf("theme.system_default must be light or dark, got %q", c.Theme.SystemDefault))
	}
	for key, raw := range map[string]string{
		"homeassistant.url": c.HomeAssistant.URL,
		"portal.config_url": c.Portal.ConfigURL,
		"portal.ping_url":   c.Portal.PingURL,
		"edge.origin_url":   c.Edge.OriginURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q is not an absolute URL", key, raw))
		}
	}
	if p := c.Edge.NoStorePrefix; p != "" && !strings.HasPrefix(p, "/") {
		errs = append(errs, fmt.Errorf("edge.no_store_prefix %q must start with /", p))
	}

	return errors.Join(errs...)
}
