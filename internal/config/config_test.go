package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validViper() *viper.Viper {
	v := viper.New()
	v.Set("server.host", "0.0.0.0")
	v.Set("server.port", 8080)
	v.Set("portal.fetch.max_attempts", 5)
	v.Set("portal.fetch.base_delay", "300ms")
	v.Set("portal.fetch.attempt_timeout", "5s")
	v.Set("portal.fetch.attempt_timeout_step", "2s")
	v.Set("homeassistant.url", "http://homeassistant.local:8123")
	v.Set("poller.interval", "10s")
	v.Set("poller.timeout", "6s")
	v.Set("theme.system_default", "light")
	v.Set("edge.no_store_prefix", "/portal/")
	return v
}

func TestNew_DecodesDurations(t *testing.T) {
	c, err := New(validViper())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Portal.Fetch.BaseDelay != 300*time.Millisecond {
		t.Errorf("BaseDelay = %s, want 300ms", c.Portal.Fetch.BaseDelay)
	}
	if c.Poller.Interval != 10*time.Second {
		t.Errorf("Interval = %s, want 10s", c.Poller.Interval)
	}
	if c.Portal.Fetch.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", c.Portal.Fetch.MaxAttempts)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{"zero attempts", "portal.fetch.max_attempts", 0, "max_attempts"},
		{"bad port", "server.port", 70000, "server.port"},
		{"zero interval", "poller.interval", "0s", "poller.interval"},
		{"bad system default", "theme.system_default", "sepia", "system_default"},
		{"relative ha url", "homeassistant.url", "homeassistant.local", "homeassistant.url"},
		{"prefix without slash", "edge.no_store_prefix", "portal/", "no_store_prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validViper()
			v.Set(tt.key, tt.val)
			_, err := New(v)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestServerConfig_BaseURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"0.0.0.0", "http://127.0.0.1:8080"},
		{"", "http://127.0.0.1:8080"},
		{"10.0.0.5", "http://10.0.0.5:8080"},
	}
	for _, tt := range tests {
		s := ServerConfig{Host: tt.host, Port: 8080}
		if got := s.BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
