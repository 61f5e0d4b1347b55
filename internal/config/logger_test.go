package config

import "testing"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"defaults", LoggingConfig{}, false},
		{"json info", LoggingConfig{Level: "info", Format: "json"}, false},
		{"debug", LoggingConfig{Level: "debug", Format: "json"}, false},
		{"console", LoggingConfig{Level: "warn", Format: "console"}, false},
		{"invalid level", LoggingConfig{Level: "banana", Format: "json"}, true},
		{"invalid format", LoggingConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
		})
	}
}
