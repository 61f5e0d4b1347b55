package theme

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/HerbHall/labportal/internal/store"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Theme
		wantErr bool
	}{
		{"light", Light, false},
		{" Dark ", Dark, false},
		{"auto", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTheme) {
					t.Errorf("err = %v, want ErrInvalidTheme", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Parse(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"AUTO", ModeAuto, false},
		{"light", "light", false},
		{" dark", "dark", false},
		{"", "", false},
		{"sepia", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTheme_ToggleAndMarker(t *testing.T) {
	if Dark.Toggle() != Light || Light.Toggle() != Dark || Theme("").Toggle() != Dark {
		t.Error("Toggle mapping is wrong")
	}
	if Dark.Marker() != "theme-dark" {
		t.Errorf("Marker() = %q", Dark.Marker())
	}
}

func TestSystemPreference(t *testing.T) {
	p := NewSystemPreference("bogus")
	if p.Current() != Light {
		t.Fatalf("Current() = %q, want light default", p.Current())
	}

	var seen []Theme
	p.Subscribe(func(t Theme) { seen = append(seen, t) })

	if p.Set(Light) {
		t.Error("Set(same) reported a change")
	}
	if !p.Set(Dark) {
		t.Error("Set(dark) should report a change")
	}
	if p.Set(Theme("auto")) {
		t.Error("invalid values must be ignored")
	}
	if len(seen) != 1 || seen[0] != Dark {
		t.Errorf("notifications = %v, want [dark]", seen)
	}
}

func newSettingsStore(t *testing.T) (*SettingsStore, *store.Settings) {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	settings, err := store.NewSettings(context.Background(), db)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	return NewSettingsStore(settings), settings
}

func TestSettingsStore_RoundTrip(t *testing.T) {
	s, _ := newSettingsStore(t)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); ok || err != nil {
		t.Fatalf("empty Load = ok %v err %v, want absent", ok, err)
	}
	if err := s.Save(ctx, Dark); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok || got != Dark {
		t.Errorf("Load = %q, %v, %v; want dark", got, ok, err)
	}
}

func TestSettingsStore_InvalidValueIsAbsent(t *testing.T) {
	s, settings := newSettingsStore(t)
	ctx := context.Background()

	if err := settings.Set(ctx, StorageKey, "sepia"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok, err := s.Load(ctx); ok || err != nil {
		t.Errorf("Load = ok %v err %v, want absent", ok, err)
	}
}

func TestSystemPreference_SubscribeDuringNotify(t *testing.T) {
	p := NewSystemPreference(Light)
	var late int
	p.Subscribe(func(Theme) {
		p.Subscribe(func(Theme) { late++ })
	})

	p.Set(Dark)
	if late != 0 {
		t.Fatalf("subscriber added during notify ran %d times, want 0", late)
	}
	p.Set(Light)
	if late != 1 {
		t.Errorf("late subscriber ran %d times, want 1", late)
	}
}
