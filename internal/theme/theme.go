// Package theme resolves the portal's light/dark theme from the persisted
// choice, the config appearance, the browser-reported system preference and
// an optional Home Assistant entity.
package theme

import (
	"errors"
	"fmt"
	"strings"
)

// Theme is a concrete display theme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// ModeAuto in the config appearance means "follow the system preference".
const ModeAuto = "auto"

// StorageKey is the settings key the active theme is persisted under.
const StorageKey = "xplab_theme"

// ErrInvalidTheme is returned for values other than light or dark.
var ErrInvalidTheme = errors.New("invalid theme")

// Parse accepts "light" or "dark" in any case, ignoring surrounding space.
func Parse(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case Light, Dark:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
}

// ParseMode accepts an appearance mode: auto, light or dark in any case. An
// empty string means no preference and is returned as is.
func ParseMode(s string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(s))
	switch m {
	case "", ModeAuto, string(Light), string(Dark):
		return m, nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrInvalidTheme, s)
}

// Valid reports whether t is light or dark.
func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

// Marker is the document class carrying the theme, e.g. "theme-dark".
func (t Theme) Marker() string {
	return "theme-" + string(t)
}

// Toggle returns the other theme. Anything that is not dark toggles to dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string { return string(t) }

// markers lists every class Apply may have added.
var markers = []string{Light.Marker(), Dark.Marker()}
