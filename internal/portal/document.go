// Package portal loads the portal configuration document: a one-shot loader,
// a resilient loader with exponential backoff, the shared config store, and
// the on-disk source served at /_assets/portal.config.json.
package portal

import (
	"encoding/json"
	"fmt"

	"github.com/HerbHall/labportal/internal/fetch"
)

// NavSection is the section whose tiles make up the main navigation.
const NavSection = "nav"

// Document is the portal configuration. It is treated as read-only once parsed.
type Document struct {
	Title      string           `json:"title,omitempty" yaml:"title,omitempty"`
	Appearance Appearance       `json:"appearance" yaml:"appearance"`
	Sections   []Section        `json:"sections" yaml:"sections"`
	Widgets    []Widget         `json:"widgets,omitempty" yaml:"widgets,omitempty"`
	Presence   []PresenceEntity `json:"presence,omitempty" yaml:"presence,omitempty"`
}

// Appearance controls theme selection.
type Appearance struct {
	// Theme is "auto", "light" or "dark". Empty means no preference.
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty"`
	// HAThemeEntity names a Home Assistant entity whose state drives the theme.
	HAThemeEntity string `json:"haThemeEntity,omitempty" yaml:"haThemeEntity,omitempty"`
}

// Section groups tiles.
type Section struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Tiles []Tile `json:"tiles" yaml:"tiles"`
}

// Tile is one navigation link.
type Tile struct {
	Href   string `json:"href" yaml:"href"`
	Label  string `json:"label" yaml:"label"`
	Icon   string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Desc   string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Target string `json:"target,omitempty" yaml:"target,omitempty"`
}

// LinkTarget returns the anchor target, defaulting to _self.
func (t Tile) LinkTarget() string {
	if t.Target == "" {
		return "_self"
	}
	return t.Target
}

// Widget is a status badge. Source names a Home Assistant state path such as
// /ha/api/states/binary_sensor.nas_online.
type Widget struct {
	Type   string `json:"type" yaml:"type"`
	Label  string `json:"label" yaml:"label"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// PresenceEntity is a person or device tracker shown in the presence strip.
type PresenceEntity struct {
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
	Entity string `json:"entity" yaml:"entity"`
}

// Parse decodes a JSON document. Malformed input yields fetch.ErrParse.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: portal config: %w", fetch.ErrParse, err)
	}
	return &doc, nil
}

// Section returns the section with the given id.
func (d *Document) Section(id string) (Section, bool) {
	if d == nil {
		return Section{}, false
	}
	for _, s := range d.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// FilterTiles returns the tiles of section id accepted by pred. A nil pred
// accepts every tile. A missing section yields an empty slice.
func (d *Document) FilterTiles(id string, pred func(Tile) bool) []Tile {
	s, ok := d.Section(id)
	if !ok {
		return []Tile{}
	}
	out := make([]Tile, 0, len(s.Tiles))
	for _, t := range s.Tiles {
		if pred == nil || pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// NavTiles is FilterTiles on the nav section.
func (d *Document) NavTiles(pred func(Tile) bool) []Tile {
	return d.FilterTiles(NavSection, pred)
}

// Badges returns the widgets of type "badge".
func (d *Document) Badges() []Widget {
	if d == nil {
		return nil
	}
	var out []Widget
	for _, w := range d.Widgets {
		if w.Type == "badge" {
			out = append(out, w)
		}
	}
	return out
}

var icons = map[string]string{
	"nas":       "💾",
	"ha":        "🏠",
	"grafana":   "📊",
	"plex":      "🎬",
	"jellyfin":  "🍿",
	"tailscale": "🌀",
	"node":      "🟩",
	"docs":      "📚",
	"files":     "📁",
	"tools":     "🧰",
	"link":      "🔗",
	"media":     "🎞️",
}

// IconFor maps an icon name to its glyph; unknown names get the link glyph.
func IconFor(name string) string {
	if g, ok := icons[name]; ok {
		return g
	}
	return icons["link"]
}
