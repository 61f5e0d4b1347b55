package portal

import (
	"errors"
	"testing"

	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/testutil"
)

func TestParse(t *testing.T) {
	doc, err := Parse(testutil.PortalJSON(
		testutil.WithThemeEntity("input_select.theme"),
		testutil.WithBadge("NAS", "/ha/api/states/binary_sensor.nas"),
		testutil.WithPresence("person.alex"),
	))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Appearance.HAThemeEntity != "input_select.theme" {
		t.Errorf("HAThemeEntity = %q", doc.Appearance.HAThemeEntity)
	}
	if len(doc.Badges()) != 1 {
		t.Errorf("badges = %d, want 1", len(doc.Badges()))
	}
	if len(doc.Presence) != 1 || doc.Presence[0].Entity != "person.alex" {
		t.Errorf("presence = %+v", doc.Presence)
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`{"sections": 3}`))
	if !errors.Is(err, fetch.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestFilterTiles(t *testing.T) {
	doc, err := Parse(testutil.PortalJSON())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tests := []struct {
		name string
		id   string
		pred func(Tile) bool
		want int
	}{
		{"all nav", NavSection, nil, 2},
		{"external only", NavSection, func(t Tile) bool { return t.Target == "_blank" }, 1},
		{"missing section", "tools", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := doc.FilterTiles(tt.id, tt.pred)
			if got == nil {
				t.Fatal("FilterTiles should never return nil")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilterTiles_NilDocument(t *testing.T) {
	var doc *Document
	if got := doc.NavTiles(nil); len(got) != 0 {
		t.Errorf("NavTiles on nil = %v", got)
	}
}

func TestTile_LinkTarget(t *testing.T) {
	if got := (Tile{}).LinkTarget(); got != "_self" {
		t.Errorf("default target = %q, want _self", got)
	}
	if got := (Tile{Target: "_blank"}).LinkTarget(); got != "_blank" {
		t.Errorf("target = %q, want _blank", got)
	}
}

func TestIconFor(t *testing.T) {
	if IconFor("nas") != "💾" {
		t.Errorf("IconFor(nas) = %q", IconFor("nas"))
	}
	if IconFor("unknown") != IconFor("link") {
		t.Error("unknown icons should fall back to the link glyph")
	}
}
