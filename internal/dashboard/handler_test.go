package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/testutil"
	"github.com/HerbHall/labportal/internal/theme"
)

type staticDocs struct{ doc *portal.Document }

func (s staticDocs) Document() *portal.Document { return s.doc }

type fixedTheme struct {
	active    theme.Theme
	following bool
}

func (f fixedTheme) Active() theme.Theme { return f.active }
func (f fixedTheme) Following() bool     { return f.following }

type fixedPresence []poller.Presence

func (f fixedPresence) Snapshot() []poller.Presence { return f }

// fakeStates answers badge lookups from a map; missing sources fail.
type fakeStates map[string]string

func (f fakeStates) GetSource(_ context.Context, source string) (*hass.EntityState, error) {
	state, ok := f[source]
	if !ok {
		return nil, errors.New("boom")
	}
	return &hass.EntityState{State: state}, nil
}

func mustDoc(t *testing.T, opts ...func(map[string]any)) *portal.Document {
	t.Helper()
	doc, err := portal.Parse(testutil.PortalJSON(opts...))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func newHandler(t *testing.T, deps Deps) *Handler {
	t.Helper()
	h, err := New(deps, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{0, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{17, "Good afternoon"},
		{18, "Good evening"},
		{23, "Good evening"},
	}
	for _, tt := range tests {
		at := time.Date(2026, 1, 1, tt.hour, 30, 0, 0, time.Local)
		if got := Greeting(at); got != tt.want {
			t.Errorf("Greeting(%02d:30) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestTiles(t *testing.T) {
	tiles := Tiles(mustDoc(t))
	if len(tiles) != 2 {
		t.Fatalf("len(tiles) = %d, want 2", len(tiles))
	}
	if tiles[0].Icon != portal.IconFor("nas") || tiles[0].Target != "_self" {
		t.Errorf("tiles[0] = %+v, want nas icon and _self target", tiles[0])
	}
	if tiles[1].Target != "_blank" {
		t.Errorf("tiles[1].Target = %q, want _blank", tiles[1].Target)
	}
	if got := Tiles(nil); len(got) != 0 {
		t.Errorf("Tiles(nil) = %v, want empty", got)
	}
}

func TestBadges(t *testing.T) {
	doc := mustDoc(t,
		testutil.WithBadge("NAS", "/ha/api/states/binary_sensor.nas"),
		testutil.WithBadge("Backup", "/ha/api/states/sensor.backup"),
		testutil.WithBadge("Router", "/ha/api/states/sensor.router"),
		testutil.WithBadge("Static", ""),
	)
	states := fakeStates{
		"/ha/api/states/binary_sensor.nas": "on",
		"/ha/api/states/sensor.backup":     "unknown",
	}

	got := Badges(context.Background(), states, doc, time.Second)
	want := []BadgeView{
		{Label: "NAS", State: "on", Class: hass.BadgeOK},
		{Label: "Backup", State: "unknown", Class: hass.BadgeWarn},
		{Label: "Router", State: BadgeUnreachable, Class: hass.BadgeErr},
		{Label: "Static", State: BadgeUnknown, Class: hass.BadgeWarn},
	}
	if len(got) != len(want) {
		t.Fatalf("len(badges) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("badge[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBadges_SlowSourceIsUnreachable(t *testing.T) {
	doc := mustDoc(t, testutil.WithBadge("Slow", "/ha/api/states/sensor.slow"))
	slow := stateFunc(func(ctx context.Context, _ string) (*hass.EntityState, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	got := Badges(context.Background(), slow, doc, 20*time.Millisecond)
	if got[0].State != BadgeUnreachable {
		t.Errorf("State = %q, want %q", got[0].State, BadgeUnreachable)
	}
}

type stateFunc func(ctx context.Context, source string) (*hass.EntityState, error)

func (f stateFunc) GetSource(ctx context.Context, source string) (*hass.EntityState, error) {
	return f(ctx, source)
}

func TestHandler_RendersPage(t *testing.T) {
	doc := mustDoc(t, testutil.WithBadge("NAS", "/ha/api/states/binary_sensor.nas"))
	doc.Sections[0].Tiles = append(doc.Sections[0].Tiles, portal.Tile{Href: "/x", Label: "<script>x</script>"})

	h := newHandler(t, Deps{
		Documents: staticDocs{doc},
		Theme:     fixedTheme{active: theme.Dark},
		Presence:  fixedPresence{{Entity: "person.alex", Display: "Presence: home", Reachable: true}},
		States:    fakeStates{"/ha/api/states/binary_sensor.nas": "on"},
		Now:       func() time.Time { return time.Date(2026, 1, 1, 19, 0, 0, 0, time.Local) },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`class="theme-dark"`,
		"Good evening, Lab",
		`href="/nas/" target="_self"`,
		`target="_blank"`,
		"Presence: home",
		`badge dot ok`,
		"&lt;script&gt;x&lt;/script&gt;",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "<script>x</script>") {
		t.Error("tile label was not escaped")
	}
}

func TestHandler_BeforeFirstLoad(t *testing.T) {
	h := newHandler(t, Deps{Documents: staticDocs{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `id="loading"`) {
		t.Error("page should show the loading placeholder")
	}
	if !strings.Contains(body, poller.PresenceNA) {
		t.Errorf("page should show %q", poller.PresenceNA)
	}
	if !strings.Contains(body, `class="theme-light"`) {
		t.Error("page should default to the light marker")
	}
}

func TestHandler_Routes(t *testing.T) {
	h := newHandler(t, Deps{Documents: staticDocs{}})

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"stylesheet", http.MethodGet, "/static/portal.css", http.StatusOK},
		{"script", http.MethodGet, "/static/portal.js", http.StatusOK},
		{"missing asset", http.MethodGet, "/static/nope.css", http.StatusNotFound},
		{"unknown page", http.MethodGet, "/devices", http.StatusNotFound},
		{"post root", http.MethodPost, "/", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, http.NoBody))
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
			}
		})
	}
}
