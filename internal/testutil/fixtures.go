// Package testutil provides fixtures shared by package tests: portal
// documents and stub upstreams for the config endpoint and Home Assistant.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// PortalConfig returns a portal document with a nav section, suitable for test
// fixtures. Override individual fields with options.
func PortalConfig(opts ...func(map[string]any)) map[string]any {
	doc := map[string]any{
		"title":      "Lab",
		"appearance": map[string]any{"theme": "auto"},
		"sections": []any{
			map[string]any{
				"id": "nav",
				"tiles": []any{
					map[string]any{"href": "/nas/", "label": "NAS", "icon": "nas"},
					map[string]any{"href": "https://grafana.lab", "label": "Grafana", "icon": "grafana", "target": "_blank"},
				},
			},
		},
	}
	for _, opt := range opts {
		opt(doc)
	}
	return doc
}

// PortalJSON is PortalConfig encoded as JSON.
func PortalJSON(opts ...func(map[string]any)) []byte {
	b, _ := json.Marshal(PortalConfig(opts...))
	return b
}

// WithTheme sets appearance.theme.
func WithTheme(theme string) func(map[string]any) {
	return func(d map[string]any) { appearance(d)["theme"] = theme }
}

// WithThemeEntity sets appearance.haThemeEntity.
func WithThemeEntity(entity string) func(map[string]any) {
	return func(d map[string]any) { appearance(d)["haThemeEntity"] = entity }
}

// WithPresence sets the presence entities.
func WithPresence(entities ...string) func(map[string]any) {
	return func(d map[string]any) {
		list := make([]any, 0, len(entities))
		for _, e := range entities {
			list = append(list, map[string]any{"entity": e})
		}
		d["presence"] = list
	}
}

// WithBadge appends a badge widget.
func WithBadge(label, source string) func(map[string]any) {
	return func(d map[string]any) {
		ws, _ := d["widgets"].([]any)
		d["widgets"] = append(ws, map[string]any{"type": "badge", "label": label, "source": source})
	}
}

func appearance(d map[string]any) map[string]any {
	a, ok := d["appearance"].(map[string]any)
	if !ok {
		a = map[string]any{}
		d["appearance"] = a
	}
	return a
}

// FlakyServer answers the first failures requests with status and every
// later request with body. The returned counter holds the request count.
func FlakyServer(t *testing.T, failures int, status int, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		if int(n) <= failures {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// HomeAssistant is a stub of the Home Assistant states API.
type HomeAssistant struct {
	*httptest.Server

	mu     sync.Mutex
	states map[string]string
	down   bool
	auth   []string
}

// NewHomeAssistant starts a stub serving GET /api/states/{entity}.
func NewHomeAssistant(t *testing.T, states map[string]string) *HomeAssistant {
	t.Helper()
	ha := &HomeAssistant{states: make(map[string]string, len(states))}
	for k, v := range states {
		ha.states[k] = v
	}
	ha.Server = httptest.NewServer(http.HandlerFunc(ha.serve))
	t.Cleanup(ha.Close)
	return ha
}

func (ha *HomeAssistant) serve(w http.ResponseWriter, r *http.Request) {
	ha.mu.Lock()
	ha.auth = append(ha.auth, r.Header.Get("Authorization"))
	down := ha.down
	entity := strings.TrimPrefix(r.URL.Path, "/api/states/")
	state, ok := ha.states[entity]
	ha.mu.Unlock()

	switch {
	case down:
		w.WriteHeader(http.StatusBadGateway)
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entity_id":  entity,
			"state":      state,
			"attributes": map[string]any{},
		})
	}
}

// Set changes the state reported for entity.
func (ha *HomeAssistant) Set(entity, state string) {
	ha.mu.Lock()
	ha.states[entity] = state
	ha.mu.Unlock()
}

// SetDown makes every request fail with 502 while down is true.
func (ha *HomeAssistant) SetDown(down bool) {
	ha.mu.Lock()
	ha.down = down
	ha.mu.Unlock()
}

// AuthHeaders returns the Authorization header of every request so far.
func (ha *HomeAssistant) AuthHeaders() []string {
	ha.mu.Lock()
	defer ha.mu.Unlock()
	return append([]string(nil), ha.auth...)
}
