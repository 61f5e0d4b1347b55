// Package dashboard renders the portal page: navigation tiles, status
// badges, the presence strip and the active theme marker.
package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/server"
	"github.com/HerbHall/labportal/internal/theme"
	"github.com/HerbHall/labportal/internal/version"
)

// DefaultBadgeTimeout bounds each badge lookup during a page render.
const DefaultBadgeTimeout = 3 * time.Second

const defaultTitle = "Ops Console"

// DocumentSource returns the current portal document, nil before the first load.
type DocumentSource interface {
	Document() *portal.Document
}

// ThemeState reports the active theme.
type ThemeState interface {
	Active() theme.Theme
	Following() bool
}

// PresenceSource returns the presence strip.
type PresenceSource interface {
	Snapshot() []poller.Presence
}

// StateFetcher resolves badge sources to entity states.
type StateFetcher interface {
	GetSource(ctx context.Context, source string) (*hass.EntityState, error)
}

// Deps are the collaborators the page is rendered from. Theme, Presence and
// States may be nil.
type Deps struct {
	Documents    DocumentSource
	Theme        ThemeState
	Presence     PresenceSource
	States       StateFetcher
	BadgeTimeout time.Duration
	Now          func() time.Time
}

// Handler serves the dashboard page at / and its assets under /static/.
type Handler struct {
	deps   Deps
	page   *template.Template
	static http.Handler
	logger *zap.Logger
}

// New parses the page template and prepares the static file server.
func New(deps Deps, logger *zap.Logger) (*Handler, error) {
	if deps.BadgeTimeout <= 0 {
		deps.BadgeTimeout = DefaultBadgeTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	page, err := template.ParseFS(assetsFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	static, err := fs.Sub(assetsFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static assets: %w", err)
	}

	return &Handler{
		deps:   deps,
		page:   page,
		static: http.StripPrefix("/static/", http.FileServer(http.FS(static))),
		logger: logger,
	}, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method != http.MethodGet && r.Method != http.MethodHead:
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	case strings.HasPrefix(r.URL.Path, "/static/"):
		h.static.ServeHTTP(w, r)
	case r.URL.Path == "/" || r.URL.Path == "/index.html":
		h.servePage(w, r)
	default:
		server.NotFound(w, "no such page", r.URL.Path)
	}
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.page.Execute(&buf, h.Page(r.Context())); err != nil {
		h.logger.Error("render dashboard", zap.Error(err))
		server.InternalError(w, "failed to render dashboard", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}

// Page builds the template model from the current state.
func (h *Handler) Page(ctx context.Context) Page {
	doc := h.deps.Documents.Document()

	p := Page{
		Title:       defaultTitle,
		Greeting:    Greeting(h.deps.Now()),
		ThemeMarker: theme.Light.Marker(),
		Loaded:      doc != nil,
		Tiles:       Tiles(doc),
		Version:     version.Short(),
	}
	if doc != nil && doc.Title != "" {
		p.Title = doc.Title
	}
	if h.deps.Theme != nil {
		if t := h.deps.Theme.Active(); t.Valid() {
			p.ThemeMarker = t.Marker()
		}
		p.Following = h.deps.Theme.Following()
	}
	if h.deps.Presence != nil {
		p.Presence = h.deps.Presence.Snapshot()
	} else {
		p.Presence = []poller.Presence{{Display: poller.PresenceNA}}
	}
	if doc != nil {
		p.Badges = Badges(ctx, h.deps.States, doc, h.deps.BadgeTimeout)
	}
	return p
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("dashboard: " + err.Error())
	}
	return sub
}
