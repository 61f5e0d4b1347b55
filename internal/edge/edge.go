// Package edge fronts the portal: it forces no-store caching under the
// portal prefix and reverse-proxies the portal origin and Home Assistant.
package edge

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/server"
)

// DefaultPrefix is the path prefix whose responses are never cached.
const DefaultPrefix = "/portal/"

// Config configures an Edge.
type Config struct {
	// OriginURL is the upstream serving the portal prefix. Empty serves the
	// ping page locally.
	OriginURL string
	// NoStorePrefix defaults to DefaultPrefix.
	NoStorePrefix string
	// HomeAssistantURL enables the /ha proxy when set.
	HomeAssistantURL   string
	HomeAssistantToken string
}

// Edge registers the proxy routes and the no-store middleware.
type Edge struct {
	prefix string
	portal http.Handler
	ha     http.Handler
	logger *zap.Logger
}

// Compile-time check that Edge implements the server interface.
var _ server.RouteRegistrar = (*Edge)(nil)

// New builds an Edge from cfg.
func New(cfg Config, logger *zap.Logger) (*Edge, error) {
	e := &Edge{prefix: cfg.NoStorePrefix, logger: logger}
	if e.prefix == "" {
		e.prefix = DefaultPrefix
	}

	if cfg.OriginURL != "" {
		origin, err := url.Parse(cfg.OriginURL)
		if err != nil {
			return nil, fmt.Errorf("parse edge origin: %w", err)
		}
		e.portal = NewProxy(origin, e.prefix, logger)
	}
	if cfg.HomeAssistantURL != "" {
		base, err := url.Parse(cfg.HomeAssistantURL)
		if err != nil {
			return nil, fmt.Errorf("parse home assistant url: %w", err)
		}
		e.ha = NewHomeAssistantProxy(base, cfg.HomeAssistantToken, logger)
	}
	return e, nil
}

// RegisterRoutes mounts the portal prefix and the Home Assistant states proxy.
func (e *Edge) RegisterRoutes(mux *http.ServeMux) {
	if e.portal != nil {
		mux.Handle(e.prefix, e.portal)
	} else {
		mux.HandleFunc("GET "+strings.TrimSuffix(e.prefix, "/")+"/ping.html", handlePing)
	}
	if e.ha != nil {
		mux.Handle("GET "+haPrefix+"/api/states/{entity}", e.ha)
	}
}

// Middleware returns the no-store middleware for the configured prefix.
func (e *Edge) Middleware() func(http.Handler) http.Handler {
	return NoStore(e.prefix)
}

const pingPage = `<!doctype html><html><head><meta charset="utf-8"><title>ok</title></head><body>ok</body></html>`

// handlePing answers the auth-gate liveness check when no origin is configured.
func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(pingPage))
}

// NoStore forces Cache-Control: no-store on every response whose path is
// under prefix, replacing whatever the wrapped handler set. Other paths pass
// through untouched.
func NoStore(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&noStoreWriter{ResponseWriter: w}, r)
		})
	}
}

// noStoreWriter sets the header at the last moment so handlers cannot
// override it.
type noStoreWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *noStoreWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.Header().Set("Cache-Control", "no-store")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *noStoreWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *noStoreWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
