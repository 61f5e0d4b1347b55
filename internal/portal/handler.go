package portal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/fetch"
	"github.com/HerbHall/labportal/internal/server"
)

// Handler serves the config document from disk and the config API.
type Handler struct {
	source *Source
	store  *Store
	loader *ResilientLoader
	once   *Loader
	logger *zap.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithOneShotLoader enables POST /api/v1/portal/reload?wait=true, which does a
// single portal load and answers with the document.
func WithOneShotLoader(l *Loader) HandlerOption {
	return func(h *Handler) { h.once = l }
}

// Compile-time check that Handler implements the server interface.
var _ server.SimpleRouteRegistrar = (*Handler)(nil)

// NewHandler creates the portal Handler. loader may be nil, which disables reload.
func NewHandler(source *Source, store *Store, loader *ResilientLoader, logger *zap.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{source: source, store: store, loader: loader, logger: logger}
	for _, o := range opts {
		o(h)
	}
	return h
}

// RegisterRoutes registers portal routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+DefaultConfigPath, h.handleConfigFile)
	mux.HandleFunc("GET /api/v1/portal/config", h.handleGetConfig)
	mux.HandleFunc("GET /api/v1/portal/ready", h.handleReady)
	mux.HandleFunc("POST /api/v1/portal/reload", h.handleReload)
}

const reloadTimeout = 2 * time.Minute

// ReadyResponse is the body of GET /api/v1/portal/ready.
type ReadyResponse struct {
	Ready    bool      `json:"ready"`
	Config   *Document `json:"config"`
	Auth     bool      `json:"auth"`
	LoadedAt string    `json:"loaded_at,omitempty"`
}

// handleConfigFile serves the on-disk document. The ?v= cache-busting
// parameter is accepted and ignored; the response is never cacheable.
func (h *Handler) handleConfigFile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	body, err := h.source.Read()
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			server.NotFound(w, "portal config file not found", r.URL.Path)
		case errors.Is(err, fetch.ErrParse):
			h.logger.Error("portal config file is malformed", zap.String("path", h.source.Path()), zap.Error(err))
			server.InternalError(w, "portal config file is malformed", r.URL.Path)
		default:
			h.logger.Error("failed to read portal config", zap.Error(err))
			server.InternalError(w, "failed to read portal config", r.URL.Path)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// handleGetConfig returns the last loaded document.
//
//	@Summary		Get portal config
//	@Description	Get the most recently loaded portal configuration document.
//	@Tags			portal
//	@Produce		json
//	@Success		200	{object}	Document		"Portal config"
//	@Failure		503	{object}	server.Problem	"Config not loaded yet"
//	@Router			/portal/config [get]
func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	doc := h.store.Document()
	if doc == nil {
		server.WriteProblem(w, server.Problem{
			Type:     server.ProblemTypeUnavailable,
			Title:    "Service Unavailable",
			Status:   http.StatusServiceUnavailable,
			Detail:   "portal config has not been loaded",
			Instance: r.URL.Path,
		})
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	server.WriteJSON(w, http.StatusOK, doc)
}

// handleReady reports the startup readiness record.
//
//	@Summary		Get portal readiness
//	@Description	Get the readiness record written by the startup sequence: the config and the auth gate result.
//	@Tags			portal
//	@Produce		json
//	@Success		200	{object}	ReadyResponse	"Readiness record"
//	@Router			/portal/ready [get]
func (h *Handler) handleReady(w http.ResponseWriter, _ *http.Request) {
	rd, ok := h.store.Readiness()
	resp := ReadyResponse{Ready: ok, Config: h.store.Document(), Auth: rd.Auth}
	if t := h.store.LoadedAt(); !t.IsZero() {
		resp.LoadedAt = t.Format(time.RFC3339)
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

// handleReload triggers a background fetch; the result arrives as a
// config-loaded event since a full backoff cycle outlasts the write timeout.
// With wait=true a single load is done inline instead.
//
//	@Summary		Reload portal config
//	@Description	Refetch the portal config in the background with backoff, or once inline with wait=true.
//	@Tags			portal
//	@Produce		json
//	@Param			wait	query		bool				false	"Load once and return the document"
//	@Success		200		{object}	Document			"Loaded config (wait=true)"
//	@Success		202		{object}	map[string]string	"Reload started"
//	@Failure		502		{object}	server.Problem		"Config endpoint failed (wait=true)"
//	@Failure		503		{object}	server.Problem		"Reload not configured"
//	@Failure		504		{object}	server.Problem		"Config endpoint timed out (wait=true)"
//	@Router			/portal/reload [post]
func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait && h.once != nil {
		h.reloadOnce(w, r)
		return
	}
	if h.loader == nil {
		server.WriteProblem(w, server.Problem{
			Type:     server.ProblemTypeUnavailable,
			Title:    "Service Unavailable",
			Status:   http.StatusServiceUnavailable,
			Detail:   "reload is not configured",
			Instance: r.URL.Path,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), reloadTimeout)
	go func() {
		defer cancel()
		h.loader.Fetch(ctx)
	}()

	server.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reloading"})
}

// reloadOnce loads the document once as the portal entry point, so an "auto"
// appearance switches the theme to follow the system.
func (h *Handler) reloadOnce(w http.ResponseWriter, r *http.Request) {
	doc, err := h.once.Load(r.Context(), LoadOptions{Portal: true})
	if err != nil {
		h.logger.Warn("portal config reload failed", zap.Error(err))
		if errors.Is(err, fetch.ErrTimeout) {
			server.WriteProblem(w, server.Problem{
				Type:     server.ProblemTypeBadGateway,
				Title:    "Gateway Timeout",
				Status:   http.StatusGatewayTimeout,
				Detail:   "portal config did not answer in time",
				Instance: r.URL.Path,
			})
			return
		}
		server.BadGateway(w, err.Error(), r.URL.Path)
		return
	}

	h.store.Set(r.Context(), doc)
	w.Header().Set("Cache-Control", "no-store")
	server.WriteJSON(w, http.StatusOK, doc)
}
