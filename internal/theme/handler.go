package theme

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/server"
)

const maxBodyBytes = 1 << 10

// Handler exposes the resolver over HTTP.
type Handler struct {
	resolver *Resolver
	logger   *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ server.SimpleRouteRegistrar = (*Handler)(nil)

// NewHandler creates a theme Handler.
func NewHandler(resolver *Resolver, logger *zap.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// RegisterRoutes registers theme routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/theme", h.handleGet)
	mux.HandleFunc("PUT /api/v1/theme", h.handleSet)
	mux.HandleFunc("POST /api/v1/theme/toggle", h.handleToggle)
	mux.HandleFunc("PUT /api/v1/theme/system", h.handleSystem)
}

// StateResponse describes the resolver state.
type StateResponse struct {
	Theme     Theme  `json:"theme"`
	Marker    string `json:"marker,omitempty"`
	Following bool   `json:"following"`
	System    Theme  `json:"system"`
}

// SetRequest is the body of PUT /api/v1/theme and PUT /api/v1/theme/system.
type SetRequest struct {
	Theme string `json:"theme"`
}

func (h *Handler) state() StateResponse {
	resp := StateResponse{
		Theme:     h.resolver.Active(),
		Following: h.resolver.Following(),
		System:    h.resolver.System().Current(),
	}
	if resp.Theme != "" {
		resp.Marker = resp.Theme.Marker()
	}
	return resp
}

// handleGet returns the resolver state.
//
//	@Summary		Get theme
//	@Description	Get the active theme, whether it follows the system, and the system preference.
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	StateResponse	"Resolver state"
//	@Router			/theme [get]
func (h *Handler) handleGet(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, h.state())
}

// handleSet applies and persists an explicit theme.
//
//	@Summary		Set theme
//	@Description	Apply light or dark and persist it.
//	@Tags			theme
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetRequest		true	"Theme to apply"
//	@Success		200		{object}	StateResponse	"Resolver state"
//	@Failure		400		{object}	server.Problem	"Invalid theme"
//	@Failure		500		{object}	server.Problem	"Theme could not be persisted"
//	@Router			/theme [put]
func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decodeTheme(w, r)
	if !ok {
		return
	}
	if err := h.resolver.Apply(r.Context(), t, SourceManual); err != nil {
		h.logger.Error("failed to apply theme", zap.Error(err))
		server.InternalError(w, "failed to persist theme", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, h.state())
}

// handleToggle flips between light and dark.
//
//	@Summary		Toggle theme
//	@Description	Flip between light and dark (dark when nothing is applied yet) and persist the result.
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	StateResponse	"Resolver state"
//	@Failure		500	{object}	server.Problem	"Theme could not be persisted"
//	@Router			/theme/toggle [post]
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	if _, err := h.resolver.Toggle(r.Context()); err != nil {
		h.logger.Error("failed to toggle theme", zap.Error(err))
		server.InternalError(w, "failed to persist theme", r.URL.Path)
		return
	}
	server.WriteJSON(w, http.StatusOK, h.state())
}

// handleSystem records the browser's prefers-color-scheme.
//
//	@Summary		Report system preference
//	@Description	Record the browser's prefers-color-scheme. A resolver following the system applies it.
//	@Tags			theme
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SetRequest		true	"System preference"
//	@Success		200		{object}	StateResponse	"Resolver state"
//	@Failure		400		{object}	server.Problem	"Invalid theme"
//	@Router			/theme/system [put]
func (h *Handler) handleSystem(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decodeTheme(w, r)
	if !ok {
		return
	}
	if h.resolver.System().Set(t) {
		h.logger.Debug("system theme preference changed", zap.String("theme", string(t)))
	}
	server.WriteJSON(w, http.StatusOK, h.state())
}

func (h *Handler) decodeTheme(w http.ResponseWriter, r *http.Request) (Theme, bool) {
	var req SetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		server.BadRequest(w, "invalid request body", r.URL.Path)
		return "", false
	}
	t, err := Parse(req.Theme)
	if err != nil {
		server.BadRequest(w, "theme must be light or dark", r.URL.Path)
		return "", false
	}
	return t, true
}
