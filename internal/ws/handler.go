package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/event"
	"github.com/HerbHall/labportal/internal/poller"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/server"
	"github.com/HerbHall/labportal/internal/theme"
)

// Handler streams theme, presence and config changes to browsers.
type Handler struct {
	hub      *Hub
	snapshot func() []Message
	logger   *zap.Logger
}

// Compile-time check that Handler implements the server interface.
var _ server.SimpleRouteRegistrar = (*Handler)(nil)

// NewHandler creates a WebSocket handler and subscribes it to bus. snapshot,
// when non-nil, supplies the messages sent to each client on connect so a new
// page starts from the current state.
func NewHandler(bus event.Subscriber, snapshot func() []Message, logger *zap.Logger) *Handler {
	h := &Handler{
		hub:      NewHub(logger),
		snapshot: snapshot,
		logger:   logger,
	}
	h.subscribeToEvents(bus)
	return h
}

// Hub returns the connection hub.
func (h *Handler) Hub() *Hub { return h.hub }

// RegisterRoutes registers WebSocket routes on the server mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/ws", h.handleStream)
}

// handleStream upgrades the connection and streams events until the client
// goes away. Cross-origin upgrades are rejected by websocket.Accept.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, h.logger)
	if h.snapshot != nil {
		for _, msg := range h.snapshot() {
			client.enqueue(msg)
		}
	}

	h.hub.Register(client)
	client.run(r.Context())
	h.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
}

// subscribeToEvents forwards bus events to every connected client.
func (h *Handler) subscribeToEvents(bus event.Subscriber) {
	if bus == nil {
		return
	}

	bus.Subscribe(theme.TopicChanged, func(_ context.Context, e event.Event) {
		change, ok := e.Payload.(theme.Change)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{Type: MessageThemeChanged, Timestamp: e.Timestamp, Data: change})
	})

	bus.Subscribe(poller.TopicPresenceChanged, func(_ context.Context, e event.Event) {
		p, ok := e.Payload.(poller.Presence)
		if !ok {
			return
		}
		h.hub.Broadcast(Message{Type: MessagePresenceChanged, Timestamp: e.Timestamp, Data: p})
	})

	bus.Subscribe(portal.TopicConfigLoaded, func(_ context.Context, e event.Event) {
		doc, ok := e.Payload.(*portal.Document)
		if !ok || doc == nil {
			return
		}
		h.hub.Broadcast(Message{
			Type:      MessageConfigLoaded,
			Timestamp: e.Timestamp,
			Data: ConfigLoadedData{
				Title:    doc.Title,
				Sections: len(doc.Sections),
				Widgets:  len(doc.Widgets),
			},
		})
	})

	h.logger.Debug("subscribed to theme, presence and config events for WebSocket broadcasting")
}
