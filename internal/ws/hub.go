package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// sendBuffer is the per-client queue depth.
	sendBuffer   = 64
	writeTimeout = 5 * time.Second
)

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "labportal_ws_clients",
		Help: "Connected WebSocket clients.",
	})
	droppedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "labportal_ws_dropped_messages_total",
			Help: "Messages dropped because a client queue was full.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(connectedClients, droppedMessages)
}

// Client is one browser connection. Messages queue in send and are written
// by a single goroutine.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan Message
	logger *zap.Logger
}

func newClient(id string, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan Message, sendBuffer),
		logger: logger,
	}
}

// enqueue queues msg without blocking and reports whether it fit.
func (c *Client) enqueue(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// run writes queued messages until the peer goes away, ctx ends or the hub
// closes the queue. Reads are drained only to notice the disconnect.
func (c *Client) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := c.conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			wcancel()
			if err != nil {
				c.logger.Debug("websocket write failed", zap.String("client_id", c.id), zap.Error(err))
				return
			}
		}
	}
}

// Hub tracks connected clients by id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), logger: logger}
}

// Register adds c. A client already registered under the same id is closed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.id]; ok && old != c {
		close(old.send)
	} else if !ok {
		connectedClients.Inc()
	}
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", zap.String("client_id", c.id))
}

// Unregister removes c and closes its queue. Unknown or replaced clients are
// ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; !ok || cur != c {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	connectedClients.Dec()
	h.logger.Debug("websocket client disconnected", zap.String("client_id", c.id))
}

// Broadcast queues msg for every client and returns how many accepted it.
// A client whose queue is full misses the message.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, c := range h.clients {
		if c.enqueue(msg) {
			delivered++
			continue
		}
		droppedMessages.WithLabelValues(string(msg.Type)).Inc()
		h.logger.Warn("client queue full, dropping message",
			zap.String("client_id", id),
			zap.String("type", string(msg.Type)))
	}
	return delivered
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
