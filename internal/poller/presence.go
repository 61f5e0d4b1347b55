package poller

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/event"
	"github.com/HerbHall/labportal/internal/hass"
	"github.com/HerbHall/labportal/internal/portal"
	"github.com/HerbHall/labportal/internal/server"
)

// TopicPresenceChanged is published with a Presence payload whenever an
// entry's display text changes.
const TopicPresenceChanged = "presence.changed"

// Presence is one entry of the presence strip.
type Presence struct {
	Entity    string    `json:"entity,omitempty"`
	Label     string    `json:"label,omitempty"`
	State     string    `json:"state,omitempty"`
	Reachable bool      `json:"reachable"`
	Display   string    `json:"display"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Display strings.
const (
	PresenceNA          = "Presence: n/a"
	PresenceUnreachable = "Presence: unreachable"
)

// PresenceDisplay renders a state for the strip. An empty state reads unknown.
func PresenceDisplay(state string) string {
	if state == "" {
		state = "unknown"
	}
	return "Presence: " + state
}

// PresenceBoard runs one poller per configured presence entity.
type PresenceBoard struct {
	client   *hass.Client
	bus      event.Publisher
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.RWMutex
	order   []string
	entries map[string]*Presence
	handles map[string]*Handle
}

// NewPresenceBoard creates an empty board. bus may be nil.
func NewPresenceBoard(client *hass.Client, bus event.Publisher, interval, timeout time.Duration, logger *zap.Logger) *PresenceBoard {
	if bus == nil {
		bus = event.Discard
	}
	return &PresenceBoard{
		client:   client,
		bus:      bus,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		entries:  make(map[string]*Presence),
		handles:  make(map[string]*Handle),
	}
}

// Sync makes the board match entities: pollers for removed entities are
// stopped, new ones are started under ctx, unchanged ones keep running.
func (b *PresenceBoard) Sync(ctx context.Context, entities []portal.PresenceEntity) {
	want := make(map[string]portal.PresenceEntity, len(entities))
	order := make([]string, 0, len(entities))
	for _, e := range entities {
		if e.Entity == "" {
			continue
		}
		if _, dup := want[e.Entity]; dup {
			continue
		}
		want[e.Entity] = e
		order = append(order, e.Entity)
	}

	b.mu.Lock()
	var stale []*Handle
	for id, h := range b.handles {
		if _, ok := want[id]; !ok {
			stale = append(stale, h)
			delete(b.handles, id)
			delete(b.entries, id)
		}
	}
	var start []portal.PresenceEntity
	for _, id := range order {
		if e, ok := b.entries[id]; ok {
			e.Label = want[id].Label
			continue
		}
		b.entries[id] = &Presence{Entity: id, Label: want[id].Label, Display: PresenceDisplay("")}
		start = append(start, want[id])
	}
	b.order = order
	b.mu.Unlock()

	for _, h := range stale {
		h.Stop()
	}
	for _, e := range start {
		b.startPoller(ctx, e.Entity)
	}
}

func (b *PresenceBoard) startPoller(ctx context.Context, entity string) {
	p := &Poller{
		Name:     "presence",
		Interval: b.interval,
		Timeout:  b.timeout,
		Fetch: func(ctx context.Context) (string, error) {
			st, err := b.client.GetState(ctx, entity)
			if err != nil {
				return "", err
			}
			return st.State, nil
		},
		OnState: func(ctx context.Context, state string) {
			b.update(ctx, entity, state, true)
		},
		OnError: func(ctx context.Context, err error) {
			b.logger.Debug("presence entity unreachable", zap.String("entity", entity), zap.Error(err))
			b.update(ctx, entity, "", false)
		},
	}
	h := p.Start(ctx)

	b.mu.Lock()
	if _, ok := b.entries[entity]; ok {
		b.handles[entity] = h
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	// Removed by a concurrent Sync before the handle was recorded.
	h.Stop()
}

func (b *PresenceBoard) update(ctx context.Context, entity, state string, reachable bool) {
	display := PresenceUnreachable
	if reachable {
		display = PresenceDisplay(state)
	}

	b.mu.Lock()
	e, ok := b.entries[entity]
	if !ok {
		b.mu.Unlock()
		return
	}
	changed := e.Display != display
	e.State = state
	e.Reachable = reachable
	e.Display = display
	e.UpdatedAt = time.Now().UTC()
	snapshot := *e
	b.mu.Unlock()

	if changed {
		_ = b.bus.Publish(ctx, event.Event{
			Topic:   TopicPresenceChanged,
			Source:  "presence",
			Payload: snapshot,
		})
	}
}

// Snapshot returns the strip in configured order. With no entities it holds a
// single n/a entry.
func (b *PresenceBoard) Snapshot() []Presence {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.order) == 0 {
		return []Presence{{Display: PresenceNA}}
	}
	out := make([]Presence, 0, len(b.order))
	for _, id := range b.order {
		if e, ok := b.entries[id]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// Stop stops every poller.
func (b *PresenceBoard) Stop() {
	b.mu.Lock()
	handles := b.handles
	b.handles = make(map[string]*Handle)
	b.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Compile-time check that PresenceBoard implements the server interface.
var _ server.SimpleRouteRegistrar = (*PresenceBoard)(nil)

// RegisterRoutes registers GET /api/v1/presence.
func (b *PresenceBoard) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/presence", b.handleList)
}

// PresenceResponse is the body of GET /api/v1/presence.
type PresenceResponse struct {
	Presence []Presence `json:"presence"`
}

// handleList returns the presence strip.
//
//	@Summary		List presence
//	@Description	Get the presence strip in configured order. With no entities it holds a single n/a entry.
//	@Tags			presence
//	@Produce		json
//	@Success		200	{object}	PresenceResponse	"Presence strip"
//	@Router			/presence [get]
func (b *PresenceBoard) handleList(w http.ResponseWriter, _ *http.Request) {
	server.WriteJSON(w, http.StatusOK, PresenceResponse{Presence: b.Snapshot()})
}
