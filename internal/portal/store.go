package portal

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/labportal/internal/event"
)

// TopicConfigLoaded is published with a *Document payload on every Set.
const TopicConfigLoaded = "portal.config_loaded"

// Readiness reports whether the config loaded and whether the auth gate
// answered. Config is nil when every fetch attempt failed.
type Readiness struct {
	Config *Document `json:"config"`
	Auth   bool      `json:"auth"`
}

// Store holds the last successfully loaded document. It is overwritten on
// every successful fetch and read by any consumer.
type Store struct {
	mu        sync.RWMutex
	doc       *Document
	loadedAt  time.Time
	readiness *Readiness
	bus       event.Publisher
}

// NewStore creates an empty store. bus may be nil.
func NewStore(bus event.Publisher) *Store {
	if bus == nil {
		bus = event.Discard
	}
	return &Store{bus: bus}
}

// Set replaces the current document and publishes TopicConfigLoaded.
func (s *Store) Set(ctx context.Context, doc *Document) {
	s.mu.Lock()
	s.doc = doc
	s.loadedAt = time.Now().UTC()
	s.mu.Unlock()

	_ = s.bus.Publish(ctx, event.Event{
		Topic:   TopicConfigLoaded,
		Source:  "portal",
		Payload: doc,
	})
}

// Document returns the current document, or nil before the first load.
func (s *Store) Document() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// LoadedAt returns when the current document was stored.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// SetReadiness records the outcome of the startup sequence.
func (s *Store) SetReadiness(r Readiness) {
	s.mu.Lock()
	s.readiness = &r
	s.mu.Unlock()
}

// Readiness returns the startup outcome; ok is false until Init has run.
func (s *Store) Readiness() (Readiness, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.readiness == nil {
		return Readiness{}, false
	}
	return *s.readiness, true
}
