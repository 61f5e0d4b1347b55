package theme

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/event"
	"github.com/HerbHall/labportal/internal/portal"
)

// TopicChanged is published with a Change payload after every Apply.
const TopicChanged = "theme.changed"

// Sources of a theme change, carried in Change.Source.
const (
	SourcePersisted = "persisted"
	SourceConfig    = "config"
	SourceSystem    = "system"
	SourceEntity    = "entity"
	SourceManual    = "manual"
)

// Change is the payload of TopicChanged.
type Change struct {
	Theme     Theme  `json:"theme"`
	Marker    string `json:"marker"`
	Source    string `json:"source"`
	Following bool   `json:"following"`
}

var themeChanges = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "labportal_theme_changes_total",
		Help: "Theme applications by source.",
	},
	[]string{"theme", "source"},
)

func init() {
	prometheus.MustRegister(themeChanges)
}

// EntityWatcher starts observing a Home Assistant entity and passes each
// state it reads to handle until ctx is done.
type EntityWatcher func(ctx context.Context, entity string, handle func(ctx context.Context, state string))

// Compile-time check that Resolver can follow "auto" configs.
var _ portal.AutoThemer = (*Resolver)(nil)

// Resolver owns the active theme. Writers (entity pollers, system preference
// changes, manual toggles) are last-write-wins.
type Resolver struct {
	store  Store
	system *SystemPreference
	bus    event.Publisher
	logger *zap.Logger
	watch  EntityWatcher

	// writeMu orders whole applications so the marker, the stored value
	// and the published events agree on the last writer.
	writeMu sync.Mutex

	mu        sync.RWMutex
	current   Theme
	markers   map[string]struct{}
	following bool

	followOnce sync.Once
	// followCtx is the context of the first FollowSystem call; system
	// changes are applied under it.
	followCtx context.Context
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithEntityWatcher sets how haThemeEntity is observed.
func WithEntityWatcher(w EntityWatcher) Option {
	return func(r *Resolver) { r.watch = w }
}

// NewResolver creates a Resolver. bus may be nil.
func NewResolver(store Store, system *SystemPreference, bus event.Publisher, logger *zap.Logger, opts ...Option) *Resolver {
	if bus == nil {
		bus = event.Discard
	}
	r := &Resolver{
		store:   store,
		system:  system,
		bus:     bus,
		logger:  logger,
		markers: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Init resolves the startup theme, first match wins: the persisted theme,
// then an "auto" appearance (follow the system), then an explicit appearance
// theme. Independently, a configured haThemeEntity starts the entity watcher,
// which runs until ctx is done.
func (r *Resolver) Init(ctx context.Context, a portal.Appearance) {
	persisted, ok, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Warn("persisted theme unavailable", zap.Error(err))
	}

	mode, err := ParseMode(a.Theme)
	if err != nil {
		r.logger.Warn("ignoring appearance theme", zap.String("theme", a.Theme))
	}

	switch {
	case ok:
		r.apply(ctx, persisted, SourcePersisted)
	case mode == ModeAuto:
		r.FollowSystem(ctx)
	case mode != "":
		r.apply(ctx, Theme(mode), SourceConfig)
	}

	if a.HAThemeEntity != "" && r.watch != nil {
		r.logger.Info("watching theme entity", zap.String("entity", a.HAThemeEntity))
		r.watch(ctx, a.HAThemeEntity, r.HandleEntityState)
	}
}

// Apply makes t the single active theme, persists it and publishes
// TopicChanged. Applying the same theme twice leaves one marker.
func (r *Resolver) Apply(ctx context.Context, t Theme, source string) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, t)
	}
	return r.apply(ctx, t, source)
}

func (r *Resolver) apply(ctx context.Context, t Theme, source string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.applyLocked(ctx, t, source)
}

// applyLocked requires r.writeMu.
func (r *Resolver) applyLocked(ctx context.Context, t Theme, source string) error {
	r.mu.Lock()
	for _, m := range markers {
		delete(r.markers, m)
	}
	r.markers[t.Marker()] = struct{}{}
	r.current = t
	following := r.following
	r.mu.Unlock()

	themeChanges.WithLabelValues(string(t), source).Inc()

	var saveErr error
	if err := r.store.Save(ctx, t); err != nil {
		r.logger.Warn("failed to persist theme", zap.String("theme", string(t)), zap.Error(err))
		saveErr = err
	}

	_ = r.bus.Publish(ctx, event.Event{
		Topic:  TopicChanged,
		Source: "theme",
		Payload: Change{
			Theme:     t,
			Marker:    t.Marker(),
			Source:    source,
			Following: following,
		},
	})
	return saveErr
}

// FollowSystem applies the current system preference and, on first call,
// subscribes to preference changes for the resolver's lifetime.
func (r *Resolver) FollowSystem(ctx context.Context) {
	r.followOnce.Do(func() {
		r.mu.Lock()
		r.following = true
		r.followCtx = context.WithoutCancel(ctx)
		r.mu.Unlock()

		r.system.Subscribe(func(t Theme) {
			r.mu.RLock()
			fctx := r.followCtx
			r.mu.RUnlock()
			r.apply(fctx, t, SourceSystem)
		})
	})
	r.apply(ctx, r.system.Current(), SourceSystem)
}

// Toggle flips between light and dark (dark when nothing is applied yet) and
// persists the result. It does not stop an entity watcher.
func (r *Resolver) Toggle(ctx context.Context) (Theme, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	next := r.Active().Toggle()
	return next, r.applyLocked(ctx, next, SourceManual)
}

// HandleEntityState maps an entity state onto the theme: light and dark are
// applied, auto follows the system, anything else is ignored.
func (r *Resolver) HandleEntityState(ctx context.Context, state string) {
	switch s := strings.ToLower(strings.TrimSpace(state)); s {
	case string(Light), string(Dark):
		r.apply(ctx, Theme(s), SourceEntity)
	case ModeAuto:
		r.FollowSystem(ctx)
	}
}

// Active returns the applied theme, or "" before the first Apply.
func (r *Resolver) Active() Theme {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Markers returns the theme classes currently on the document, sorted.
func (r *Resolver) Markers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.markers))
	for m := range r.markers {
		out = append(out, m)
	}
	slices.Sort(out)
	return out
}

// Following reports whether system preference changes are being applied.
func (r *Resolver) Following() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.following
}

// System returns the system preference the resolver follows.
func (r *Resolver) System() *SystemPreference {
	return r.system
}
