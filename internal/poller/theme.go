package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/labportal/internal/hass"
)

// ThemeObserver polls a Home Assistant entity whose state selects the theme.
// Its Watch method is a theme.EntityWatcher.
type ThemeObserver struct {
	client   *hass.Client
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pollers map[string]*Poller
	handles map[string]*Handle
}

// NewThemeObserver creates an observer; zero durations mean the defaults.
func NewThemeObserver(client *hass.Client, interval, timeout time.Duration, logger *zap.Logger) *ThemeObserver {
	return &ThemeObserver{
		client:   client,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		pollers:  make(map[string]*Poller),
		handles:  make(map[string]*Handle),
	}
}

// Watch starts polling entity and passes each state to handle. Watching an
// entity that is already watched is a no-op. The poll runs until ctx is done
// or Stop is called; a manual theme change does not stop it.
func (o *ThemeObserver) Watch(ctx context.Context, entity string, handle func(ctx context.Context, state string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.handles[entity]; ok {
		return
	}

	p := &Poller{
		Name:     "theme",
		Interval: o.interval,
		Timeout:  o.timeout,
		Fetch: func(ctx context.Context) (string, error) {
			return o.client.State(ctx, entity)
		},
		OnState: handle,
		OnError: func(_ context.Context, err error) {
			o.logger.Debug("theme entity unreachable", zap.String("entity", entity), zap.Error(err))
		},
	}
	o.pollers[entity] = p
	o.handles[entity] = p.Start(ctx)
}

// Status returns the last poll status of entity.
func (o *ThemeObserver) Status(entity string) (Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pollers[entity]
	if !ok {
		return Status{}, false
	}
	return p.Last(), true
}

// Stop stops every poller.
func (o *ThemeObserver) Stop() {
	o.mu.Lock()
	handles := o.handles
	o.handles = make(map[string]*Handle)
	o.pollers = make(map[string]*Poller)
	o.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}
