// Package poller watches Home Assistant entities on a fixed interval: one
// observer drives the theme resolver, a board of pollers drives the presence
// strip.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/HerbHall/labportal/internal/fetch"
)

// Defaults for a Poller.
const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = fetch.DefaultTimeout
)

var pollsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "labportal_polls_total",
		Help: "Entity polls by poller and outcome.",
	},
	[]string{"poller", "outcome"},
)

func init() {
	prometheus.MustRegister(pollsTotal)
}

// StateFunc reads the state of one entity. Poll records it unchanged.
type StateFunc func(ctx context.Context) (string, error)

// Status is the outcome of the most recent poll.
type Status struct {
	State     string
	Reachable bool
	Err       error
	At        time.Time
}

// Poller calls Fetch, sleeps Interval, and repeats until stopped. Failures
// never end the loop: they are recorded as an unreachable status and handed
// to OnError.
type Poller struct {
	Name     string
	Fetch    StateFunc
	Interval time.Duration
	Timeout  time.Duration
	OnState  func(ctx context.Context, state string)
	OnError  func(ctx context.Context, err error)

	mu   sync.RWMutex
	last Status
}

// Handle controls a running Poller.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the loop and waits for it to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs the first poll immediately and then one per Interval in a new
// goroutine until ctx is done or the handle is stopped.
func (p *Poller) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	go func() {
		defer close(h.done)
		for {
			p.Poll(ctx)
			if err := fetch.Sleep(ctx, interval); err != nil {
				return
			}
		}
	}()
	return h
}

// Poll performs one iteration under Timeout and returns the recorded status.
// A poll cut short by ctx cancellation records nothing.
func (p *Poller) Poll(ctx context.Context) Status {
	state, err := fetch.WithDeadline[string](ctx, p.Timeout, p.Fetch)
	if ctx.Err() != nil {
		return p.Last()
	}

	st := Status{At: time.Now().UTC()}
	if err != nil {
		st.Err = err
		pollsTotal.WithLabelValues(p.label(), fetch.Outcome(err)).Inc()
	} else {
		st.State = state
		st.Reachable = true
		pollsTotal.WithLabelValues(p.label(), "ok").Inc()
	}

	p.mu.Lock()
	p.last = st
	p.mu.Unlock()

	if err != nil {
		if p.OnError != nil {
			p.OnError(ctx, err)
		}
		return st
	}
	if p.OnState != nil {
		p.OnState(ctx, st.State)
	}
	return st
}

// Last returns the status of the most recent poll.
func (p *Poller) Last() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (p *Poller) label() string {
	if p.Name == "" {
		return "default"
	}
	return p.Name
}
