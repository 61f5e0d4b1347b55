package theme

import (
	"slices"
	"sync"
)

// SystemPreference is the last prefers-color-scheme value reported by a
// browser. Subscribers are notified only when the value changes.
type SystemPreference struct {
	mu      sync.RWMutex
	current Theme
	subs    []func(Theme)
}

// NewSystemPreference starts at def, or light when def is invalid.
func NewSystemPreference(def Theme) *SystemPreference {
	if !def.Valid() {
		def = Light
	}
	return &SystemPreference{current: def}
}

// Current returns the preference.
func (p *SystemPreference) Current() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Set records t and reports whether it changed. Subscribers run in the
// caller's goroutine after the lock is released.
func (p *SystemPreference) Set(t Theme) bool {
	if !t.Valid() {
		return false
	}
	p.mu.Lock()
	if p.current == t {
		p.mu.Unlock()
		return false
	}
	p.current = t
	subs := slices.Clone(p.subs)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(t)
	}
	return true
}

// Subscribe registers fn for the lifetime of p. There is no unsubscribe.
func (p *SystemPreference) Subscribe(fn func(Theme)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}
