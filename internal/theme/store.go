package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/HerbHall/labportal/internal/store"
)

// Store persists the active theme across restarts.
type Store interface {
	// Load returns the persisted theme; ok is false when nothing valid is stored.
	Load(ctx context.Context) (t Theme, ok bool, err error)
	Save(ctx context.Context, t Theme) error
}

// Compile-time interface guards.
var (
	_ Store = (*SettingsStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// SettingsStore keeps the theme under StorageKey in the settings table.
type SettingsStore struct {
	settings *store.Settings
}

// NewSettingsStore creates a SettingsStore.
func NewSettingsStore(settings *store.Settings) *SettingsStore {
	return &SettingsStore{settings: settings}
}

func (s *SettingsStore) Load(ctx context.Context) (Theme, bool, error) {
	st, err := s.settings.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load theme: %w", err)
	}
	t, err := Parse(st.Value)
	if err != nil {
		return "", false, nil
	}
	return t, true, nil
}

func (s *SettingsStore) Save(ctx context.Context, t Theme) error {
	if err := s.settings.Set(ctx, StorageKey, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// MemoryStore keeps the theme in memory.
type MemoryStore struct {
	mu    sync.Mutex
	theme Theme
	saves int
}

// NewMemoryStore creates a MemoryStore, optionally seeded with a theme.
func NewMemoryStore(seed Theme) *MemoryStore {
	return &MemoryStore{theme: seed}
}

func (m *MemoryStore) Load(context.Context) (Theme, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.theme, m.theme.Valid(), nil
}

func (m *MemoryStore) Save(_ context.Context, t Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = t
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
