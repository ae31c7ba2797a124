package config

import (
	"sync"
	"sync/atomic"
)

// Manager owns the active Settings for the process. Readers get the current
// instance through a single atomic load, so a reload in progress never exposes
// a half-updated mix of fields.
type Manager struct {
	loader *Loader

	reloadMu sync.Mutex
	active   atomic.Pointer[Settings]
}

// NewManager resolves the initial Settings from the loader and returns a
// manager holding them.
func NewManager(loader *Loader) (*Manager, error) {
	settings, err := loader.Resolve()
	if err != nil {
		return nil, err
	}

	m := &Manager{loader: loader}
	m.active.Store(settings)
	return m, nil
}

// Active returns the currently active Settings. The returned instance is
// shared between callers and must not be modified.
func (m *Manager) Active() *Settings {
	return m.active.Load()
}

// Reload re-resolves Settings from the loader's sources and swaps the active
// instance atomically. On error the previous Settings stay active untouched.
// Concurrent reloads are serialized; the last one to finish wins.
func (m *Manager) Reload() (*Settings, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	settings, err := m.loader.Resolve()
	if err != nil {
		return nil, err
	}

	m.active.Store(settings)
	return settings, nil
}
