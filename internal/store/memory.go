package store

import (
	"context"
	"sync"

	"sentry-link/internal/dispatcher"
)

// MemoryStore es el ConfigStore por defecto cuando no hay Redis. Se pierde
// al reiniciar.
type MemoryStore struct {
	mu   sync.RWMutex
	vals map[dispatcher.ConfigKey]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vals: make(map[dispatcher.ConfigKey]string)}
}

func (m *MemoryStore) Set(_ context.Context, key dispatcher.ConfigKey, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key dispatcher.ConfigKey) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *MemoryStore) All(context.Context) (map[dispatcher.ConfigKey]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[dispatcher.ConfigKey]string, len(m.vals))
	for k, v := range m.vals {
		out[k] = v
	}
	return out, nil
}
