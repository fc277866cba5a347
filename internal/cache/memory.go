package cache

import (
	"context"
	"sync"
)

// Memory is an in-memory Cache for tests and ephemeral runs.
type Memory struct {
	mu   sync.Mutex
	snap *Snapshot
}

// NewMemory returns an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{}
}

// Load implements Cache.
func (m *Memory) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// Save implements Cache.
func (m *Memory) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

// Clear implements Cache.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}
