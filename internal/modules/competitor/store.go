package competitor

import (
	"context"
	"sync"
)

// Store holds cache entries. Implementations replace entries whole; freshness
// is decided by the Cache, not the Store.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, e Entry) error
}

// MemoryStore is the process-local Store. It performs no I/O.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	e, ok := m.peek(key)
	return e, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key Key, e Entry) error {
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) peek(key Key) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
