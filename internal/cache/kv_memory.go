package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

// MemoryKV is a process-local KV for tests and single-instance
// deployments without Redis. Expired entries are dropped lazily on read.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]memoryEntry)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if e.ttl > 0 && time.Since(e.storedAt) > e.ttl {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.items[key] = memoryEntry{value: value, storedAt: time.Now(), ttl: ttl}
	m.mu.Unlock()
	return nil
}
