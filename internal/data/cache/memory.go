package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process TTL cache. A janitor goroutine sweeps expired
// entries; Close stops it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stopCh  chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// NewMemory creates a memory cache and starts its janitor.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go m.janitor()
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (m *Memory) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{payload: payload, expires: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, entry := range m.entries {
				if now.After(entry.expires) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
