package cache

import (
	"context"
	"sync"
	"time"
)

// maxMemoryEntries caps the in-process cache. Writes past the cap evict
// expired entries first, then the oldest.
const maxMemoryEntries = 50

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Memory is the default in-process cache, bounded by size and TTL. Expired
// entries are also evicted lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := m.now()
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	m.evictLocked(now)
	m.mu.Unlock()
	return nil
}

func (m *Memory) evictLocked(now time.Time) {
	if len(m.entries) <= maxMemoryEntries {
		return
	}
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
	for len(m.entries) > maxMemoryEntries {
		var oldestKey string
		var oldestAt time.Time
		for key, entry := range m.entries {
			if oldestKey == "" || entry.storedAt.Before(oldestAt) {
				oldestKey = key
				oldestAt = entry.storedAt
			}
		}
		delete(m.entries, oldestKey)
	}
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
