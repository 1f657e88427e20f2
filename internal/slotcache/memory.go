package slotcache

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local cache. Expired entries are dropped lazily on read
// and by Sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption customizes a Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now for stamping and expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an in-memory cache; ttl <= 0 uses DefaultTTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Memory{
		entries: make(map[Key]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key Key) (Entry, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if m.now().Sub(entry.StoredAt) >= m.ttl {
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.StoredAt.Equal(entry.StoredAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Set stores entry stamped with the cache clock; any caller StoredAt is
// ignored.
func (m *Memory) Set(_ context.Context, key Key, entry Entry) {
	entry.StoredAt = m.now()
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
}

// Sweep removes every expired entry and returns how many were dropped.
func (m *Memory) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for k, e := range m.entries {
		if !e.StoredAt.After(cutoff) {
			delete(m.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len is the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
