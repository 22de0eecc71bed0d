package cache

import (
	"context"
	"sync"
	"time"
)

// sweepEvery bounds how often Set scans for expired entries.
const sweepEvery = time.Minute

type memEntry struct {
	value     string
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store, used for single-instance deployments and tests.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]memEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrMiss
	}
	now := m.now()
	if !e.expired(now) {
		return e.value, nil
	}

	// the key may have been rewritten since the read lock was released
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if cur.expired(now) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return cur.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	now := m.now()
	e := memEntry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	m.mu.Lock()
	m.sweepLocked(now)
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// sweepLocked drops expired entries that were never read back.
func (m *Memory) sweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
}
