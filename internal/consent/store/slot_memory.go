package store

import (
	"context"
	"sync"
	"time"

	"consentkit/pkg/platform/sentinel"
	"consentkit/pkg/requestcontext"
)

// MemorySlot keeps values in process memory. It honors the ttl hint using the
// request-scoped clock, which keeps expiry tests independent of wall time.
// Expired entries are evicted when read and by Prune; entries written with a
// zero ttl stay until removed.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero: no host expiry
}

// NewMemorySlot constructs an empty in-memory slot.
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string]memoryEntry)}
}

func (m *MemorySlot) Get(ctx context.Context, name string) (string, error) {
	now := requestcontext.Now(ctx)

	m.mu.RLock()
	entry, ok := m.values[name]
	m.mu.RUnlock()
	if !ok {
		return "", sentinel.ErrNotFound
	}
	if entry.expired(now) {
		m.mu.Lock()
		if current, ok := m.values[name]; ok && current.expired(now) {
			delete(m.values, name)
		}
		m.mu.Unlock()
		return "", sentinel.ErrNotFound
	}
	return entry.value, nil
}

func (m *MemorySlot) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = requestcontext.Now(ctx).Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = entry
	return nil
}

func (m *MemorySlot) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}

// Prune evicts every entry whose ttl has elapsed and returns how many were
// removed.
func (m *MemorySlot) Prune(ctx context.Context) (int64, error) {
	now := requestcontext.Now(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for name, entry := range m.values {
		if entry.expired(now) {
			delete(m.values, name)
			n++
		}
	}
	return n, nil
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

var _ Slot = (*MemorySlot)(nil)
