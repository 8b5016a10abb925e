// Package cache is the TTL-keyed store shared across queries: resolved
// result sets per query signature, plus the discovered sitemap URL set.
package cache

import (
	"context"
	"sync"
	"time"

	"finder/internal/domain"
)

// Entry is one cached value. Entries are replaced wholesale on refresh,
// never partially mutated.
type Entry struct {
	CreatedAt time.Time        `json:"created_at"`
	Products  []domain.Product `json:"products,omitempty"`
	URLs      []string         `json:"urls,omitempty"` // sitemap slot
	Source    string           `json:"source,omitempty"`
	SourceURL string           `json:"source_url,omitempty"`
}

// Store is the shared cache contract. An entry older than its TTL is
// treated as absent and never served.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type memoryItem struct {
	entry     Entry
	expiresAt time.Time
}

// Memory is a process-local Store with lazy expiry: stale entries are
// evicted on the lookup that observes them.
type Memory struct {
	mu   sync.Mutex
	data map[string]memoryItem
	now  func() time.Time
}

func NewMemory() *Memory {
	return NewMemoryWithClock(time.Now)
}

// NewMemoryWithClock lets tests control time.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{
		data: make(map[string]memoryItem),
		now:  now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.data[key]
	if !ok {
		return Entry{}, domain.ErrCacheMiss
	}
	if m.now().After(item.expiresAt) {
		delete(m.data, key)
		return Entry{}, domain.ErrCacheMiss
	}
	return item.entry, nil
}

func (m *Memory) Set(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryItem{entry: e, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

// Len reports the live entry count, for monitoring.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}
