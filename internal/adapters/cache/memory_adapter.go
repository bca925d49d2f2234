package cache

import (
	"context"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryAdapter is an in-process CacheProvider used when Redis is not configured or unreachable.
// Entries honour their own TTL; maxTTL bounds how long anything stays resident.
type MemoryAdapter struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryAdapter creates a bounded in-memory cache
func NewMemoryAdapter(size int, maxTTL time.Duration) *MemoryAdapter {
	if size < 1 {
		size = 1
	}
	return &MemoryAdapter{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

var _ providers.CacheProvider = (*MemoryAdapter)(nil)

// Get retrieves a value from cache
func (m *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		m.lru.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a copy of value with expiration
func (m *MemoryAdapter) Set(_ context.Context, key string, value []byte, expirationSeconds int) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = m.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	m.lru.Add(key, entry)
	return nil
}

// Delete removes a value from cache
func (m *MemoryAdapter) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// DeletePattern removes keys matching a glob pattern
func (m *MemoryAdapter) DeletePattern(_ context.Context, pattern string) error {
	for _, key := range m.lru.Keys() {
		if ok, err := path.Match(pattern, key); err != nil {
			return err
		} else if ok {
			m.lru.Remove(key)
		}
	}
	return nil
}
