package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

// QueryCacheAdapter stores query results as JSON on top of a CacheProvider
type QueryCacheAdapter struct {
	provider providers.CacheProvider
}

// NewQueryCacheAdapter creates a new query cache adapter
func NewQueryCacheAdapter(provider providers.CacheProvider) *QueryCacheAdapter {
	return &QueryCacheAdapter{provider: provider}
}

// Get decodes a cached value into dst. It reports false on a miss.
func (a *QueryCacheAdapter) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := a.provider.Get(ctx, key)
	if errors.Is(err, providers.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		// A stale or foreign payload is treated as a miss and dropped
		_ = a.provider.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// Set marshals the value to JSON and stores it in cache
func (a *QueryCacheAdapter) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	seconds := int(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return a.provider.Set(ctx, key, data, seconds)
}

// Delete removes a value from cache
func (a *QueryCacheAdapter) Delete(ctx context.Context, key string) error {
	return a.provider.Delete(ctx, key)
}
