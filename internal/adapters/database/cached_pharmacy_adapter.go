package database

import (
	"context"
	"fmt"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/repositories"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/adapters"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// CacheKeyPrefix namespaces every key this adapter writes
const CacheKeyPrefix = "pharmacies:"

// CacheTTLs controls how long each result family stays cached
type CacheTTLs struct {
	Features  time.Duration
	Stats     time.Duration
	Provinces time.Duration
}

// CachedPharmacyAdapter wraps a PharmacyRepository with read-through caching.
// The admin listing is never cached.
type CachedPharmacyAdapter struct {
	adapter repositories.PharmacyRepository
	cache   *adapters.QueryCacheAdapter
	ttls    CacheTTLs
	metrics *observability.Metrics
}

// NewCachedPharmacyAdapter creates a new cached pharmacy adapter
func NewCachedPharmacyAdapter(
	adapter repositories.PharmacyRepository,
	cache *adapters.QueryCacheAdapter,
	ttls CacheTTLs,
	metrics *observability.Metrics,
) *CachedPharmacyAdapter {
	return &CachedPharmacyAdapter{
		adapter: adapter,
		cache:   cache,
		ttls:    ttls,
		metrics: metrics,
	}
}

var _ repositories.PharmacyRepository = (*CachedPharmacyAdapter)(nil)

func featuresCacheKey(q filter.Compiled) string {
	return fmt.Sprintf("%sfeatures:%s", CacheKeyPrefix, q.CacheKey())
}

func heatCacheKey(q filter.Compiled) string {
	return fmt.Sprintf("%sheat:%s", CacheKeyPrefix, q.CacheKey())
}

func statsCacheKey(level entities.GroupLevel, q filter.Compiled) string {
	return fmt.Sprintf("%sstats:%s:%s", CacheKeyPrefix, level, q.CacheKey())
}

func provincesCacheKey() string {
	return CacheKeyPrefix + "provinces"
}

// ListFeatures retrieves map rows with caching
func (a *CachedPharmacyAdapter) ListFeatures(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	var rows []*entities.Pharmacy
	err := a.readThrough(ctx, "features", featuresCacheKey(q), a.ttls.Features, &rows, func() (interface{}, error) {
		fresh, err := a.adapter.ListFeatures(ctx, q)
		rows = fresh
		return fresh, err
	})
	return rows, err
}

// HeatSamples retrieves heat rows with caching
func (a *CachedPharmacyAdapter) HeatSamples(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, error) {
	var rows []*entities.Pharmacy
	err := a.readThrough(ctx, "heat", heatCacheKey(q), a.ttls.Features, &rows, func() (interface{}, error) {
		fresh, err := a.adapter.HeatSamples(ctx, q)
		rows = fresh
		return fresh, err
	})
	return rows, err
}

// StatusBuckets retrieves partial aggregates with caching
func (a *CachedPharmacyAdapter) StatusBuckets(ctx context.Context, level entities.GroupLevel, q filter.Compiled) ([]entities.StatusBucket, error) {
	var buckets []entities.StatusBucket
	family := "stats:" + string(level)
	err := a.readThrough(ctx, family, statsCacheKey(level, q), a.ttls.Stats, &buckets, func() (interface{}, error) {
		fresh, err := a.adapter.StatusBuckets(ctx, level, q)
		buckets = fresh
		return fresh, err
	})
	return buckets, err
}

// Provinces retrieves the province list with caching
func (a *CachedPharmacyAdapter) Provinces(ctx context.Context) ([]string, error) {
	var provinces []string
	err := a.readThrough(ctx, "provinces", provincesCacheKey(), a.ttls.Provinces, &provinces, func() (interface{}, error) {
		fresh, err := a.adapter.Provinces(ctx)
		provinces = fresh
		return fresh, err
	})
	return provinces, err
}

// AdminList always goes to the database
func (a *CachedPharmacyAdapter) AdminList(ctx context.Context, q filter.Compiled) ([]*entities.Pharmacy, int64, error) {
	return a.adapter.AdminList(ctx, q)
}

// readThrough decodes a hit into dst, otherwise calls load (which fills dst itself) and stores the result.
// Cache failures are logged and never fail the read.
func (a *CachedPharmacyAdapter) readThrough(
	ctx context.Context,
	family, key string,
	ttl time.Duration,
	dst interface{},
	load func() (interface{}, error),
) error {
	logger := observability.LoggerFromContext(ctx)

	hit, err := a.cache.Get(ctx, key, dst)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if hit {
		observability.RecordCacheHit(ctx, a.metrics, family)
		return nil
	}
	observability.RecordCacheMiss(ctx, a.metrics, family)

	value, err := load()
	if err != nil {
		return err
	}

	if ttl > 0 {
		if err := a.cache.Set(ctx, key, value, ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return nil
}
