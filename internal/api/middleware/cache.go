package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
)

// HTTPCacheKeyPrefix namespaces cached response bodies
const HTTPCacheKeyPrefix = "http:cache:"

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides HTTP response caching
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
	metrics      *observability.Metrics
}

// DefaultRouteCacheConfigs caches the slow-changing reads. Admin routes are never listed.
func DefaultRouteCacheConfigs() map[string]CacheConfig {
	return map[string]CacheConfig{
		"/api/provinces":          {TTLSeconds: 1800, Enabled: true},
		"/api/stats/province":     {TTLSeconds: 300, Enabled: true},
		"/api/stats/district":     {TTLSeconds: 300, Enabled: true},
		"/api/pharmacies.geojson": {TTLSeconds: 60, Enabled: true},
		"/api/heat":               {TTLSeconds: 60, Enabled: true},
	}
}

// RouteCacheConfigs maps the read routes onto the configured cache TTLs
func RouteCacheConfigs(features, stats, provinces time.Duration) map[string]CacheConfig {
	seconds := func(d time.Duration) CacheConfig {
		return CacheConfig{TTLSeconds: int(d / time.Second), Enabled: d >= time.Second}
	}
	return map[string]CacheConfig{
		"/api/provinces":          seconds(provinces),
		"/api/stats/province":     seconds(stats),
		"/api/stats/district":     seconds(stats),
		"/api/pharmacies.geojson": seconds(features),
		"/api/heat":               seconds(features),
	}
}

// NewCacheMiddleware creates a new cache middleware
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return CacheMiddlewareWithConfig(cache, metrics, DefaultRouteCacheConfigs())
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		cacheKey := m.generateCacheKey(r)
		logger := observability.LoggerFromContext(ctx)

		if cached, err := m.cache.Get(ctx, cacheKey); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		// Only successful responses are cached
		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				logger.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

// getRouteConfig gets the cache configuration for a route
func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}
	return CacheConfig{Enabled: false}
}

// generateCacheKey hashes the method, path and sorted query
func (m *CacheMiddleware) generateCacheKey(r *http.Request) string {
	key := fmt.Sprintf("%s:%s", r.Method, r.URL.Path)

	if r.URL.RawQuery != "" {
		if values, err := url.ParseQuery(r.URL.RawQuery); err == nil {
			key += "?" + values.Encode()
		} else {
			key += "?" + r.URL.RawQuery
		}
	}

	hash := sha256.Sum256([]byte(key))
	return HTTPCacheKeyPrefix + hex.EncodeToString(hash[:])
}

// responseRecorder captures the response for caching
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

// WriteHeader captures the status code
func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

// Write captures the response body and writes to the client
func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}

// CacheMiddlewareWithConfig creates a cache middleware with custom per-route config
func CacheMiddlewareWithConfig(cache providers.CacheProvider, metrics *observability.Metrics, configs map[string]CacheConfig) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		routeConfigs: configs,
		metrics:      metrics,
	}
}
