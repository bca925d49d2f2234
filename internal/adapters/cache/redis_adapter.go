package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	redisclient "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/redis"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
)

const scanBatch = 200

// RedisAdapter implements the CacheProvider interface using Redis.
// Calls go through a circuit breaker so a dead Redis costs one fast error instead of a dial per request.
type RedisAdapter struct {
	client  redis.UniversalClient
	breaker *gobreaker.CircuitBreaker
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return newRedisAdapter(client.Client(), 5, 30*time.Second)
}

func newRedisAdapter(client redis.UniversalClient, maxFailures uint32, openFor time.Duration) *RedisAdapter {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.GetLogger().Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("cache circuit breaker changed state")
		},
	})
	return &RedisAdapter{client: client, breaker: breaker}
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := a.breaker.Execute(func() (interface{}, error) {
		val, err := a.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// A miss is a healthy answer and must not count against the breaker
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	val, _ := res.([]byte)
	if val == nil {
		return nil, providers.ErrCacheMiss
	}
	return val, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.client.Set(ctx, key, value, expiration).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// DeletePattern removes all keys matching pattern using SCAN, never KEYS
func (a *RedisAdapter) DeletePattern(ctx context.Context, pattern string) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		var cursor uint64
		for {
			keys, next, err := a.client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return nil, err
			}
			if len(keys) > 0 {
				if err := a.client.Del(ctx, keys...).Err(); err != nil {
					return nil, err
				}
			}
			if next == 0 {
				return nil, nil
			}
			cursor = next
		}
	})
	if err != nil {
		return fmt.Errorf("failed to delete pattern %q from cache: %w", pattern, err)
	}
	return nil
}
