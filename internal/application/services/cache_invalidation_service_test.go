package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/cache"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/application/services"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

// MockEventBus delivers published events to in-process subscribers
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.PharmacyEvent
	published   []*entities.PharmacyEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.PharmacyEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.PharmacyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.PharmacyEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.PharmacyEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, channels := range m.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	m.subscribers = make(map[string][]chan *entities.PharmacyEvent)
	return nil
}

func (m *MockEventBus) subscriberCount(channel string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[channel])
}

func seedCache(t *testing.T, c providers.CacheProvider, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, c.Set(context.Background(), k, []byte(`"x"`), 300))
	}
}

func TestCacheInvalidationService_Start(t *testing.T) {
	bus := NewMockEventBus()
	service := services.NewCacheInvalidationService(cache.NewMemoryAdapter(16, time.Hour), bus)

	require.NoError(t, service.Start())
	assert.Equal(t, 1, bus.subscriberCount(providers.EventChannelPharmacyUpdates))

	service.Stop()
}

func TestCacheInvalidationService_HandleEvent(t *testing.T) {
	memory := cache.NewMemoryAdapter(16, time.Hour)
	bus := NewMockEventBus()
	service := services.NewCacheInvalidationService(memory, bus)
	require.NoError(t, service.Start())
	defer service.Stop()

	seedCache(t, memory, "pharmacies:provinces", "pharmacies:features:abc", "http:cache:123", "session:keep")

	event := entities.NewPharmacyEvent(42, entities.PharmacyEventUpdated, "Hà Nội")
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelPharmacyUpdates, event))

	assert.Eventually(t, func() bool {
		_, err := memory.Get(context.Background(), "pharmacies:provinces")
		return err == providers.ErrCacheMiss
	}, time.Second, 10*time.Millisecond)

	_, err := memory.Get(context.Background(), "http:cache:123")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	_, err = memory.Get(context.Background(), "session:keep")
	assert.NoError(t, err, "unrelated keys survive invalidation")
}

func TestCacheInvalidationService_InvalidateAll(t *testing.T) {
	memory := cache.NewMemoryAdapter(16, time.Hour)
	service := services.NewCacheInvalidationService(memory, NewMockEventBus())
	seedCache(t, memory, "pharmacies:stats:province:1", "pharmacies:heat:2")

	require.NoError(t, service.InvalidateAll(context.Background()))

	for _, key := range []string{"pharmacies:stats:province:1", "pharmacies:heat:2"} {
		_, err := memory.Get(context.Background(), key)
		assert.ErrorIs(t, err, providers.ErrCacheMiss, key)
	}
}

func TestCacheInvalidationService_StopsWhenBusCloses(t *testing.T) {
	bus := NewMockEventBus()
	service := services.NewCacheInvalidationService(cache.NewMemoryAdapter(16, time.Hour), bus)
	require.NoError(t, service.Start())

	require.NoError(t, bus.Close())

	done := make(chan struct{})
	go func() {
		service.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("service did not stop after the bus closed")
	}
}
