package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
)

// InvalidationPatterns are the key patterns dropped whenever pharmacy data changes
var InvalidationPatterns = []string{
	"pharmacies:*",
	"http:cache:*",
}

// CacheInvalidationService handles cache invalidation based on events
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelPharmacyUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to pharmacy updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", providers.EventChannelPharmacyUpdates).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.wg.Wait()
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.PharmacyEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops every cached read. Results are keyed by filter digest, so a single
// changed record can sit in any of them.
func (s *CacheInvalidationService) handleEvent(event *entities.PharmacyEvent) {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int64("pharmacy_id", event.PharmacyID).
		Logger()

	if err := s.InvalidateAll(ctx); err != nil {
		logger.Warn().Err(err).Msg("cache invalidation incomplete")
		return
	}
	logger.Debug().Msg("pharmacy caches invalidated")
}

// InvalidateAll deletes every pharmacy read cache entry
func (s *CacheInvalidationService) InvalidateAll(ctx context.Context) error {
	for _, pattern := range InvalidationPatterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			return fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return nil
}
