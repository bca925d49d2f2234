package services

import (
	"context"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
)

// CacheWarmingService pre-loads the reads every map session starts with
type CacheWarmingService struct {
	pharmacies *PharmacyService
}

// NewCacheWarmingService creates a new cache warming service. The service must sit on a cached repository.
func NewCacheWarmingService(pharmacies *PharmacyService) *CacheWarmingService {
	return &CacheWarmingService{pharmacies: pharmacies}
}

// WarmCache loads the province list and province rollup
func (s *CacheWarmingService) WarmCache(ctx context.Context) error {
	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	provinces, err := s.pharmacies.Provinces(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to warm province list")
		return err
	}

	stats, err := s.pharmacies.ProvinceStats(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to warm province stats")
		return err
	}

	logger.Info().
		Int("provinces", len(provinces)).
		Int("stats_rows", len(stats)).
		Dur("duration", time.Since(start)).
		Msg("cache warmed")
	return nil
}

// StartPeriodicWarming warms once, then again on every tick until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	_ = s.WarmCache(ctx)

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				observability.GetLogger().Info().Msg("stopping cache warming service")
				return
			case <-ticker.C:
				_ = s.WarmCache(ctx)
			}
		}
	}()
	observability.GetLogger().Info().Dur("interval", interval).Msg("started periodic cache warming")
}
