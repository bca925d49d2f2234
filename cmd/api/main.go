package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/cache"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/database"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/events"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/handlers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/middleware"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/routes"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/application/services"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/postgres"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/clients/redis"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/adapters"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis is optional: without it the cache falls back to process memory and no change events arrive
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient)
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter(cfg.Cache.MemoryEntries, cfg.Cache.ProvincesTTL)
	}

	compiler := filter.NewCompiler(filter.Limits{
		FeatureDefault:  cfg.Query.FeatureDefaultLimit,
		FeatureMax:      cfg.Query.FeatureMaxLimit,
		HeatDefault:     cfg.Query.HeatMaxLimit,
		HeatMax:         cfg.Query.HeatMaxLimit,
		AdminPageSize:   filter.DefaultLimits().AdminPageSize,
		AdminMaxPerPage: cfg.Query.AdminMaxPageSize,
	})

	pharmacyAdapter := database.NewCachedPharmacyAdapter(
		database.NewPharmacyAdapter(pgClient, cfg.Database.Table, cfg.Query.HeatMaxLimit, metrics),
		adapters.NewQueryCacheAdapter(cacheProvider),
		database.CacheTTLs{
			Features:  cfg.Cache.FeaturesTTL,
			Stats:     cfg.Cache.StatsTTL,
			Provinces: cfg.Cache.ProvincesTTL,
		},
		metrics,
	)
	pharmacyService := services.NewPharmacyService(pharmacyAdapter, compiler, cfg.Query.StatsGroupLimit, metrics)

	var invalidation *services.CacheInvalidationService
	if eventBus != nil {
		invalidation = services.NewCacheInvalidationService(cacheProvider, eventBus)
		if err := invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache invalidation service")
			invalidation = nil
		}
	}

	if cfg.Cache.WarmingInterval > 0 {
		go services.NewCacheWarmingService(pharmacyService).StartPeriodicWarming(ctx, cfg.Cache.WarmingInterval)
	}

	router := routes.NewRouter(
		handlers.NewPharmacyHandler(pharmacyService),
		handlers.NewStatsHandler(pharmacyService),
		routes.Options{
			AdminHandler:    handlers.NewAdminHandler(pharmacyService),
			AdminToken:      cfg.Admin.Token,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			CacheMiddleware: middleware.CacheMiddlewareWithConfig(cacheProvider, metrics,
				middleware.RouteCacheConfigs(cfg.Cache.FeaturesTTL, cfg.Cache.StatsTTL, cfg.Cache.ProvincesTTL)),
			Metrics:         metrics,
		},
	)
	if cfg.Admin.Token == "" {
		log.Info().Msg("ADMIN_API_TOKEN not set, admin listing disabled")
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if invalidation != nil {
		invalidation.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
