package routes

import (
	"net/http"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/handlers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/middleware"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	pharmacyHandler *handlers.PharmacyHandler
	statsHandler    *handlers.StatsHandler
	adminHandler    *handlers.AdminHandler

	adminToken      string
	allowedOrigins  []string
	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// Options carries the optional parts of the router
type Options struct {
	// AdminHandler is mounted only when AdminToken is non-empty
	AdminHandler    *handlers.AdminHandler
	AdminToken      string
	AllowedOrigins  []string
	CacheMiddleware *middleware.CacheMiddleware
	Metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	pharmacyHandler *handlers.PharmacyHandler,
	statsHandler *handlers.StatsHandler,
	opts Options,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		pharmacyHandler: pharmacyHandler,
		statsHandler:    statsHandler,
		adminHandler:    opts.AdminHandler,
		adminToken:      opts.AdminToken,
		allowedOrigins:  opts.AllowedOrigins,
		cacheMiddleware: opts.CacheMiddleware,
		metrics:         opts.Metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Map layers
	r.mux.HandleFunc("GET /api/pharmacies.geojson", r.pharmacyHandler.GetFeatures)
	r.mux.HandleFunc("GET /api/heat", r.pharmacyHandler.GetHeat)
	r.mux.HandleFunc("GET /api/provinces", r.pharmacyHandler.GetProvinces)

	// Rollups
	r.mux.HandleFunc("GET /api/stats/province", r.statsHandler.GetProvinceStats)
	r.mux.HandleFunc("GET /api/stats/district", r.statsHandler.GetDistrictStats)

	if r.adminHandler != nil && r.adminToken != "" {
		r.mux.Handle("GET /api/admin/pharmacies",
			middleware.RequireBearer(r.adminToken)(http.HandlerFunc(r.adminHandler.ListPharmacies)))
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
