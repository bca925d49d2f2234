package handlers

import (
	"context"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// PharmacyQueries is the read surface the HTTP layer needs
type PharmacyQueries interface {
	FeatureCollection(ctx context.Context, c filter.Criteria) (*geojson.FeatureCollection, error)
	HeatPoints(ctx context.Context, c filter.Criteria) ([]entities.HeatPoint, error)
	ProvinceStats(ctx context.Context) ([]entities.StatsRow, error)
	DistrictStats(ctx context.Context, province string) ([]entities.StatsRow, error)
	Provinces(ctx context.Context) ([]string, error)
	AdminList(ctx context.Context, c filter.Criteria) (*entities.PharmacyPage, error)
}

// PharmacyHandler handles the public map endpoints
type PharmacyHandler struct {
	queries PharmacyQueries
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(queries PharmacyQueries) *PharmacyHandler {
	return &PharmacyHandler{queries: queries}
}

// GetFeatures handles GET /api/pharmacies.geojson
func (h *PharmacyHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	fc, err := h.queries.FeatureCollection(r.Context(), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, fc)
}

// GetHeat handles GET /api/heat
func (h *PharmacyHandler) GetHeat(w http.ResponseWriter, r *http.Request) {
	points, err := h.queries.HeatPoints(r.Context(), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, points)
}

// GetProvinces handles GET /api/provinces
func (h *PharmacyHandler) GetProvinces(w http.ResponseWriter, r *http.Request) {
	provinces, err := h.queries.Provinces(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, provinces)
}
