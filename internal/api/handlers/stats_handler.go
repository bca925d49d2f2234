package handlers

import (
	"net/http"
)

// StatsHandler handles the rollup endpoints
type StatsHandler struct {
	queries PharmacyQueries
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(queries PharmacyQueries) *StatsHandler {
	return &StatsHandler{queries: queries}
}

// GetProvinceStats handles GET /api/stats/province
func (h *StatsHandler) GetProvinceStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ProvinceStats(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rows)
}

// GetDistrictStats handles GET /api/stats/district?province=
func (h *StatsHandler) GetDistrictStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.DistrictStats(r.Context(), r.URL.Query().Get("province"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rows)
}
