package handlers

import (
	"net/http"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// AdminHandler serves the paginated back-office listing
type AdminHandler struct {
	queries PharmacyQueries
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(queries PharmacyQueries) *AdminHandler {
	return &AdminHandler{queries: queries}
}

// ListPharmacies handles GET /api/admin/pharmacies
func (h *AdminHandler) ListPharmacies(w http.ResponseWriter, r *http.Request) {
	page, err := h.queries.AdminList(r.Context(), filter.ParseCriteria(r.URL.Query()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}
