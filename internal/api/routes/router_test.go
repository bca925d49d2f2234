package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/handlers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/routes"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
)

// stubQueries answers every read with empty data
type stubQueries struct{}

func (stubQueries) FeatureCollection(context.Context, filter.Criteria) (*geojson.FeatureCollection, error) {
	return geojson.NewFeatureCollection(), nil
}

func (stubQueries) HeatPoints(context.Context, filter.Criteria) ([]entities.HeatPoint, error) {
	return []entities.HeatPoint{}, nil
}

func (stubQueries) ProvinceStats(context.Context) ([]entities.StatsRow, error) {
	return []entities.StatsRow{}, nil
}

func (stubQueries) DistrictStats(context.Context, string) ([]entities.StatsRow, error) {
	return []entities.StatsRow{}, nil
}

func (stubQueries) Provinces(context.Context) ([]string, error) {
	return []string{}, nil
}

func (stubQueries) AdminList(context.Context, filter.Criteria) (*entities.PharmacyPage, error) {
	return entities.NewPharmacyPage(nil, 0, 1, 20), nil
}

func newHandler(adminToken string) http.Handler {
	q := stubQueries{}
	return routes.NewRouter(handlers.NewPharmacyHandler(q), handlers.NewStatsHandler(q), routes.Options{
		AdminHandler: handlers.NewAdminHandler(q),
		AdminToken:   adminToken,
	}).SetupRoutes()
}

func serve(h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newHandler("")

	for _, path := range []string{
		"/api/pharmacies.geojson",
		"/api/heat",
		"/api/stats/province",
		"/api/stats/district?province=H%C3%A0+N%E1%BB%99i",
		"/api/provinces",
	} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, path, nil).Code)
		})
	}
}

func TestRouter_Health(t *testing.T) {
	w := serve(newHandler(""), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_AdminRouteRequiresToken(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(newHandler(""), http.MethodGet, "/api/admin/pharmacies", nil).Code)

	h := newHandler("s3cret")
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/api/admin/pharmacies", nil).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/admin/pharmacies",
		http.Header{"Authorization": {"Bearer s3cret"}}).Code)
}

func TestRouter_WritesAreRejected(t *testing.T) {
	w := serve(newHandler(""), http.MethodPost, "/api/provinces", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
