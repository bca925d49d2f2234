package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/api/handlers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	apperrors "github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/errors"
)

// MockPharmacyQueries is a mock implementation of handlers.PharmacyQueries
type MockPharmacyQueries struct {
	mock.Mock
}

func (m *MockPharmacyQueries) FeatureCollection(ctx context.Context, c filter.Criteria) (*geojson.FeatureCollection, error) {
	args := m.Called(ctx, c)
	fc, _ := args.Get(0).(*geojson.FeatureCollection)
	return fc, args.Error(1)
}

func (m *MockPharmacyQueries) HeatPoints(ctx context.Context, c filter.Criteria) ([]entities.HeatPoint, error) {
	args := m.Called(ctx, c)
	points, _ := args.Get(0).([]entities.HeatPoint)
	return points, args.Error(1)
}

func (m *MockPharmacyQueries) ProvinceStats(ctx context.Context) ([]entities.StatsRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]entities.StatsRow)
	return rows, args.Error(1)
}

func (m *MockPharmacyQueries) DistrictStats(ctx context.Context, province string) ([]entities.StatsRow, error) {
	args := m.Called(ctx, province)
	rows, _ := args.Get(0).([]entities.StatsRow)
	return rows, args.Error(1)
}

func (m *MockPharmacyQueries) Provinces(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	provinces, _ := args.Get(0).([]string)
	return provinces, args.Error(1)
}

func (m *MockPharmacyQueries) AdminList(ctx context.Context, c filter.Criteria) (*entities.PharmacyPage, error) {
	args := m.Called(ctx, c)
	page, _ := args.Get(0).(*entities.PharmacyPage)
	return page, args.Error(1)
}

func TestPharmacyHandler_GetFeatures(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewPharmacyHandler(queries)

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{105.85, 21.03})
	f.ID = int64(1)
	f.Properties = geojson.Properties{"name": "An Khang"}
	fc.Append(f)

	queries.On("FeatureCollection", mock.Anything, mock.MatchedBy(func(c filter.Criteria) bool {
		return c.Province == "Hà Nội" && c.Status == "open" && len(c.BoundingBox) == 4
	})).Return(fc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pharmacies.geojson?province=H%C3%A0+N%E1%BB%99i&status=open&bbox=105,20,106,22", nil)
	w := httptest.NewRecorder()

	handler.GetFeatures(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.Len(t, body["features"], 1)
	queries.AssertExpectations(t)
}

func TestPharmacyHandler_GetFeatures_QueryFailureIsOpaque(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewPharmacyHandler(queries)

	queries.On("FeatureCollection", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewQueryFailedError(errors.New(`pq: column "geom" does not exist`)))

	w := httptest.NewRecorder()
	handler.GetFeatures(w, httptest.NewRequest(http.MethodGet, "/api/pharmacies.geojson", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"server_error"}`, w.Body.String())
}

func TestPharmacyHandler_GetHeat(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewPharmacyHandler(queries)

	queries.On("HeatPoints", mock.Anything, mock.Anything).Return([]entities.HeatPoint{
		{Lat: 21.03, Lon: 105.85, Weight: 4.5},
		{Lat: 21.05, Lon: 105.80, Weight: 1},
	}, nil)

	w := httptest.NewRecorder()
	handler.GetHeat(w, httptest.NewRequest(http.MethodGet, "/api/heat?province=Th%C3%A0nh+ph%E1%BB%91+H%C3%A0+N%E1%BB%99i", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"lat":21.03,"lon":105.85,"w":4.5},{"lat":21.05,"lon":105.8,"w":1}]`, w.Body.String())
}

func TestPharmacyHandler_GetProvinces(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewPharmacyHandler(queries)

	queries.On("Provinces", mock.Anything).Return([]string{"Hà Nội", "Đà Nẵng"}, nil)

	w := httptest.NewRecorder()
	handler.GetProvinces(w, httptest.NewRequest(http.MethodGet, "/api/provinces", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Hà Nội","Đà Nẵng"]`, w.Body.String())
}

func TestStatsHandler_GetDistrictStats_MissingProvince(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewStatsHandler(queries)

	queries.On("DistrictStats", mock.Anything, "").
		Return(nil, apperrors.NewValidationError(apperrors.CodeMissingProvince, "province is required"))

	w := httptest.NewRecorder()
	handler.GetDistrictStats(w, httptest.NewRequest(http.MethodGet, "/api/stats/district", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"missing_province"}`, w.Body.String())
}

func TestStatsHandler_GetProvinceStats(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewStatsHandler(queries)
	avg := 2.25

	queries.On("ProvinceStats", mock.Anything).Return([]entities.StatsRow{
		{Level: entities.GroupByProvince, GroupKey: "Hà Nội", Total: 3, AvgRating: &avg, OpenCount: 1, ClosedCount: 1},
	}, nil)

	w := httptest.NewRecorder()
	handler.GetProvinceStats(w, httptest.NewRequest(http.MethodGet, "/api/stats/province", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"province":"Hà Nội","total":3,"avg_rating":2.25,"open_count":1,"closed_count":1}]`, w.Body.String())
}

func TestAdminHandler_ListPharmacies(t *testing.T) {
	queries := new(MockPharmacyQueries)
	handler := handlers.NewAdminHandler(queries)

	queries.On("AdminList", mock.Anything, mock.MatchedBy(func(c filter.Criteria) bool {
		return c.Page == 2 && c.PageSize == 10 && c.Search == "long" && c.RequireValidImage
	})).Return(entities.NewPharmacyPage(nil, 0, 2, 10), nil)

	w := httptest.NewRecorder()
	handler.ListPharmacies(w, httptest.NewRequest(http.MethodGet, "/api/admin/pharmacies?page=2&perPage=10&search=long&hasImage=true", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rows":[],"total":0,"page":2,"totalPages":1}`, w.Body.String())
}
