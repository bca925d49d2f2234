package services_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/application/services"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

func TestHeatWeight(t *testing.T) {
	tests := []struct {
		name   string
		rating *float64
		want   float64
	}{
		{"positive rating", num(4.5), 4.5},
		{"zero rating", num(0), 1},
		{"negative rating", num(-2), 1},
		{"missing rating", nil, 1},
		{"nan rating", num(math.NaN()), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.HeatWeight(tt.rating))
		})
	}
}

func TestBuildHeatPoints(t *testing.T) {
	rows := []*entities.Pharmacy{
		{ID: 1, Rating: num(4.5), Location: at(21.03, 105.85)},
		{ID: 2, Rating: num(0), Location: at(21.05, 105.80)},
		{ID: 3, Location: at(10.77, 106.70)},
		{ID: 4, Rating: num(5)},
	}

	points := services.BuildHeatPoints(rows)

	require.Len(t, points, 3)
	assert.Equal(t, entities.HeatPoint{Lat: 21.03, Lon: 105.85, Weight: 4.5}, points[0])
	assert.Equal(t, 1.0, points[1].Weight)
	assert.Equal(t, 1.0, points[2].Weight)
	for _, p := range points {
		assert.Greater(t, p.Weight, 0.0)
	}

	data, err := json.Marshal(points[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":21.03,"lon":105.85,"w":4.5}`, string(data))
}

func TestBuildHeatPoints_EmptyIsArray(t *testing.T) {
	data, err := json.Marshal(services.BuildHeatPoints(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestNormalizedIntensity(t *testing.T) {
	assert.InDelta(t, 0.9, services.NormalizedIntensity(4.5), 1e-9)
	assert.Equal(t, 0.2, services.NormalizedIntensity(1))
	assert.Equal(t, 1.0, services.NormalizedIntensity(12))
	assert.Equal(t, 0.2, services.NormalizedIntensity(0))
}
