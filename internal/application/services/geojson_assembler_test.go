package services_test

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/application/services"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

func TestAssembleFeatureCollection_Empty(t *testing.T) {
	data, err := json.Marshal(services.AssembleFeatureCollection(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestAssembleFeatureCollection_FixedPropertySet(t *testing.T) {
	rows := []*entities.Pharmacy{
		{ID: 1, Name: str("Nhà thuốc An Khang"), Province: str("Hà Nội"), Status: str("open"), Rating: num(4.5), Location: at(21.03, 105.85)},
		{ID: 2, Name: str("Hidden"), Location: nil},
		{ID: 3, Location: at(10.77, 106.7)},
	}

	fc := services.AssembleFeatureCollection(rows)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, orb.Point{105.85, 21.03}, first.Geometry, "coordinates are lon, lat")
	assert.EqualValues(t, 1, first.ID)
	assert.Equal(t, 4.5, first.Properties["rating"])

	for _, f := range fc.Features {
		assert.Len(t, f.Properties, len(services.FeatureProperties))
		for _, key := range services.FeatureProperties {
			_, ok := f.Properties[key]
			assert.True(t, ok, "missing property %q", key)
		}
	}

	data, err := json.Marshal(fc.Features[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "Feature",
		"id": 3,
		"geometry": {"type": "Point", "coordinates": [106.7, 10.77]},
		"properties": {"name": null, "address": null, "province": null, "district": null,
			"phone": null, "status": null, "rating": null, "image": null}
	}`, string(data))
}

func TestAssembleFeatureCollection_ZeroRatingIsNotNull(t *testing.T) {
	fc := services.AssembleFeatureCollection([]*entities.Pharmacy{{ID: 9, Rating: num(0), Location: at(16, 108)}})
	require.Len(t, fc.Features, 1)
	assert.Equal(t, 0.0, fc.Features[0].Properties["rating"])
}
