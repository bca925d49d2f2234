package viewport_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/viewport"
)

const areasYAML = `
provinces:
  "Thành phố Hà Nội": {lat: 21.0285, lon: 105.8542}
  "Tỉnh Nghệ An": {lat: 19.2342, lon: 104.92}
districts:
  "Thành Phố Vinh": {lat: 18.6796, lon: 105.6813}
  "Quận Hoàn Kiếm": {lat: 21.0288, lon: 105.8525}
`

func resolver(t *testing.T) *viewport.AreaResolver {
	t.Helper()
	tables, err := viewport.ParseAreaTables([]byte(areasYAML))
	require.NoError(t, err)
	return viewport.NewAreaResolver(tables)
}

func TestAreaResolver_Tiers(t *testing.T) {
	r := resolver(t)
	markers := viewport.NewMarkerRegistry([]*geojson.Feature{
		point(int64(1), 21.00, 105.80, geojson.Properties{"district": "Quận Đống Đa"}),
		point(int64(2), 21.02, 105.84, geojson.Properties{"district": "quận đống đa"}),
		point(int64(3), 21.05, 105.90, geojson.Properties{"district": "Quận Long Biên"}),
	}).Markers()

	tests := []struct {
		name     string
		province string
		district string
		tier     viewport.AreaTier
		zoom     float64
		lat      float64
	}{
		{"district table", "Hà Nội", "Quận Hoàn Kiếm", viewport.TierDistrictTable, 13.5, 21.0288},
		{"district table with prefix variant", "Nghệ An", "tp. Vinh", viewport.TierDistrictTable, 13.5, 18.6796},
		{"district centroid", "Hà Nội", "QUẬN ĐỐNG ĐA", viewport.TierDistrictCentroid, 13.5, 21.01},
		{"province table", "tp Hà Nội", "Quận Không Có", viewport.TierProvinceTable, 8.5, 21.0285},
		{"province with unaccented prefix", "tinh Nghệ An", "", viewport.TierProvinceTable, 8.5, 19.2342},
		{"national default", "Tỉnh Atlantis", "", viewport.TierNational, 6, 16.05},
		{"nothing selected", "", "", viewport.TierNational, 6, 16.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := r.Resolve(tt.province, tt.district, markers)
			assert.Equal(t, tt.tier, target.Tier)
			assert.Equal(t, tt.zoom, target.Zoom)
			assert.InDelta(t, tt.lat, target.Center.Latitude, 1e-9)
		})
	}
}

func TestLoadAreaTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "areas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provinces":{"Thành phố Đà Nẵng":{"lat":16.0544,"lon":108.2022}}}`), 0o600))

	tables, err := viewport.LoadAreaTables(path)
	require.NoError(t, err)
	assert.Equal(t, viewport.Centroid{Lat: 16.0544, Lon: 108.2022}, tables.Provinces["Thành phố Đà Nẵng"])

	_, err = viewport.LoadAreaTables(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	tables, err = viewport.LoadAreaTables("")
	require.NoError(t, err)
	assert.NotEmpty(t, tables.Provinces)
}
