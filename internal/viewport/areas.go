package viewport

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/utils"
)

// AreaTier says which lookup produced a target
type AreaTier int

const (
	TierDistrictTable AreaTier = iota
	TierDistrictCentroid
	TierProvinceTable
	TierNational
)

func (t AreaTier) String() string {
	switch t {
	case TierDistrictTable:
		return "district_table"
	case TierDistrictCentroid:
		return "district_centroid"
	case TierProvinceTable:
		return "province_table"
	default:
		return "national"
	}
}

const (
	DistrictZoom = 13.5
	ProvinceZoom = 8.5
	NationalZoom = 6.0

	districtFlyDuration = 1500 * time.Millisecond
	areaFlyDuration     = 1200 * time.Millisecond
)

// NationalCenter is the fallback view over the whole country
var NationalCenter = entities.Location{Latitude: 16.05, Longitude: 108.2}

// Centroid is a table entry
type Centroid struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// AreaTables maps administrative names to map centres
type AreaTables struct {
	Provinces map[string]Centroid `yaml:"provinces" json:"provinces"`
	Districts map[string]Centroid `yaml:"districts" json:"districts"`
}

// LoadAreaTables reads tables from a YAML or JSON file. An empty path yields the built-in tables.
func LoadAreaTables(path string) (*AreaTables, error) {
	if path == "" {
		return DefaultAreaTables(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read area tables: %w", err)
	}
	return ParseAreaTables(data)
}

// ParseAreaTables decodes tables. JSON is accepted since it is a subset of YAML.
func ParseAreaTables(data []byte) (*AreaTables, error) {
	var tables AreaTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse area tables: %w", err)
	}
	return &tables, nil
}

// DefaultAreaTables covers the five centrally governed cities
func DefaultAreaTables() *AreaTables {
	return &AreaTables{
		Provinces: map[string]Centroid{
			"Thành phố Hà Nội":      {Lat: 21.0285, Lon: 105.8542},
			"Thành phố Hồ Chí Minh": {Lat: 10.7769, Lon: 106.7009},
			"Thành phố Đà Nẵng":     {Lat: 16.0544, Lon: 108.2022},
			"Thành phố Hải Phòng":   {Lat: 20.8449, Lon: 106.6881},
			"Thành phố Cần Thơ":     {Lat: 10.0452, Lon: 105.7469},
		},
		Districts: map[string]Centroid{},
	}
}

// Target is where the map should fly
type Target struct {
	Center   entities.Location
	Zoom     float64
	Duration time.Duration
	Tier     AreaTier
	MarkerID string
}

// AreaResolver turns a province/district selection into a map target
type AreaResolver struct {
	provinces map[string]Centroid
	districts map[string]Centroid
}

// NewAreaResolver indexes tables under both their raw and normalized names
func NewAreaResolver(tables *AreaTables) *AreaResolver {
	if tables == nil {
		tables = DefaultAreaTables()
	}
	return &AreaResolver{
		provinces: indexNames(tables.Provinces),
		districts: indexNames(tables.Districts),
	}
}

func indexNames(table map[string]Centroid) map[string]Centroid {
	out := make(map[string]Centroid, len(table)*2)
	for name, c := range table {
		out[name] = c
		if norm := utils.NormalizeAdminName(name); norm != "" {
			if _, taken := out[norm]; !taken {
				out[norm] = c
			}
		}
	}
	return out
}

// Resolve tries the district table, then the centroid of loaded markers in that district,
// then the province table, then the national view.
func (r *AreaResolver) Resolve(province, district string, markers []Marker) Target {
	if utils.CleanText(district) != "" {
		if c, ok := lookup(r.districts, district); ok {
			return Target{Center: c, Zoom: DistrictZoom, Duration: districtFlyDuration, Tier: TierDistrictTable}
		}
		if c, ok := DistrictCentroid(markers, district); ok {
			log.Debug().
				Str("district", utils.NormalizeAdminName(district)).
				Float64("lat", c.Latitude).
				Float64("lon", c.Longitude).
				Msg("District missing from area table, using marker centroid")
			return Target{Center: c, Zoom: DistrictZoom, Duration: districtFlyDuration, Tier: TierDistrictCentroid}
		}
	}

	if utils.CleanText(province) != "" {
		if c, ok := lookup(r.provinces, province); ok {
			return Target{Center: c, Zoom: ProvinceZoom, Duration: areaFlyDuration, Tier: TierProvinceTable}
		}
	}

	return Target{Center: NationalCenter, Zoom: NationalZoom, Duration: areaFlyDuration, Tier: TierNational}
}

func lookup(table map[string]Centroid, name string) (entities.Location, bool) {
	for _, variant := range utils.AdminNameVariants(name) {
		if c, ok := table[variant]; ok {
			return entities.Location{Latitude: c.Lat, Longitude: c.Lon}, true
		}
	}
	return entities.Location{}, false
}

// DistrictCentroid averages the markers whose district property matches, ignoring case
func DistrictCentroid(markers []Marker, district string) (entities.Location, bool) {
	want := utils.FoldKey(district)
	if want == "" {
		return entities.Location{}, false
	}

	var sumLat, sumLon float64
	n := 0
	for _, m := range markers {
		d, _ := m.Properties["district"].(string)
		if utils.FoldKey(d) != want {
			continue
		}
		sumLat += m.Location.Latitude
		sumLon += m.Location.Longitude
		n++
	}
	if n == 0 {
		return entities.Location{}, false
	}
	return entities.Location{Latitude: sumLat / float64(n), Longitude: sumLon / float64(n)}, true
}
