package services

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// FeatureProperties is the complete public property set of a pharmacy feature, in output order
var FeatureProperties = []string{"name", "address", "province", "district", "phone", "status", "rating", "image"}

// AssembleFeatureCollection converts rows into a FeatureCollection. Rows without a location are skipped.
// Every feature carries all property keys; absent fields are JSON null.
func AssembleFeatureCollection(rows []*entities.Pharmacy) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		if f := AssembleFeature(r); f != nil {
			fc.Append(f)
		}
	}
	return fc
}

// AssembleFeature converts one row, or returns nil when it has no location
func AssembleFeature(r *entities.Pharmacy) *geojson.Feature {
	if r == nil || r.Location == nil {
		return nil
	}

	f := geojson.NewFeature(orb.Point{r.Location.Longitude, r.Location.Latitude})
	f.ID = r.ID
	f.Properties = geojson.Properties{
		"name":     optString(r.Name),
		"address":  optString(r.Address),
		"province": optString(r.Province),
		"district": optString(r.District),
		"phone":    optString(r.Phone),
		"status":   optString(r.Status),
		"rating":   optFloat(r.Rating),
		"image":    optString(r.Image),
	}
	return f
}

func optString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func optFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
