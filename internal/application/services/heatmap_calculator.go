package services

import (
	"math"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// maxRating is the top of the rating scale, used to map weights onto [0,1] intensities
const maxRating = 5.0

// HeatWeight is the rating when positive, otherwise 1
func HeatWeight(rating *float64) float64 {
	if rating != nil && *rating > 0 {
		return *rating
	}
	return 1
}

// BuildHeatPoints turns located rows into weighted samples. The result is never nil.
func BuildHeatPoints(rows []*entities.Pharmacy) []entities.HeatPoint {
	points := make([]entities.HeatPoint, 0, len(rows))
	for _, r := range rows {
		if r == nil || r.Location == nil {
			continue
		}
		points = append(points, entities.HeatPoint{
			Lat:    r.Location.Latitude,
			Lon:    r.Location.Longitude,
			Weight: HeatWeight(r.Rating),
		})
	}
	return points
}

// NormalizedIntensity maps a weight onto (0,1] for rendering
func NormalizedIntensity(weight float64) float64 {
	if !(weight > 0) {
		weight = 1
	}
	return math.Min(weight/maxRating, 1)
}
