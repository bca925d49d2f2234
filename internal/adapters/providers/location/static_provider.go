// Package location holds the LocationProvider implementations used by the proximity engine.
package location

import (
	"context"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

// StaticProvider always reports the same coordinate
type StaticProvider struct {
	loc entities.Location
}

// NewStaticProvider creates a provider fixed at lat, lon
func NewStaticProvider(lat, lon float64) providers.LocationProvider {
	return &StaticProvider{loc: entities.Location{Latitude: lat, Longitude: lon}}
}

// CurrentLocation returns the fixed coordinate
func (p *StaticProvider) CurrentLocation(ctx context.Context) (entities.Location, error) {
	if err := ctx.Err(); err != nil {
		return entities.Location{}, err
	}
	return p.loc, nil
}
