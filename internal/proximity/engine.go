// Package proximity answers "which pharmacies are near me" over a loaded feature snapshot.
package proximity

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
)

const (
	DefaultRadiusKm = 5.0
	MinRadiusKm     = 1.0
	MaxRadiusKm     = 50.0

	// MinLocateTimeout is the shortest wait allowed for a location fix
	MinLocateTimeout = 10 * time.Second
)

// ErrLocationRequired is returned by FilterNearby before a successful Locate
var ErrLocationRequired = errors.New("proximity: user location required")

// Result is one feature within the search radius
type Result struct {
	Feature    *geojson.Feature
	Location   entities.Location
	DistanceKm float64
}

// Options controls a nearby search
type Options struct {
	// RadiusKm is clamped to [MinRadiusKm, MaxRadiusKm]; zero means DefaultRadiusKm
	RadiusKm       float64
	SortByDistance bool
}

// Engine holds the current feature snapshot and the last known user location
type Engine struct {
	provider providers.LocationProvider
	timeout  time.Duration

	mu       sync.RWMutex
	snapshot []*geojson.Feature
	user     *entities.Location
}

// NewEngine creates an engine that locates the user through provider
func NewEngine(provider providers.LocationProvider, timeout time.Duration) *Engine {
	return &Engine{provider: provider, timeout: timeout}
}

// SetSnapshot replaces the features searched by FilterNearby
func (e *Engine) SetSnapshot(fc *geojson.FeatureCollection) {
	var features []*geojson.Feature
	if fc != nil {
		features = fc.Features
	}
	e.mu.Lock()
	e.snapshot = features
	e.mu.Unlock()
}

// Snapshot returns the current features
func (e *Engine) Snapshot() []*geojson.Feature {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Locate acquires the user's position once and remembers it
func (e *Engine) Locate(ctx context.Context) (entities.Location, error) {
	loc, err := AcquireLocation(ctx, e.provider, e.timeout)
	if err != nil {
		return entities.Location{}, err
	}
	e.SetUserLocation(loc)
	return loc, nil
}

// SetUserLocation records a position obtained elsewhere
func (e *Engine) SetUserLocation(loc entities.Location) {
	e.mu.Lock()
	e.user = &loc
	e.mu.Unlock()
}

// UserLocation returns the last known position
func (e *Engine) UserLocation() (entities.Location, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.user == nil {
		return entities.Location{}, false
	}
	return *e.user, true
}

// FilterNearby returns the snapshot features within the radius of the user
func (e *Engine) FilterNearby(opts Options) ([]Result, error) {
	user, ok := e.UserLocation()
	if !ok {
		return nil, ErrLocationRequired
	}
	return Nearby(e.Snapshot(), user, opts), nil
}

// Nearby keeps point features whose distance from origin is at most the clamped radius.
// Without SortByDistance the input order is preserved.
func Nearby(features []*geojson.Feature, origin entities.Location, opts Options) []Result {
	radius := ClampRadius(opts.RadiusKm)

	results := make([]Result, 0)
	for _, f := range features {
		loc, ok := FeatureLocation(f)
		if !ok {
			continue
		}
		d := Haversine(origin, loc)
		if d <= radius {
			results = append(results, Result{Feature: f, Location: loc, DistanceKm: d})
		}
	}

	if opts.SortByDistance {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DistanceKm < results[j].DistanceKm
		})
	}
	return results
}

// ClampRadius applies the default and bounds to a requested radius
func ClampRadius(km float64) float64 {
	switch {
	case km == 0:
		return DefaultRadiusKm
	case km < MinRadiusKm || km != km:
		return MinRadiusKm
	case km > MaxRadiusKm:
		return MaxRadiusKm
	}
	return km
}

// FeatureLocation reads the point of a feature
func FeatureLocation(f *geojson.Feature) (entities.Location, bool) {
	if f == nil {
		return entities.Location{}, false
	}
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		return entities.Location{}, false
	}
	return entities.Location{Latitude: p.Lat(), Longitude: p.Lon()}, true
}

// AcquireLocation asks provider for one fix, waiting at most max(timeout, MinLocateTimeout).
// Hitting that deadline yields providers.ErrTimeout; cancelling ctx yields ctx.Err().
func AcquireLocation(ctx context.Context, provider providers.LocationProvider, timeout time.Duration) (entities.Location, error) {
	if provider == nil {
		return entities.Location{}, providers.ErrPositionUnavailable
	}
	if timeout < MinLocateTimeout {
		timeout = MinLocateTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type fix struct {
		loc entities.Location
		err error
	}
	done := make(chan fix, 1)
	go func() {
		loc, err := provider.CurrentLocation(ctx)
		done <- fix{loc, err}
	}()

	select {
	case f := <-done:
		if errors.Is(f.err, context.DeadlineExceeded) {
			return entities.Location{}, providers.ErrTimeout
		}
		return f.loc, f.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entities.Location{}, providers.ErrTimeout
		}
		return entities.Location{}, ctx.Err()
	}
}
