package viewport

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/proximity"
)

const (
	// DefaultMarkerTolerance is how far a selected record may sit from its rendered marker
	DefaultMarkerTolerance = 30.0 // metres

	gridCellDeg = 0.005
	// metres per degree of latitude on the sphere Haversine measures on
	metresPerDegree = proximity.EarthRadiusKm * 1000 * math.Pi / 180
)

// Marker is a rendered point keyed by record ID
type Marker struct {
	ID         string
	Location   entities.Location
	Properties geojson.Properties
}

type cell struct{ lat, lon int }

// MarkerRegistry indexes rendered markers on a uniform lat/lon grid. It is never mutated after construction.
type MarkerRegistry struct {
	markers []Marker
	byID    map[string]int
	cells   map[cell][]int
}

// NewMarkerRegistry builds a registry from the point features of a collection snapshot
func NewMarkerRegistry(features []*geojson.Feature) *MarkerRegistry {
	r := &MarkerRegistry{
		markers: make([]Marker, 0, len(features)),
		byID:    make(map[string]int, len(features)),
		cells:   make(map[cell][]int),
	}

	for _, f := range features {
		loc, ok := proximity.FeatureLocation(f)
		if !ok {
			continue
		}
		m := Marker{ID: MarkerID(f.ID), Location: loc, Properties: f.Properties}
		idx := len(r.markers)
		r.markers = append(r.markers, m)
		if m.ID != "" {
			r.byID[m.ID] = idx
		}
		c := cellOf(loc)
		r.cells[c] = append(r.cells[c], idx)
	}
	return r
}

// MarkerID renders a feature ID as a registry key. JSON-decoded numbers arrive as float64.
func MarkerID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%.0f", v)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// Len returns the number of markers
func (r *MarkerRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.markers)
}

// Markers returns a copy of every marker in insertion order
func (r *MarkerRegistry) Markers() []Marker {
	if r == nil {
		return nil
	}
	out := make([]Marker, len(r.markers))
	copy(out, r.markers)
	return out
}

// Get looks a marker up by record ID
func (r *MarkerRegistry) Get(id string) (Marker, bool) {
	if r == nil {
		return Marker{}, false
	}
	idx, ok := r.byID[id]
	if !ok {
		return Marker{}, false
	}
	return r.markers[idx], true
}

// Nearest returns the closest marker no further than toleranceM metres from loc
func (r *MarkerRegistry) Nearest(loc entities.Location, toleranceM float64) (Marker, bool) {
	best := -1
	bestDist := math.Inf(1)
	r.visit(loc, toleranceM, func(idx int, d float64) {
		if d < bestDist {
			best, bestDist = idx, d
		}
	})
	if best < 0 {
		return Marker{}, false
	}
	return r.markers[best], true
}

// Within returns every marker at most radiusM metres from loc, in insertion order
func (r *MarkerRegistry) Within(loc entities.Location, radiusM float64) []Marker {
	var hits []int
	r.visit(loc, radiusM, func(idx int, _ float64) {
		hits = append(hits, idx)
	})
	sort.Ints(hits)

	out := make([]Marker, 0, len(hits))
	for _, idx := range hits {
		out = append(out, r.markers[idx])
	}
	return out
}

func (r *MarkerRegistry) visit(loc entities.Location, radiusM float64, fn func(idx int, distM float64)) {
	if r == nil || len(r.markers) == 0 || radiusM < 0 {
		return
	}

	dLat := radiusM / metresPerDegree
	dLon := radiusM / (metresPerDegree * math.Max(math.Cos(loc.Latitude*math.Pi/180), 1e-6))
	// One extra cell on each side absorbs rounding at cell edges
	lo := cellOf(entities.Location{Latitude: loc.Latitude - dLat, Longitude: loc.Longitude - dLon})
	hi := cellOf(entities.Location{Latitude: loc.Latitude + dLat, Longitude: loc.Longitude + dLon})
	lo.lat, lo.lon = lo.lat-1, lo.lon-1
	hi.lat, hi.lon = hi.lat+1, hi.lon+1

	check := func(idx int) {
		if d := proximity.Haversine(loc, r.markers[idx].Location) * 1000; d <= radiusM {
			fn(idx, d)
		}
	}

	// A huge radius spans more cells than exist, so scan everything
	span := float64(hi.lat-lo.lat+1) * float64(hi.lon-lo.lon+1)
	if span > float64(len(r.cells)) {
		for idx := range r.markers {
			check(idx)
		}
		return
	}

	for la := lo.lat; la <= hi.lat; la++ {
		for lo2 := lo.lon; lo2 <= hi.lon; lo2++ {
			for _, idx := range r.cells[cell{la, lo2}] {
				check(idx)
			}
		}
	}
}

func cellOf(loc entities.Location) cell {
	return cell{
		lat: int(math.Floor(loc.Latitude / gridCellDeg)),
		lon: int(math.Floor(loc.Longitude / gridCellDeg)),
	}
}
