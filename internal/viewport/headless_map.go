package viewport

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// Map is the rendering surface the coordinator drives
type Map interface {
	View() (entities.Location, float64)
	SetMarkers(markers *MarkerRegistry)
	FlyTo(ctx context.Context, center entities.Location, zoom float64, duration time.Duration) error
	IsClustered(m Marker) bool
	ExpandCluster(ctx context.Context, m Marker) error
	OpenPopup(m Marker) error
}

const (
	DefaultClusterRadiusPx         = 40.0
	DefaultDisableClusteringAtZoom = 18.0
	MaxZoom                        = 19.0

	// web mercator metres per pixel at zoom 0 on the equator
	metresPerPixelZ0 = 156543.03392
)

// Action kinds recorded by HeadlessMap
const (
	ActionFlyTo         = "fly_to"
	ActionFlyCancelled  = "fly_cancelled"
	ActionExpandCluster = "expand_cluster"
	ActionOpenPopup     = "open_popup"
)

// Action is one entry of the HeadlessMap log
type Action struct {
	Kind     string
	MarkerID string
	Center   entities.Location
	Zoom     float64
	Duration time.Duration
}

// HeadlessMap simulates a clustered marker map without rendering anything
type HeadlessMap struct {
	clusterRadiusPx  float64
	disableClusterAt float64
	timeScale        float64

	mu      sync.Mutex
	center  entities.Location
	zoom    float64
	markers *MarkerRegistry
	popup   string
	actions []Action
}

// HeadlessOption configures a HeadlessMap
type HeadlessOption func(*HeadlessMap)

// WithTimeScale multiplies every simulated fly duration; zero makes flights instant
func WithTimeScale(scale float64) HeadlessOption {
	return func(m *HeadlessMap) { m.timeScale = scale }
}

// WithClusterRadius sets the pixel distance under which markers merge
func WithClusterRadius(px float64) HeadlessOption {
	return func(m *HeadlessMap) { m.clusterRadiusPx = px }
}

// WithDisableClusteringAtZoom sets the zoom from which markers are always drawn individually
func WithDisableClusteringAtZoom(zoom float64) HeadlessOption {
	return func(m *HeadlessMap) { m.disableClusterAt = zoom }
}

// NewHeadlessMap creates a map looking at center
func NewHeadlessMap(center entities.Location, zoom float64, opts ...HeadlessOption) *HeadlessMap {
	m := &HeadlessMap{
		clusterRadiusPx:  DefaultClusterRadiusPx,
		disableClusterAt: DefaultDisableClusteringAtZoom,
		timeScale:        1,
		center:           center,
		zoom:             zoom,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *HeadlessMap) View() (entities.Location, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center, m.zoom
}

func (m *HeadlessMap) SetMarkers(markers *MarkerRegistry) {
	m.mu.Lock()
	m.markers = markers
	m.popup = ""
	m.mu.Unlock()
}

// FlyTo waits out the scaled duration then moves the view. An interrupted flight leaves the view where it was.
func (m *HeadlessMap) FlyTo(ctx context.Context, center entities.Location, zoom float64, duration time.Duration) error {
	m.mu.Lock()
	m.popup = ""
	m.mu.Unlock()

	if wait := time.Duration(float64(duration) * m.timeScale); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			m.record(Action{Kind: ActionFlyCancelled, Center: center, Zoom: zoom, Duration: duration})
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		m.record(Action{Kind: ActionFlyCancelled, Center: center, Zoom: zoom, Duration: duration})
		return err
	}

	m.mu.Lock()
	m.center = center
	m.zoom = math.Min(zoom, MaxZoom)
	m.actions = append(m.actions, Action{Kind: ActionFlyTo, Center: center, Zoom: m.zoom, Duration: duration})
	m.mu.Unlock()
	return nil
}

// IsClustered reports whether another marker lies within the cluster radius at the current zoom
func (m *HeadlessMap) IsClustered(marker Marker) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clusteredAt(marker, m.zoom)
}

func (m *HeadlessMap) clusteredAt(marker Marker, zoom float64) bool {
	if zoom >= m.disableClusterAt || m.markers == nil {
		return false
	}
	radius := m.clusterRadiusPx * MetresPerPixel(marker.Location.Latitude, zoom)
	for _, other := range m.markers.Within(marker.Location, radius) {
		if other.ID != marker.ID {
			return true
		}
	}
	return false
}

// ExpandCluster zooms in one level at a time until the marker stands alone
func (m *HeadlessMap) ExpandCluster(ctx context.Context, marker Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.clusteredAt(marker, m.zoom) && m.zoom < MaxZoom {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.zoom = math.Min(math.Floor(m.zoom)+1, MaxZoom)
	}
	m.center = marker.Location
	m.actions = append(m.actions, Action{Kind: ActionExpandCluster, MarkerID: marker.ID, Center: m.center, Zoom: m.zoom})
	return nil
}

func (m *HeadlessMap) OpenPopup(marker Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.popup = marker.ID
	m.actions = append(m.actions, Action{Kind: ActionOpenPopup, MarkerID: marker.ID, Center: m.center, Zoom: m.zoom})
	return nil
}

// Popup returns the ID of the marker whose popup is open, if any
func (m *HeadlessMap) Popup() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.popup, m.popup != ""
}

// Actions returns a copy of the action log
func (m *HeadlessMap) Actions() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out
}

func (m *HeadlessMap) record(a Action) {
	m.mu.Lock()
	m.actions = append(m.actions, a)
	m.mu.Unlock()
}

// MetresPerPixel is the web mercator ground resolution at lat and zoom
func MetresPerPixel(lat, zoom float64) float64 {
	return metresPerPixelZ0 * math.Cos(lat*math.Pi/180) / math.Pow(2, zoom)
}
