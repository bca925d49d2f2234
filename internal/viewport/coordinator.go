// Package viewport drives map navigation: locating a selected record's marker, flying to it,
// expanding its cluster and opening its popup, one command at a time.
package viewport

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
)

// State is a step of a navigation sequence
type State int

const (
	StateIdle State = iota
	StateLocatingMarker
	StateFlying
	StateExpandingCluster
	StatePopupOpened
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateLocatingMarker:
		return "locating_marker"
	case StateFlying:
		return "flying"
	case StateExpandingCluster:
		return "expanding_cluster"
	case StatePopupOpened:
		return "popup_opened"
	case StateAborted:
		return "aborted"
	default:
		return "idle"
	}
}

// AbortReason explains an Aborted event
type AbortReason string

const (
	ReasonNotFound  AbortReason = "not_found"
	ReasonTimeout   AbortReason = "timeout"
	ReasonCancelled AbortReason = "cancelled"
)

// ErrCoordinatorStopped is returned by Submit once Run has returned
var ErrCoordinatorStopped = errors.New("viewport: coordinator stopped")

const (
	RecordZoom = 16.0
	UserZoom   = 13.0

	selectMinZoom     = 18.0
	selectFlyDuration = 800 * time.Millisecond
	flyDuration       = 1200 * time.Millisecond
)

// Command is a navigation request
type Command interface {
	commandName() string
}

// SelectRecord flies to the marker of a record and opens its popup
type SelectRecord struct {
	Location   entities.Location
	Properties geojson.Properties
}

// ChangeArea flies to the resolved centre of a province or district
type ChangeArea struct {
	Province string
	District string
}

// ZoomToRecord centres a record at street zoom without opening anything
type ZoomToRecord struct {
	Location entities.Location
}

// FlyToUser centres the user's position
type FlyToUser struct {
	Location entities.Location
}

func (SelectRecord) commandName() string { return "select_record" }
func (ChangeArea) commandName() string   { return "change_area" }
func (ZoomToRecord) commandName() string { return "zoom_to_record" }
func (FlyToUser) commandName() string    { return "fly_to_user" }

// Event is published on every state transition
type Event struct {
	CommandID string
	Command   string
	State     State
	Reason    AbortReason
	Target    *Target
	At        time.Time
}

// ViewportState is the coordinator's view of the map
type ViewportState struct {
	Center  entities.Location
	Zoom    float64
	Pending *Target
	State   State
}

// CoordinatorConfig tunes a Coordinator
type CoordinatorConfig struct {
	// MarkerTolerance is the max distance in metres between a record and its marker
	MarkerTolerance float64
	// StepTimeout bounds each fly or expand step
	StepTimeout time.Duration
	// PopupDelay is the pause between arriving and opening the popup
	PopupDelay time.Duration
}

// DefaultCoordinatorConfig returns the standard tuning
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MarkerTolerance: DefaultMarkerTolerance,
		StepTimeout:     5 * time.Second,
		PopupDelay:      150 * time.Millisecond,
	}
}

type envelope struct {
	id  string
	cmd Command
}

// Coordinator runs navigation commands one at a time. A new command cancels the one in flight.
type Coordinator struct {
	m        Map
	resolver *AreaResolver
	cfg      CoordinatorConfig
	commands chan envelope
	stopped  chan struct{}

	mu        sync.Mutex
	markers   *MarkerRegistry
	state     ViewportState
	observers []func(Event)
}

// NewCoordinator creates a coordinator driving m
func NewCoordinator(m Map, resolver *AreaResolver, cfg CoordinatorConfig) *Coordinator {
	if resolver == nil {
		resolver = NewAreaResolver(nil)
	}
	if cfg.MarkerTolerance <= 0 {
		cfg.MarkerTolerance = DefaultMarkerTolerance
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultCoordinatorConfig().StepTimeout
	}
	center, zoom := m.View()
	return &Coordinator{
		m:        m,
		resolver: resolver,
		cfg:      cfg,
		commands: make(chan envelope),
		stopped:  make(chan struct{}),
		state:    ViewportState{Center: center, Zoom: zoom, State: StateIdle},
	}
}

// Subscribe registers fn for every event. fn runs on the sequence goroutine and must not block.
func (c *Coordinator) Subscribe(fn func(Event)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// SetMarkers swaps the rendered marker set, typically after a new feature snapshot loads
func (c *Coordinator) SetMarkers(markers *MarkerRegistry) {
	c.mu.Lock()
	c.markers = markers
	c.mu.Unlock()
	c.m.SetMarkers(markers)
}

// State returns a copy of the current viewport state
func (c *Coordinator) State() ViewportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.Pending != nil {
		p := *s.Pending
		s.Pending = &p
	}
	return s
}

// Submit queues cmd and returns its ID
func (c *Coordinator) Submit(ctx context.Context, cmd Command) (string, error) {
	env := envelope{id: uuid.NewString(), cmd: cmd}
	select {
	case c.commands <- env:
		return env.id, nil
	case <-c.stopped:
		return "", ErrCoordinatorStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run consumes commands until ctx is done
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.stopped)

	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	stop := func() {
		if cancel != nil {
			cancel()
			<-done
			cancel = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.commands:
			stop()
			var seqCtx context.Context
			seqCtx, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(finished chan struct{}) {
				defer close(finished)
				c.execute(seqCtx, env)
			}(done)
		}
	}
}

func (c *Coordinator) execute(ctx context.Context, env envelope) {
	log.Debug().Str("command_id", env.id).Str("command", env.cmd.commandName()).Msg("Navigation started")

	switch cmd := env.cmd.(type) {
	case SelectRecord:
		c.selectRecord(ctx, env, cmd)
	case ChangeArea:
		c.mu.Lock()
		markers := c.markers.Markers()
		c.mu.Unlock()
		target := c.resolver.Resolve(cmd.Province, cmd.District, markers)
		c.flyThenIdle(ctx, env, target)
	case ZoomToRecord:
		c.flyThenIdle(ctx, env, Target{Center: cmd.Location, Zoom: RecordZoom, Duration: flyDuration})
	case FlyToUser:
		c.flyThenIdle(ctx, env, Target{Center: cmd.Location, Zoom: UserZoom, Duration: flyDuration})
	}
}

func (c *Coordinator) selectRecord(ctx context.Context, env envelope, cmd SelectRecord) {
	c.transition(env, StateLocatingMarker, "", nil)

	c.mu.Lock()
	markers := c.markers
	c.mu.Unlock()

	marker, ok := markers.Nearest(cmd.Location, c.cfg.MarkerTolerance)
	if !ok {
		c.abort(env, ReasonNotFound)
		return
	}

	_, zoom := c.m.View()
	target := Target{
		Center:   marker.Location,
		Zoom:     math.Max(zoom, selectMinZoom),
		Duration: selectFlyDuration,
		MarkerID: marker.ID,
	}
	if !c.fly(ctx, env, target) {
		return
	}

	if c.m.IsClustered(marker) {
		c.transition(env, StateExpandingCluster, "", &target)
		if err := c.step(ctx, func(stepCtx context.Context) error { return c.m.ExpandCluster(stepCtx, marker) }); err != nil {
			c.abort(env, reasonFor(ctx, err))
			return
		}
	}

	if c.cfg.PopupDelay > 0 {
		timer := time.NewTimer(c.cfg.PopupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.abort(env, ReasonCancelled)
			return
		case <-timer.C:
		}
	}

	if err := c.m.OpenPopup(marker); err != nil {
		log.Warn().Err(err).Str("marker_id", marker.ID).Msg("Failed to open popup")
		c.abort(env, ReasonCancelled)
		return
	}
	c.transition(env, StatePopupOpened, "", &target)
	c.transition(env, StateIdle, "", nil)
}

func (c *Coordinator) flyThenIdle(ctx context.Context, env envelope, target Target) {
	if c.fly(ctx, env, target) {
		c.transition(env, StateIdle, "", nil)
	}
}

func (c *Coordinator) fly(ctx context.Context, env envelope, target Target) bool {
	c.transition(env, StateFlying, "", &target)
	err := c.step(ctx, func(stepCtx context.Context) error {
		return c.m.FlyTo(stepCtx, target.Center, target.Zoom, target.Duration)
	})
	if err != nil {
		c.abort(env, reasonFor(ctx, err))
		return false
	}
	return true
}

func (c *Coordinator) step(ctx context.Context, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, c.cfg.StepTimeout)
	defer cancel()
	return fn(stepCtx)
}

// reasonFor separates our own step deadline from cancellation by a newer command
func reasonFor(seqCtx context.Context, err error) AbortReason {
	if seqCtx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	if seqCtx.Err() == nil {
		log.Warn().Err(err).Msg("Navigation step failed")
	}
	return ReasonCancelled
}

func (c *Coordinator) abort(env envelope, reason AbortReason) {
	c.transition(env, StateAborted, reason, nil)
	c.transition(env, StateIdle, "", nil)
}

func (c *Coordinator) transition(env envelope, state State, reason AbortReason, target *Target) {
	center, zoom := c.m.View()

	c.mu.Lock()
	c.state.State = state
	c.state.Center = center
	c.state.Zoom = zoom
	c.state.Pending = target
	observers := make([]func(Event), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	ev := Event{
		CommandID: env.id,
		Command:   env.cmd.commandName(),
		State:     state,
		Reason:    reason,
		Target:    target,
		At:        time.Now(),
	}
	if state == StateAborted {
		log.Debug().Str("command_id", env.id).Str("reason", string(reason)).Msg("Navigation aborted")
	}
	for _, fn := range observers {
		fn(ev)
	}
}
