package client

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded is returned by a fetch that a newer one replaced before it finished
var ErrSuperseded = errors.New("client: request superseded by a newer one")

// DefaultSearchDebounce is the quiet period before an admin search fires
const DefaultSearchDebounce = 350 * time.Millisecond

// LatestFetcher keeps at most one load in flight. Starting a new one cancels the previous,
// and only the newest result ever reaches publish.
type LatestFetcher[T any] struct {
	publish func(T)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewLatestFetcher creates a fetcher that hands successful results to publish
func NewLatestFetcher[T any](publish func(T)) *LatestFetcher[T] {
	return &LatestFetcher[T]{publish: publish}
}

// Fetch runs load, cancelling whatever load was running before
func (f *LatestFetcher[T]) Fetch(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	var zero T

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	v, err := load(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return zero, ErrSuperseded
	}
	f.cancel = nil
	cancel()

	if err != nil {
		return zero, err
	}
	if f.publish != nil {
		f.publish(v)
	}
	return v, nil
}

// Cancel aborts the load in flight, if any; its caller gets ErrSuperseded
func (f *LatestFetcher[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
}

// Debouncer runs only the last of a burst of calls, once the input has been quiet for the delay
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates a debouncer; a non-positive delay uses DefaultSearchDebounce
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, replacing anything scheduled earlier
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop drops whatever is scheduled
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
