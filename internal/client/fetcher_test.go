package client_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/client"
)

func TestLatestFetcher_NewerFetchSupersedes(t *testing.T) {
	var published []string
	var mu sync.Mutex
	f := client.NewLatestFetcher(func(v string) {
		mu.Lock()
		published = append(published, v)
		mu.Unlock()
	})

	started := make(chan struct{})
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			// a server that ignores cancellation still answers
			return "stale", nil
		})
		firstErr <- err
	}()
	<-started

	v, err := f.Fetch(context.Background(), func(ctx context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	assert.ErrorIs(t, <-firstErr, client.ErrSuperseded)
	mu.Lock()
	assert.Equal(t, []string{"fresh"}, published)
	mu.Unlock()
}

func TestLatestFetcher_ErrorsAreNotPublished(t *testing.T) {
	calls := 0
	f := client.NewLatestFetcher(func(int) { calls++ })

	_, err := f.Fetch(context.Background(), func(context.Context) (int, error) {
		return 0, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, calls)
}

func TestLatestFetcher_CancelAbortsInFlightFetch(t *testing.T) {
	var published int32
	f := client.NewLatestFetcher(func(string) { atomic.AddInt32(&published, 1) })

	started := make(chan struct{})
	loadErr := make(chan error, 1)
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			loadErr <- ctx.Err()
			return "stale", nil
		})
		done <- err
	}()

	<-started
	f.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, client.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("fetch did not return after Cancel")
	}
	assert.ErrorIs(t, <-loadErr, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&published))

	// the fetcher stays usable
	v, err := f.Fetch(context.Background(), func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&published))
}

func TestDebouncer_OnlyLastFires(t *testing.T) {
	d := client.NewDebouncer(30 * time.Millisecond)
	var fired int32
	var last atomic.Value

	for _, term := range []string{"l", "lo", "lon", "long"} {
		term := term
		d.Trigger(func() {
			atomic.AddInt32(&fired, 1)
			last.Store(term)
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&fired) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
	assert.Equal(t, "long", last.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	d := client.NewDebouncer(20 * time.Millisecond)
	var fired int32
	d.Trigger(func() { atomic.AddInt32(&fired, 1) })
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
