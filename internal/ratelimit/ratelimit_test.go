// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// slack absorbs timer granularity when comparing start times.
const slack = 2 * time.Millisecond

func TestScheduleSpacesStarts(t *testing.T) {
	interval := 40 * time.Millisecond
	r := New(types.RateLimitConfig{Default: interval})

	var mu sync.Mutex
	var starts []time.Time

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Schedule(context.Background(), types.SourceWeather, func(context.Context) error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, starts, 4)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, interval-slack, "gap %d was %v", i, gap)
	}
}

func TestScheduleAtMostOneInFlight(t *testing.T) {
	r := New(types.RateLimitConfig{Default: time.Millisecond})

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Schedule(context.Background(), types.SourcePOI, func(context.Context) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduleFIFO(t *testing.T) {
	r := New(types.RateLimitConfig{Default: 5 * time.Millisecond})

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = r.Schedule(context.Background(), types.SourceLocation, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Schedule(context.Background(), types.SourceLocation, func(context.Context) error {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return nil
			})
		}()
		// Let each caller join the queue before the next arrives.
		time.Sleep(10 * time.Millisecond)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSourcesAreIndependent(t *testing.T) {
	r := New(types.RateLimitConfig{Default: time.Second})

	// Consume the weather token so the next weather call would wait a second.
	require.NoError(t, r.Schedule(context.Background(), types.SourceWeather, func(context.Context) error { return nil }))

	begin := time.Now()
	require.NoError(t, r.Schedule(context.Background(), types.SourceDemographics, func(context.Context) error { return nil }))
	assert.Less(t, time.Since(begin), 100*time.Millisecond)
}

func TestScheduleCanceledWhileQueued(t *testing.T) {
	r := New(types.RateLimitConfig{Default: time.Hour})
	require.NoError(t, r.Schedule(context.Background(), types.SourcePOI, func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := r.Schedule(ctx, types.SourcePOI, func(context.Context) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)
}

func TestSchedulePropagatesError(t *testing.T) {
	r := New(types.RateLimitConfig{Default: time.Millisecond})
	want := errors.New("upstream down")
	err := r.Schedule(context.Background(), types.SourcePOI, func(context.Context) error { return want })
	assert.ErrorIs(t, err, want)
}

func TestDo(t *testing.T) {
	r := New(types.RateLimitConfig{Default: time.Millisecond})
	got, err := Do(context.Background(), r, types.SourceWeather, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestIntervalFallsBackToDefault(t *testing.T) {
	r := New(types.RateLimitConfig{Weather: time.Second})
	assert.Equal(t, time.Second, r.Interval(types.SourceWeather))
	assert.Equal(t, DefaultInterval, r.Interval(types.SourcePOI))
}
