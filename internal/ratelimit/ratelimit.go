// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit serializes calls to each upstream source. Every source
// has its own queue: at most one call in flight, consecutive starts at least
// one interval apart, callers served in arrival order. Sources never block
// each other.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/pdiddy/neighborfit/internal/metrics"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// DefaultInterval matches the public APIs' one-call-per-three-seconds etiquette.
const DefaultInterval = 3 * time.Second

// gate is one source's queue. The weighted semaphore grants waiters in FIFO
// order; the limiter spaces consecutive starts.
type gate struct {
	slot    *semaphore.Weighted
	limiter *rate.Limiter
}

func newGate(interval time.Duration) *gate {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &gate{
		slot:    semaphore.NewWeighted(1),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Registry holds one gate per source, created on first use.
type Registry struct {
	cfg   types.RateLimitConfig
	mu    sync.Mutex
	gates map[types.SourceID]*gate
}

// New returns a registry. Sources without a configured interval use
// cfg.Default, or DefaultInterval when that is zero too.
func New(cfg types.RateLimitConfig) *Registry {
	if cfg.Default <= 0 {
		cfg.Default = DefaultInterval
	}
	return &Registry{cfg: cfg, gates: make(map[types.SourceID]*gate)}
}

func (r *Registry) gate(id types.SourceID) *gate {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[id]
	if !ok {
		g = newGate(r.cfg.Interval(id))
		r.gates[id] = g
	}
	return g
}

// Interval reports the spacing applied to source id.
func (r *Registry) Interval(id types.SourceID) time.Duration {
	return r.cfg.Interval(id)
}

// Schedule waits for source id's slot, runs fn, and releases the slot when fn
// returns. A canceled ctx abandons the wait and returns ctx.Err() without
// running fn. Callers are never rejected.
func (r *Registry) Schedule(ctx context.Context, id types.SourceID, fn func(ctx context.Context) error) error {
	g := r.gate(id)
	start := time.Now()

	if err := g.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.slot.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	metrics.RecordRateLimitWait(string(id), time.Since(start))

	return fn(ctx)
}

// Do is Schedule for functions that return a value.
func Do[T any](ctx context.Context, r *Registry, id types.SourceID, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Schedule(ctx, id, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}
