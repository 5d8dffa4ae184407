// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match answers a match request: pick the candidate pool, derive
// features (from stored attributes or live enrichment), rank, and return the
// top results with an enrichment warning when live data never arrived.
package match

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/neighborfit/internal/features"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/metrics"
	"github.com/pdiddy/neighborfit/internal/rank"
	"github.com/pdiddy/neighborfit/internal/sources"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// Defaults for a zero MatchConfig.
const (
	DefaultPoolCap         = 20
	DefaultRealtimeResults = 10
	DefaultStaticResults   = 5
	DefaultEnrichTimeout   = 90 * time.Second
)

// Enricher gathers live data for one candidate. *sources.Client satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, c types.Candidate) sources.Bundle
}

// Request is one match query.
type Request struct {
	Prefs types.Preferences
	Pool  []types.Candidate

	// ResultCount caps the results; 0 takes the mode's default.
	ResultCount int

	// Enrich derives features from live sources instead of stored attributes.
	Enrich bool
}

// Matcher is safe for concurrent use.
type Matcher struct {
	enricher Enricher
	cfg      types.MatchConfig
	weights  types.Weights
	shuffle  func(n int, swap func(i, j int))
	log      zerolog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWeights replaces the default factor weights.
func WithWeights(w types.Weights) Option {
	return func(m *Matcher) { m.weights = w }
}

// WithRand sets the random source used to shuffle realtime pools.
func WithRand(r *rand.Rand) Option {
	return func(m *Matcher) { m.shuffle = r.Shuffle }
}

// New returns a Matcher. The enricher may be nil when only static matching
// is needed. Invalid weights are rejected.
func New(enricher Enricher, cfg types.MatchConfig, opts ...Option) (*Matcher, error) {
	if cfg.PoolCap <= 0 {
		cfg.PoolCap = DefaultPoolCap
	}
	if cfg.RealtimeResults <= 0 {
		cfg.RealtimeResults = DefaultRealtimeResults
	}
	if cfg.StaticResults <= 0 {
		cfg.StaticResults = DefaultStaticResults
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = DefaultEnrichTimeout
	}

	m := &Matcher{
		enricher: enricher,
		cfg:      cfg,
		weights:  rank.DefaultWeights(),
		shuffle:  rand.Shuffle,
		log:      logging.Component("match"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := rank.Validate(m.weights); err != nil {
		return nil, err
	}
	return m, nil
}

// Weights returns the factor weights in use.
func (m *Matcher) Weights() types.Weights {
	out := make(types.Weights, len(m.weights))
	for k, v := range m.weights {
		out[k] = v
	}
	return out
}

// Match ranks req.Pool against req.Prefs. Enrichment failures never fail the
// request; the worst case is baseline features with EnrichmentWarning set.
func (m *Matcher) Match(ctx context.Context, req Request) (types.MatchOutput, error) {
	start := time.Now()
	if req.Enrich && m.enricher == nil {
		return types.MatchOutput{}, fmt.Errorf("realtime matching needs an enricher")
	}

	pool := append([]types.Candidate(nil), req.Pool...)
	if req.Enrich && m.cfg.Shuffle {
		m.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	if len(pool) > m.cfg.PoolCap {
		pool = pool[:m.cfg.PoolCap]
	}

	var scored []rank.Scored
	dataSource := types.DataSourceStatic
	if req.Enrich {
		dataSource = types.DataSourceRealtime
		scored = m.enrich(ctx, pool)
	} else {
		scored = make([]rank.Scored, len(pool))
		for i, c := range pool {
			scored[i] = rank.Scored{Candidate: c, Features: features.FromAttributes(c)}
		}
	}

	results := rank.Rank(req.Prefs, scored, m.weights)

	n := req.ResultCount
	if n <= 0 {
		n = m.cfg.StaticResults
		if req.Enrich {
			n = m.cfg.RealtimeResults
		}
	}
	if len(results) > n {
		results = results[:n]
	}

	warning := req.Enrich && len(results) > 0 && allDefaults(results)
	if warning {
		m.log.Warn().Int("results", len(results)).Msg("every result fell back to baseline features; live sources may be unavailable")
	}

	metrics.RecordMatch(dataSource, time.Since(start), warning)
	m.log.Info().
		Str("data_source", dataSource).
		Int("pool", len(req.Pool)).
		Int("scored", len(pool)).
		Int("returned", len(results)).
		Dur("took", time.Since(start)).
		Msg("match complete")

	return types.MatchOutput{
		Results:           results,
		EnrichmentWarning: warning,
		PoolSize:          len(req.Pool),
		Enriched:          len(pool),
		DataSource:        dataSource,
		Algorithm:         types.Algorithm,
		Weights:           m.Weights(),
	}, nil
}

// enrich runs the enricher over pool concurrently under the enrichment
// deadline. Each result lands in its own slot so completion order cannot
// affect ranking.
func (m *Matcher) enrich(ctx context.Context, pool []types.Candidate) []rank.Scored {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.EnrichTimeout)
	defer cancel()

	scored := make([]rank.Scored, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.PoolCap)
	for i, c := range pool {
		g.Go(func() error {
			b := m.enricher.Enrich(gctx, c)
			feat, usedDefaults := features.Derive(b.Location, b.POI, b.Weather, b.Demographics)
			q := features.Quality(b.DataSources)
			scored[i] = rank.Scored{
				Candidate:    c,
				Features:     feat,
				UsedDefaults: usedDefaults,
				DataSources:  b.DataSources,
				Quality:      &q,
			}
			return nil
		})
	}
	_ = g.Wait()
	return scored
}

func allDefaults(results []types.MatchResult) bool {
	for _, r := range results {
		if !r.UsedDefaults {
			return false
		}
	}
	return true
}
