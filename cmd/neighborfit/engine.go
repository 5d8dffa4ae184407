// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/catalog"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/match"
	"github.com/pdiddy/neighborfit/internal/ratelimit"
	"github.com/pdiddy/neighborfit/internal/sources"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// engine wires the cache, limiter, source client and matcher from cfg.
type engine struct {
	store      *cache.Store
	sources    *sources.Client
	matcher    *match.Matcher
	discoverer *catalog.Discoverer
}

func newEngine(cfg types.Config) (*engine, error) {
	store := cache.Open(cfg.Cache.Path)
	limits := ratelimit.New(cfg.RateLimit)
	client := sources.New(cfg.Sources, cfg.Cache.TTL, cfg.Breaker, store, limits)

	m, err := match.New(client, cfg.Match)
	if err != nil {
		return nil, err
	}
	return &engine{
		store:      store,
		sources:    client,
		matcher:    m,
		discoverer: catalog.NewDiscoverer(client, cfg.Catalog.Radius),
	}, nil
}

// Close flushes the cache to disk.
func (e *engine) Close() {
	if err := e.store.Close(); err != nil {
		logging.Warn().Err(err).Msg("could not persist cache on exit")
	}
}

// loadCandidates reads the catalog file at path (or the configured one).
// With discover set and no file, candidates are discovered instead.
func (e *engine) loadCandidates(ctx context.Context, path string, discover bool) ([]types.Candidate, error) {
	if path == "" {
		path = cfg.Catalog.Path
	}
	if path != "" {
		return catalog.LoadFile(path)
	}
	if discover {
		return e.discoverer.Discover(ctx, cfg.Catalog.Cities)
	}
	return nil, fmt.Errorf("no catalog: pass --catalog, set catalog.path, or use discovery")
}
