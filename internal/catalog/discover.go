// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// DefaultRadius is the discovery radius around each city centre, in metres.
const DefaultRadius = 15000

// DefaultCities are the city centres searched when none are configured.
var DefaultCities = []types.CityCentre{
	{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
	{Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
	{Name: "Bengaluru", Lat: 12.9716, Lon: 77.5946},
	{Name: "Pune", Lat: 18.5204, Lon: 73.8567},
	{Name: "Chennai", Lat: 13.0827, Lon: 80.2707},
	{Name: "Hyderabad", Lat: 17.3850, Lon: 78.4867},
	{Name: "Kolkata", Lat: 22.5726, Lon: 88.3639},
	{Name: "Ahmedabad", Lat: 23.0225, Lon: 72.5714},
}

// PlaceFinder lists named places around a city centre. *sources.Client
// satisfies it.
type PlaceFinder interface {
	Places(ctx context.Context, city types.CityCentre, radius int) ([]types.Candidate, error)
}

// Discoverer builds a catalog from places found around city centres.
type Discoverer struct {
	finder PlaceFinder
	radius int
	log    zerolog.Logger
}

// NewDiscoverer returns a Discoverer. A radius of zero uses DefaultRadius.
func NewDiscoverer(finder PlaceFinder, radius int) *Discoverer {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Discoverer{finder: finder, radius: radius, log: logging.Component("catalog")}
}

// Discover queries each city in turn. A city that fails is logged and
// skipped; Discover only errors when every city failed or ctx ended.
func (d *Discoverer) Discover(ctx context.Context, cities []types.CityCentre) ([]types.Candidate, error) {
	if len(cities) == 0 {
		cities = DefaultCities
	}

	var (
		all    []types.Candidate
		failed int
		last   error
	)
	for _, city := range cities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := d.finder.Places(ctx, city, d.radius)
		if err != nil {
			failed++
			last = err
			d.log.Warn().Err(err).Str("city", city.Name).Msg("discovery failed; skipping city")
			continue
		}
		d.log.Info().Str("city", city.Name).Int("found", len(found)).Msg("discovered neighborhoods")
		all = append(all, found...)
	}
	if failed == len(cities) {
		return nil, fmt.Errorf("discovery failed for all %d cities: %w", failed, last)
	}

	out, removed := Dedupe(all)
	AssignIDs(out)
	d.log.Info().Int("total", len(out)).Int("duplicates", removed).Int("failed_cities", failed).Msg("discovery complete")
	return out, nil
}
