// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"sync"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// Bundle is everything the adapters learned about one candidate.
type Bundle struct {
	Location     types.LocationResult
	POI          types.POIResult
	Weather      types.WeatherResult
	Demographics types.DemographicsResult

	// Coordinates is the point POI and weather were fetched for.
	Coordinates types.Coordinates

	// DataSources lists provenance per source, e.g. "poi:cache".
	DataSources []string
}

// Enrich geocodes the candidate, then fetches POI, weather and demographics
// concurrently. Coordinates resolve in order: geocoding result, the
// candidate's own coordinates, the configured default.
func (c *Client) Enrich(ctx context.Context, cand types.Candidate) Bundle {
	var b Bundle

	b.Location = c.Location(ctx, cand.Name, cand.City)
	switch p, ok := cand.Coordinates(); {
	case b.Location.Source.Live():
		b.Coordinates = types.Coordinates{Lat: b.Location.Lat, Lon: b.Location.Lon}
	case ok:
		b.Coordinates = p
	default:
		b.Coordinates = c.cfg.DefaultCoordinates
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.POI = c.POI(ctx, b.Coordinates.Lat, b.Coordinates.Lon, 0)
	}()
	go func() {
		defer wg.Done()
		b.Weather = c.Weather(ctx, b.Coordinates.Lat, b.Coordinates.Lon)
	}()
	go func() {
		defer wg.Done()
		b.Demographics = c.Demographics(ctx, "")
	}()
	wg.Wait()

	b.DataSources = []string{
		string(types.SourceLocation) + ":" + string(b.Location.Source),
		string(types.SourcePOI) + ":" + string(b.POI.Source),
		string(types.SourceWeather) + ":" + string(b.Weather.Source),
		string(types.SourceDemographics) + ":" + string(b.Demographics.Source),
	}
	return b
}
