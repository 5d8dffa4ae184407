// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/neighborfit/pkg/types"
)

const defaultPlacesRadius = 15000

// PlacesKey is the cache key for a neighborhood discovery around a city.
func PlacesKey(city string, radius int) string {
	return "places_" + strings.ToLower(city) + "_" + strconv.Itoa(radius)
}

func placesQuery(lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, coord(lat), coord(lon))
	sel := `["place"~"suburb|neighbourhood|locality"]`
	return "[out:json][timeout:25];\n(\n" +
		"  node" + sel + around + ";\n" +
		"  way" + sel + around + ";\n" +
		"  relation" + sel + around + ";\n" +
		");\nout center;"
}

// Places lists named suburbs, neighbourhoods and localities within radius
// metres of a city centre. Unlike the enrichment adapters it returns an
// error, since discovery callers skip a failing city rather than use a
// fallback. Results are cached with the POI TTL.
func (c *Client) Places(ctx context.Context, city types.CityCentre, radius int) ([]types.Candidate, error) {
	if radius <= 0 {
		radius = defaultPlacesRadius
	}
	key := PlacesKey(city.Name, radius)

	v, err, _ := c.flights.Do(key, func() (any, error) {
		return c.places(ctx, city, radius, key)
	})
	if err != nil {
		return nil, err
	}
	// Callers assign IDs in place; each gets its own copy.
	return append([]types.Candidate(nil), v.([]types.Candidate)...), nil
}

func (c *Client) places(ctx context.Context, city types.CityCentre, radius int, key string) ([]types.Candidate, error) {
	var out []types.Candidate
	if c.cached(types.SourcePOI, key, &out) {
		return out, nil
	}

	data, err := fetch[overpassResponse](ctx, c, types.SourcePOI, upstreamOverpass, c.overpassRequest(placesQuery(city.Lat, city.Lon, radius)))
	if err != nil {
		return nil, fmt.Errorf("discovering places around %s: %w", city.Name, err)
	}

	out = placesFromElements(data.Elements, city.Name)
	c.remember(types.SourcePOI, key, out)
	return out, nil
}

func placesFromElements(elements []overpassElement, city string) []types.Candidate {
	out := make([]types.Candidate, 0, len(elements))
	for _, e := range elements {
		name := strings.TrimSpace(e.Tags["name"])
		if name == "" {
			name = strings.TrimSpace(e.Tags["name:en"])
		}
		if name == "" {
			continue
		}
		cand := types.Candidate{
			Name:    name,
			City:    city,
			OSMType: e.Type,
			OSMID:   e.ID,
		}
		switch {
		case e.Lat != nil && e.Lon != nil:
			cand.Lat, cand.Lon = types.Float(*e.Lat), types.Float(*e.Lon)
		case e.Center != nil:
			cand.Lat, cand.Lon = types.Float(e.Center.Lat), types.Float(e.Center.Lon)
		}
		out = append(out, cand)
	}
	return out
}
