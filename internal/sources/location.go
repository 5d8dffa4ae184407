// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// nominatimPlace is one Nominatim search hit. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// errNotFound is a geocoding query with no hits.
var errNotFound = errors.New("location not found")

// LocationKey is the cache key for a geocoded neighborhood.
func LocationKey(name, city string) string {
	return "location_" + strings.ToLower(name) + "_" + strings.ToLower(city)
}

// Location geocodes a neighborhood. A query with no hits yields an
// error-tagged result and is not cached; so does an unreachable upstream.
func (c *Client) Location(ctx context.Context, name, city string) types.LocationResult {
	key := LocationKey(name, city)
	return shared(c, key, func() types.LocationResult {
		return c.location(ctx, name, city, key)
	})
}

func (c *Client) location(ctx context.Context, name, city, key string) types.LocationResult {
	var res types.LocationResult
	if c.cached(types.SourceLocation, key, &res) {
		res.Source = types.FromCache
		return res
	}

	hits, err := fetch[[]nominatimPlace](ctx, c, types.SourceLocation, upstreamNominatim, func(ctx context.Context) (*http.Request, error) {
		q := url.Values{}
		q.Set("q", fmt.Sprintf("%s, %s, %s", name, city, c.cfg.Country))
		q.Set("format", "json")
		q.Set("limit", "1")
		q.Set("addressdetails", "1")
		if c.cfg.ContactEmail != "" {
			q.Set("email", c.cfg.ContactEmail)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.NominatimURL+"/search?"+q.Encode(), nil)
	})
	if err == nil {
		res, err = normalizeLocation(hits)
	}
	if err != nil {
		reason := "location unavailable"
		if errors.Is(err, errNotFound) {
			reason = errNotFound.Error()
		}
		c.degraded(types.SourceLocation, err, "geocoding failed for "+name+", "+city)
		return types.LocationResult{Source: types.FromError, Error: reason, UpdatedAt: c.now()}
	}

	res.UpdatedAt = c.now()
	res.Source = types.FromAPI
	c.remember(types.SourceLocation, key, res)
	return res
}

func normalizeLocation(hits []nominatimPlace) (types.LocationResult, error) {
	if len(hits) == 0 {
		return types.LocationResult{}, errNotFound
	}
	h := hits[0]
	lat, err := strconv.ParseFloat(h.Lat, 64)
	if err != nil {
		return types.LocationResult{}, fmt.Errorf("parsing latitude %q: %w", h.Lat, err)
	}
	lon, err := strconv.ParseFloat(h.Lon, 64)
	if err != nil {
		return types.LocationResult{}, fmt.Errorf("parsing longitude %q: %w", h.Lon, err)
	}
	return types.LocationResult{
		Lat:         lat,
		Lon:         lon,
		DisplayName: h.DisplayName,
		Type:        h.Type,
		Importance:  h.Importance,
	}, nil
}
