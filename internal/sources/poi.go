// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// overpassResponse is the subset of an Overpass JSON answer we read.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string             `json:"type"`
	ID     int64              `json:"id"`
	Lat    *float64           `json:"lat"`
	Lon    *float64           `json:"lon"`
	Center *types.Coordinates `json:"center"`
	Tags   map[string]string  `json:"tags"`
}

// coord formats a coordinate in its shortest exact form so cache keys and
// queries agree for the same input.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// POIKey is the cache key for a POI count.
func POIKey(lat, lon float64, radius int) string {
	return "poi_" + coord(lat) + "_" + coord(lon) + "_" + strconv.Itoa(radius)
}

// poiQuery selects the venues that feed the feature vector.
func poiQuery(lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, coord(lat), coord(lon))
	selectors := []string{
		`node["amenity"="restaurant"]`,
		`node["amenity"="hospital"]`,
		`node["amenity"="police"]`,
		`node["leisure"="park"]`,
		`node["shop"]`,
		`node["highway"="bus_stop"]`,
		`node["railway"="station"]`,
		`way["highway"="footway"]`,
	}
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	for _, s := range selectors {
		b.WriteString("  " + s + around + ";\n")
	}
	b.WriteString(");\nout tags;")
	return b.String()
}

// overpassRequest posts an Overpass QL query as a form body.
func (c *Client) overpassRequest(query string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		form := url.Values{"data": {query}}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OverpassURL+"/api/interpreter", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
}

// POI counts venues within radius metres of a point. A non-positive radius
// uses the configured default. An unreachable upstream yields an
// error-tagged result.
func (c *Client) POI(ctx context.Context, lat, lon float64, radius int) types.POIResult {
	if radius <= 0 {
		radius = c.cfg.POIRadius
	}
	key := POIKey(lat, lon, radius)
	return shared(c, key, func() types.POIResult {
		return c.poi(ctx, lat, lon, radius, key)
	})
}

func (c *Client) poi(ctx context.Context, lat, lon float64, radius int, key string) types.POIResult {
	var res types.POIResult
	if c.cached(types.SourcePOI, key, &res) {
		res.Source = types.FromCache
		return res
	}

	data, err := fetch[overpassResponse](ctx, c, types.SourcePOI, upstreamOverpass, c.overpassRequest(poiQuery(lat, lon, radius)))
	if err != nil {
		c.degraded(types.SourcePOI, err, "POI lookup failed")
		return types.POIResult{Source: types.FromError, Error: "POI data unavailable", UpdatedAt: c.now()}
	}

	res = countPOIs(data.Elements)
	res.UpdatedAt = c.now()
	res.Source = types.FromAPI
	c.remember(types.SourcePOI, key, res)
	return res
}

func countPOIs(elements []overpassElement) types.POIResult {
	var res types.POIResult
	for _, e := range elements {
		t := e.Tags
		switch t["amenity"] {
		case "restaurant":
			res.Restaurants++
		case "hospital":
			res.Hospitals++
		case "police":
			res.Police++
		}
		if t["leisure"] == "park" {
			res.Parks++
		}
		if t["shop"] != "" {
			res.Shopping++
		}
		if t["highway"] == "bus_stop" || t["railway"] == "station" {
			res.Transport++
		}
		if e.Type == "way" && t["highway"] == "footway" {
			res.Footways++
		}
	}
	res.Total = len(elements)
	return res
}
