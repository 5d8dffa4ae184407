// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/catalog"
	"github.com/pdiddy/neighborfit/internal/match"
	"github.com/pdiddy/neighborfit/internal/sources"
	"github.com/pdiddy/neighborfit/pkg/types"
)

type stubEnricher struct{}

func (stubEnricher) Enrich(_ context.Context, c types.Candidate) sources.Bundle {
	return sources.Bundle{
		Location:     types.LocationResult{Source: types.FromAPI},
		POI:          types.POIResult{Source: types.FromAPI, Police: 3},
		Weather:      types.WeatherResult{Source: types.FromAPI},
		Demographics: types.DemographicsResult{Source: types.FromAPI},
		DataSources:  []string{"location:api", "poi:api", "weather:api", "demographics:api"},
	}
}

type stubDiscoverer struct {
	found []types.Candidate
	err   error
}

func (d stubDiscoverer) Discover(context.Context, []types.CityCentre) ([]types.Candidate, error) {
	return d.found, d.err
}

func staticCatalog() *catalog.Catalog {
	return catalog.New([]types.Candidate{
		{Name: "Bandra West", City: "Mumbai", Attributes: types.Attributes{Safety: types.Float(9)}},
		{Name: "Andheri", City: "Mumbai"},
		{Name: "Koramangala", City: "Bengaluru", Attributes: types.Attributes{FastInternet: types.Float(10)}},
	})
}

func newTestServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()
	m, err := match.New(stubEnricher{}, types.MatchConfig{})
	require.NoError(t, err)
	deps := Deps{Matcher: m, Static: staticCatalog()}
	if mutate != nil {
		mutate(&deps)
	}
	s := New(deps, types.ServerConfig{RateLimitRequests: 1000, RateLimitWindow: time.Minute})
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const validPrefs = `{"safety":5,"walkability":3,"healthcare":4,"fastInternet":2,"affordability":3,"restaurants":1,"publicTransport":2,"parksGreenery":3}`

func TestInfo(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.Algorithm, body["algorithm"])
	assert.Contains(t, body["endpoints"], "/match")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t, nil).Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestMatch_Static(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodPost, "/match", `{"userPrefs":`+validPrefs+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "static", body["dataSource"])
	assert.Equal(t, types.Algorithm, body["algorithm"])
	assert.Equal(t, false, body["enrichmentWarning"])
	assert.Equal(t, float64(3), body["totalNeighborhoods"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["lastUpdated"])

	prefs := body["userPreferences"].(map[string]any)
	assert.Equal(t, float64(5), prefs["safety"])

	top := body["topMatches"].([]any)
	require.Len(t, top, 3)
	first := top[0].(map[string]any)
	assert.Equal(t, "Bandra West", first["neighborhood"].(map[string]any)["name"])
	assert.Contains(t, first, "similarity")
	assert.Len(t, body["weights"], 8)
}

func TestMatch_CityFilter(t *testing.T) {
	_, body := do(t, newTestServer(t, nil), http.MethodPost, "/match", `{"city":"bengaluru","userPrefs":`+validPrefs+`}`)
	top := body["topMatches"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, float64(1), body["totalNeighborhoods"])
}

func TestMatch_RealtimePrefersLiveCatalog(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Live = catalog.New([]types.Candidate{{Name: "Hauz Khas", City: "Delhi"}})
	})
	rec, body := do(t, s, http.MethodPost, "/match", `{"useRealTimeData":true,"userPrefs":`+validPrefs+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "realtime", body["dataSource"])
	top := body["topMatches"].([]any)
	require.Len(t, top, 1)
	m := top[0].(map[string]any)
	assert.Equal(t, "Hauz Khas", m["neighborhood"].(map[string]any)["name"])
	assert.Equal(t, false, m["usedDefaults"])
	assert.Equal(t, false, body["enrichmentWarning"])
}

func TestMatch_RealtimeFallsBackToStaticPool(t *testing.T) {
	_, body := do(t, newTestServer(t, nil), http.MethodPost, "/match", `{"useRealTimeData":true,"userPrefs":`+validPrefs+`}`)
	assert.Equal(t, float64(3), body["totalNeighborhoods"])
}

func TestMatch_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMissing []any
		wantInvalid []any
	}{
		{
			name:        "missing fields",
			body:        `{"userPrefs":{"safety":5,"walkability":3,"healthcare":4,"fastInternet":2,"affordability":3,"restaurants":1}}`,
			wantMissing: []any{"publicTransport", "parksGreenery"},
		},
		{
			name:        "no preferences at all",
			body:        `{}`,
			wantMissing: []any{"safety", "walkability", "healthcare", "fastInternet", "affordability", "restaurants", "publicTransport", "parksGreenery"},
		},
		{
			name:        "out of range",
			body:        `{"userPrefs":{"safety":6,"walkability":3,"healthcare":0.5,"fastInternet":2,"affordability":3,"restaurants":1,"publicTransport":2,"parksGreenery":3}}`,
			wantInvalid: []any{"safety", "healthcare"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, newTestServer(t, nil), http.MethodPost, "/match", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			if tt.wantMissing != nil {
				assert.Equal(t, tt.wantMissing, body["missingFields"])
			}
			if tt.wantInvalid != nil {
				assert.Equal(t, tt.wantInvalid, body["invalidFields"])
			}
		})
	}
}

func TestMatch_MalformedBody(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodPost, "/match", `{"userPrefs":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", body["error"])

	rec, _ = do(t, newTestServer(t, nil), http.MethodPost, "/match", `{"userPrefs":{"safety":"high"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatch_NotConfigured(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.Matcher = nil })
	rec, _ := do(t, s, http.MethodPost, "/match", `{"userPrefs":`+validPrefs+`}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNeighborhoods(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := do(t, s, http.MethodGet, "/neighborhoods", "")
	assert.Equal(t, float64(3), body["totalCount"])
	assert.Equal(t, "static", body["dataSource"])

	_, body = do(t, s, http.MethodGet, "/neighborhoods?city=Mumbai", "")
	assert.Equal(t, float64(2), body["totalCount"])

	_, body = do(t, s, http.MethodGet, "/neighborhoods?source=live", "")
	assert.Equal(t, float64(0), body["totalCount"])
	assert.Equal(t, []any{}, body["neighborhoods"])
}

func TestStatus(t *testing.T) {
	store := cache.Open("")
	require.NoError(t, store.Set("weather_1_2", map[string]int{"t": 1}, time.Hour))

	s := newTestServer(t, func(d *Deps) {
		d.Store = store
		d.Breakers = func() map[string]string { return map[string]string{"overpass": "open", "nominatim": "closed"} }
	})
	rec, body := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])

	c := body["cache"].(map[string]any)
	assert.Equal(t, float64(1), c["total"])
	assert.Equal(t, float64(1), c["valid"])

	n := body["neighborhoods"].(map[string]any)
	assert.Equal(t, float64(3), n["static"])
	assert.Equal(t, "open", body["breakers"].(map[string]any)["overpass"])
}

func TestStatus_Operational(t *testing.T) {
	s := newTestServer(t, func(d *Deps) {
		d.Breakers = func() map[string]string { return map[string]string{"overpass": "closed"} }
	})
	_, body := do(t, s, http.MethodGet, "/api/status", "")
	assert.Equal(t, "operational", body["status"])
	assert.NotContains(t, body, "cache")
}

func TestRefreshNeighborhoods(t *testing.T) {
	found := []types.Candidate{{Name: "Salt Lake", City: "Kolkata"}, {Name: "salt lake", City: "kolkata"}}
	live := catalog.New(nil)
	s := newTestServer(t, func(d *Deps) {
		d.Live = live
		d.Discoverer = stubDiscoverer{found: found}
	})
	rec, body := do(t, s, http.MethodPost, "/api/refresh-neighborhoods", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 1, live.Len())
}

func TestRefreshNeighborhoods_Errors(t *testing.T) {
	rec, _ := do(t, newTestServer(t, nil), http.MethodPost, "/api/refresh-neighborhoods", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s := newTestServer(t, func(d *Deps) { d.Discoverer = stubDiscoverer{err: errors.New("overpass down")} })
	rec, body := do(t, s, http.MethodPost, "/api/refresh-neighborhoods", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body["message"], "overpass down")
}

func TestNotFound(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", body["error"])
	assert.Contains(t, body["availableEndpoints"], "/match")
}

func TestMethodNotAllowed(t *testing.T) {
	rec, _ := do(t, newTestServer(t, nil), http.MethodGet, "/match", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := do(t, newTestServer(t, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "neighborfit_catalog_candidates")
}
