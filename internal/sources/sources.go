// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources wraps the free public APIs that enrich a candidate:
// Nominatim for geocoding, Overpass for points of interest, Open-Meteo for
// weather and air quality, and REST Countries for demographics.
//
// Every adapter follows the same contract. It reads the cache first. On a
// miss it calls the upstream through a per-upstream circuit breaker and the
// source's rate-limit queue, normalizes the payload and caches it. When the
// upstream cannot be reached it returns a fallback or an error-tagged result.
// Adapters never return an error to the caller.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/neighborfit/internal/cache"
	"github.com/pdiddy/neighborfit/internal/httputil"
	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/metrics"
	"github.com/pdiddy/neighborfit/internal/ratelimit"
	"github.com/pdiddy/neighborfit/pkg/types"
)

// Default upstream endpoints. Config values override them.
var (
	NominatimURL     = "https://nominatim.openstreetmap.org"
	OverpassURL      = "https://overpass-api.de"
	OpenMeteoURL     = "https://api.open-meteo.com"
	AirQualityURL    = "https://air-quality-api.open-meteo.com"
	RestCountriesURL = "https://restcountries.com"
)

// Upstream names, used for breakers and metrics.
const (
	upstreamNominatim     = "nominatim"
	upstreamOverpass      = "overpass"
	upstreamOpenMeteo     = "open-meteo"
	upstreamAirQuality    = "open-meteo-air"
	upstreamRestCountries = "restcountries"
)

var upstreams = []string{
	upstreamNominatim,
	upstreamOverpass,
	upstreamOpenMeteo,
	upstreamAirQuality,
	upstreamRestCountries,
}

const (
	defaultUserAgent      = "neighborfit/0.1"
	defaultCountry        = "India"
	defaultPOIRadius      = 2000
	defaultCategory       = "demographics"
	defaultBreakerFails   = 5
	defaultBreakerTimeout = 2 * time.Minute
)

// DefaultCoordinates is the position used when neither geocoding nor the
// catalog knows where a candidate is (central Mumbai).
var DefaultCoordinates = types.Coordinates{Lat: 19.0760, Lon: 72.8777}

// errAbandoned marks a call cut short by the caller's context. The breaker
// does not count it against the upstream.
var errAbandoned = errors.New("call abandoned")

// Client runs the source adapters. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	cfg      types.SourcesConfig
	ttl      types.CacheTTLConfig
	store    *cache.Store
	limits   *ratelimit.Registry
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
	flights  singleflight.Group
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New returns a Client. Zero config values take package defaults.
func New(cfg types.SourcesConfig, ttl types.CacheTTLConfig, breaker types.BreakerConfig, store *cache.Store, limits *ratelimit.Registry, opts ...Option) *Client {
	applyDefaults(&cfg, &ttl)

	c := &Client{
		http:     &http.Client{},
		cfg:      cfg,
		ttl:      ttl,
		store:    store,
		limits:   limits,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}], len(upstreams)),
		log:      logging.Component("sources"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, name := range upstreams {
		c.breakers[name] = newBreaker(name, breaker, c.log)
	}
	return c
}

func applyDefaults(cfg *types.SourcesConfig, ttl *types.CacheTTLConfig) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.NominatimURL == "" {
		cfg.NominatimURL = NominatimURL
	}
	if cfg.OverpassURL == "" {
		cfg.OverpassURL = OverpassURL
	}
	if cfg.OpenMeteoURL == "" {
		cfg.OpenMeteoURL = OpenMeteoURL
	}
	if cfg.AirQualityURL == "" {
		cfg.AirQualityURL = AirQualityURL
	}
	if cfg.RestCountriesURL == "" {
		cfg.RestCountriesURL = RestCountriesURL
	}
	if cfg.Country == "" {
		cfg.Country = defaultCountry
	}
	if cfg.POIRadius <= 0 {
		cfg.POIRadius = defaultPOIRadius
	}
	if cfg.DemographicsCategory == "" {
		cfg.DemographicsCategory = defaultCategory
	}
	if cfg.DefaultCoordinates == (types.Coordinates{}) {
		cfg.DefaultCoordinates = DefaultCoordinates
	}
	if ttl.Location <= 0 {
		ttl.Location = 24 * time.Hour
	}
	if ttl.POI <= 0 {
		ttl.POI = 48 * time.Hour
	}
	if ttl.Weather <= 0 {
		ttl.Weather = 24 * time.Hour
	}
	if ttl.Demographics <= 0 {
		ttl.Demographics = 48 * time.Hour
	}
}

//nolint:gocritic // zerolog.Logger is passed by value
func newBreaker(name string, cfg types.BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	fails := cfg.ConsecutiveFailures
	if fails == 0 {
		fails = defaultBreakerFails
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	metrics.SetBreakerState(name, stateValue(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= fails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("upstream", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.SetBreakerState(name, stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errAbandoned)
		},
	})
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BreakerStates reports each upstream's breaker state by name.
func (c *Client) BreakerStates() map[string]string {
	out := make(map[string]string, len(c.breakers))
	for name, cb := range c.breakers {
		out[name] = cb.State().String()
	}
	return out
}

// DefaultCoordinates returns the configured last-resort position.
func (c *Client) DefaultCoordinates() types.Coordinates {
	return c.cfg.DefaultCoordinates
}

// shared runs load once for every concurrent caller asking for key. Callers
// that join an in-flight load get its result instead of queueing their own
// upstream call; later callers find the value in the cache.
func shared[T any](c *Client, key string, load func() T) T {
	v, _, _ := c.flights.Do(key, func() (any, error) {
		return load(), nil
	})
	return v.(T)
}

// fetch runs one upstream call for source through its breaker, its rate-limit
// queue and the retry policy.
func fetch[T any](ctx context.Context, c *Client, source types.SourceID, upstream string, build httputil.RequestFunc) (T, error) {
	var out T
	start := time.Now()

	policy := httputil.Policy{
		Timeout:     c.cfg.Timeout,
		MaxAttempts: c.cfg.MaxAttempts,
		Gate: func(ctx context.Context, attempt func(context.Context) error) error {
			return c.limits.Schedule(ctx, source, attempt)
		},
	}

	_, err := c.breakers[upstream].Execute(func() (struct{}, error) {
		v, err := httputil.FetchJSON[T](ctx, c.http, c.withHeaders(build), policy)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, fmt.Errorf("%w: %w", errAbandoned, err)
			}
			return struct{}{}, err
		}
		out = v
		return struct{}{}, nil
	})

	outcome := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "breaker_open"
	case errors.Is(err, errAbandoned):
		outcome = "canceled"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordUpstream(string(source), upstream, outcome, time.Since(start))
	c.log.Debug().Str("source", string(source)).Str("upstream", upstream).Str("outcome", outcome).Dur("took", time.Since(start)).Msg("upstream call")

	return out, err
}

func (c *Client) withHeaders(build httputil.RequestFunc) httputil.RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		return req, nil
	}
}

// cached loads key into v and reports a hit, recording the lookup.
func (c *Client) cached(source types.SourceID, key string, v any) bool {
	hit := c.store.GetJSON(key, v)
	metrics.RecordCacheLookup(string(source), hit)
	return hit
}

// remember writes v under key with the source's TTL. A persistence failure
// is already logged by the store and does not affect the result.
func (c *Client) remember(source types.SourceID, key string, v any) {
	if err := c.store.Set(key, v, c.ttl.For(source)); err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("cache write not persisted")
	}
}

// degraded logs and counts a fallback or error-tagged result.
func (c *Client) degraded(source types.SourceID, err error, msg string) {
	metrics.RecordFallback(string(source))
	c.log.Warn().Err(err).Str("source", string(source)).Msg(msg)
}
