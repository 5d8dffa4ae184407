// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// CacheTTLConfig holds the time-to-live per data kind.
type CacheTTLConfig struct {
	Location     time.Duration `json:"location" yaml:"location" mapstructure:"location"`
	POI          time.Duration `json:"poi" yaml:"poi" mapstructure:"poi"`
	Weather      time.Duration `json:"weather" yaml:"weather" mapstructure:"weather"`
	Demographics time.Duration `json:"demographics" yaml:"demographics" mapstructure:"demographics"`
}

// For returns the TTL for a source.
func (c CacheTTLConfig) For(id SourceID) time.Duration {
	switch id {
	case SourceLocation:
		return c.Location
	case SourcePOI:
		return c.POI
	case SourceWeather:
		return c.Weather
	case SourceDemographics:
		return c.Demographics
	}
	return 0
}

// CacheConfig holds settings for the durable TTL cache.
type CacheConfig struct {
	// Path is the JSON store file. Empty keeps the cache in memory only.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// SweepInterval is how often expired entries are purged (default 1h).
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval" mapstructure:"sweep_interval"`

	TTL CacheTTLConfig `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// RateLimitConfig holds the minimum interval between consecutive calls to
// each source. Zero means use Default.
type RateLimitConfig struct {
	Default      time.Duration `json:"default" yaml:"default" mapstructure:"default"`
	Location     time.Duration `json:"location" yaml:"location" mapstructure:"location"`
	POI          time.Duration `json:"poi" yaml:"poi" mapstructure:"poi"`
	Weather      time.Duration `json:"weather" yaml:"weather" mapstructure:"weather"`
	Demographics time.Duration `json:"demographics" yaml:"demographics" mapstructure:"demographics"`
}

// Interval returns the configured interval for a source, or Default.
func (c RateLimitConfig) Interval(id SourceID) time.Duration {
	var d time.Duration
	switch id {
	case SourceLocation:
		d = c.Location
	case SourcePOI:
		d = c.POI
	case SourceWeather:
		d = c.Weather
	case SourceDemographics:
		d = c.Demographics
	}
	if d <= 0 {
		return c.Default
	}
	return d
}

// BreakerConfig holds per-upstream circuit breaker settings.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker (default 5).
	ConsecutiveFailures uint32 `json:"consecutive_failures" yaml:"consecutive_failures" mapstructure:"consecutive_failures"`

	// OpenTimeout is how long the breaker stays open before probing (default 2m).
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout" mapstructure:"open_timeout"`
}

// HTTPConfig holds shared HTTP settings for upstream calls.
type HTTPConfig struct {
	// Timeout bounds a single attempt (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every upstream request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxAttempts is the total number of tries per call (default 2).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`
}

// SourcesConfig holds upstream endpoints and adapter settings.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	NominatimURL     string `json:"nominatim_url" yaml:"nominatim_url" mapstructure:"nominatim_url"`
	OverpassURL      string `json:"overpass_url" yaml:"overpass_url" mapstructure:"overpass_url"`
	OpenMeteoURL     string `json:"open_meteo_url" yaml:"open_meteo_url" mapstructure:"open_meteo_url"`
	AirQualityURL    string `json:"air_quality_url" yaml:"air_quality_url" mapstructure:"air_quality_url"`
	RestCountriesURL string `json:"rest_countries_url" yaml:"rest_countries_url" mapstructure:"rest_countries_url"`

	// Country scopes geocoding and demographics (default India).
	Country string `json:"country" yaml:"country" mapstructure:"country"`

	// ContactEmail is sent to Nominatim per its usage policy.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty" mapstructure:"contact_email"`

	// POIRadius is the search radius in metres around a candidate (default 2000).
	POIRadius int `json:"poi_radius" yaml:"poi_radius" mapstructure:"poi_radius"`

	// DefaultCoordinates is used when neither geocoding nor the catalog
	// supplies a position.
	DefaultCoordinates Coordinates `json:"default_coordinates" yaml:"default_coordinates" mapstructure:"default_coordinates"`

	// DemographicsCategory labels the demographics lookup (default demographics).
	DemographicsCategory string `json:"demographics_category" yaml:"demographics_category" mapstructure:"demographics_category"`
}

// MatchConfig holds orchestrator settings.
type MatchConfig struct {
	// PoolCap bounds how many candidates are scored per request (default 20).
	PoolCap int `json:"pool_cap" yaml:"pool_cap" mapstructure:"pool_cap"`

	RealtimeResults int `json:"realtime_results" yaml:"realtime_results" mapstructure:"realtime_results"`
	StaticResults   int `json:"static_results" yaml:"static_results" mapstructure:"static_results"`

	// Shuffle randomizes the pool before capping in realtime mode.
	Shuffle bool `json:"shuffle" yaml:"shuffle" mapstructure:"shuffle"`

	// EnrichTimeout bounds the whole enrichment phase (default 90s).
	EnrichTimeout time.Duration `json:"enrich_timeout" yaml:"enrich_timeout" mapstructure:"enrich_timeout"`
}

// CatalogConfig holds candidate catalog settings.
type CatalogConfig struct {
	// Path is a JSON or YAML candidate file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Discover populates the catalog from Overpass at startup.
	Discover bool `json:"discover" yaml:"discover" mapstructure:"discover"`

	// Radius is the discovery radius in metres around each city (default 15000).
	Radius int `json:"radius" yaml:"radius" mapstructure:"radius"`

	Cities []CityCentre `json:"cities,omitempty" yaml:"cities,omitempty" mapstructure:"cities"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr" mapstructure:"addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP.
	RateLimitRequests int           `json:"rate_limit_requests" yaml:"rate_limit_requests" mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `json:"rate_limit_window" yaml:"rate_limit_window" mapstructure:"rate_limit_window"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Config groups every section of the neighborfit configuration.
type Config struct {
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Breaker   BreakerConfig   `json:"breaker" yaml:"breaker" mapstructure:"breaker"`
	Sources   SourcesConfig   `json:"sources" yaml:"sources" mapstructure:"sources"`
	Match     MatchConfig     `json:"match" yaml:"match" mapstructure:"match"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}
