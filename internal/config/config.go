// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the neighborfit configuration from defaults, a
// YAML file, a .env file, NEIGHBORFIT_* environment variables and the
// .secrets/ directory, in increasing order of precedence except that
// secrets only fill values left empty.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g.
// NEIGHBORFIT_CACHE_PATH for cache.path.
const EnvPrefix = "NEIGHBORFIT"

// Name is the config file base name searched for in the working directory
// and ~/.config/neighborfit.
const Name = "neighborfit"

// Secret file names read from the secrets directory.
const (
	SecretNominatimEmail = "nominatim-email"
)

// Defaults returns the built-in configuration.
func Defaults() types.Config {
	return types.Config{
		Log: types.LogConfig{Level: "info", Format: "console"},
		Cache: types.CacheConfig{
			Path:          filepath.Join("cache", "api-cache.json"),
			SweepInterval: time.Hour,
			TTL: types.CacheTTLConfig{
				Location:     24 * time.Hour,
				POI:          48 * time.Hour,
				Weather:      24 * time.Hour,
				Demographics: 48 * time.Hour,
			},
		},
		RateLimit: types.RateLimitConfig{Default: 3 * time.Second},
		Breaker:   types.BreakerConfig{ConsecutiveFailures: 5, OpenTimeout: 2 * time.Minute},
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:     10 * time.Second,
				UserAgent:   "neighborfit/0.1",
				MaxAttempts: 2,
			},
			NominatimURL:         "https://nominatim.openstreetmap.org",
			OverpassURL:          "https://overpass-api.de",
			OpenMeteoURL:         "https://api.open-meteo.com",
			AirQualityURL:        "https://air-quality-api.open-meteo.com",
			RestCountriesURL:     "https://restcountries.com",
			Country:              "India",
			POIRadius:            2000,
			DefaultCoordinates:   types.Coordinates{Lat: 19.0760, Lon: 72.8777},
			DemographicsCategory: "demographics",
		},
		Match: types.MatchConfig{
			PoolCap:         20,
			RealtimeResults: 10,
			StaticResults:   5,
			Shuffle:         true,
			EnrichTimeout:   90 * time.Second,
		},
		Catalog: types.CatalogConfig{Radius: 15000},
		Server: types.ServerConfig{
			Addr:              ":3001",
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			ShutdownTimeout:   15 * time.Second,
		},
	}
}

// SetDefaults registers every default key on v. Registering each key is
// also what lets AutomaticEnv see overrides for keys absent from the file.
func SetDefaults(v *viper.Viper) {
	d := Defaults()

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("cache.sweep_interval", d.Cache.SweepInterval)
	v.SetDefault("cache.ttl.location", d.Cache.TTL.Location)
	v.SetDefault("cache.ttl.poi", d.Cache.TTL.POI)
	v.SetDefault("cache.ttl.weather", d.Cache.TTL.Weather)
	v.SetDefault("cache.ttl.demographics", d.Cache.TTL.Demographics)

	v.SetDefault("rate_limit.default", d.RateLimit.Default)
	for _, id := range types.Sources {
		v.SetDefault("rate_limit."+string(id), time.Duration(0))
	}

	v.SetDefault("breaker.consecutive_failures", d.Breaker.ConsecutiveFailures)
	v.SetDefault("breaker.open_timeout", d.Breaker.OpenTimeout)

	v.SetDefault("sources.timeout", d.Sources.Timeout)
	v.SetDefault("sources.user_agent", d.Sources.UserAgent)
	v.SetDefault("sources.max_attempts", d.Sources.MaxAttempts)
	v.SetDefault("sources.nominatim_url", d.Sources.NominatimURL)
	v.SetDefault("sources.overpass_url", d.Sources.OverpassURL)
	v.SetDefault("sources.open_meteo_url", d.Sources.OpenMeteoURL)
	v.SetDefault("sources.air_quality_url", d.Sources.AirQualityURL)
	v.SetDefault("sources.rest_countries_url", d.Sources.RestCountriesURL)
	v.SetDefault("sources.country", d.Sources.Country)
	v.SetDefault("sources.contact_email", "")
	v.SetDefault("sources.poi_radius", d.Sources.POIRadius)
	v.SetDefault("sources.default_coordinates.lat", d.Sources.DefaultCoordinates.Lat)
	v.SetDefault("sources.default_coordinates.lon", d.Sources.DefaultCoordinates.Lon)
	v.SetDefault("sources.demographics_category", d.Sources.DemographicsCategory)

	v.SetDefault("match.pool_cap", d.Match.PoolCap)
	v.SetDefault("match.realtime_results", d.Match.RealtimeResults)
	v.SetDefault("match.static_results", d.Match.StaticResults)
	v.SetDefault("match.shuffle", d.Match.Shuffle)
	v.SetDefault("match.enrich_timeout", d.Match.EnrichTimeout)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.discover", false)
	v.SetDefault("catalog.radius", d.Catalog.Radius)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.rate_limit_requests", d.Server.RateLimitRequests)
	v.SetDefault("server.rate_limit_window", d.Server.RateLimitWindow)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

// Setup points v at the config file (explicit path, or neighborfit.yaml in
// the working directory or ~/.config/neighborfit), enables environment
// overrides, and registers defaults. It does not read anything.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// LoadDotEnv copies variables from a .env file into the process
// environment without overriding ones already set. A missing file is fine.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Read loads the config file if one is found. It returns the file used, or
// "" when none exists. A file that exists but cannot be parsed is an error.
func Read(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config, fills empty values from secrets, and
// validates the result.
func Load(v *viper.Viper, secrets map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Sources.ContactEmail == "" {
		cfg.Sources.ContactEmail = secrets[SecretNominatimEmail]
	}
	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func Validate(cfg types.Config) error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(cfg.Log.Format == "json" || cfg.Log.Format == "console", "log.format must be json or console, got %q", cfg.Log.Format)
	for _, id := range types.Sources {
		check(cfg.Cache.TTL.For(id) >= time.Millisecond, "cache.ttl.%s must be at least 1ms", id)
		check(cfg.RateLimit.Interval(id) >= 0, "rate_limit.%s must not be negative", id)
	}
	check(cfg.Sources.MaxAttempts >= 1, "sources.max_attempts must be at least 1")
	check(cfg.Sources.POIRadius > 0, "sources.poi_radius must be positive")
	check(cfg.Match.PoolCap > 0, "match.pool_cap must be positive")
	check(cfg.Match.RealtimeResults > 0 && cfg.Match.StaticResults > 0, "match result counts must be positive")
	check(cfg.Server.RateLimitRequests > 0, "server.rate_limit_requests must be positive")

	return errors.Join(errs...)
}
