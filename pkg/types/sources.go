// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SourceID identifies one upstream data provider. Each source has its own
// rate-limit queue and cache TTL class.
type SourceID string

const (
	SourceLocation     SourceID = "location"
	SourcePOI          SourceID = "poi"
	SourceWeather      SourceID = "weather"
	SourceDemographics SourceID = "demographics"
)

// Sources lists every upstream source in enrichment order.
var Sources = []SourceID{SourceLocation, SourcePOI, SourceWeather, SourceDemographics}

// Provenance records how an adapter produced its result.
type Provenance string

const (
	FromCache    Provenance = "cache"
	FromAPI      Provenance = "api"
	FromFallback Provenance = "fallback"
	FromError    Provenance = "error"
)

// Live reports whether the result carries upstream data, fresh or cached.
// Fallback and error results never override a feature baseline.
func (p Provenance) Live() bool {
	return p == FromCache || p == FromAPI
}

// LocationResult is the geocoded position of a named neighborhood.
type LocationResult struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lng"`
	DisplayName string    `json:"displayName,omitempty"`
	Type        string    `json:"type,omitempty"`
	Importance  float64   `json:"importance,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Source Provenance `json:"source"`
	Error  string     `json:"error,omitempty"`
}

// POIResult counts points of interest around a coordinate.
type POIResult struct {
	Restaurants int       `json:"restaurants"`
	Hospitals   int       `json:"hospitals"`
	Parks       int       `json:"parks"`
	Shopping    int       `json:"shopping"`
	Transport   int       `json:"transport"`
	Police      int       `json:"police"`
	Footways    int       `json:"footways"`
	Total       int       `json:"totalPOIs"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Source Provenance `json:"source"`
	Error  string     `json:"error,omitempty"`
}

// DefaultAQI is the European AQI reported when air quality is unknown.
const DefaultAQI = 50

// WeatherResult is the current weather and air quality at a coordinate.
type WeatherResult struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	Precipitation float64 `json:"precipitation"`
	Description   string  `json:"weatherDescription"`
	// AirQualityIndex is nil when the air-quality endpoint gave no reading.
	AirQualityIndex *float64  `json:"airQuality,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Source Provenance `json:"source"`
	Error  string     `json:"error,omitempty"`
}

// AQI returns the air-quality index, or DefaultAQI when unknown.
func (w WeatherResult) AQI() float64 {
	if w.AirQualityIndex == nil {
		return DefaultAQI
	}
	return *w.AirQualityIndex
}

// StatePopulation is one row of the demographics state table.
type StatePopulation struct {
	Name       string `json:"name"`
	Population int64  `json:"population"`
}

// DemographicsResult is country-level demographic data.
type DemographicsResult struct {
	TotalPopulation int64             `json:"totalPopulation"`
	States          []StatePopulation `json:"states,omitempty"`
	Category        string            `json:"category"`
	Capital         string            `json:"capital,omitempty"`
	Region          string            `json:"region,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	Source Provenance `json:"source"`
	Error  string     `json:"error,omitempty"`
}
