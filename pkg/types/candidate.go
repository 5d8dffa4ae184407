// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared across the neighborfit engine:
// candidates, feature vectors, per-source results, match output and
// configuration.
package types

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Attributes holds the lifestyle scores a catalog entry may already carry.
// A nil field means the score is unknown and the baseline applies.
type Attributes struct {
	Safety          *float64 `json:"safety,omitempty" yaml:"safety,omitempty"`
	Walkability     *float64 `json:"walkability,omitempty" yaml:"walkability,omitempty"`
	Healthcare      *float64 `json:"healthcare,omitempty" yaml:"healthcare,omitempty"`
	FastInternet    *float64 `json:"fastInternet,omitempty" yaml:"fastInternet,omitempty"`
	Affordability   *float64 `json:"affordability,omitempty" yaml:"affordability,omitempty"`
	Restaurants     *float64 `json:"restaurants,omitempty" yaml:"restaurants,omitempty"`
	PublicTransport *float64 `json:"publicTransport,omitempty" yaml:"publicTransport,omitempty"`
	ParksGreenery   *float64 `json:"parksGreenery,omitempty" yaml:"parksGreenery,omitempty"`
	AirQuality      *float64 `json:"airQuality,omitempty" yaml:"airQuality,omitempty"`
}

// Candidate is one neighborhood considered by a match request. Catalog
// files use flat lat/lon and attribute fields, so both are inlined.
type Candidate struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name"`
	City string `json:"city" yaml:"city"`

	Lat *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`

	Attributes `yaml:",inline"`

	// OSMType and OSMID identify the OpenStreetMap element a discovered
	// candidate came from.
	OSMType string `json:"osmType,omitempty" yaml:"osmType,omitempty"`
	OSMID   int64  `json:"osmId,omitempty" yaml:"osmId,omitempty"`
}

// Coordinates returns the candidate's point, or false when it is unknown.
func (c Candidate) Coordinates() (Coordinates, bool) {
	if c.Lat == nil || c.Lon == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *c.Lat, Lon: *c.Lon}, true
}

// CityCentre is a city used as the origin for neighborhood discovery.
type CityCentre struct {
	Name string  `json:"name" yaml:"name" mapstructure:"name"`
	Lat  float64 `json:"lat" yaml:"lat" mapstructure:"lat"`
	Lon  float64 `json:"lon" yaml:"lon" mapstructure:"lon"`
}

// Float returns a pointer to v. Handy for building Attributes and
// coordinates in literals.
func Float(v float64) *float64 { return &v }
