// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Factor names one ranked lifestyle dimension.
type Factor string

const (
	FactorSafety          Factor = "safety"
	FactorWalkability     Factor = "walkability"
	FactorHealthcare      Factor = "healthcare"
	FactorFastInternet    Factor = "fastInternet"
	FactorAffordability   Factor = "affordability"
	FactorRestaurants     Factor = "restaurants"
	FactorPublicTransport Factor = "publicTransport"
	FactorParksGreenery   Factor = "parksGreenery"
)

// Factors lists the ranked dimensions in their canonical order. Contribution
// breakdowns and vector arithmetic follow this order.
var Factors = []Factor{
	FactorSafety,
	FactorWalkability,
	FactorHealthcare,
	FactorFastInternet,
	FactorAffordability,
	FactorRestaurants,
	FactorPublicTransport,
	FactorParksGreenery,
}

// FeatureVector is a candidate's lifestyle profile on a 0-10 scale.
// AirQuality is reported but never ranked.
type FeatureVector struct {
	Safety          float64 `json:"safety" yaml:"safety"`
	Walkability     float64 `json:"walkability" yaml:"walkability"`
	Healthcare      float64 `json:"healthcare" yaml:"healthcare"`
	FastInternet    float64 `json:"fastInternet" yaml:"fastInternet"`
	Affordability   float64 `json:"affordability" yaml:"affordability"`
	Restaurants     float64 `json:"restaurants" yaml:"restaurants"`
	PublicTransport float64 `json:"publicTransport" yaml:"publicTransport"`
	ParksGreenery   float64 `json:"parksGreenery" yaml:"parksGreenery"`
	AirQuality      float64 `json:"airQuality" yaml:"airQuality"`
}

// Get returns the value of a ranked factor. Unknown factors read as 0.
func (v FeatureVector) Get(f Factor) float64 {
	switch f {
	case FactorSafety:
		return v.Safety
	case FactorWalkability:
		return v.Walkability
	case FactorHealthcare:
		return v.Healthcare
	case FactorFastInternet:
		return v.FastInternet
	case FactorAffordability:
		return v.Affordability
	case FactorRestaurants:
		return v.Restaurants
	case FactorPublicTransport:
		return v.PublicTransport
	case FactorParksGreenery:
		return v.ParksGreenery
	}
	return 0
}

// Weights maps each ranked factor to its share of the similarity score.
type Weights map[Factor]float64
