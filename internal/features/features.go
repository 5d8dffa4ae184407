// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package features turns adapter results into the fixed feature vector the
// ranker compares. Every factor starts at a baseline; a factor moves only when
// its source delivered live data (fresh or cached) carrying a usable signal.
package features

import (
	"math"
	"strings"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// Score bounds applied to every factor.
const (
	MinScore = 2
	MaxScore = 10
)

// heavyRain is the precipitation, in millimetres, above which safety drops.
const heavyRain = 30

// Baseline is the vector used when no source overrides a factor.
var Baseline = types.FeatureVector{
	Safety:          7,
	Walkability:     5,
	Healthcare:      5,
	FastInternet:    8,
	Affordability:   5,
	Restaurants:     5,
	PublicTransport: 5,
	ParksGreenery:   5,
	AirQuality:      7,
}

// Derive builds the feature vector from the four adapter results. usedDefaults
// is true when no override fired, meaning the vector is the baseline apart
// from the rain adjustment. The location result contributes no factor of its
// own; it only decided where POI and weather were fetched.
func Derive(_ types.LocationResult, poi types.POIResult, weather types.WeatherResult, demo types.DemographicsResult) (types.FeatureVector, bool) {
	v := Baseline
	overridden := false

	countOverride := func(dst *float64, n int) {
		if n > 0 {
			*dst = math.Min(MaxScore, 5+float64(n))
			overridden = true
		}
	}

	if poi.Source.Live() {
		countOverride(&v.Safety, poi.Police)
		countOverride(&v.Walkability, poi.Footways)
		countOverride(&v.Healthcare, poi.Hospitals)
		countOverride(&v.Restaurants, poi.Restaurants)
		countOverride(&v.PublicTransport, poi.Transport)
		countOverride(&v.ParksGreenery, poi.Parks)
	}

	if weather.Source.Live() {
		if weather.AirQualityIndex != nil {
			v.AirQuality = math.Max(MinScore, 10-*weather.AirQualityIndex/50)
			overridden = true
		}
		if weather.Precipitation > heavyRain {
			v.Safety = math.Max(MinScore, v.Safety-2)
		}
	}

	if demo.Source.Live() {
		if demo.Region != "" {
			if strings.EqualFold(demo.Region, "Asia") {
				v.FastInternet = 8
			} else {
				v.FastInternet = 6
			}
			overridden = true
		}
		if demo.TotalPopulation > 0 {
			v.Affordability = math.Min(MaxScore, 10-float64(demo.TotalPopulation)/1e8)
			overridden = true
		}
	}

	return Clamp(v), !overridden
}

// FromAttributes builds a vector from a candidate's stored attributes, using
// the baseline for any that are missing.
func FromAttributes(c types.Candidate) types.FeatureVector {
	v := Baseline
	pick := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	a := c.Attributes
	pick(&v.Safety, a.Safety)
	pick(&v.Walkability, a.Walkability)
	pick(&v.Healthcare, a.Healthcare)
	pick(&v.FastInternet, a.FastInternet)
	pick(&v.Affordability, a.Affordability)
	pick(&v.Restaurants, a.Restaurants)
	pick(&v.PublicTransport, a.PublicTransport)
	pick(&v.ParksGreenery, a.ParksGreenery)
	pick(&v.AirQuality, a.AirQuality)
	return Clamp(v)
}

// Clamp bounds every factor to [MinScore, MaxScore]. NaN becomes MinScore.
func Clamp(v types.FeatureVector) types.FeatureVector {
	for _, p := range []*float64{
		&v.Safety, &v.Walkability, &v.Healthcare, &v.FastInternet, &v.Affordability,
		&v.Restaurants, &v.PublicTransport, &v.ParksGreenery, &v.AirQuality,
	} {
		*p = clamp(*p)
	}
	return v
}

func clamp(x float64) float64 {
	if math.IsNaN(x) || x < MinScore {
		return MinScore
	}
	if x > MaxScore {
		return MaxScore
	}
	return x
}

// Quality scores how many of the four sources delivered live data, from
// provenance labels such as "poi:cache".
func Quality(dataSources []string) types.DataQuality {
	q := types.DataQuality{Total: len(types.Sources), Sources: dataSources}
	for _, ds := range dataSources {
		_, tag, ok := strings.Cut(ds, ":")
		if ok && types.Provenance(tag).Live() {
			q.Available++
		}
	}
	if q.Total > 0 {
		q.Score = math.Round(float64(q.Available) / float64(q.Total) * 100)
	}
	return q
}
