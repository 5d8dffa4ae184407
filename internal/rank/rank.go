// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank scores candidates against a user's preferences by weighted
// cosine similarity and explains each score per factor.
package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/neighborfit/pkg/types"
)

// ErrInvalidWeights is returned by Validate.
var ErrInvalidWeights = errors.New("invalid factor weights")

const weightTolerance = 1e-6

// Neutral is the rating assumed for an unset preference.
const Neutral = 3

// DefaultWeights returns a fresh copy of the default factor weights.
func DefaultWeights() types.Weights {
	return types.Weights{
		types.FactorSafety:          0.22,
		types.FactorWalkability:     0.18,
		types.FactorHealthcare:      0.18,
		types.FactorFastInternet:    0.16,
		types.FactorAffordability:   0.12,
		types.FactorRestaurants:     0.06,
		types.FactorPublicTransport: 0.04,
		types.FactorParksGreenery:   0.04,
	}
}

// Validate checks that w covers every factor with a non-negative weight and
// sums to 1.
func Validate(w types.Weights) error {
	sum := 0.0
	for _, f := range types.Factors {
		x, ok := w[f]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidWeights, f)
		}
		if x < 0 || math.IsNaN(x) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidWeights, f, x)
		}
		sum += x
	}
	if len(w) != len(types.Factors) {
		return fmt.Errorf("%w: %d entries, want %d", ErrInvalidWeights, len(w), len(types.Factors))
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: sum is %v", ErrInvalidWeights, sum)
	}
	return nil
}

// Scored is a candidate with its features, ready to rank.
type Scored struct {
	Candidate    types.Candidate
	Features     types.FeatureVector
	UsedDefaults bool
	DataSources  []string
	Quality      *types.DataQuality
}

// UserVector clamps each rating to [1,5], reads 0 as Neutral, and scales to
// the 0-10 feature range.
func UserVector(p types.Preferences) [8]float64 {
	var u [8]float64
	for i, f := range types.Factors {
		r := p.Get(f)
		switch {
		case r == 0 || math.IsNaN(r):
			r = Neutral
		case r < 1:
			r = 1
		case r > 5:
			r = 5
		}
		u[i] = r * 2
	}
	return u
}

// Similarity returns the weighted cosine similarity of user and candidate
// vectors, clamped to [0,1] and rounded to three decimals, plus the
// per-factor contributions in factor order.
func Similarity(user [8]float64, feat types.FeatureVector, w types.Weights) (float64, []types.Contribution) {
	contribs := make([]types.Contribution, len(types.Factors))
	var dot, nu, nv float64
	for i, f := range types.Factors {
		wu := user[i] * w[f]
		wv := feat.Get(f) * w[f]
		dot += wu * wv
		nu += wu * wu
		nv += wv * wv
		contribs[i] = types.Contribution{Factor: f, User: wu, Candidate: wv, Product: wu * wv}
	}
	if nu == 0 || nv == 0 {
		return 0, contribs
	}
	sim := dot / (math.Sqrt(nu) * math.Sqrt(nv))
	sim = math.Max(0, math.Min(1, sim))
	return math.Round(sim*1000) / 1000, contribs
}

// Rank scores every candidate and sorts by similarity, highest first. Equal
// scores keep their input order.
func Rank(prefs types.Preferences, scored []Scored, w types.Weights) []types.MatchResult {
	user := UserVector(prefs)

	out := make([]types.MatchResult, len(scored))
	for i, s := range scored {
		sim, contribs := Similarity(user, s.Features, w)
		out[i] = types.MatchResult{
			Candidate:     s.Candidate,
			Features:      s.Features,
			Similarity:    sim,
			Contributions: contribs,
			UsedDefaults:  s.UsedDefaults,
			DataSources:   s.DataSources,
			DataQuality:   s.Quality,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
