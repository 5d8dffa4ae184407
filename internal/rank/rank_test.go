// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/neighborfit/pkg/types"
)

func uniform(r float64) types.Preferences {
	var p types.Preferences
	for _, f := range types.Factors {
		p.Set(f, r)
	}
	return p
}

func vector(x float64) types.FeatureVector {
	return types.FeatureVector{
		Safety: x, Walkability: x, Healthcare: x, FastInternet: x,
		Affordability: x, Restaurants: x, PublicTransport: x, ParksGreenery: x, AirQuality: 7,
	}
}

func TestDefaultWeightsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultWeights()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(types.Weights)
	}{
		{"negative", func(w types.Weights) { w[types.FactorSafety] = -0.22; w[types.FactorWalkability] += 0.44 }},
		{"missing factor", func(w types.Weights) { delete(w, types.FactorParksGreenery) }},
		{"sum too high", func(w types.Weights) { w[types.FactorSafety] += 0.01 }},
		{"extra factor", func(w types.Weights) { w["noise"] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(w)
			assert.ErrorIs(t, Validate(w), ErrInvalidWeights)
		})
	}
}

func TestUserVector(t *testing.T) {
	p := types.Preferences{Safety: 5, Walkability: 0.5, Healthcare: 9, FastInternet: 2.5}
	u := UserVector(p)
	assert.Equal(t, 10.0, u[0])
	assert.Equal(t, 2.0, u[1], "clamped up to 1")
	assert.Equal(t, 10.0, u[2], "clamped down to 5")
	assert.Equal(t, 5.0, u[3], "fractional ratings allowed")
	assert.Equal(t, 6.0, u[4], "unset reads as neutral")
}

func TestSimilarity_ProportionalVectorsScoreOne(t *testing.T) {
	p := types.Preferences{Safety: 5, Walkability: 4, Healthcare: 3, FastInternet: 2, Affordability: 1, Restaurants: 2, PublicTransport: 3, ParksGreenery: 4}
	u := UserVector(p)

	// Candidate vector equal to 0.8 x the user vector.
	var f types.FeatureVector
	f.Safety, f.Walkability, f.Healthcare, f.FastInternet = 8, 6.4, 4.8, 3.2
	f.Affordability, f.Restaurants, f.PublicTransport, f.ParksGreenery = 1.6, 3.2, 4.8, 6.4

	sim, _ := Similarity(u, f, DefaultWeights())
	assert.Equal(t, 1.0, sim)
}

func TestSimilarity_SafetyDominant(t *testing.T) {
	// A user who cares only about safety against a candidate strong only on
	// safety: the weighted vectors are parallel.
	p := uniform(1)
	p.Safety = 5
	var f types.FeatureVector
	f.Safety = 10
	f.Walkability, f.Healthcare, f.FastInternet, f.Affordability = 2, 2, 2, 2
	f.Restaurants, f.PublicTransport, f.ParksGreenery = 2, 2, 2

	sim, contribs := Similarity(UserVector(p), f, DefaultWeights())
	assert.Equal(t, 1.0, sim)
	require.Len(t, contribs, 8)
	assert.Equal(t, types.FactorSafety, contribs[0].Factor)
	assert.InDelta(t, 2.2, contribs[0].User, 1e-12)
	assert.InDelta(t, 2.2, contribs[0].Candidate, 1e-12)
	assert.InDelta(t, 4.84, contribs[0].Product, 1e-12)
	for _, c := range contribs {
		assert.InDelta(t, c.User*c.Candidate, c.Product, 1e-12, c.Factor)
	}
	// walkability: user 1*2 and candidate 2, both weighted by 0.18
	assert.InDelta(t, 0.36, contribs[1].User, 1e-12)
	assert.InDelta(t, 0.36, contribs[1].Candidate, 1e-12)
}

func TestSimilarity_Bounds(t *testing.T) {
	for _, r := range []float64{1, 2.5, 5} {
		for _, x := range []float64{2, 6, 10} {
			sim, _ := Similarity(UserVector(uniform(r)), vector(x), DefaultWeights())
			assert.GreaterOrEqual(t, sim, 0.0)
			assert.LessOrEqual(t, sim, 1.0)
		}
	}
}

func TestSimilarity_ZeroMagnitude(t *testing.T) {
	sim, contribs := Similarity(UserVector(uniform(3)), types.FeatureVector{}, DefaultWeights())
	assert.Equal(t, 0.0, sim)
	assert.Len(t, contribs, 8)
}

func TestSimilarity_RoundsToThreeDecimals(t *testing.T) {
	p := uniform(3)
	p.Safety = 5
	sim, _ := Similarity(UserVector(p), vector(5), DefaultWeights())
	assert.Equal(t, sim, float64(int(sim*1000+0.5))/1000)
	assert.Less(t, sim, 1.0)
}

func TestRank_SortsDescending(t *testing.T) {
	p := uniform(1)
	p.Safety = 5

	safe := vector(2)
	safe.Safety = 10

	scored := []Scored{
		{Candidate: types.Candidate{Name: "Flat"}, Features: vector(5)},
		{Candidate: types.Candidate{Name: "Safe"}, Features: safe, UsedDefaults: true, DataSources: []string{"poi:api"}},
	}
	out := Rank(p, scored, DefaultWeights())
	require.Len(t, out, 2)
	assert.Equal(t, "Safe", out[0].Candidate.Name)
	assert.Equal(t, 1.0, out[0].Similarity)
	assert.True(t, out[0].UsedDefaults)
	assert.Equal(t, []string{"poi:api"}, out[0].DataSources)
	assert.Greater(t, out[0].Similarity, out[1].Similarity)
}

func TestRank_StableTies(t *testing.T) {
	p := uniform(3)
	scored := []Scored{
		{Candidate: types.Candidate{Name: "A"}, Features: vector(5)},
		{Candidate: types.Candidate{Name: "B"}, Features: vector(7)},
		{Candidate: types.Candidate{Name: "C"}, Features: vector(9)},
	}
	out := Rank(p, scored, DefaultWeights())
	require.Len(t, out, 3)
	for _, r := range out {
		assert.Equal(t, 1.0, r.Similarity)
	}
	assert.Equal(t, "A", out[0].Candidate.Name)
	assert.Equal(t, "B", out[1].Candidate.Name)
	assert.Equal(t, "C", out[2].Candidate.Name)
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(uniform(3), nil, DefaultWeights()))
}
