// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/neighborfit/pkg/types"
)

const allPrefs = "safety=5,walkability=4,healthcare=3,fastInternet=2,affordability=1,restaurants=3,publicTransport=4,parksGreenery=5"

func TestParsePrefs(t *testing.T) {
	p, err := parsePrefs(allPrefs)
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.Safety)
	assert.Equal(t, 2.0, p.FastInternet)
	assert.Equal(t, 4.0, p.PublicTransport)
	assert.Equal(t, 5.0, p.ParksGreenery)
	require.NoError(t, validatePrefs(p))
}

func TestParsePrefsErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no equals", "safety", "want name=value"},
		{"not a number", "safety=high", "safety=high"},
		{"unknown factor", "nightlife=5", "unknown preference"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePrefs(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidatePrefs(t *testing.T) {
	p, err := parsePrefs("safety=5,walkability=7,healthcare=0.5")
	require.NoError(t, err)

	err = validatePrefs(p)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing: fastInternet")
	assert.Contains(t, msg, "parksGreenery")
	assert.Contains(t, msg, "must be between 1 and 5: walkability, healthcare")
	assert.NotContains(t, msg, "safety")
}

func TestReadPrefsFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "prefs.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"safety":5,"walkability":4,"healthcare":3,"fastInternet":2,"affordability":1,"restaurants":3,"publicTransport":4,"parksGreenery":5}`), 0o644))
	yamlPath := filepath.Join(dir, "prefs.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("safety: 5\nwalkability: 4\nhealthcare: 3\nfastInternet: 2\naffordability: 1\nrestaurants: 3\npublicTransport: 4\nparksGreenery: 5\n"), 0o644))

	want, err := parsePrefs(allPrefs)
	require.NoError(t, err)

	for _, path := range []string{jsonPath, yamlPath} {
		got, err := readPrefsFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err = readPrefsFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPrintMatches(t *testing.T) {
	out := types.MatchOutput{
		Results: []types.MatchResult{
			{Candidate: types.Candidate{Name: "Bandra West", City: "Mumbai"}, Similarity: 0.9731},
			{
				Candidate:    types.Candidate{Name: "Koramangala", City: "Bengaluru"},
				Similarity:   0.91,
				UsedDefaults: true,
				DataQuality:  &types.DataQuality{Score: 0},
			},
		},
		EnrichmentWarning: true,
		PoolSize:          30,
		Enriched:          20,
		DataSource:        types.DataSourceRealtime,
		Algorithm:         types.Algorithm,
	}

	var buf bytes.Buffer
	printMatches(&buf, out)
	s := buf.String()
	assert.Contains(t, s, "realtime matches (weighted-cosine-similarity, 20 of 30 candidates scored)")
	assert.Contains(t, s, "Bandra West")
	assert.Contains(t, s, "0.973")
	assert.Contains(t, s, "defaults (0%)")
	assert.Contains(t, s, "warning: live data was unavailable")
}
