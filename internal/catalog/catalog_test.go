// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/neighborfit/internal/metrics"
	"github.com/pdiddy/neighborfit/pkg/types"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeTemp(t, "n.json", `[
		{"name":"Bandra West","city":"Mumbai","lat":19.06,"lon":72.83,"safety":8,"walkability":7},
		{"id":"fixed","name":"Koramangala","city":"Bengaluru"}
	]`)

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Bandra West", got[0].Name)
	assert.Equal(t, CandidateID("Bandra West", "Mumbai"), got[0].ID)
	require.NotNil(t, got[0].Safety)
	assert.Equal(t, 8.0, *got[0].Safety)
	assert.Nil(t, got[0].Healthcare)
	pt, ok := got[0].Coordinates()
	assert.True(t, ok)
	assert.Equal(t, 72.83, pt.Lon)

	assert.Equal(t, "fixed", got[1].ID)
	_, ok = got[1].Coordinates()
	assert.False(t, ok)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeTemp(t, "n.yml", `
- name: Salt Lake
  city: Kolkata
  parksGreenery: 9
- name: Navrangpura
  city: Ahmedabad
`)
	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].ParksGreenery)
	assert.Equal(t, 9.0, *got[0].ParksGreenery)
	assert.NotEmpty(t, got[1].ID)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(writeTemp(t, "n.csv", "name,city"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(writeTemp(t, "n.json", "{not json"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFile_RoundTripsThroughLoad(t *testing.T) {
	in := []types.Candidate{{Name: "Aundh", City: "Pune", Lat: types.Float(18.56), Lon: types.Float(73.81)}}
	for _, name := range []string{"out/c.json", "out/c.yaml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteFile(path, in))
		got, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Aundh", got[0].Name)
		assert.Equal(t, 18.56, *got[0].Lat)
	}
	assert.ErrorIs(t, WriteFile(filepath.Join(t.TempDir(), "c.txt"), in), ErrUnsupportedFormat)
}

func TestCandidateID_StableAndCaseInsensitive(t *testing.T) {
	assert.Equal(t, CandidateID("Powai", "Mumbai"), CandidateID("powai", "MUMBAI"))
	assert.NotEqual(t, CandidateID("Powai", "Mumbai"), CandidateID("Powai", "Pune"))
}

func TestDedupe(t *testing.T) {
	in := []types.Candidate{
		{Name: "Powai", City: "Mumbai", OSMID: 1},
		{Name: "powai", City: "mumbai", OSMID: 2},
		{Name: "Powai", City: "Pune"},
		{Name: "  ", City: "Mumbai"},
	}
	out, removed := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, 2, removed)
	assert.Equal(t, int64(1), out[0].OSMID, "first occurrence wins")
}

func TestFilterCity(t *testing.T) {
	in := []types.Candidate{{Name: "A", City: "Delhi"}, {Name: "B", City: "Mumbai"}, {Name: "C", City: "delhi"}}
	assert.Len(t, FilterCity(in, "DELHI"), 2)
	assert.Len(t, FilterCity(in, ""), 3)
	assert.Empty(t, FilterCity(in, "Chennai"))
}

func TestCatalog(t *testing.T) {
	c := New([]types.Candidate{
		{Name: "Adyar", City: "Chennai"},
		{Name: "Adyar", City: "Chennai"},
		{Name: "Banjara Hills", City: "Hyderabad"},
	})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CatalogSize))

	all := c.All()
	all[0].Name = "mutated"
	assert.Equal(t, "Adyar", c.All()[0].Name, "All returns a copy")
	assert.NotEmpty(t, c.All()[0].ID)

	assert.Len(t, c.ByCity("hyderabad"), 1)

	c.Replace(nil)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CatalogSize))
}

type fakeFinder struct {
	places map[string][]types.Candidate
	fail   map[string]bool
	radius []int
}

func (f *fakeFinder) Places(_ context.Context, city types.CityCentre, radius int) ([]types.Candidate, error) {
	f.radius = append(f.radius, radius)
	if f.fail[city.Name] {
		return nil, errors.New("overpass down")
	}
	return f.places[city.Name], nil
}

func TestDiscover_SkipsFailingCity(t *testing.T) {
	f := &fakeFinder{
		places: map[string][]types.Candidate{
			"Delhi":  {{Name: "Saket", City: "Delhi"}, {Name: "Saket", City: "Delhi"}},
			"Mumbai": {{Name: "Juhu", City: "Mumbai"}},
		},
		fail: map[string]bool{"Pune": true},
	}
	d := NewDiscoverer(f, 0)
	got, err := d.Discover(context.Background(), []types.CityCentre{{Name: "Delhi"}, {Name: "Pune"}, {Name: "Mumbai"}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Saket", got[0].Name)
	assert.Equal(t, "Juhu", got[1].Name)
	assert.NotEmpty(t, got[1].ID)
	assert.Equal(t, []int{DefaultRadius, DefaultRadius, DefaultRadius}, f.radius)
}

func TestDiscover_AllFail(t *testing.T) {
	f := &fakeFinder{fail: map[string]bool{"Delhi": true}}
	_, err := NewDiscoverer(f, 5000).Discover(context.Background(), []types.CityCentre{{Name: "Delhi"}})
	assert.Error(t, err)
}

func TestDiscover_DefaultCities(t *testing.T) {
	f := &fakeFinder{}
	got, err := NewDiscoverer(f, 1000).Discover(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, f.radius, len(DefaultCities))
	assert.Equal(t, 1000, f.radius[0])
}

func TestDiscover_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDiscoverer(&fakeFinder{}, 0).Discover(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
