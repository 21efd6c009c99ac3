package geofence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two adjacent unit squares: Masinloc covers lng 0..1, Santa Cruz lng 1..2,
// both lat 0..1. Iba is a land polygon at lng 3..4.
func testBoundaries() ([]Boundary, error) {
	return []Boundary{
		{
			Name:     "Masinloc",
			Kind:     "water",
			Geometry: []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`),
		},
		{
			Name:     "Santa Cruz",
			Kind:     "water",
			Geometry: []byte(`{"type":"Polygon","coordinates":[[[1,0],[2,0],[2,1],[1,1],[1,0]]]}`),
		},
		{
			Name:     "Iba",
			Kind:     "land",
			Geometry: []byte(`{"type":"Polygon","coordinates":[[[3,0],[4,0],[4,1],[3,1],[3,0]]]}`),
		},
	}, nil
}

func TestLocateInsidePolygon(t *testing.T) {
	ix := NewIndex(testBoundaries, 0.0002)

	name, ok := ix.Locate(0.5, 0.5) // lat, lng
	require.True(t, ok)
	assert.Equal(t, "Masinloc", name)

	name, ok = ix.Locate(0.5, 1.5)
	require.True(t, ok)
	assert.Equal(t, "Santa Cruz", name)
}

func TestLocateLandFallback(t *testing.T) {
	ix := NewIndex(testBoundaries, 0.0002)

	name, ok := ix.Locate(0.5, 3.5)
	require.True(t, ok)
	assert.Equal(t, "Iba", name)
}

func TestLocateBoundaryVertex(t *testing.T) {
	ix := NewIndex(testBoundaries, 0.0002)

	// Exactly on the corner of Masinloc: the ray cast misses but the
	// boundary-inclusive pass matches.
	name, ok := ix.Locate(0, 0)
	require.True(t, ok)
	assert.Equal(t, "Masinloc", name)
}

func TestLocateWithinTolerance(t *testing.T) {
	ix := NewIndex(testBoundaries, 0.0002)

	// Just outside the shared set, within tolerance of Santa Cruz's edge
	name, ok := ix.Locate(0.5, 2.0001)
	require.True(t, ok)
	assert.Equal(t, "Santa Cruz", name)

	_, ok = ix.Locate(0.5, 2.1)
	assert.False(t, ok)
}

func TestLocateSwappedAxes(t *testing.T) {
	rot, err := testBoundaries()
	require.NoError(t, err)
	// A ring mistakenly stored as (lat, lng): the square sits at lng 0..1,
	// lat 5..6, but its coordinates are written swapped.
	rot = append(rot, Boundary{
		Name:     "Candelaria",
		Kind:     "water",
		Geometry: []byte(`{"type":"Polygon","coordinates":[[[5,0],[6,0],[6,1],[5,1],[5,0]]]}`),
	})
	ix := NewIndex(func() ([]Boundary, error) { return rot, nil }, 0.0002)

	name, ok := ix.Locate(5.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "Candelaria", name)
}

func TestLocateNoMatch(t *testing.T) {
	ix := NewIndex(testBoundaries, 0.0002)

	_, ok := ix.Locate(45, 120)
	assert.False(t, ok)
}

func TestReloadSkipsBadGeometry(t *testing.T) {
	ix := NewIndex(func() ([]Boundary, error) {
		return []Boundary{
			{Name: "Broken", Kind: "water", Geometry: []byte(`{"not":"geojson"}`)},
			{Name: "Masinloc", Kind: "water", Geometry: []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)},
		}, nil
	}, 0)
	require.NoError(t, ix.Reload())

	_, ok := ix.Locate(0.5, 0.5)
	assert.True(t, ok)
	assert.False(t, ix.IsCoastal("Broken"))
}

func TestReloadFailureKeepsPreviousSet(t *testing.T) {
	fail := false
	ix := NewIndex(func() ([]Boundary, error) {
		if fail {
			return nil, errors.New("db down")
		}
		return testBoundaries()
	}, 0)
	require.NoError(t, ix.Reload())

	fail = true
	assert.Error(t, ix.Reload())

	name, ok := ix.Locate(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "Masinloc", name)
}

func TestIsCoastal(t *testing.T) {
	ix := NewIndex(testBoundaries, 0)

	assert.True(t, ix.IsCoastal("Masinloc"))
	assert.True(t, ix.IsCoastal("masinloc"))
	assert.False(t, ix.IsCoastal("Iba"), "land-only municipality is not coastal")
	assert.False(t, ix.IsCoastal(""))
}

func TestIsCoastalCaseMismatchedDataset(t *testing.T) {
	ix := NewIndex(func() ([]Boundary, error) {
		return []Boundary{
			{Name: "MASINLOC", Kind: "water", Geometry: []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`)},
		}, nil
	}, 0)

	assert.True(t, ix.IsCoastal("Masinloc"))
	assert.True(t, ix.IsCoastal("masinloc"))

	name, ok := ix.Locate(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "MASINLOC", name, "point lookups keep the name as loaded")
}
