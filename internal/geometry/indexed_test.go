package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexedLocatorAgreesWithBoundary(t *testing.T) {
	b := mustBoundary(t, []Polygon{
		{Outer: square(0, 0, 10, 10), Holes: []Ring{square(4, 4, 6, 6)}},
		{Outer: square(20, 20, 30, 30)},
	})

	loc, err := NewIndexedLocator(b)
	require.NoError(t, err)

	points := []Point{
		{5, 2}, {5, 5}, {25, 25}, {15, 15}, {-1, -1}, {10.5, 5}, {0.5, 0.5},
		{29.9, 20.1}, {20, 35},
	}
	for _, p := range points {
		assert.Equal(t, b.Contains(p), loc.Contains(p), "point %+v", p)
	}
}

func TestIndexedLocatorSkipsDistantPolygons(t *testing.T) {
	b := mustBoundary(t, []Polygon{{Outer: square(0, 0, 1, 1)}})

	loc, err := NewIndexedLocator(b)
	require.NoError(t, err)

	assert.False(t, loc.Contains(Point{Lng: 100, Lat: 100}))
	assert.True(t, loc.Contains(Point{Lng: 0.5, Lat: 0.5}))
}
