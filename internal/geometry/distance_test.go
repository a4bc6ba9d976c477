package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Orlando to Tampa, roughly 135 km.
	orlando := Point{Lng: -81.3792, Lat: 28.5383}
	tampa := Point{Lng: -82.4572, Lat: 27.9506}

	d := Haversine(orlando, tampa)
	assert.InDelta(t, 135, d, 5)

	assert.Zero(t, Haversine(orlando, orlando))
}

func TestRouteLengthKM(t *testing.T) {
	// One degree of latitude is ~111.19 km at this radius.
	route := Route{{0, 0}, {0, 1}, {0, 2}}
	assert.InDelta(t, 222.4, RouteLengthKM(route), 0.5)

	assert.Zero(t, RouteLengthKM(Route{{0, 0}}))
	assert.Zero(t, RouteLengthKM(nil))
}

func TestDetourRatio(t *testing.T) {
	tests := []struct {
		name               string
		routeKM, straightKM float64
		want               float64
	}{
		{"normal detour", 12.0, 10.0, 1.2},
		{"straight route", 10.0, 10.0, 1.0},
		{"near-zero straight distance", 3.0, 0.01, 1.0},
		{"exactly at threshold", 3.0, 0.05, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DetourRatio(tt.routeKM, tt.straightKM), 1e-9)
		})
	}
}

func TestSeparationL1(t *testing.T) {
	assert.InDelta(t, 0.0025, SeparationL1(Point{-81.5, 28.7}, Point{-81.501, 28.7015}), 1e-9)
	assert.Zero(t, SeparationL1(Point{1, 2}, Point{1, 2}))
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"perpendicular to middle", Point{5, 3}, Point{0, 0}, Point{10, 0}, 3},
		{"beyond segment end", Point{13, 4}, Point{0, 0}, Point{10, 0}, 5},
		{"before segment start", Point{-3, 4}, Point{0, 0}, Point{10, 0}, 5},
		{"degenerate segment", Point{3, 4}, Point{0, 0}, Point{0, 0}, 5},
		{"on the segment", Point{5, 0}, Point{0, 0}, Point{10, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SegmentDistance(tt.p, tt.a, tt.b), 1e-9)
		})
	}
}

func TestDistanceToOutline(t *testing.T) {
	b := mustBoundary(t, []Polygon{{Outer: square(0, 0, 10, 10)}})

	assert.InDelta(t, 2.0, b.DistanceToOutline(Point{Lng: 12, Lat: 5}), 1e-9)
	assert.InDelta(t, 1.0, b.DistanceToOutline(Point{Lng: 5, Lat: 9}), 1e-9)
}
