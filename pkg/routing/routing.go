// Package routing returns road-following paths between two points by
// chaining routing backends, with an optional straight-line fallback for
// when every backend misses.
package routing

import (
	"context"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// Result is one backend's answer for a routing request.
type Result struct {
	Route           geometry.Route
	DistanceMeters  float64
	DurationSeconds float64
}

// Provider is a single routing backend. A nil result with a nil error
// means no route was found between the points.
type Provider interface {
	Name() string
	Available() bool
	Route(ctx context.Context, from, to geometry.Point) (*Result, error)
}

// StraightLine is the terminal fallback provider: a two-point route at
// great-circle distance. Useful as the last chain element so a segment
// always gets some geometry.
type StraightLine struct{}

// Name implements Provider.
func (StraightLine) Name() string { return "straight-line" }

// Available implements Provider.
func (StraightLine) Available() bool { return true }

// Route implements Provider.
func (StraightLine) Route(_ context.Context, from, to geometry.Point) (*Result, error) {
	return &Result{
		Route:          geometry.Route{from, to},
		DistanceMeters: geometry.Haversine(from, to) * 1000,
	}, nil
}
