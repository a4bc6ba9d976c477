package audit

import (
	"context"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// RepairProvider resolves a textual road intersection to a replacement
// endpoint inside (or confidently near) the boundary. Implementations are
// external collaborators, rate-limited and fallible, so the auditor wraps
// every call in a timeout, a retry budget, and a breaker.
// A nil point with a nil error means "no confident match", which is an
// expected outcome, not a failure.
type RepairProvider interface {
	Geocode(ctx context.Context, road, cross string, loc geometry.Locator) (*geometry.Point, error)
}

// RoutingProvider returns a road-following path between two points along
// with its distance in meters. A nil route with a nil error means no path
// was found.
type RoutingProvider interface {
	Route(ctx context.Context, a, b geometry.Point) (geometry.Route, float64, error)
}
