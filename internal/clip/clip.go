// Package clip trims routed polylines to an authoritative boundary. The
// clipped route keeps every inside point and gains an interpolated crossing
// point at each boundary transition, so it stays geometrically continuous
// instead of teleporting across the border.
package clip

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// Clip returns the portion of the route inside the boundary, with crossing
// points inserted at inside/outside transitions. The input is never
// mutated; the result is always a fresh slice.
//
// Geometric edge cases degrade to documented fallbacks rather than errors:
// an all-outside route comes back unchanged (a reportable anomaly, not a
// failure), a transition whose crossing cannot be computed emits the
// endpoint nearer the boundary, and a clip that would collapse below two
// points falls back to the inside points, then to the unmodified input.
// The only error is the invariant violation of an empty route.
func Clip(route geometry.Route, b *geometry.Boundary) (geometry.Route, error) {
	if len(route) == 0 {
		return nil, eris.New("clip: route has no points")
	}
	if len(route) == 1 {
		return route.Clone(), nil
	}

	inside := make([]bool, len(route))
	insideCount := 0
	for i, p := range route {
		if b.Contains(p) {
			inside[i] = true
			insideCount++
		}
	}

	// Fast paths: nothing to trim, or nothing to keep. A route with zero
	// interior samples is never silently discarded.
	if insideCount == len(route) || insideCount == 0 {
		return route.Clone(), nil
	}

	clipped := make(geometry.Route, 0, len(route)+2)
	if inside[0] {
		clipped = append(clipped, route[0])
	}
	for i := 1; i < len(route); i++ {
		switch {
		case inside[i] && inside[i-1]:
			clipped = append(clipped, route[i])
		case inside[i] && !inside[i-1]:
			// Entering: crossing point, then the inside point.
			clipped = append(clipped, crossing(route[i], route[i-1], b), route[i])
		case !inside[i] && inside[i-1]:
			// Leaving: crossing point only.
			clipped = append(clipped, crossing(route[i-1], route[i], b))
		default:
			// Both outside: skip.
		}
	}

	if len(clipped) < 2 {
		clipped = clipped[:0]
		for i, p := range route {
			if inside[i] {
				clipped = append(clipped, p)
			}
		}
		if len(clipped) < 2 {
			return route.Clone(), nil
		}
	}

	return clipped, nil
}

// crossing finds where the segment from the inside point to the outside
// point crosses the boundary, testing outer rings in order and keeping the
// first ring's intersection (nearest the inside point within that ring).
// Boundaries are non-self-overlapping by construction, so ordinarily at
// most one true crossing exists per segment. When rounding leaves no edge
// hit, the endpoint nearer the boundary outline stands in, keeping the
// route usable.
func crossing(in, out geometry.Point, b *geometry.Boundary) geometry.Point {
	for i := range b.Polygons {
		if p, ok := geometry.RingCrossing(in, out, b.Polygons[i].Outer); ok {
			return p
		}
	}
	if b.DistanceToOutline(out) < b.DistanceToOutline(in) {
		return out
	}
	return in
}
