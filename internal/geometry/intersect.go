package geometry

// parallelEps bounds the determinant below which two segments are treated
// as parallel and reported as non-intersecting.
const parallelEps = 1e-12

// SegmentIntersection solves the parametric intersection of segments a1-a2
// and b1-b2. It returns the intersection point only when the parameters on
// both segments lie in [0, 1]; parallel segments and intersections outside
// either span report no intersection. Pure function; candidate selection
// among multiple boundary edges is the caller's concern.
func SegmentIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	p, _, ok := segmentIntersectionT(a1, a2, b1, b2)
	return p, ok
}

// segmentIntersectionT additionally reports the parameter t along a1-a2,
// which the clipper uses to pick the crossing nearest the inside endpoint.
func segmentIntersectionT(a1, a2, b1, b2 Point) (Point, float64, bool) {
	denom := (a1.Lng-a2.Lng)*(b1.Lat-b2.Lat) - (a1.Lat-a2.Lat)*(b1.Lng-b2.Lng)
	if denom < parallelEps && denom > -parallelEps {
		return Point{}, 0, false
	}

	t := ((a1.Lng-b1.Lng)*(b1.Lat-b2.Lat) - (a1.Lat-b1.Lat)*(b1.Lng-b2.Lng)) / denom
	u := -((a1.Lng-a2.Lng)*(a1.Lat-b1.Lat) - (a1.Lat-a2.Lat)*(a1.Lng-b1.Lng)) / denom

	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, 0, false
	}

	return Point{
		Lng: a1.Lng + t*(a2.Lng-a1.Lng),
		Lat: a1.Lat + t*(a2.Lat-a1.Lat),
	}, t, true
}

// RingCrossing finds where the segment a1-a2 crosses the ring, preferring
// the crossing nearest a1. Returns false when no edge intersects.
func RingCrossing(a1, a2 Point, ring Ring) (Point, bool) {
	var best Point
	bestT := 2.0
	found := false

	n := len(ring)
	for i := 0; i < n; i++ {
		b1 := ring[i]
		b2 := ring[(i+1)%n]
		p, t, ok := segmentIntersectionT(a1, a2, b1, b2)
		if ok && t < bestT {
			best, bestT, found = p, t, true
		}
	}
	return best, found
}
