package geometry

// Locator reports whether a point lies inside a boundary. Implementations
// must be pure and safe for concurrent use; Boundary itself is the
// reference implementation and IndexedLocator adds a bounding-box
// pre-filter for large multipolygons.
type Locator interface {
	Contains(p Point) bool
}

// Contains implements the even-odd rule over the multipolygon: a point is
// inside when some outer ring contains it and none of that polygon's holes
// do. A point exactly on a ring edge may classify either way; that is the
// standard ray-casting ambiguity and is accepted, since exact edge hits on
// geographic coordinates are vanishingly rare. No epsilon is applied at
// this layer; tolerance belongs to the callers that need it.
func (b *Boundary) Contains(p Point) bool {
	for i := range b.Polygons {
		if polygonContains(p, &b.Polygons[i]) {
			return true
		}
	}
	return false
}

// Contains reports whether the point lies inside the ring alone, ignoring
// any hole semantics. Used by readers that assign holes to outer rings.
func (r Ring) Contains(p Point) bool {
	return ringContains(p, r)
}

func polygonContains(p Point, poly *Polygon) bool {
	if !ringContains(p, poly.Outer) {
		return false
	}
	for _, hole := range poly.Holes {
		if ringContains(p, hole) {
			return false
		}
	}
	return true
}

// ringContains casts a ray in the +lng direction and counts edge crossings.
func ringContains(p Point, ring Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := range ring {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) &&
			p.Lng < (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat)+vi.Lng {
			inside = !inside
		}
		j = i
	}
	return inside
}
