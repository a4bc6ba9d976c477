// Package geometry provides the planar primitives for county boundary
// containment: point-in-multipolygon tests, segment intersection, and the
// distance helpers shared by the clipper and the auditor. All coordinates
// are geographic longitude/latitude in degrees; no reprojection is applied.
package geometry

import (
	"github.com/rotisserie/eris"
)

// Point is an immutable longitude/latitude pair in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Route is an ordered polyline. Functions in this module never mutate a
// Route in place; results are always fresh slices.
type Route []Point

// Ring is an ordered sequence of vertices forming a simple closed ring.
// The closing edge from the last vertex back to the first is implicit.
type Ring []Point

// Polygon is one outer ring plus zero or more hole rings. The outer/hole
// classification is fixed at construction and never re-derived.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Boundary is an authoritative region: an ordered set of polygons, possibly
// disjoint, each possibly with holes. A Boundary is immutable after
// construction and safe for concurrent reads.
type Boundary struct {
	Name     string
	Polygons []Polygon
}

// NewBoundary validates rings and returns a Boundary. Empty, degenerate, or
// self-intersecting rings are programming errors at the call boundary and
// fail fast; no geometric fallback is meaningful for a malformed boundary.
func NewBoundary(name string, polygons []Polygon) (*Boundary, error) {
	if len(polygons) == 0 {
		return nil, eris.Errorf("geometry: boundary %q has no polygons", name)
	}
	for i := range polygons {
		polygons[i].Outer = normalizeRing(polygons[i].Outer)
		if err := validateRing(polygons[i].Outer); err != nil {
			return nil, eris.Wrapf(err, "geometry: boundary %q polygon %d outer ring", name, i)
		}
		for j := range polygons[i].Holes {
			polygons[i].Holes[j] = normalizeRing(polygons[i].Holes[j])
			if err := validateRing(polygons[i].Holes[j]); err != nil {
				return nil, eris.Wrapf(err, "geometry: boundary %q polygon %d hole %d", name, i, j)
			}
		}
	}
	return &Boundary{Name: name, Polygons: polygons}, nil
}

// normalizeRing drops an explicit closing vertex so rings are stored open.
func normalizeRing(r Ring) Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

func validateRing(r Ring) error {
	if len(r) == 0 {
		return eris.New("empty ring")
	}
	if len(r) < 3 {
		return eris.Errorf("ring has %d vertices, need at least 3", len(r))
	}
	if i, j, ok := selfIntersection(r); ok {
		return eris.Errorf("ring self-intersects: edge %d crosses edge %d", i, j)
	}
	return nil
}

// selfIntersection reports the first pair of non-adjacent edges that cross.
// Collinear overlaps are not detected (the parametric test treats them as
// parallel); boundaries in this corpus never exhibit them.
func selfIntersection(r Ring) (int, int, bool) {
	n := len(r)
	for i := 0; i < n; i++ {
		a1, a2 := r[i], r[(i+1)%n]
		for j := i + 2; j < n; j++ {
			// Skip the edge pair sharing the wrap-around vertex.
			if i == 0 && j == n-1 {
				continue
			}
			b1, b2 := r[j], r[(j+1)%n]
			if _, ok := SegmentIntersection(a1, a2, b1, b2); ok {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// Clone returns an independent copy of the route.
func (r Route) Clone() Route {
	out := make(Route, len(r))
	copy(out, r)
	return out
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BBox) Contains(p Point) bool {
	return p.Lng >= b.MinLng && p.Lng <= b.MaxLng && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// RingBBox computes the bounding box of a ring.
func RingBBox(r Ring) BBox {
	bb := BBox{MinLng: r[0].Lng, MinLat: r[0].Lat, MaxLng: r[0].Lng, MaxLat: r[0].Lat}
	for _, p := range r[1:] {
		if p.Lng < bb.MinLng {
			bb.MinLng = p.Lng
		}
		if p.Lng > bb.MaxLng {
			bb.MaxLng = p.Lng
		}
		if p.Lat < bb.MinLat {
			bb.MinLat = p.Lat
		}
		if p.Lat > bb.MaxLat {
			bb.MaxLat = p.Lat
		}
	}
	return bb
}
