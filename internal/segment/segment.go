// Package segment defines the road-segment model shared by the clipper,
// the auditor, and the IO layers: a segment's textual identity (road name
// and cross streets), its routed geometry, and the lifecycle status the
// audit writes back.
package segment

import (
	"github.com/sells-group/roadaudit/internal/geometry"
)

// RouteStatus is the lifecycle tag attached to a segment's route by the
// auditor. FIXED, CLIPPED, and STILL_FLAGGED are terminal for a pass; a
// later pass may re-open them. CLEAN is never re-processed.
type RouteStatus string

const (
	StatusUnchecked    RouteStatus = "UNCHECKED"
	StatusClean        RouteStatus = "CLEAN"
	StatusFlagged      RouteStatus = "FLAGGED"
	StatusFixed        RouteStatus = "FIXED"
	StatusClipped      RouteStatus = "CLIPPED"
	StatusStillFlagged RouteStatus = "STILL_FLAGGED"
)

// Terminal reports whether the status ends an audit pass for the segment.
func (s RouteStatus) Terminal() bool {
	switch s {
	case StatusClean, StatusFixed, StatusClipped, StatusStillFlagged:
		return true
	}
	return false
}

// Segment is one road segment from a CMS inventory: a road name, the two
// cross streets bounding it, and the routed polyline between them.
type Segment struct {
	ID       string
	RoadName string
	From     string
	To       string

	Route geometry.Route

	// Derived route properties, recomputed whenever the geometry changes.
	RouteKM     float64
	StraightKM  float64
	DetourRatio float64

	Status RouteStatus
	QAFlag string
}

// New returns a segment in the UNCHECKED state.
func New(id, road, from, to string, route geometry.Route) *Segment {
	return &Segment{
		ID:       id,
		RoadName: road,
		From:     from,
		To:       to,
		Route:    route,
		Status:   StatusUnchecked,
	}
}

// SetRoute replaces the segment's geometry with a new polyline and
// recomputes the derived distance properties. The previous slice is left
// untouched for any caller still holding it.
func (s *Segment) SetRoute(route geometry.Route) {
	s.Route = route
	s.RouteKM = geometry.RouteLengthKM(route)
	if len(route) >= 2 {
		s.StraightKM = geometry.Haversine(route[0], route[len(route)-1])
	} else {
		s.StraightKM = 0
	}
	s.DetourRatio = geometry.DetourRatio(s.RouteKM, s.StraightKM)
}

// ZeroLength reports whether the segment's endpoints sit closer together
// than minSeparation (L1, degrees), the collapsed-geocode case.
func (s *Segment) ZeroLength(minSeparation float64) bool {
	if len(s.Route) < 2 {
		return true
	}
	return geometry.SeparationL1(s.Route[0], s.Route[len(s.Route)-1]) <= minSeparation
}
