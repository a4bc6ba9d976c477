// Package geofile reads and writes the engine's on-disk formats: GeoJSON
// feature collections for boundaries and segment inventories, and
// shapefiles for boundary sources.
package geofile

import (
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/geometry"
	"github.com/sells-group/roadaudit/internal/segment"
)

// GeoJSON property keys for segment features. These match the CMS
// inventory files the engine consumes and produces.
const (
	PropSegmentID   = "SEGMENT_ID"
	PropRoadName    = "RoadName"
	PropFrom        = "From"
	PropTo          = "To"
	PropRouteStatus = "Route_Status"
	PropRouteKM     = "Route_Distance_km"
	PropRoutePoints = "Route_Points"
	PropDetourRatio = "Detour_Ratio"
	PropQAFlag      = "QA_Flag"
)

// ReadBoundary loads a boundary from a GeoJSON feature collection. When
// name is non-empty, the feature whose NAME property matches (case
// insensitive) is used; otherwise every polygonal feature contributes.
func ReadBoundary(path, name string) (*geometry.Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geofile: parse %s", path)
	}

	var polygons []geometry.Polygon
	for _, f := range fc.Features {
		if name != "" && !strings.EqualFold(featureName(f.Properties), name) {
			continue
		}
		polygons = append(polygons, polygonsFromGeom(f.Geometry)...)
	}
	if len(polygons) == 0 {
		return nil, eris.Errorf("geofile: no boundary polygons for %q in %s", name, path)
	}

	b, err := geometry.NewBoundary(boundaryName(name, path), polygons)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: boundary %s", path)
	}
	return b, nil
}

// ReadSegments loads a segment inventory from a GeoJSON feature
// collection. Features without line geometry are kept with an empty
// route so the auditor can still see them.
func ReadSegments(path string) ([]*segment.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "geofile: parse %s", path)
	}

	segs := make([]*segment.Segment, 0, len(fc.Features))
	for _, f := range fc.Features {
		props := f.Properties
		s := segment.New(
			propString(props, PropSegmentID),
			propString(props, PropRoadName),
			propString(props, PropFrom),
			propString(props, PropTo),
			routeFromGeom(f.Geometry),
		)
		s.SetRoute(s.Route)
		if raw := propString(props, PropRouteStatus); raw != "" {
			s.Status = segment.RouteStatus(raw)
		}
		s.QAFlag = propString(props, PropQAFlag)
		segs = append(segs, s)
	}

	zap.L().Info("geofile: segments loaded",
		zap.String("path", path),
		zap.Int("count", len(segs)),
	)
	return segs, nil
}

// WriteSegments writes the inventory back out as a GeoJSON feature
// collection, one MultiLineString feature per segment.
func WriteSegments(path string, segs []*segment.Segment) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(segs))}
	for _, s := range segs {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: routeToGeom(s.Route),
			Properties: map[string]interface{}{
				PropSegmentID:   s.ID,
				PropRoadName:    s.RoadName,
				PropFrom:        s.From,
				PropTo:          s.To,
				PropRouteStatus: string(s.Status),
				PropRouteKM:     round2(s.RouteKM),
				PropRoutePoints: len(s.Route),
				PropDetourRatio: round2(s.DetourRatio),
				PropQAFlag:      s.QAFlag,
			},
		})
	}

	data, err := json.MarshalIndent(&fc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "geofile: encode segments")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geofile: write %s", path)
	}

	zap.L().Info("geofile: segments written",
		zap.String("path", path),
		zap.Int("count", len(segs)),
	)
	return nil
}

func boundaryName(name, path string) string {
	if name != "" {
		return name
	}
	return path
}

// featureName pulls a display name out of feature properties, accepting
// the common casings.
func featureName(props map[string]interface{}) string {
	for _, key := range []string{"NAME", "Name", "name"} {
		if v := propString(props, key); v != "" {
			return v
		}
	}
	return ""
}

func propString(props map[string]interface{}, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// polygonsFromGeom flattens a Polygon or MultiPolygon into boundary
// polygons; other geometry types contribute nothing.
func polygonsFromGeom(g geom.T) []geometry.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		if p, ok := convertPolygon(t); ok {
			return []geometry.Polygon{p}
		}
	case *geom.MultiPolygon:
		var out []geometry.Polygon
		for i := 0; i < t.NumPolygons(); i++ {
			if p, ok := convertPolygon(t.Polygon(i)); ok {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

func convertPolygon(p *geom.Polygon) (geometry.Polygon, bool) {
	if p.NumLinearRings() == 0 {
		return geometry.Polygon{}, false
	}
	out := geometry.Polygon{Outer: ringFromCoords(p.LinearRing(0).Coords())}
	for i := 1; i < p.NumLinearRings(); i++ {
		out.Holes = append(out.Holes, ringFromCoords(p.LinearRing(i).Coords()))
	}
	return out, true
}

func ringFromCoords(coords []geom.Coord) geometry.Ring {
	ring := make(geometry.Ring, 0, len(coords))
	for _, c := range coords {
		ring = append(ring, geometry.Point{Lng: c[0], Lat: c[1]})
	}
	return ring
}

// routeFromGeom extracts a polyline from a LineString or the first line
// of a MultiLineString, the two shapes the CMS files use.
func routeFromGeom(g geom.T) geometry.Route {
	switch t := g.(type) {
	case *geom.LineString:
		return routeFromCoords(t.Coords())
	case *geom.MultiLineString:
		if t.NumLineStrings() > 0 {
			return routeFromCoords(t.LineString(0).Coords())
		}
	}
	return nil
}

func routeFromCoords(coords []geom.Coord) geometry.Route {
	route := make(geometry.Route, 0, len(coords))
	for _, c := range coords {
		route = append(route, geometry.Point{Lng: c.X(), Lat: c.Y()})
	}
	return route
}

func routeToGeom(route geometry.Route) geom.T {
	flat := make([]float64, 0, len(route)*2)
	for _, p := range route {
		flat = append(flat, p.Lng, p.Lat)
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, []int{len(flat)})
}
