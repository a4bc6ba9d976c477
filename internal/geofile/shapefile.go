package geofile

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// ReadBoundaryShapefile loads a boundary from a polygon shapefile. When
// name is non-empty, only records whose NAME attribute matches (case
// insensitive) contribute; otherwise every record does.
//
// Shapefile ring orientation is the usual convention: clockwise parts are
// outer rings, counter-clockwise parts are holes. Holes are attached to
// the first outer ring that contains them.
func ReadBoundaryShapefile(path, name string) (*geometry.Boundary, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, "NAME")
	if name != "" && nameIdx < 0 {
		return nil, eris.Errorf("geofile: shapefile %s has no NAME field", path)
	}

	var polygons []geometry.Polygon
	var skipped int
	for reader.Next() {
		if name != "" {
			attr := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
			if !strings.EqualFold(attr, name) {
				continue
			}
		}

		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 {
			skipped++
			continue
		}
		polygons = append(polygons, assembleParts(partRings(poly))...)
	}
	if skipped > 0 {
		zap.L().Debug("geofile: skipped non-polygon shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(polygons) == 0 {
		return nil, eris.Errorf("geofile: no polygons for %q in %s", name, path)
	}

	b, err := geometry.NewBoundary(boundaryName(name, path), polygons)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: boundary %s", path)
	}
	return b, nil
}

func partRings(p *shp.Polygon) []geometry.Ring {
	rings := make([]geometry.Ring, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		ring := make(geometry.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, geometry.Point{Lng: p.Points[j].X, Lat: p.Points[j].Y})
		}
		if len(ring) >= 3 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// assembleParts splits a record's rings into outer rings and holes by
// orientation and attaches each hole to the outer ring containing it.
// Records whose rings are all counter-clockwise are treated as hole-free
// outers, which covers exports that ignore the orientation convention.
func assembleParts(rings []geometry.Ring) []geometry.Polygon {
	var polygons []geometry.Polygon
	var holes []geometry.Ring
	for _, ring := range rings {
		if signedArea(ring) < 0 {
			polygons = append(polygons, geometry.Polygon{Outer: ring})
		} else {
			holes = append(holes, ring)
		}
	}
	if len(polygons) == 0 {
		polygons = make([]geometry.Polygon, 0, len(holes))
		for _, ring := range holes {
			polygons = append(polygons, geometry.Polygon{Outer: ring})
		}
		return polygons
	}

	for _, hole := range holes {
		attached := false
		for i := range polygons {
			if polygons[i].Outer.Contains(hole[0]) {
				polygons[i].Holes = append(polygons[i].Holes, hole)
				attached = true
				break
			}
		}
		if !attached {
			zap.L().Debug("geofile: orphan hole ring dropped",
				zap.Float64("lng", hole[0].Lng),
				zap.Float64("lat", hole[0].Lat),
			)
		}
	}
	return polygons
}

// signedArea is the shoelace sum; negative means clockwise.
func signedArea(ring geometry.Ring) float64 {
	area := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[i].Lng*ring[j].Lat - ring[j].Lng*ring[i].Lat
	}
	return area / 2
}

func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
