package geofile

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadaudit/internal/geometry"
)

// writeCountyShapefile builds a one-record polygon shapefile with a
// clockwise outer ring and a counter-clockwise hole.
func writeCountyShapefile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counties.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 40)}))

	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}, {X: 2, Y: 2}}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, hole}))
	w.Write(&poly)
	require.NoError(t, w.WriteAttribute(0, 0, name))
	w.Close()
	return path
}

func TestReadBoundaryShapefile(t *testing.T) {
	path := writeCountyShapefile(t, "Lake County")

	b, err := ReadBoundaryShapefile(path, "Lake County")
	require.NoError(t, err)
	require.Len(t, b.Polygons, 1)
	require.Len(t, b.Polygons[0].Holes, 1)

	assert.True(t, b.Contains(geometry.Point{Lng: 1, Lat: 1}))
	assert.False(t, b.Contains(geometry.Point{Lng: 5, Lat: 5}), "inside the hole")
	assert.False(t, b.Contains(geometry.Point{Lng: 11, Lat: 5}))
}

func TestReadBoundaryShapefileNameMismatch(t *testing.T) {
	path := writeCountyShapefile(t, "Lake County")
	_, err := ReadBoundaryShapefile(path, "Sumter County")
	assert.Error(t, err)
}

func TestAssemblePartsOrientation(t *testing.T) {
	clockwise := geometry.Ring{{Lng: 0, Lat: 0}, {Lng: 0, Lat: 4}, {Lng: 4, Lat: 4}, {Lng: 4, Lat: 0}}
	counter := geometry.Ring{{Lng: 1, Lat: 1}, {Lng: 3, Lat: 1}, {Lng: 3, Lat: 3}, {Lng: 1, Lat: 3}}

	assert.Negative(t, signedArea(clockwise))
	assert.Positive(t, signedArea(counter))

	polygons := assembleParts([]geometry.Ring{clockwise, counter})
	require.Len(t, polygons, 1)
	assert.Len(t, polygons[0].Holes, 1)
}

func TestAssemblePartsAllCounterClockwise(t *testing.T) {
	// Exports that ignore orientation still produce usable outers.
	counter := geometry.Ring{{Lng: 1, Lat: 1}, {Lng: 3, Lat: 1}, {Lng: 3, Lat: 3}, {Lng: 1, Lat: 3}}
	polygons := assembleParts([]geometry.Ring{counter})
	require.Len(t, polygons, 1)
	assert.Empty(t, polygons[0].Holes)
}
