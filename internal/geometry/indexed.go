package geometry

import (
	"github.com/dhconnelly/rtreego"
	"github.com/rotisserie/eris"
)

const (
	rtreeDims        = 2
	rtreeMinChildren = 2
	rtreeMaxChildren = 16

	// probeTolerance pads degenerate rectangles; rtreego rejects
	// zero-length extents.
	probeTolerance = 1e-9
)

// indexedPolygon wraps one boundary polygon for the R-tree.
type indexedPolygon struct {
	poly *Polygon
	rect *rtreego.Rect
}

func (ip *indexedPolygon) Bounds() *rtreego.Rect { return ip.rect }

// IndexedLocator is a Locator with a bounding-box pre-filter: an R-tree
// over the outer-ring boxes narrows candidates before the exact even-odd
// test runs. Same contract as Boundary.Contains; worthwhile when the
// boundary has many disjoint polygons or queries dominate.
type IndexedLocator struct {
	boundary *Boundary
	tree     *rtreego.Rtree
}

// NewIndexedLocator builds the R-tree index over the boundary's polygons.
func NewIndexedLocator(b *Boundary) (*IndexedLocator, error) {
	tree := rtreego.NewTree(rtreeDims, rtreeMinChildren, rtreeMaxChildren)
	for i := range b.Polygons {
		bb := RingBBox(b.Polygons[i].Outer)
		rect, err := rtreego.NewRect(
			rtreego.Point{bb.MinLng, bb.MinLat},
			[]float64{
				bb.MaxLng - bb.MinLng + probeTolerance,
				bb.MaxLat - bb.MinLat + probeTolerance,
			},
		)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: index polygon %d", i)
		}
		tree.Insert(&indexedPolygon{poly: &b.Polygons[i], rect: rect})
	}
	return &IndexedLocator{boundary: b, tree: tree}, nil
}

// Contains implements Locator.
func (l *IndexedLocator) Contains(p Point) bool {
	probe := rtreego.Point{p.Lng, p.Lat}.ToRect(probeTolerance)
	for _, hit := range l.tree.SearchIntersect(probe) {
		if polygonContains(p, hit.(*indexedPolygon).poly) {
			return true
		}
	}
	return false
}
