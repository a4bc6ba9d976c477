package geometry

import "math"

const earthRadiusKM = 6371.0

// Haversine returns the great-circle distance between two points in
// kilometers.
func Haversine(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)
	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// RouteLengthKM sums the haversine distance over consecutive route points.
func RouteLengthKM(r Route) float64 {
	var total float64
	for i := 1; i < len(r); i++ {
		total += Haversine(r[i-1], r[i])
	}
	return total
}

// DetourRatio is route distance over straight-line endpoint distance.
// Routes with endpoints closer than 50 m straight-line report 1.0, since
// the ratio is meaningless at that scale.
func DetourRatio(routeKM, straightKM float64) float64 {
	if straightKM <= 0.05 {
		return 1.0
	}
	return routeKM / straightKM
}

// SeparationL1 is the L1 distance between two points in degrees, used to
// reject repaired endpoints that collapse onto each other.
func SeparationL1(a, b Point) float64 {
	return math.Abs(a.Lng-b.Lng) + math.Abs(a.Lat-b.Lat)
}

// SegmentDistance returns the planar distance in degrees from p to the
// segment a-b. Degrees are adequate here: the result is only compared
// against other values at the same latitude.
func SegmentDistance(p, a, b Point) float64 {
	dx := b.Lng - a.Lng
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.Lng-a.Lng, p.Lat-a.Lat)
	}
	t := ((p.Lng-a.Lng)*dx + (p.Lat-a.Lat)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.Lng-(a.Lng+t*dx), p.Lat-(a.Lat+t*dy))
}

// DistanceToOutline returns the minimum planar distance in degrees from p
// to any outer-ring edge of the boundary.
func (b *Boundary) DistanceToOutline(p Point) float64 {
	best := math.Inf(1)
	for i := range b.Polygons {
		ring := b.Polygons[i].Outer
		n := len(ring)
		for j := 0; j < n; j++ {
			d := SegmentDistance(p, ring[j], ring[(j+1)%n])
			if d < best {
				best = d
			}
		}
	}
	return best
}
