package geofence

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Planar point-in-polygon and distance predicates over go-geom geometries.
// All coordinates are (x=longitude, y=latitude) as stored in GeoJSON rings.

// ringContains runs an even-odd ray cast of (x, y) against a closed ring.
func ringContains(ring []geom.Coord, x, y float64) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// segmentDistance returns the distance from (x, y) to the segment a-b.
func segmentDistance(ax, ay, bx, by, x, y float64) float64 {
	dx, dy := bx-ax, by-ay
	if dx == 0 && dy == 0 {
		return math.Hypot(x-ax, y-ay)
	}
	t := ((x-ax)*dx + (y-ay)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(x-(ax+t*dx), y-(ay+t*dy))
}

// ringDistance returns the minimum distance from (x, y) to the ring's edges.
func ringDistance(ring []geom.Coord, x, y float64) float64 {
	min := math.Inf(1)
	n := len(ring)
	j := n - 1
	for i := 0; i < n; i++ {
		d := segmentDistance(ring[j][0], ring[j][1], ring[i][0], ring[i][1], x, y)
		if d < min {
			min = d
		}
		j = i
	}
	return min
}

func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !ringContains(p.LinearRing(0).Coords(), x, y) {
		return false
	}
	// Holes exclude the point
	for i := 1; i < p.NumLinearRings(); i++ {
		if ringContains(p.LinearRing(i).Coords(), x, y) {
			return false
		}
	}
	return true
}

func polygonBoundaryDistance(p *geom.Polygon, x, y float64) float64 {
	min := math.Inf(1)
	for i := 0; i < p.NumLinearRings(); i++ {
		d := ringDistance(p.LinearRing(i).Coords(), x, y)
		if d < min {
			min = d
		}
	}
	return min
}

// Contains reports whether the point lies strictly inside the geometry.
func Contains(g geom.T, x, y float64) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), x, y) {
				return true
			}
		}
	}
	return false
}

// Covers reports whether the point lies inside the geometry or exactly on
// its boundary (an edge or vertex).
func Covers(g geom.T, x, y float64) bool {
	if Contains(g, x, y) {
		return true
	}
	return Distance(g, x, y) == 0
}

// Distance returns the distance in coordinate degrees from the point to the
// geometry: zero when the point is inside, otherwise the distance to the
// nearest boundary edge.
func Distance(g geom.T, x, y float64) float64 {
	if Contains(g, x, y) {
		return 0
	}
	min := math.Inf(1)
	switch t := g.(type) {
	case *geom.Polygon:
		min = polygonBoundaryDistance(t, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if d := polygonBoundaryDistance(t.Polygon(i), x, y); d < min {
				min = d
			}
		}
	}
	return min
}
