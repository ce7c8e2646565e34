package room

import (
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"
)

// FloorOutline is a single floor polygon merged from horizontal surfaces.
type FloorOutline struct {
	Points       []PerimeterPoint `json:"points"`
	FloorHeight  float64          `json:"floorHeight"`
	SurfaceCount int              `json:"surfaceCount"`
}

// MergeFloor merges every horizontal surface into one floor outline: the convex
// hull of all their (x, z) vertices, lifted to the mean centroid height of the
// contributing surfaces. Used when no perimeter has been walked by hand.
func MergeFloor(surfaces []Surface, tol Tolerances) FloorOutline {
	floors := HorizontalSurfaces(surfaces, tol.HorizontalThreshold)
	if len(floors) == 0 {
		return FloorOutline{}
	}

	var pts []orb.Point
	heights := make([]float64, 0, len(floors))
	for _, s := range floors {
		for _, p := range s.Polygon {
			if p.IsFinite() {
				pts = append(pts, p.Planar())
			}
		}
		heights = append(heights, s.Centroid.Y)
	}

	floorY := stat.Mean(heights, nil)
	hull := ConvexHull(pts)
	outline := make([]PerimeterPoint, len(hull))
	for i, p := range hull {
		outline[i] = PerimeterPoint{Point3: fromPlanar(p, floorY), Snap: SnapCorner}
	}

	return FloorOutline{
		Points:       outline,
		FloorHeight:  floorY,
		SurfaceCount: len(floors),
	}
}

// ConvexHull computes the convex hull of a set of 2D points using Andrew's
// monotone chain algorithm. Points that do not make a strict counter-clockwise
// turn are dropped, so colinear boundary points are excluded. Returns points in
// counter-clockwise order without repeating the first point.
func ConvexHull(points []orb.Point) []orb.Point {
	if len(points) < 3 {
		result := make([]orb.Point, len(points))
		copy(result, points)
		return result
	}

	// Sort by x, then y
	sorted := make([]orb.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	// cross returns the cross product of vectors OA and OB where O is origin
	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	n := len(sorted)
	hull := make([]orb.Point, 0, 2*n)

	// Lower hull
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Upper hull
	lower := len(hull) + 1
	for i := n - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// Remove last point (duplicate of first)
	return hull[:len(hull)-1]
}
