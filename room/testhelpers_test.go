package room

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

// pp builds a free perimeter point on the floor.
func pp(x, z float64) PerimeterPoint {
	return PerimeterPoint{Point3: Point3{X: x, Z: z}, Snap: SnapFree}
}

// rect returns the four corners of an axis-aligned w×d rectangle at (x0, z0).
func rect(x0, z0, w, d float64) []PerimeterPoint {
	return []PerimeterPoint{pp(x0, z0), pp(x0+w, z0), pp(x0+w, z0+d), pp(x0, z0+d)}
}

// floorSurface is a horizontal surface with the given planar outline.
func floorSurface(id string, y float64, pts ...orb.Point) Surface {
	poly := make([]Point3, len(pts))
	for i, p := range pts {
		poly[i] = Point3{X: p[0], Y: y, Z: p[1]}
	}
	return Surface{ID: id, Normal: Point3{Y: 1}, Polygon: poly, Centroid: polygonCentroid(poly)}
}

// wallSurface is a vertical surface whose footprint is the segment a-b.
func wallSurface(id string, a, b orb.Point) Surface {
	poly := []Point3{{X: a[0], Z: a[1]}, {X: b[0], Z: b[1]}}
	return Surface{ID: id, Normal: Point3{Z: 1}, Polygon: poly, Centroid: polygonCentroid(poly)}
}

func assertPointNear(t *testing.T, want, got Point3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func containsPlanar(pts []orb.Point, want orb.Point) bool {
	for _, p := range pts {
		if planarNear(p, want) {
			return true
		}
	}
	return false
}

func planarNear(a, b orb.Point) bool {
	dx, dz := a[0]-b[0], a[1]-b[1]
	return dx*dx+dz*dz < 1e-18
}
