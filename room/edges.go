package room

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// OptimizeEdge squares a new perimeter point against the last confirmed edge.
// When the new direction is within the angle tolerance of the previous edge the
// displacement is projected onto that edge (colinear); when it is within the
// tolerance of the edge's perpendicular it is projected onto the perpendicular
// (orthogonal). Anything else, fewer than two confirmed points, or a
// displacement shorter than MinDisplacement passes through. Y is never touched.
func OptimizeEdge(confirmed []PerimeterPoint, candidate Point3, tol Tolerances) Point3 {
	n := len(confirmed)
	if n < 2 {
		return candidate
	}

	last := confirmed[n-1].Point3
	prev := confirmed[n-2].Point3

	lastEdge := planarVec(prev, last)
	disp := planarVec(last, candidate)
	if r3.Norm(disp) < tol.MinDisplacement || r3.Norm(lastEdge) < tol.MinDisplacement {
		return candidate
	}

	lastDir := r3.Unit(lastEdge)
	newDir := r3.Unit(disp)
	perp := r3.Vec{X: -lastDir.Z, Z: lastDir.X}

	var axis r3.Vec
	switch {
	case angleBetween(lastDir, newDir) <= tol.AngleTolerance:
		axis = lastDir
	case angleBetween(perp, newDir) <= tol.AngleTolerance || angleBetween(r3.Scale(-1, perp), newDir) <= tol.AngleTolerance:
		axis = perp
	default:
		return candidate
	}

	proj := r3.Scale(r3.Dot(disp, axis), axis)
	return Point3{X: last.X + proj.X, Y: candidate.Y, Z: last.Z + proj.Z}
}

// planarVec is b-a in the (x, z) plane with y zeroed.
func planarVec(a, b Point3) r3.Vec {
	return r3.Vec{X: b.X - a.X, Z: b.Z - a.Z}
}

// angleBetween returns the unsigned angle in degrees between two unit vectors.
func angleBetween(a, b r3.Vec) float64 {
	dot := math.Max(-1, math.Min(1, r3.Dot(a, b)))
	return math.Acos(dot) * 180 / math.Pi
}
