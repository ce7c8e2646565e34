package room

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Snap maps a raw sample onto the structure around it. A candidate corner
// within the snap radius always wins, even when a wall point is closer. Failing
// that, the closest point on any surface edge within the radius is used.
// Otherwise the raw point is returned with SnapFree. Only x and z move; the
// sample's y passes through.
func Snap(raw Point3, candidates []orb.Point, surfaces []Surface, tol Tolerances) SnapResult {
	rp := raw.Planar()

	if c, d, ok := nearestCandidate(rp, candidates); ok && d <= tol.SnapRadius {
		return SnapResult{Point: fromPlanar(c, raw.Y), Label: SnapCorner}
	}

	best := math.Inf(1)
	var bestPoint orb.Point
	for _, s := range surfaces {
		for _, e := range s.Edges() {
			cp := closestOnSegment(rp, e[0], e[1], tol.SegmentEpsilon)
			if d := planar.Distance(rp, cp); d < best {
				best = d
				bestPoint = cp
			}
		}
	}
	if best <= tol.SnapRadius {
		return SnapResult{Point: fromPlanar(bestPoint, raw.Y), Label: SnapWall}
	}

	return SnapResult{Point: raw, Label: SnapFree}
}

func nearestCandidate(p orb.Point, candidates []orb.Point) (orb.Point, float64, bool) {
	best := math.Inf(1)
	var bestPoint orb.Point
	found := false
	for _, c := range candidates {
		if d := planar.Distance(p, c); d < best {
			best = d
			bestPoint = c
			found = true
		}
	}
	return bestPoint, best, found
}

// closestOnSegment projects p onto segment ab, clamped to the endpoints.
// Segments shorter than eps collapse to a.
func closestOnSegment(p, a, b orb.Point, eps float64) orb.Point {
	dx := b[0] - a[0]
	dz := b[1] - a[1]
	lenSq := dx*dx + dz*dz
	if lenSq < eps {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dz) / lenSq
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*dx, a[1] + t*dz}
}
