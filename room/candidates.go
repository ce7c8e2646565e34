package room

import (
	"math"

	"github.com/paulmach/orb"
)

// GenerateCandidates derives snap anchors from the surface set: every polygon
// vertex plus the intersection of every pair of polygon edges, treated as
// infinite lines. Near-parallel pairs and non-finite results are dropped. The
// result is unordered and may contain duplicates; callers rebuild it in full
// whenever the surface set changes.
func GenerateCandidates(surfaces []Surface, parallelEps float64) []orb.Point {
	var candidates []orb.Point
	var edges []orb.LineString

	for _, s := range surfaces {
		for _, p := range s.Polygon {
			if p.IsFinite() {
				candidates = append(candidates, p.Planar())
			}
		}
		edges = append(edges, s.Edges()...)
	}

	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			if p, ok := lineIntersection(edges[i], edges[j], parallelEps); ok {
				candidates = append(candidates, p)
			}
		}
	}

	return candidates
}

// lineIntersection intersects the infinite lines through two segments using
// the determinant form.
func lineIntersection(a, b orb.LineString, eps float64) (orb.Point, bool) {
	x1, y1 := a[0][0], a[0][1]
	x2, y2 := a[1][0], a[1][1]
	x3, y3 := b[0][0], b[0][1]
	x4, y4 := b[1][0], b[1][1]

	den := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(den) < eps || !isFinite(den) {
		return orb.Point{}, false
	}

	d1 := x1*y2 - y1*x2
	d2 := x3*y4 - y3*x4
	px := (d1*(x3-x4) - (x1-x2)*d2) / den
	py := (d1*(y3-y4) - (y1-y2)*d2) / den
	if !isFinite(px) || !isFinite(py) {
		return orb.Point{}, false
	}
	return orb.Point{px, py}, true
}
