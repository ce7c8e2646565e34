package room

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// outputPrecision is the number of decimals kept on area and volume outputs.
const outputPrecision = 4

// earEpsilon treats near-zero cross products as colinear during ear clipping.
const earEpsilon = 1e-12

// AreaVolume is the result of the area/volume engine.
type AreaVolume struct {
	AreaSqm  float64 `json:"area_sqm"`
	VolumeM3 float64 `json:"volume_m3"`
	// VolumeEstimated is true when volume came from the sample-spread fallback
	// rather than per-vertex heights.
	VolumeEstimated bool `json:"volume_estimated"`
}

// PolygonArea computes the shoelace area of the (x, z) projection. Winding
// does not matter. Fewer than three points yields 0.
func PolygonArea(points []PerimeterPoint) float64 {
	if len(points) < 3 {
		return 0
	}
	return round(math.Abs(signedArea(points)), outputPrecision)
}

// signedArea is positive for counter-clockwise (x, z) winding.
func signedArea(points []PerimeterPoint) float64 {
	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Z - points[j].X*points[i].Z
	}
	return sum / 2
}

// Triangulate splits the (x, z) polygon into triangles by ear clipping and
// returns vertex index triples into points. If clipping stalls on degenerate
// input the remaining polygon is fanned from its first vertex.
func Triangulate(points []PerimeterPoint) [][3]int {
	n := len(points)
	if n < 3 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if signedArea(points) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			idx[i], idx[j] = idx[j], idx[i]
		}
	}

	tris := make([][3]int, 0, n-2)
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			prev := idx[(i+len(idx)-1)%len(idx)]
			cur := idx[i]
			next := idx[(i+1)%len(idx)]
			if !isEar(points, idx, prev, cur, next) {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			for k := 1; k+1 < len(idx); k++ {
				tris = append(tris, [3]int{idx[0], idx[k], idx[k+1]})
			}
			return tris
		}
	}
	return append(tris, [3]int{idx[0], idx[1], idx[2]})
}

func isEar(points []PerimeterPoint, ring []int, a, b, c int) bool {
	pa, pb, pc := points[a], points[b], points[c]
	if cross2(pa, pb, pc) <= earEpsilon {
		return false
	}
	for _, k := range ring {
		if k == a || k == b || k == c {
			continue
		}
		if pointInTriangle(points[k], pa, pb, pc) {
			return false
		}
	}
	return true
}

// cross2 is the z-component of (b-a)x(c-a) in the (x, z) plane.
func cross2(a, b, c PerimeterPoint) float64 {
	return (b.X-a.X)*(c.Z-a.Z) - (b.Z-a.Z)*(c.X-a.X)
}

// pointInTriangle includes the boundary so reflex vertices touching an ear
// block it.
func pointInTriangle(p, a, b, c PerimeterPoint) bool {
	return cross2(a, b, p) >= 0 && cross2(b, c, p) >= 0 && cross2(c, a, p) >= 0
}

func triangleArea(a, b, c PerimeterPoint) float64 {
	return math.Abs(cross2(a, b, c)) / 2
}

// VolumeFromHeights integrates per-vertex ceiling heights over a triangulation
// of the floor polygon: each triangle contributes its area times the mean of
// its three heights. Unknown heights take the mean of the known ones. ok is
// false when no height is known or the slices are misaligned.
func VolumeFromHeights(points []PerimeterPoint, heights VertexHeights) (volume float64, ok bool) {
	if len(points) < 3 || len(heights) != len(points) {
		return 0, false
	}
	known := heights.Known()
	if len(known) == 0 {
		return 0, false
	}
	fill := stat.Mean(known, nil)

	filled := make([]float64, len(heights))
	for i, h := range heights {
		if h != nil && isFinite(*h) {
			filled[i] = *h
		} else {
			filled[i] = fill
		}
	}

	for _, t := range Triangulate(points) {
		area := triangleArea(points[t[0]], points[t[1]], points[t[2]])
		volume += area * (filled[t[0]] + filled[t[1]] + filled[t[2]]) / 3
	}
	return round(volume, outputPrecision), true
}

// VolumeFromSamples multiplies the polygon area by the spread of the sample
// cloud along one axis. This is a coarse stand-in for a real ceiling height
// and results must be treated as lower confidence. Only the product is
// rounded, like VolumeFromHeights.
func VolumeFromSamples(points []PerimeterPoint, samples []Point3, axis string) float64 {
	if len(points) < 3 {
		return 0
	}
	return round(math.Abs(signedArea(points))*SampleSpread(samples, axis), outputPrecision)
}

// SampleSpread returns max-min of the samples along axis "x", "y" or "z".
func SampleSpread(samples []Point3, axis string) float64 {
	vals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !s.IsFinite() {
			continue
		}
		switch axis {
		case "y":
			vals = append(vals, s.Y)
		case "z":
			vals = append(vals, s.Z)
		default:
			vals = append(vals, s.X)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return floats.Max(vals) - floats.Min(vals)
}

// ComputeAreaAndVolume returns area and volume for a perimeter. Volume comes
// from vertex heights when any are known, otherwise from the sample fallback.
// Fewer than three points yields zeros.
func ComputeAreaAndVolume(points []PerimeterPoint, heights VertexHeights, samples []Point3, tol Tolerances) AreaVolume {
	if len(points) < 3 {
		return AreaVolume{}
	}
	res := AreaVolume{AreaSqm: PolygonArea(points)}
	if v, ok := VolumeFromHeights(points, heights); ok {
		res.VolumeM3 = v
		return res
	}
	res.VolumeM3 = VolumeFromSamples(points, samples, tol.FallbackHeightAxis)
	res.VolumeEstimated = true
	return res
}

// PerimeterLength sums the closed edge lengths of the (x, z) polygon.
func PerimeterLength(points []PerimeterPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := range points {
		j := (i + 1) % len(points)
		if len(points) == 2 && j == 0 {
			break
		}
		total += math.Hypot(points[j].X-points[i].X, points[j].Z-points[i].Z)
	}
	return round(total, outputPrecision)
}

func round(v float64, decimals int) float64 {
	if !isFinite(v) {
		return 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
