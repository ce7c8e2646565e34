package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizeEdge_NeedsTwoPoints(t *testing.T) {
	tol := DefaultTolerances()
	c := Point3{X: 1.3, Y: 0.2, Z: 0.4}

	assert.Equal(t, c, OptimizeEdge(nil, c, tol))
	assert.Equal(t, c, OptimizeEdge([]PerimeterPoint{pp(0, 0)}, c, tol))
}

func TestOptimizeEdge(t *testing.T) {
	confirmed := []PerimeterPoint{pp(0, 0), pp(1, 0)}
	tests := []struct {
		name      string
		candidate Point3
		want      Point3
	}{
		{"colinear", Point3{X: 2, Y: 0.7, Z: 0.1}, Point3{X: 2, Y: 0.7, Z: 0}},
		{"orthogonal left", Point3{X: 1.1, Z: 1}, Point3{X: 1, Z: 1}},
		{"orthogonal right", Point3{X: 0.9, Z: -1}, Point3{X: 1, Z: -1}},
		{"diagonal passes through", Point3{X: 2, Z: 1}, Point3{X: 2, Z: 1}},
		{"tiny displacement passes through", Point3{X: 1 + 1e-8, Z: 0}, Point3{X: 1 + 1e-8, Z: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OptimizeEdge(confirmed, tt.candidate, DefaultTolerances())
			assertPointNear(t, tt.want, got)
		})
	}
}

func TestOptimizeEdge_AlignedPointIsUnchanged(t *testing.T) {
	confirmed := []PerimeterPoint{pp(0, 0), pp(1, 0)}
	c := Point3{X: 3, Y: 1.2, Z: 0}

	assert.Equal(t, c, OptimizeEdge(confirmed, c, DefaultTolerances()))
}

func TestOptimizeEdge_AlignedPointOnDiagonalEdgeIsUnchanged(t *testing.T) {
	confirmed := []PerimeterPoint{pp(0, 0), pp(1.3, 0.7)}
	tests := []struct {
		name      string
		candidate Point3
	}{
		{"along the edge", Point3{X: 3.9, Y: 1.2, Z: 2.1}},
		{"behind the last vertex", Point3{X: 0.65, Y: 0.4, Z: 0.35}},
		{"on the perpendicular", Point3{X: 1.3 - 1.4, Y: 2.4, Z: 0.7 + 2.6}},
		{"on the opposite perpendicular", Point3{X: 1.3 + 0.7, Z: 0.7 - 1.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertPointNear(t, tt.candidate, OptimizeEdge(confirmed, tt.candidate, DefaultTolerances()))
		})
	}
}

func TestOptimizeEdge_AngleToleranceIsConfigurable(t *testing.T) {
	confirmed := []PerimeterPoint{pp(0, 0), pp(1, 0)}
	c := Point3{X: 2, Z: 0.1} // ~5.7° off the edge

	tol := DefaultTolerances()
	tol.AngleTolerance = 3
	assert.Equal(t, c, OptimizeEdge(confirmed, c, tol))
}
