package room

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull(t *testing.T) {
	tests := []struct {
		name   string
		points []orb.Point
		want   int
	}{
		{"square with interior point", []orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}}, 4},
		{"colinear boundary point dropped", []orb.Point{{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2}}, 4},
		{"triangle", []orb.Point{{0, 0}, {4, 0}, {0, 3}}, 3},
		{"two points", []orb.Point{{0, 0}, {1, 1}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hull := ConvexHull(tt.points)
			assert.Len(t, hull, tt.want)
		})
	}
}

func TestConvexHull_CounterClockwise(t *testing.T) {
	hull := ConvexHull([]orb.Point{{2, 2}, {0, 0}, {1, 0.5}, {0, 2}, {2, 0}})
	require.Len(t, hull, 4)

	ring := append(orb.Ring{}, hull...)
	ring = append(ring, hull[0])
	assert.Equal(t, orb.CCW, ring.Orientation())
	assert.False(t, containsPlanar(hull, orb.Point{1, 0.5}))
}

func TestConvexHull_DoesNotMutateInput(t *testing.T) {
	in := []orb.Point{{2, 2}, {0, 0}, {2, 0}, {0, 2}}
	orig := append([]orb.Point{}, in...)
	ConvexHull(in)
	assert.Equal(t, orig, in)
}

func TestMergeFloor(t *testing.T) {
	surfaces := []Surface{
		floorSurface("a", 0.0, orb.Point{0, 0}, orb.Point{2, 0}, orb.Point{2, 2}, orb.Point{0, 2}),
		floorSurface("b", 0.1, orb.Point{1.5, 1.5}, orb.Point{4, 1.5}, orb.Point{4, 3}, orb.Point{1.5, 3}),
		wallSurface("wall", orb.Point{-5, -5}, orb.Point{10, -5}),
	}

	floor := MergeFloor(surfaces, DefaultTolerances())

	assert.Equal(t, 2, floor.SurfaceCount)
	assert.InDelta(t, 0.05, floor.FloorHeight, 1e-12)
	require.Len(t, floor.Points, 6)
	for _, p := range floor.Points {
		assert.Equal(t, SnapCorner, p.Snap)
		assert.InDelta(t, 0.05, p.Y, 1e-12)
		assert.Greater(t, p.Z, -1.0, "wall vertices must not join the floor")
	}
	// (1.5,1.5) and (2,2) sit inside the union's hull.
	assert.InDelta(t, 4*3-2*1.5/2-1.5*1/2, PolygonArea(floor.Points), 1e-4)
}

func TestMergeFloor_NoHorizontalSurfaces(t *testing.T) {
	floor := MergeFloor([]Surface{wallSurface("w", orb.Point{0, 0}, orb.Point{1, 0})}, DefaultTolerances())
	assert.Equal(t, FloorOutline{}, floor)
}
