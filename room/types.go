package room

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point3 is a world-frame position in meters. Y is up.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UnmarshalJSON accepts either {"x":..,"y":..,"z":..} or a [x, y, z] tuple so
// every external representation is normalized once at ingestion.
func (p *Point3) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var tuple []float64
	if err := json.Unmarshal(data, &tuple); err == nil {
		if len(tuple) != 3 {
			return fmt.Errorf("point tuple needs 3 coordinates, got %d", len(tuple))
		}
		*p = Point3{X: tuple[0], Y: tuple[1], Z: tuple[2]}
		return nil
	}

	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decoding point: %w", err)
	}
	if obj.X == nil || obj.Z == nil {
		return fmt.Errorf("point object requires x and z")
	}
	*p = Point3{X: *obj.X, Z: *obj.Z}
	if obj.Y != nil {
		p.Y = *obj.Y
	}
	return nil
}

// Planar projects the point onto the horizontal (x, z) plane.
func (p Point3) Planar() orb.Point {
	return orb.Point{p.X, p.Z}
}

// IsFinite reports whether all coordinates are finite numbers.
func (p Point3) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

// fromPlanar lifts a planar point back to 3D at height y.
func fromPlanar(p orb.Point, y float64) Point3 {
	return Point3{X: p[0], Y: y, Z: p[1]}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Alignment classifies a detected surface
type Alignment string

const (
	AlignmentHorizontal Alignment = "horizontal"
	AlignmentVertical   Alignment = "vertical"
)

// Surface is a detected planar region supplied by the surface-detection layer.
type Surface struct {
	ID       string   `json:"id"`
	Normal   Point3   `json:"normal"`
	Polygon  []Point3 `json:"polygonWorld"`
	Centroid Point3   `json:"centroid"`
}

// UnmarshalJSON fills the centroid from the polygon when the producer omits it.
func (s *Surface) UnmarshalJSON(data []byte) error {
	type alias Surface
	var raw struct {
		alias
		Centroid *Point3 `json:"centroid"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Surface(raw.alias)
	if raw.Centroid != nil {
		s.Centroid = *raw.Centroid
	} else {
		s.Centroid = polygonCentroid(s.Polygon)
	}
	return nil
}

// Edges returns the polygon's closed edge list as planar segments.
func (s Surface) Edges() []orb.LineString {
	n := len(s.Polygon)
	if n < 2 {
		return nil
	}
	if n == 2 {
		return []orb.LineString{{s.Polygon[0].Planar(), s.Polygon[1].Planar()}}
	}
	edges := make([]orb.LineString, 0, n)
	for i := 0; i < n; i++ {
		a := s.Polygon[i]
		b := s.Polygon[(i+1)%n]
		edges = append(edges, orb.LineString{a.Planar(), b.Planar()})
	}
	return edges
}

// polygonCentroid is the vertex mean of a polygon
func polygonCentroid(poly []Point3) Point3 {
	if len(poly) == 0 {
		return Point3{}
	}
	var c Point3
	for _, p := range poly {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(poly))
	return Point3{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

// SnapLabel records how a perimeter point was produced
type SnapLabel string

const (
	SnapCorner SnapLabel = "corner"
	SnapWall   SnapLabel = "wall"
	SnapFree   SnapLabel = "free"
)

// SnapResult is the output of the point snapper.
type SnapResult struct {
	Point Point3    `json:"point"`
	Label SnapLabel `json:"label"`
}

// PerimeterPoint is a confirmed vertex of the room polygon.
type PerimeterPoint struct {
	Point3
	Snap SnapLabel `json:"snapped"`
}

// MarshalJSON keeps the flat {x,y,z,snapped} shape.
func (p PerimeterPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X    float64   `json:"x"`
		Y    float64   `json:"y"`
		Z    float64   `json:"z"`
		Snap SnapLabel `json:"snapped,omitempty"`
	}{p.X, p.Y, p.Z, p.Snap})
}

// UnmarshalJSON accepts the same point shapes as Point3 plus an optional label.
func (p *PerimeterPoint) UnmarshalJSON(data []byte) error {
	if err := p.Point3.UnmarshalJSON(data); err != nil {
		return err
	}
	var label struct {
		Snap SnapLabel `json:"snapped"`
	}
	// Tuples carry no label; ignore the error for that shape.
	_ = json.Unmarshal(data, &label)
	p.Snap = label.Snap
	if p.Snap == "" {
		p.Snap = SnapFree
	}
	return nil
}

// VertexHeights holds one nullable ceiling height per perimeter index.
type VertexHeights []*float64

// Known returns the non-null heights in index order.
func (vh VertexHeights) Known() []float64 {
	known := make([]float64, 0, len(vh))
	for _, h := range vh {
		if h != nil && isFinite(*h) {
			known = append(known, *h)
		}
	}
	return known
}

// Clone returns a deep copy
func (vh VertexHeights) Clone() VertexHeights {
	if vh == nil {
		return nil
	}
	out := make(VertexHeights, len(vh))
	for i, h := range vh {
		if h != nil {
			v := *h
			out[i] = &v
		}
	}
	return out
}

// Height returns a pointer suitable for VertexHeights entries.
func Height(v float64) *float64 {
	return &v
}

// TrackingState mirrors the camera tracking quality reported by the device.
type TrackingState string

const (
	TrackingNotAvailable TrackingState = "NOT_TRACKING"
	TrackingLimited      TrackingState = "LIMITED"
	TrackingNormal       TrackingState = "NORMAL"
	// TrackingTracking is the alias some devices report for NORMAL.
	TrackingTracking TrackingState = "TRACKING"
)

// ConfidenceInputs are the raw measurement-quality signals. Nil pointers mean
// the signal is unknown and degrades to a neutral default.
type ConfidenceInputs struct {
	NumPoints       int           `json:"numPoints"`
	TrackingState   TrackingState `json:"trackingState,omitempty"`
	TrackingCode    *float64      `json:"trackingCode,omitempty"`
	MotionStability *float64      `json:"motionStability,omitempty"`
	MotionSamples   []float64     `json:"motionSamples,omitempty"`
	LightingScore   *float64      `json:"lightingScore,omitempty"`
	AmbientLux      *float64      `json:"ambientLux,omitempty"`
}
