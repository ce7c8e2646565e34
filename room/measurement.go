package room

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Imperial conversion constants
const (
	SqftPerSqm = 10.7639
	Ft3PerM3   = 35.3147
)

// OutlineSource records which polygon a measurement was computed from.
type OutlineSource string

const (
	OutlineWalked OutlineSource = "walked"
	OutlineHull   OutlineSource = "hull"
	OutlineNone   OutlineSource = "none"
)

// Measurement is the payload handed to persistence and export consumers.
type Measurement struct {
	SessionID       string           `json:"session_id,omitempty"`
	RoomType        string           `json:"room_type,omitempty"`
	Perimeter       []Point3         `json:"perimeter"`
	VertexHeights   VertexHeights    `json:"vertex_heights_m"`
	AreaSqm         float64          `json:"area_sqm"`
	AreaSqft        float64          `json:"area_sqft"`
	VolumeM3        float64          `json:"volume_m3"`
	VolumeFt3       float64          `json:"volume_ft3"`
	ConfidenceScore float64          `json:"confidence_score"`
	VolumeEstimated bool             `json:"volume_estimated"`
	Closed          bool             `json:"closed"`
	OutlineSource   OutlineSource    `json:"outline_source"`
	PerimeterM      float64          `json:"perimeter_m"`
	WidthM          float64          `json:"width_m"`
	DepthM          float64          `json:"depth_m"`
	Winding         string           `json:"winding"`
	Outline         *geojson.Feature `json:"outline,omitempty"`
}

// MeasurementInput bundles everything BuildMeasurement needs.
type MeasurementInput struct {
	SessionID  string
	RoomType   string
	Points     []PerimeterPoint
	Heights    VertexHeights
	Closed     bool
	Surfaces   []Surface
	Samples    []Point3
	Confidence ConfidenceInputs
	Tolerances Tolerances
	Weights    ConfidenceWeights
}

// BuildMeasurement computes the output payload. A walked perimeter with at
// least three points takes precedence; otherwise the merged floor hull of the
// horizontal surfaces is used and heights are dropped since they index the
// walked polygon.
func BuildMeasurement(in MeasurementInput) Measurement {
	points := in.Points
	heights := in.Heights
	source := OutlineWalked

	if len(points) < 3 {
		floor := MergeFloor(in.Surfaces, in.Tolerances)
		if len(floor.Points) >= 3 {
			points = floor.Points
			heights = make(VertexHeights, len(points))
			source = OutlineHull
		} else if len(points) == 0 {
			source = OutlineNone
		}
	}
	if len(heights) != len(points) {
		aligned := make(VertexHeights, len(points))
		copy(aligned, heights)
		heights = aligned
	}

	av := ComputeAreaAndVolume(points, heights, in.Samples, in.Tolerances)

	conf := in.Confidence
	conf.NumPoints = len(points)

	m := Measurement{
		SessionID:       in.SessionID,
		RoomType:        in.RoomType,
		Perimeter:       make([]Point3, len(points)),
		VertexHeights:   heights.Clone(),
		AreaSqm:         av.AreaSqm,
		AreaSqft:        round(av.AreaSqm*SqftPerSqm, outputPrecision),
		VolumeM3:        av.VolumeM3,
		VolumeFt3:       round(av.VolumeM3*Ft3PerM3, outputPrecision),
		ConfidenceScore: ComputeConfidence(conf, in.Weights),
		VolumeEstimated: av.VolumeEstimated,
		Closed:          in.Closed && source == OutlineWalked,
		OutlineSource:   source,
		PerimeterM:      PerimeterLength(points),
		Winding:         "none",
	}
	if m.VertexHeights == nil {
		m.VertexHeights = VertexHeights{}
	}
	for i, p := range points {
		m.Perimeter[i] = p.Point3
	}

	if ring := Ring(points); ring != nil {
		b := ring.Bound()
		m.WidthM = round(b.Max[0]-b.Min[0], outputPrecision)
		m.DepthM = round(b.Max[1]-b.Min[1], outputPrecision)
		switch ring.Orientation() {
		case orb.CCW:
			m.Winding = "ccw"
		case orb.CW:
			m.Winding = "cw"
		}
		props := map[string]interface{}{
			PropSource:  string(source),
			PropAreaSqm: m.AreaSqm,
		}
		if in.RoomType != "" {
			props[PropRoomType] = in.RoomType
		}
		m.Outline = OutlineFeature(points, props)
	}

	return m
}
