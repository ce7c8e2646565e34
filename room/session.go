package room

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// motionWindow is how many recent motion magnitudes feed the motion score.
const motionWindow = 30

// Session is the caller-owned state of one measurement walk: the current
// surface set and its derived candidates, the perimeter builder, the raw
// sample cloud and the latest quality signals. It replaces any implicit global
// state. Not safe for concurrent use; see SessionTracker.
type Session struct {
	ID       string
	DeviceID string
	RoomType string

	cfg        *Config
	surfaces   []Surface
	candidates []orb.Point
	builder    *PerimeterBuilder
	samples    []Point3
	signals    ConfidenceInputs
	lastSnap   *SnapResult

	Created time.Time
	Updated time.Time
}

// NewSession starts an empty walk for a device. A nil config uses defaults.
func NewSession(deviceID string, cfg *Config) *Session {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	now := time.Now()
	return &Session{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		cfg:      cfg,
		builder:  NewPerimeterBuilder(cfg.Tolerances),
		Created:  now,
		Updated:  now,
	}
}

// UpdateSurfaces replaces the surface set and rebuilds the candidate corners
// from scratch.
func (s *Session) UpdateSurfaces(surfaces []Surface) {
	s.surfaces = append([]Surface(nil), surfaces...)
	s.candidates = GenerateCandidates(s.surfaces, s.cfg.Tolerances.ParallelEpsilon)
	s.touch()
}

// Surfaces returns the current surface set.
func (s *Session) Surfaces() []Surface {
	return append([]Surface(nil), s.surfaces...)
}

// Candidates returns the current candidate corners.
func (s *Session) Candidates() []orb.Point {
	return append([]orb.Point(nil), s.candidates...)
}

// ComputeSnap snaps a raw point against the session's surfaces.
func (s *Session) ComputeSnap(raw Point3) SnapResult {
	return Snap(raw, s.candidates, s.surfaces, s.cfg.Tolerances)
}

// RecordSample ingests one hit-test poll. Hits join the sample cloud (bounded
// by MaxSamples) and are snapped for preview; quality signals replace the
// previous ones.
func (s *Session) RecordSample(sample Sample) *SnapResult {
	if sample.Tracking != "" {
		s.signals.TrackingState = sample.Tracking
		s.signals.TrackingCode = nil
	} else if sample.TrackingCode != nil {
		s.signals.TrackingState = ""
		s.signals.TrackingCode = sample.TrackingCode
	}
	if sample.Lighting != nil {
		s.signals.LightingScore = sample.Lighting
	}
	if sample.Lux != nil {
		s.signals.AmbientLux = sample.Lux
	}
	if sample.MotionStability != nil {
		s.signals.MotionStability = sample.MotionStability
	}
	if sample.Motion != nil && isFinite(*sample.Motion) {
		s.signals.MotionSamples = appendBounded(s.signals.MotionSamples, *sample.Motion, motionWindow)
	}
	s.touch()

	if sample.Point == nil || !sample.Point.IsFinite() {
		s.lastSnap = nil
		return nil
	}
	s.samples = append(s.samples, *sample.Point)
	if max := s.cfg.Tolerances.MaxSamples; max > 0 && len(s.samples) > max {
		s.samples = s.samples[len(s.samples)-max:]
	}
	snap := s.ComputeSnap(*sample.Point)
	s.lastSnap = &snap
	return &snap
}

// AddPerimeterPoint snaps a tapped point and hands it to the builder.
func (s *Session) AddPerimeterPoint(raw Point3) BuilderState {
	snap := s.ComputeSnap(raw)
	s.touch()
	return s.builder.Add(PerimeterPoint{Point3: snap.Point, Snap: snap.Label})
}

// Apply executes one command.
func (s *Session) Apply(cmd Command) (BuilderState, error) {
	if err := cmd.check(); err != nil {
		return s.builder.State(), err
	}
	s.touch()

	switch cmd.Action {
	case ActionAdd:
		if cmd.Snap != nil && !*cmd.Snap {
			return s.builder.Add(PerimeterPoint{Point3: *cmd.Point, Snap: SnapFree}), nil
		}
		return s.AddPerimeterPoint(*cmd.Point), nil
	case ActionKeep:
		return s.builder.KeepAdding(), nil
	case ActionClose:
		return s.builder.ConfirmClose(), nil
	case ActionFinish:
		return s.builder.Finish(), nil
	case ActionUndo:
		return s.builder.Undo(), nil
	case ActionRedo:
		return s.builder.Redo(), nil
	case ActionClear:
		return s.builder.Clear(), nil
	case ActionReset:
		s.samples = nil
		s.lastSnap = nil
		s.signals = ConfidenceInputs{}
		return s.builder.Reset(), nil
	case ActionHeight:
		return s.builder.SetHeight(*cmd.Index, cmd.Height), nil
	case ActionRoom:
		s.RoomType = cmd.RoomType
		return s.builder.State(), nil
	}
	return s.builder.State(), fmt.Errorf("%w: unhandled action %q", ErrInvalidCommand, cmd.Action)
}

// State returns the builder state.
func (s *Session) State() BuilderState {
	return s.builder.State()
}

// Signals returns the latest quality signals with the current point count.
func (s *Session) Signals() ConfidenceInputs {
	in := s.signals
	in.MotionSamples = append([]float64(nil), s.signals.MotionSamples...)
	in.NumPoints = len(s.builder.current.points)
	return in
}

// Confidence scores the session's current signals.
func (s *Session) Confidence() float64 {
	return ComputeConfidence(s.Signals(), s.cfg.Confidence)
}

// Measure computes the output payload from the current state.
func (s *Session) Measure() Measurement {
	st := s.builder.State()
	return BuildMeasurement(MeasurementInput{
		SessionID:  s.ID,
		RoomType:   s.RoomType,
		Points:     st.Points,
		Heights:    st.Heights,
		Closed:     st.Phase == PhaseClosed,
		Surfaces:   s.surfaces,
		Samples:    s.samples,
		Confidence: s.Signals(),
		Tolerances: s.cfg.Tolerances,
		Weights:    s.cfg.Confidence,
	})
}

// SessionSummary is a compact view for listings.
type SessionSummary struct {
	ID         string      `json:"id"`
	DeviceID   string      `json:"deviceId"`
	RoomType   string      `json:"roomType,omitempty"`
	Phase      Phase       `json:"phase"`
	Points     int         `json:"points"`
	Surfaces   int         `json:"surfaces"`
	Candidates int         `json:"candidates"`
	Samples    int         `json:"samples"`
	Confidence float64     `json:"confidence"`
	LastSnap   *SnapResult `json:"lastSnap,omitempty"`
	Created    time.Time   `json:"created"`
	Updated    time.Time   `json:"updated"`
}

// Summary returns a snapshot of the session for listings.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:         s.ID,
		DeviceID:   s.DeviceID,
		RoomType:   s.RoomType,
		Phase:      s.builder.Phase(),
		Points:     len(s.builder.current.points),
		Surfaces:   len(s.surfaces),
		Candidates: len(s.candidates),
		Samples:    len(s.samples),
		Confidence: s.Confidence(),
		LastSnap:   s.lastSnap,
		Created:    s.Created,
		Updated:    s.Updated,
	}
}

func (s *Session) touch() {
	s.Updated = time.Now()
}

func appendBounded(xs []float64, v float64, max int) []float64 {
	xs = append(xs, v)
	if len(xs) > max {
		xs = xs[len(xs)-max:]
	}
	return xs
}
