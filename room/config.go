package room

// Tolerances gathers every geometric threshold used by the engine. Distances
// are meters, angles degrees.
type Tolerances struct {
	// HorizontalThreshold: a surface is horizontal when |normal.y| exceeds it.
	HorizontalThreshold float64 `yaml:"horizontalThreshold" json:"horizontalThreshold"`
	// SnapRadius bounds both corner and wall snapping.
	SnapRadius float64 `yaml:"snapRadius" json:"snapRadius"`
	// CloseRadius is the distance to the first point that triggers the close prompt.
	CloseRadius float64 `yaml:"closeRadius" json:"closeRadius"`
	// AngleTolerance is the colinear/orthogonal window for edge optimization.
	AngleTolerance float64 `yaml:"angleTolerance" json:"angleTolerance"`
	// ParallelEpsilon rejects near-parallel edge pairs in candidate generation.
	ParallelEpsilon float64 `yaml:"parallelEpsilon" json:"parallelEpsilon"`
	// SegmentEpsilon guards degenerate segments when snapping to walls.
	SegmentEpsilon float64 `yaml:"segmentEpsilon" json:"segmentEpsilon"`
	// MinDisplacement below which the edge optimizer leaves a point alone.
	MinDisplacement float64 `yaml:"minDisplacement" json:"minDisplacement"`
	// UndoCapacity bounds both undo and redo stacks.
	UndoCapacity int `yaml:"undoCapacity" json:"undoCapacity"`
	// FallbackHeightAxis picks the sample coordinate ("x", "y" or "z") whose
	// spread stands in for ceiling height when no vertex heights exist.
	FallbackHeightAxis string `yaml:"fallbackHeightAxis" json:"fallbackHeightAxis"`
	// MaxSamples caps the raw sample cloud kept per session.
	MaxSamples int `yaml:"maxSamples" json:"maxSamples"`
}

// DefaultTolerances returns the canonical thresholds.
func DefaultTolerances() Tolerances {
	return Tolerances{
		HorizontalThreshold: 0.6,
		SnapRadius:          0.25,
		CloseRadius:         0.45,
		AngleTolerance:      12,
		ParallelEpsilon:     1e-9,
		SegmentEpsilon:      1e-9,
		MinDisplacement:     1e-6,
		UndoCapacity:        60,
		FallbackHeightAxis:  "x",
		MaxSamples:          2000,
	}
}

// ConfidenceWeights weight the four confidence sub-scores. They should sum to 1.
type ConfidenceWeights struct {
	Tracking float64 `yaml:"tracking" json:"tracking"`
	Motion   float64 `yaml:"motion" json:"motion"`
	Points   float64 `yaml:"points" json:"points"`
	Lighting float64 `yaml:"lighting" json:"lighting"`
}

// DefaultConfidenceWeights returns {tracking .35, motion .30, points .20, lighting .15}.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{Tracking: 0.35, Motion: 0.30, Points: 0.20, Lighting: 0.15}
}

func (w ConfidenceWeights) sum() float64 {
	return w.Tracking + w.Motion + w.Points + w.Lighting
}

// DeviceConfig defines a capture device from the config file
type DeviceConfig struct {
	ID    string `yaml:"id" json:"id"`
	Topic string `yaml:"topic" json:"topic"` // base topic; surfaces/samples/commands are sub-topics
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
	// QoS and Retain apply to published state and measurements. Unset keeps
	// QoS 1, retained.
	QoS    *int  `yaml:"qos,omitempty" json:"qos,omitempty"`
	Retain *bool `yaml:"retain,omitempty" json:"retain,omitempty"`
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port,omitempty" json:"port,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	MQTT       MQTTConfig        `yaml:"mqtt" json:"mqtt"`
	HTTP       HTTPConfig        `yaml:"http,omitempty" json:"http,omitempty"`
	Devices    []DeviceConfig    `yaml:"devices" json:"devices"`
	Tolerances Tolerances        `yaml:"tolerances" json:"tolerances"`
	Confidence ConfidenceWeights `yaml:"confidence" json:"confidence"`
}

// DefaultConfig returns a config with no transport and canonical thresholds.
func DefaultConfig() *Config {
	return &Config{
		HTTP:       HTTPConfig{Port: 8080},
		Tolerances: DefaultTolerances(),
		Confidence: DefaultConfidenceWeights(),
	}
}

// GetDeviceByID returns the device config for the given ID
func (c *Config) GetDeviceByID(id string) *DeviceConfig {
	for i := range c.Devices {
		if c.Devices[i].ID == id {
			return &c.Devices[i]
		}
	}
	return nil
}
