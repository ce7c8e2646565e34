package room

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the configuration from a YAML file. Missing thresholds take
// their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// applyDefaults fills zero-valued fields, e.g. a tolerances block that only
// overrides one threshold.
func (c *Config) applyDefaults() {
	def := DefaultTolerances()
	t := &c.Tolerances
	if t.HorizontalThreshold == 0 {
		t.HorizontalThreshold = def.HorizontalThreshold
	}
	if t.SnapRadius == 0 {
		t.SnapRadius = def.SnapRadius
	}
	if t.CloseRadius == 0 {
		t.CloseRadius = def.CloseRadius
	}
	if t.AngleTolerance == 0 {
		t.AngleTolerance = def.AngleTolerance
	}
	if t.ParallelEpsilon == 0 {
		t.ParallelEpsilon = def.ParallelEpsilon
	}
	if t.SegmentEpsilon == 0 {
		t.SegmentEpsilon = def.SegmentEpsilon
	}
	if t.MinDisplacement == 0 {
		t.MinDisplacement = def.MinDisplacement
	}
	if t.UndoCapacity == 0 {
		t.UndoCapacity = def.UndoCapacity
	}
	if t.FallbackHeightAxis == "" {
		t.FallbackHeightAxis = def.FallbackHeightAxis
	}
	if t.MaxSamples == 0 {
		t.MaxSamples = def.MaxSamples
	}
	if c.Confidence == (ConfidenceWeights{}) {
		c.Confidence = DefaultConfidenceWeights()
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
}

// Validate checks ranges and required transport fields.
func (c *Config) Validate() error {
	t := c.Tolerances
	if t.HorizontalThreshold <= 0 || t.HorizontalThreshold >= 1 {
		return fmt.Errorf("tolerances.horizontalThreshold must be in (0, 1), got %v", t.HorizontalThreshold)
	}
	if t.SnapRadius < 0 {
		return fmt.Errorf("tolerances.snapRadius must not be negative")
	}
	if t.CloseRadius < 0 {
		return fmt.Errorf("tolerances.closeRadius must not be negative")
	}
	if t.AngleTolerance < 0 || t.AngleTolerance >= 45 {
		return fmt.Errorf("tolerances.angleTolerance must be in [0, 45), got %v", t.AngleTolerance)
	}
	if t.UndoCapacity < 1 {
		return fmt.Errorf("tolerances.undoCapacity must be at least 1")
	}
	switch t.FallbackHeightAxis {
	case "x", "y", "z":
	default:
		return fmt.Errorf("tolerances.fallbackHeightAxis must be x, y or z, got %q", t.FallbackHeightAxis)
	}

	w := c.Confidence
	if w.Tracking < 0 || w.Motion < 0 || w.Points < 0 || w.Lighting < 0 {
		return fmt.Errorf("confidence weights must not be negative")
	}
	if math.Abs(w.sum()-1) > 1e-6 {
		return fmt.Errorf("confidence weights must sum to 1, got %.4f", w.sum())
	}

	if q := c.MQTT.QoS; q != nil && (*q < 0 || *q > 2) {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", *q)
	}

	if len(c.Devices) > 0 && c.MQTT.Broker == "" && os.Getenv("MQTT_BROKER") == "" {
		return fmt.Errorf("mqtt.broker is required when devices are configured")
	}
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("device[%d].id is required", i)
		}
		if d.Topic == "" {
			return fmt.Errorf("device[%d].topic is required for %s", i, d.ID)
		}
	}
	return nil
}
