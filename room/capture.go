package room

import (
	"encoding/json"
	"fmt"
	"os"
)

// Capture is a recorded walk: the final surface set plus the ordered samples
// and commands the device produced. Used for offline replays and fixtures.
type Capture struct {
	DeviceID string    `json:"deviceId,omitempty"`
	RoomType string    `json:"roomType,omitempty"`
	Surfaces []Surface `json:"surfaces"`
	Samples  []Sample  `json:"samples,omitempty"`
	Commands []Command `json:"commands"`
}

// ParseCaptureFile reads and parses a capture JSON file
func ParseCaptureFile(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseCaptureJSON(data)
}

// ParseCaptureJSON parses capture JSON data
func ParseCaptureJSON(data []byte) (*Capture, error) {
	var c Capture
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &c, nil
}

// Replay runs the capture through a fresh session. Samples are recorded
// before commands are applied. The first failing command aborts the replay.
func (c *Capture) Replay(cfg *Config) (*Session, error) {
	deviceID := c.DeviceID
	if deviceID == "" {
		deviceID = "capture"
	}
	s := NewSession(deviceID, cfg)
	s.RoomType = c.RoomType
	s.UpdateSurfaces(c.Surfaces)

	for _, sample := range c.Samples {
		s.RecordSample(sample)
	}
	for i, cmd := range c.Commands {
		if _, err := s.Apply(cmd); err != nil {
			return s, fmt.Errorf("command %d (%s): %w", i, cmd.Action, err)
		}
	}
	return s, nil
}
