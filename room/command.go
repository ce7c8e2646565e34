package room

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCommand is returned for commands that fail decoding or validation.
var ErrInvalidCommand = errors.New("invalid command")

// Action names a perimeter-walk command
type Action string

const (
	ActionAdd    Action = "add"    // confirm a tapped point (snapped unless snap=false)
	ActionKeep   Action = "keep"   // answer a close prompt with "keep adding"
	ActionClose  Action = "close"  // answer a close prompt with "close"
	ActionFinish Action = "finish" // close explicitly with at least three points
	ActionUndo   Action = "undo"
	ActionRedo   Action = "redo"
	ActionClear  Action = "clear"
	ActionReset  Action = "reset"
	ActionHeight Action = "height" // set or clear one vertex height
	ActionRoom   Action = "room"   // set the room type label
)

// Command is one discrete user action on a session.
type Command struct {
	Action   Action   `json:"action"`
	Point    *Point3  `json:"point,omitempty"`
	Snap     *bool    `json:"snap,omitempty"`
	Index    *int     `json:"index,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	RoomType string   `json:"roomType,omitempty"`
}

// Sample is one hit-test poll from the capture device. A nil point is a
// hit-test miss; its quality signals are still recorded.
type Sample struct {
	Point           *Point3       `json:"point"`
	Tracking        TrackingState `json:"tracking,omitempty"`
	TrackingCode    *float64      `json:"trackingCode,omitempty"`
	Lux             *float64      `json:"lux,omitempty"`
	Lighting        *float64      `json:"lighting,omitempty"`
	MotionStability *float64      `json:"motionStability,omitempty"`
	Motion          *float64      `json:"motion,omitempty"`
}

// SurfaceUpdate is the full surface set published by the detection layer.
type SurfaceUpdate struct {
	Surfaces []Surface `json:"surfaces"`
}

// DecodeCommand validates and decodes a command payload.
func DecodeCommand(v *CommandValidator, data []byte) (Command, error) {
	if v != nil {
		if err := v.ValidateBytes(data); err != nil {
			return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if err := cmd.check(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// DecodeSample decodes a hit-test sample payload.
func DecodeSample(data []byte) (Sample, error) {
	var s Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return Sample{}, fmt.Errorf("decoding sample: %w", err)
	}
	return s, nil
}

// DecodeSurfaces accepts either {"surfaces": [...]} or a bare array.
func DecodeSurfaces(data []byte) ([]Surface, error) {
	var list []Surface
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var update SurfaceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return nil, fmt.Errorf("decoding surfaces: %w", err)
	}
	return update.Surfaces, nil
}

// check enforces the per-action requirements the schema cannot express.
func (c Command) check() error {
	switch c.Action {
	case ActionAdd:
		if c.Point == nil {
			return fmt.Errorf("%w: add requires a point", ErrInvalidCommand)
		}
		if !c.Point.IsFinite() {
			return fmt.Errorf("%w: point must be finite", ErrInvalidCommand)
		}
	case ActionHeight:
		if c.Index == nil {
			return fmt.Errorf("%w: height requires an index", ErrInvalidCommand)
		}
	case ActionKeep, ActionClose, ActionFinish, ActionUndo, ActionRedo, ActionClear, ActionReset, ActionRoom:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, c.Action)
	}
	return nil
}
