package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// ErrSessionNotFound is returned when no session matches an ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionTracker owns one active session per device and serializes access to
// it, since MQTT callbacks and HTTP handlers run on separate goroutines.
type SessionTracker struct {
	mu       sync.RWMutex
	cfg      *Config
	byDevice map[string]*Session
	byID     map[string]*Session
}

// NewSessionTracker creates a tracker. A nil config uses defaults.
func NewSessionTracker(cfg *Config) *SessionTracker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SessionTracker{
		cfg:      cfg,
		byDevice: make(map[string]*Session),
		byID:     make(map[string]*Session),
	}
}

// sessionLocked returns the device's session, creating it on first use.
// Callers must hold the write lock.
func (st *SessionTracker) sessionLocked(deviceID string) *Session {
	s, ok := st.byDevice[deviceID]
	if !ok {
		s = NewSession(deviceID, st.cfg)
		st.byDevice[deviceID] = s
		st.byID[s.ID] = s
	}
	return s
}

// Start makes sure a device has an active session and returns its summary.
func (st *SessionTracker) Start(deviceID string) SessionSummary {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessionLocked(deviceID).Summary()
}

// UpdateSurfaces replaces a device's surface set.
func (st *SessionTracker) UpdateSurfaces(deviceID string, surfaces []Surface) SessionSummary {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessionLocked(deviceID)
	s.UpdateSurfaces(surfaces)
	return s.Summary()
}

// RecordSample feeds one hit-test poll to a device's session.
func (st *SessionTracker) RecordSample(deviceID string, sample Sample) *SnapResult {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessionLocked(deviceID).RecordSample(sample)
}

// Apply runs a command on a device's session. A reset starts a new session
// (fresh ID) that inherits the current surface set; the old one stays
// readable by ID.
func (st *SessionTracker) Apply(deviceID string, cmd Command) (*Session, BuilderState, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.sessionLocked(deviceID)
	if cmd.Action == ActionReset {
		next := NewSession(deviceID, st.cfg)
		next.UpdateSurfaces(s.surfaces)
		next.RoomType = s.RoomType
		st.byDevice[deviceID] = next
		st.byID[next.ID] = next
		return next, next.State(), nil
	}

	state, err := s.Apply(cmd)
	return s, state, err
}

// DeviceSession returns the ID of a device's active session.
func (st *SessionTracker) DeviceSession(deviceID string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byDevice[deviceID]
	if !ok {
		return "", false
	}
	return s.ID, true
}

// DeviceForSession maps a session ID to its device.
func (st *SessionTracker) DeviceForSession(id string) (string, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.DeviceID, nil
}

// Summary returns the summary of a session by ID.
func (st *SessionTracker) Summary(id string) (SessionSummary, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	if !ok {
		return SessionSummary{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Summary(), nil
}

// State returns the builder state of a session by ID.
func (st *SessionTracker) State(id string) (BuilderState, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	if !ok {
		return BuilderState{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.State(), nil
}

// Measure computes the measurement payload for a session by ID.
func (st *SessionTracker) Measure(id string) (Measurement, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	if !ok {
		return Measurement{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.Measure(), nil
}

// Outline returns the walked perimeter and merged floor hull of a session.
func (st *SessionTracker) Outline(id string) (*geojson.FeatureCollection, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return OutlineCollection(s.builder.Points(), MergeFloor(s.surfaces, st.cfg.Tolerances)), nil
}

// Summaries lists the active session of every device, sorted by device ID.
func (st *SessionTracker) Summaries() []SessionSummary {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]SessionSummary, 0, len(st.byDevice))
	for _, s := range st.byDevice {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// HasSessions returns true if at least one device has a session.
func (st *SessionTracker) HasSessions() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byDevice) > 0
}
