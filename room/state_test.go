package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTracker_StartIsIdempotent(t *testing.T) {
	st := NewSessionTracker(nil)
	assert.False(t, st.HasSessions())

	a := st.Start("tablet")
	b := st.Start("tablet")

	assert.Equal(t, a.ID, b.ID)
	assert.True(t, st.HasSessions())

	id, ok := st.DeviceSession("tablet")
	assert.True(t, ok)
	assert.Equal(t, a.ID, id)

	_, ok = st.DeviceSession("other")
	assert.False(t, ok)
}

func TestSessionTracker_ApplyCreatesSession(t *testing.T) {
	st := NewSessionTracker(nil)
	st.UpdateSurfaces("tablet", squareRoom())

	s, state, err := st.Apply("tablet", addCmd(0.1, 0, 0.1))
	require.NoError(t, err)
	assert.Equal(t, PhaseOpen, state.Phase)

	device, err := st.DeviceForSession(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "tablet", device)

	bs, err := st.State(s.ID)
	require.NoError(t, err)
	assert.Equal(t, SnapCorner, bs.Points[0].Snap)
}

func TestSessionTracker_ResetStartsNewSession(t *testing.T) {
	st := NewSessionTracker(nil)
	st.UpdateSurfaces("tablet", squareRoom())
	first, _, err := st.Apply("tablet", Command{Action: ActionRoom, RoomType: "office"})
	require.NoError(t, err)
	_, _, err = st.Apply("tablet", addCmd(0.1, 0, 0.1))
	require.NoError(t, err)

	next, state, err := st.Apply("tablet", Command{Action: ActionReset})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, next.ID)
	assert.Equal(t, PhaseEmpty, state.Phase)
	assert.Equal(t, "office", next.RoomType)
	assert.Len(t, next.Surfaces(), 2, "surfaces carry over")

	old, err := st.Summary(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, old.Points, "previous session stays readable")

	id, _ := st.DeviceSession("tablet")
	assert.Equal(t, next.ID, id)
}

func TestSessionTracker_NotFound(t *testing.T) {
	st := NewSessionTracker(nil)

	_, err := st.Summary("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.State("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Measure("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Outline("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.DeviceForSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionTracker_SummariesSortedByDevice(t *testing.T) {
	st := NewSessionTracker(nil)
	st.Start("zeta")
	st.Start("alpha")
	st.Start("mid")

	got := st.Summaries()
	require.Len(t, got, 3)
	assert.Equal(t, "alpha", got[0].DeviceID)
	assert.Equal(t, "mid", got[1].DeviceID)
	assert.Equal(t, "zeta", got[2].DeviceID)
}

func TestSessionTracker_Outline(t *testing.T) {
	st := NewSessionTracker(nil)
	summary := st.UpdateSurfaces("tablet", squareRoom())

	fc, err := st.Outline(summary.ID)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1, "only the floor hull before any walk")
	assert.Equal(t, "hull", fc.Features[0].Properties[PropSource])
}

func TestSessionTracker_ConcurrentDevices(t *testing.T) {
	st := NewSessionTracker(nil)
	devices := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, d := range devices {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			st.UpdateSurfaces(device, squareRoom())
			for i := 0; i < 20; i++ {
				st.RecordSample(device, Sample{Point: &Point3{X: float64(i)}})
				_, _, _ = st.Apply(device, addCmd(float64(i), 0, 10))
				st.Summaries()
			}
		}(d)
	}
	wg.Wait()

	assert.Len(t, st.Summaries(), len(devices))
}
