package room

import (
	"github.com/paulmach/orb/planar"
)

// Phase is the perimeter walk state.
type Phase string

const (
	PhaseEmpty  Phase = "empty"
	PhaseOpen   Phase = "open"
	PhaseClosed Phase = "closed"
)

// BuilderState is the externally visible state after each builder operation.
type BuilderState struct {
	Phase       Phase            `json:"phase"`
	Points      []PerimeterPoint `json:"points"`
	Heights     VertexHeights    `json:"vertexHeights"`
	ClosePrompt bool             `json:"closePrompt"`
	CanUndo     bool             `json:"canUndo"`
	CanRedo     bool             `json:"canRedo"`
}

// PerimeterBuilder accumulates confirmed points into an ordered room polygon.
// It is the only writer of its point list; every mutation goes through a
// method so the undo/redo history stays consistent. Not safe for concurrent use.
type PerimeterBuilder struct {
	tol     Tolerances
	current snapshot
	closed  bool
	pending *PerimeterPoint
	undo    *boundedStack
	redo    *boundedStack
}

// NewPerimeterBuilder creates an empty builder.
func NewPerimeterBuilder(tol Tolerances) *PerimeterBuilder {
	return &PerimeterBuilder{
		tol:  tol,
		undo: newBoundedStack(tol.UndoCapacity),
		redo: newBoundedStack(tol.UndoCapacity),
	}
}

// Phase reports Empty, Open or Closed.
func (b *PerimeterBuilder) Phase() Phase {
	switch {
	case b.closed:
		return PhaseClosed
	case len(b.current.points) == 0:
		return PhaseEmpty
	default:
		return PhaseOpen
	}
}

// State returns a copy of the builder state.
func (b *PerimeterBuilder) State() BuilderState {
	cur := b.current.clone()
	return BuilderState{
		Phase:       b.Phase(),
		Points:      cur.points,
		Heights:     cur.heights,
		ClosePrompt: b.pending != nil,
		CanUndo:     !b.closed && b.undo.len() > 0,
		CanRedo:     !b.closed && b.redo.len() > 0,
	}
}

// Points returns a copy of the confirmed points.
func (b *PerimeterBuilder) Points() []PerimeterPoint {
	return b.current.clone().points
}

// Heights returns a copy of the vertex heights, index-aligned with Points.
func (b *PerimeterBuilder) Heights() VertexHeights {
	return b.current.heights.Clone()
}

// Add confirms a new point. When the walk has at least three points and p lies
// within the close radius of the first one, the point is held back and the
// returned state carries ClosePrompt; the caller answers with KeepAdding or
// ConfirmClose. Adding to a closed walk is a no-op.
func (b *PerimeterBuilder) Add(p PerimeterPoint) BuilderState {
	if b.closed {
		return b.State()
	}
	b.pending = nil

	pts := b.current.points
	if len(pts) >= 3 && planar.Distance(p.Planar(), pts[0].Planar()) <= b.tol.CloseRadius {
		held := p
		b.pending = &held
		return b.State()
	}

	b.append(p)
	return b.State()
}

// KeepAdding resolves a close prompt by appending the held point as an
// ordinary vertex.
func (b *PerimeterBuilder) KeepAdding() BuilderState {
	if b.closed || b.pending == nil {
		return b.State()
	}
	p := *b.pending
	b.pending = nil
	b.append(p)
	return b.State()
}

// ConfirmClose resolves a close prompt by discarding the near-duplicate point
// and closing the polygon.
func (b *PerimeterBuilder) ConfirmClose() BuilderState {
	if b.closed || b.pending == nil {
		return b.State()
	}
	b.pending = nil
	b.closed = true
	return b.State()
}

// Finish closes the walk explicitly. It needs at least three points.
func (b *PerimeterBuilder) Finish() BuilderState {
	if b.closed || len(b.current.points) < 3 {
		return b.State()
	}
	b.pending = nil
	b.closed = true
	return b.State()
}

// Undo restores the previous snapshot.
func (b *PerimeterBuilder) Undo() BuilderState {
	if b.closed {
		return b.State()
	}
	prev, ok := b.undo.pop()
	if !ok {
		return b.State()
	}
	b.pending = nil
	b.redo.push(b.current)
	b.current = prev
	return b.State()
}

// Redo re-applies the most recently undone snapshot.
func (b *PerimeterBuilder) Redo() BuilderState {
	if b.closed {
		return b.State()
	}
	next, ok := b.redo.pop()
	if !ok {
		return b.State()
	}
	b.pending = nil
	b.undo.push(b.current)
	b.current = next
	return b.State()
}

// Clear empties the walk, keeping an undo snapshot so it can be reverted.
func (b *PerimeterBuilder) Clear() BuilderState {
	b.pending = nil
	b.closed = false
	b.undo.push(b.current.clone())
	b.redo.clear()
	b.current = snapshot{}
	return b.State()
}

// Reset discards the walk and all history to start a new one.
func (b *PerimeterBuilder) Reset() BuilderState {
	b.pending = nil
	b.closed = false
	b.current = snapshot{}
	b.undo.clear()
	b.redo.clear()
	return b.State()
}

// SetHeight records the ceiling height for vertex i. Out-of-range indices and
// closed walks are ignored.
func (b *PerimeterBuilder) SetHeight(i int, h *float64) BuilderState {
	if b.closed || i < 0 || i >= len(b.current.points) {
		return b.State()
	}
	b.checkpoint()
	next := b.current.clone()
	if h != nil {
		v := *h
		next.heights[i] = &v
	} else {
		next.heights[i] = nil
	}
	b.current = next
	return b.State()
}

func (b *PerimeterBuilder) append(p PerimeterPoint) {
	b.checkpoint()
	next := b.current.clone()
	p.Point3 = OptimizeEdge(next.points, p.Point3, b.tol)
	if p.Snap == "" {
		p.Snap = SnapFree
	}
	next.points = append(next.points, p)
	next.heights = append(next.heights, nil)
	b.current = next
}

// checkpoint pushes the current snapshot and invalidates redo history.
func (b *PerimeterBuilder) checkpoint() {
	b.undo.push(b.current.clone())
	b.redo.clear()
}
