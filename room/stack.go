package room

// snapshot is one undo/redo entry: points and heights travel together so the
// per-vertex height index stays aligned with the polygon.
type snapshot struct {
	points  []PerimeterPoint
	heights VertexHeights
}

func (s snapshot) clone() snapshot {
	pts := make([]PerimeterPoint, len(s.points))
	copy(pts, s.points)
	return snapshot{points: pts, heights: s.heights.Clone()}
}

// boundedStack is a LIFO that silently drops its oldest entry once full.
type boundedStack struct {
	items    []snapshot
	capacity int
}

func newBoundedStack(capacity int) *boundedStack {
	if capacity < 1 {
		capacity = 1
	}
	return &boundedStack{capacity: capacity}
}

func (s *boundedStack) push(v snapshot) {
	if len(s.items) == s.capacity {
		copy(s.items, s.items[1:])
		s.items = s.items[:len(s.items)-1]
	}
	s.items = append(s.items, v)
}

func (s *boundedStack) pop() (snapshot, bool) {
	if len(s.items) == 0 {
		return snapshot{}, false
	}
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v, true
}

func (s *boundedStack) clear() {
	s.items = nil
}

func (s *boundedStack) len() int {
	return len(s.items)
}
