package geometry

import "github.com/DrSkyle/stowage/pkg/cargo"

// Layout is an ordered set of spaces; order is container insertion order.
type Layout struct {
	order  []string
	spaces map[string]*Space
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{spaces: make(map[string]*Space)}
}

// Add registers c and returns its space. Re-adding an ID returns the existing space.
func (l *Layout) Add(c cargo.Container) *Space {
	if s, ok := l.spaces[c.ID]; ok {
		return s
	}
	s := NewSpace(c)
	l.spaces[c.ID] = s
	l.order = append(l.order, c.ID)
	return s
}

// Space returns the space for a container ID, or nil.
func (l *Layout) Space(id string) *Space {
	return l.spaces[id]
}

// Spaces returns every space in insertion order.
func (l *Layout) Spaces() []*Space {
	out := make([]*Space, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.spaces[id])
	}
	return out
}

// Locate finds the space and box holding itemID.
func (l *Layout) Locate(itemID string) (*Space, cargo.Position, bool) {
	for _, id := range l.order {
		s := l.spaces[id]
		if b, ok := s.Box(itemID); ok {
			return s, b, true
		}
	}
	return nil, cargo.Position{}, false
}

// Clone deep-copies every space.
func (l *Layout) Clone() *Layout {
	out := &Layout{order: append([]string(nil), l.order...), spaces: make(map[string]*Space, len(l.spaces))}
	for id, s := range l.spaces {
		out.spaces[id] = s.Clone()
	}
	return out
}

// Placements flattens the layout, ordered by container then item ID.
func (l *Layout) Placements() []cargo.Placement {
	var out []cargo.Placement
	for _, s := range l.Spaces() {
		for _, id := range s.Occupants() {
			b, _ := s.Box(id)
			out = append(out, cargo.Placement{ItemID: id, ContainerID: s.Container.ID, Position: b})
		}
	}
	return out
}
