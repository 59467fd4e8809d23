// Package geometry models a container as an axis-aligned box holding
// non-overlapping axis-aligned occupants.
package geometry

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

// Overlaps uses half-open intervals on all three axes; touching faces do not overlap.
func Overlaps(a, b cargo.Position) bool {
	return a.Start.Width < b.End.Width-cargo.Epsilon && b.Start.Width < a.End.Width-cargo.Epsilon &&
		a.Start.Depth < b.End.Depth-cargo.Epsilon && b.Start.Depth < a.End.Depth-cargo.Epsilon &&
		a.Start.Height < b.End.Height-cargo.Epsilon && b.Start.Height < a.End.Height-cargo.Epsilon
}

// Within reports whether p lies inside [0, bounds] on every axis.
func Within(p cargo.Position, bounds cargo.Vec3) bool {
	return p.Start.Width >= -cargo.Epsilon && p.Start.Depth >= -cargo.Epsilon && p.Start.Height >= -cargo.Epsilon &&
		p.End.Width <= bounds.Width+cargo.Epsilon &&
		p.End.Depth <= bounds.Depth+cargo.Epsilon &&
		p.End.Height <= bounds.Height+cargo.Epsilon
}

// Space tracks the occupied sub-volumes of one container.
type Space struct {
	Container cargo.Container
	boxes     map[string]cargo.Position
}

// NewSpace returns an empty space for c.
func NewSpace(c cargo.Container) *Space {
	return &Space{Container: c, boxes: make(map[string]cargo.Position)}
}

// Clone copies the occupancy so callers can plan without touching the original.
func (s *Space) Clone() *Space {
	out := &Space{Container: s.Container, boxes: make(map[string]cargo.Position, len(s.boxes))}
	for id, b := range s.boxes {
		out.boxes[id] = b
	}
	return out
}

// Fits reports whether dims anchored at pos stays in bounds and clear of every occupant.
func (s *Space) Fits(pos, dims cargo.Vec3) bool {
	candidate := cargo.NewPosition(pos, dims)
	if !Within(candidate, s.Container.Dimensions) {
		return false
	}
	for _, b := range s.boxes {
		if Overlaps(candidate, b) {
			return false
		}
	}
	return true
}

// FreeSlots yields candidate anchors: the origin plus every occupant end face, per axis.
// Anchors come out by increasing height, then depth, then width, so scans are reproducible
// and shallow slots (nearest the open face) are preferred at equal height.
func (s *Space) FreeSlots() iter.Seq[cargo.Vec3] {
	ws, ds, hs := []float64{0}, []float64{0}, []float64{0}
	for _, b := range s.boxes {
		ws = append(ws, b.End.Width)
		ds = append(ds, b.End.Depth)
		hs = append(hs, b.End.Height)
	}
	dims := s.Container.Dimensions
	ws, ds, hs = anchors(ws, dims.Width), anchors(ds, dims.Depth), anchors(hs, dims.Height)

	return func(yield func(cargo.Vec3) bool) {
		for _, h := range hs {
			for _, d := range ds {
				for _, w := range ws {
					p := cargo.Vec3{Width: w, Depth: d, Height: h}
					if s.inside(p) {
						continue
					}
					if !yield(p) {
						return
					}
				}
			}
		}
	}
}

// FirstFit returns the first free slot that admits dims.
func (s *Space) FirstFit(dims cargo.Vec3) (cargo.Position, bool) {
	for p := range s.FreeSlots() {
		if s.Fits(p, dims) {
			return cargo.NewPosition(p, dims), true
		}
	}
	return cargo.Position{}, false
}

// Place records an occupant. It refuses out-of-bounds or overlapping boxes.
func (s *Space) Place(id string, p cargo.Position) error {
	if _, ok := s.boxes[id]; ok {
		return fmt.Errorf("%w: item %s already occupies container %s", cargo.ErrConflictingState, id, s.Container.ID)
	}
	if !Within(p, s.Container.Dimensions) {
		return fmt.Errorf("%w: item %s exceeds bounds of container %s", cargo.ErrConflictingState, id, s.Container.ID)
	}
	for other, b := range s.boxes {
		if Overlaps(p, b) {
			return fmt.Errorf("%w: item %s overlaps %s in container %s", cargo.ErrConflictingState, id, other, s.Container.ID)
		}
	}
	s.boxes[id] = p
	return nil
}

// Remove drops an occupant and returns its box.
func (s *Space) Remove(id string) (cargo.Position, bool) {
	b, ok := s.boxes[id]
	if ok {
		delete(s.boxes, id)
	}
	return b, ok
}

// Box returns the occupant's box.
func (s *Space) Box(id string) (cargo.Position, bool) {
	b, ok := s.boxes[id]
	return b, ok
}

// Occupants lists occupant IDs in sorted order.
func (s *Space) Occupants() []string {
	ids := make([]string, 0, len(s.boxes))
	for id := range s.boxes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the occupant count.
func (s *Space) Len() int {
	return len(s.boxes)
}

// OccupiedVolume sums the occupant volumes.
func (s *Space) OccupiedVolume() float64 {
	var total float64
	for _, b := range s.boxes {
		total += b.Size().Volume()
	}
	return total
}

// FreeVolume is the container volume minus OccupiedVolume.
func (s *Space) FreeVolume() float64 {
	return s.Container.Volume() - s.OccupiedVolume()
}

func (s *Space) inside(p cargo.Vec3) bool {
	for _, b := range s.boxes {
		if p.Width >= b.Start.Width-cargo.Epsilon && p.Width < b.End.Width-cargo.Epsilon &&
			p.Depth >= b.Start.Depth-cargo.Epsilon && p.Depth < b.End.Depth-cargo.Epsilon &&
			p.Height >= b.Start.Height-cargo.Epsilon && p.Height < b.End.Height-cargo.Epsilon {
			return true
		}
	}
	return false
}

// anchors sorts, dedups and drops coordinates at or past the container face.
func anchors(vals []float64, limit float64) []float64 {
	slices.Sort(vals)
	out := vals[:0]
	for _, v := range vals {
		if v >= limit-cargo.Epsilon {
			continue
		}
		if len(out) > 0 && v-out[len(out)-1] <= cargo.Epsilon {
			continue
		}
		out = append(out, v)
	}
	return out
}
