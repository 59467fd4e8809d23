// Package warehouse holds the single mutable ledger every planner reads:
// containers, item records, placements, waste classifications and the simulated date.
package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/geometry"
)

// State is not safe for concurrent use; the engine serialises access.
type State struct {
	CurrentDate    time.Time                       `json:"currentDate"`
	Containers     map[string]cargo.Container      `json:"containers"`
	ContainerOrder []string                        `json:"containerOrder"`
	Items          map[string]cargo.Item           `json:"items"`
	Placements     map[string]cargo.Placement      `json:"placements"`
	Waste          map[string]cargo.WasteRecord    `json:"waste"`
	Returns        map[string]cargo.ReturnManifest `json:"returns"`
}

// New returns an empty state starting on the given date.
func New(date time.Time) *State {
	return &State{
		CurrentDate: cargo.Day(date),
		Containers:  make(map[string]cargo.Container),
		Items:       make(map[string]cargo.Item),
		Placements:  make(map[string]cargo.Placement),
		Waste:       make(map[string]cargo.WasteRecord),
		Returns:     make(map[string]cargo.ReturnManifest),
	}
}

// Clone deep-copies the state so an operation can work on a private copy and commit atomically.
func (s *State) Clone() *State {
	out := New(s.CurrentDate)
	out.ContainerOrder = append([]string(nil), s.ContainerOrder...)
	for id, c := range s.Containers {
		out.Containers[id] = c
	}
	for id, it := range s.Items {
		out.Items[id] = it.Clone()
	}
	for id, p := range s.Placements {
		out.Placements[id] = p
	}
	for id, w := range s.Waste {
		w.Placement = nil
		out.Waste[id] = w
	}
	for id, m := range s.Returns {
		m.Items = append([]cargo.ManifestItem(nil), m.Items...)
		m.Remaining = append([]cargo.ManifestItem(nil), m.Remaining...)
		out.Returns[id] = m
	}
	return out
}

// AddContainer registers c. Containers are immutable: re-adding with different
// dimensions or zone is rejected.
func (s *State) AddContainer(c cargo.Container) error {
	if existing, ok := s.Containers[c.ID]; ok {
		if existing.Zone != c.Zone || !existing.Dimensions.Equal(c.Dimensions) {
			return fmt.Errorf("%w: container %s already exists with different shape", cargo.ErrInvalidInput, c.ID)
		}
		return nil
	}
	s.Containers[c.ID] = c
	s.ContainerOrder = append(s.ContainerOrder, c.ID)
	return nil
}

// OrderedContainers lists containers in insertion order.
func (s *State) OrderedContainers() []cargo.Container {
	out := make([]cargo.Container, 0, len(s.ContainerOrder))
	for _, id := range s.ContainerOrder {
		out = append(out, s.Containers[id])
	}
	return out
}

// RemoveContainer drops a container; its contents must already be gone.
func (s *State) RemoveContainer(id string) {
	delete(s.Containers, id)
	delete(s.Returns, id)
	for i, cid := range s.ContainerOrder {
		if cid == id {
			s.ContainerOrder = append(s.ContainerOrder[:i], s.ContainerOrder[i+1:]...)
			break
		}
	}
}

// Layout builds the geometric view of every container.
func (s *State) Layout() *geometry.Layout {
	l := geometry.NewLayout()
	for _, c := range s.OrderedContainers() {
		l.Add(c)
	}
	ids := make([]string, 0, len(s.Placements))
	for id := range s.Placements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := s.Placements[id]
		if sp := l.Space(p.ContainerID); sp != nil {
			// Invariant errors surface through Validate; the layout stays best-effort.
			_ = sp.Place(id, p.Position)
		}
	}
	return l
}

// ApplyLayout replaces every placement with the layout's occupants.
func (s *State) ApplyLayout(l *geometry.Layout) {
	s.Placements = make(map[string]cargo.Placement)
	for _, p := range l.Placements() {
		s.Placements[p.ItemID] = p
	}
}

// Validate checks bounds and pairwise non-overlap for every container.
func (s *State) Validate() error {
	byContainer := make(map[string][]cargo.Placement)
	for _, p := range s.Placements {
		c, ok := s.Containers[p.ContainerID]
		if !ok {
			return fmt.Errorf("%w: item %s placed in unknown container %s", cargo.ErrConflictingState, p.ItemID, p.ContainerID)
		}
		if !geometry.Within(p.Position, c.Dimensions) {
			return fmt.Errorf("%w: item %s exceeds bounds of %s", cargo.ErrConflictingState, p.ItemID, c.ID)
		}
		byContainer[p.ContainerID] = append(byContainer[p.ContainerID], p)
	}
	for cid, ps := range byContainer {
		for i := range ps {
			for j := i + 1; j < len(ps); j++ {
				if geometry.Overlaps(ps[i].Position, ps[j].Position) {
					return fmt.Errorf("%w: items %s and %s overlap in %s", cargo.ErrConflictingState, ps[i].ItemID, ps[j].ItemID, cid)
				}
			}
		}
	}
	return nil
}

// Placement returns the item's placement, if stored.
func (s *State) Placement(itemID string) (cargo.Placement, bool) {
	p, ok := s.Placements[itemID]
	return p, ok
}

// IsWaste reports whether the item is already classified.
func (s *State) IsWaste(itemID string) bool {
	_, ok := s.Waste[itemID]
	return ok
}

// MarkWaste classifies an item once; later calls keep the first reason.
func (s *State) MarkWaste(it cargo.Item, reason cargo.WasteReason, on time.Time) bool {
	if s.IsWaste(it.ID) {
		return false
	}
	s.Waste[it.ID] = cargo.WasteRecord{ItemID: it.ID, Name: it.Name, Reason: reason, ClassifiedOn: cargo.Day(on)}
	return true
}

// WasteRecords lists waste ordered by item ID, with current placements attached.
func (s *State) WasteRecords() []cargo.WasteRecord {
	ids := make([]string, 0, len(s.Waste))
	for id := range s.Waste {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]cargo.WasteRecord, 0, len(ids))
	for _, id := range ids {
		w := s.Waste[id]
		if p, ok := s.Placements[id]; ok {
			pc := p
			w.Placement = &pc
		}
		out = append(out, w)
	}
	return out
}

// DeleteItem forgets an item entirely.
func (s *State) DeleteItem(id string) {
	delete(s.Items, id)
	delete(s.Placements, id)
	delete(s.Waste, id)
}

// ItemsByName returns known items whose name satisfies match, ordered by ID.
func (s *State) ItemsByName(match func(string) bool) []cargo.Item {
	var out []cargo.Item
	for _, it := range s.Items {
		if match(it.Name) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
