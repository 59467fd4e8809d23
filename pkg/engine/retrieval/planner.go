// Package retrieval computes the steps to extract an item through its
// container's open face (depth 0), disturbing only the items in the way.
package retrieval

import (
	"fmt"
	"sort"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/geometry"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// Plan is the extraction sequence for one item.
type Plan struct {
	ItemID      string           `json:"itemId"`
	ContainerID string           `json:"containerId"`
	Zone        string           `json:"zone"`
	Position    cargo.Position   `json:"position"`
	Steps       []cargo.MoveStep `json:"retrievalSteps"`
}

// Blocks reports whether p sits in the access path of t: their width×height
// footprints overlap and p ends no deeper than t starts.
func Blocks(p, t cargo.Position) bool {
	return p.Start.Width < t.End.Width-cargo.Epsilon && t.Start.Width < p.End.Width-cargo.Epsilon &&
		p.Start.Height < t.End.Height-cargo.Epsilon && t.Start.Height < p.End.Height-cargo.Epsilon &&
		p.End.Depth <= t.Start.Depth+cargo.Epsilon
}

// Blockers lists the occupants of sp in front of targetID, nearest the open face first.
func Blockers(sp *geometry.Space, targetID string) ([]string, error) {
	target, ok := sp.Box(targetID)
	if !ok {
		return nil, fmt.Errorf("%w: item %s is not in container %s", cargo.ErrNotFound, targetID, sp.Container.ID)
	}
	type blocker struct {
		id  string
		box cargo.Position
	}
	var found []blocker
	for _, id := range sp.Occupants() {
		if id == targetID {
			continue
		}
		b, _ := sp.Box(id)
		if Blocks(b, target) {
			found = append(found, blocker{id: id, box: b})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].box.Start.Depth < found[j].box.Start.Depth
	})
	ids := make([]string, len(found))
	for i, b := range found {
		ids[i] = b.id
	}
	return ids, nil
}

// Compute plans the retrieval of itemID without touching st.
func Compute(st *warehouse.State, itemID string) (*Plan, error) {
	return ComputeIn(st, st.Layout(), itemID)
}

// ComputeIn plans against an existing layout, so callers sequencing several
// retrievals can share one working copy.
func ComputeIn(st *warehouse.State, layout *geometry.Layout, itemID string) (*Plan, error) {
	if _, ok := st.Items[itemID]; !ok {
		return nil, fmt.Errorf("%w: item %s", cargo.ErrNotFound, itemID)
	}
	sp, target, ok := layout.Locate(itemID)
	if !ok {
		return nil, fmt.Errorf("%w: item %s is not stored in any container", cargo.ErrNotFound, itemID)
	}
	blockers, err := Blockers(sp, itemID)
	if err != nil {
		return nil, err
	}

	cid := sp.Container.ID
	at := func(p cargo.Position) *cargo.Location {
		return &cargo.Location{ContainerID: cid, Position: &p}
	}
	name := func(id string) string { return st.Items[id].Name }

	steps := make([]cargo.MoveStep, 0, 3*len(blockers)+1)
	for _, id := range blockers {
		b, _ := sp.Box(id)
		steps = append(steps,
			cargo.MoveStep{Action: cargo.ActionRemove, ItemID: id, ItemName: name(id), From: at(b)},
			cargo.MoveStep{Action: cargo.ActionSetAside, ItemID: id, ItemName: name(id)},
		)
	}
	steps = append(steps, cargo.MoveStep{Action: cargo.ActionRetrieve, ItemID: itemID, ItemName: name(itemID), From: at(target)})
	for i := len(blockers) - 1; i >= 0; i-- {
		id := blockers[i]
		b, _ := sp.Box(id)
		steps = append(steps, cargo.MoveStep{Action: cargo.ActionPlaceBack, ItemID: id, ItemName: name(id), To: at(b)})
	}

	return &Plan{
		ItemID:      itemID,
		ContainerID: cid,
		Zone:        sp.Container.Zone,
		Position:    target,
		Steps:       cargo.Renumber(steps, 1),
	}, nil
}

// Commit takes the item out of its container; the item record stays known.
func Commit(st *warehouse.State, plan *Plan) error {
	p, ok := st.Placement(plan.ItemID)
	if !ok || p.ContainerID != plan.ContainerID {
		return fmt.Errorf("%w: item %s moved since the plan was made", cargo.ErrConflictingState, plan.ItemID)
	}
	delete(st.Placements, plan.ItemID)
	return nil
}

// Count is the number of items a plan disturbs besides the target.
func (p *Plan) Count() int {
	n := 0
	for _, s := range p.Steps {
		if s.Action == cargo.ActionRemove {
			n++
		}
	}
	return n
}
