package placement

import (
	"context"
	"fmt"
	"sort"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/geometry"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// Optimizer searches for the smallest set of occupants whose relocation frees a slot.
type Optimizer struct {
	MaxItems      int
	MaxCandidates int
	Admit         func(ctx context.Context, it cargo.Item, c cargo.Container) bool
}

// Candidates ranks a container's occupants by how cheap they are to disturb:
// lowest priority, fewest remaining uses, smallest volume, then ID.
func Candidates(st *warehouse.State, sp *geometry.Space) []cargo.Item {
	var out []cargo.Item
	for _, id := range sp.Occupants() {
		it, ok := st.Items[id]
		if !ok {
			b, _ := sp.Box(id)
			it = cargo.Item{ID: id, Dimensions: b.Size()}
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.RemainingUses() != b.RemainingUses() {
			return a.RemainingUses() < b.RemainingUses()
		}
		if va, vb := a.Volume(), b.Volume(); va != vb {
			return va < vb
		}
		return a.ID < b.ID
	})
	return out
}

// Rearrange frees a slot for target in containerID. It returns the updated
// layout, the target's position and the move steps. The input layout is untouched.
// Subsets are tried smallest first, so the relocation count is minimal within the
// candidate cap.
func (o *Optimizer) Rearrange(ctx context.Context, st *warehouse.State, layout *geometry.Layout,
	containerID string, target cargo.Item) (*geometry.Layout, cargo.Position, []cargo.MoveStep, error) {

	sp := layout.Space(containerID)
	if sp == nil {
		return nil, cargo.Position{}, nil, fmt.Errorf("%w: container %s", cargo.ErrNotFound, containerID)
	}

	// Never displace an occupant at least as critical as the incoming item.
	var candidates []cargo.Item
	for _, it := range Candidates(st, sp) {
		if it.Priority < target.Priority {
			candidates = append(candidates, it)
		}
	}
	if o.MaxCandidates > 0 && len(candidates) > o.MaxCandidates {
		candidates = candidates[:o.MaxCandidates]
	}
	maxItems := o.MaxItems
	if maxItems > len(candidates) {
		maxItems = len(candidates)
	}

	need := target.Volume()
	for k := 1; k <= maxItems; k++ {
		var found *attempt
		combinations(len(candidates), k, func(idx []int) bool {
			if ctx.Err() != nil {
				return false
			}
			subset := make([]cargo.Item, len(idx))
			var freed float64
			for i, n := range idx {
				subset[i] = candidates[n]
				freed += candidates[n].Volume()
			}
			if sp.FreeVolume()+freed < need-cargo.Epsilon {
				return true
			}
			if a, ok := o.try(ctx, st, layout, containerID, target, subset); ok {
				found = a
				return false
			}
			return true
		})
		if err := ctx.Err(); err != nil {
			return nil, cargo.Position{}, nil, err
		}
		if found != nil {
			return found.layout, found.position, found.steps, nil
		}
	}

	return nil, cargo.Position{}, nil, fmt.Errorf("%w: no set of up to %d item(s) in %s frees a slot for %s",
		cargo.ErrInfeasible, o.MaxItems, containerID, target.ID)
}

type attempt struct {
	layout   *geometry.Layout
	position cargo.Position
	steps    []cargo.MoveStep
}

// try removes subset, places target, then re-places every removed item.
func (o *Optimizer) try(ctx context.Context, st *warehouse.State, layout *geometry.Layout,
	containerID string, target cargo.Item, subset []cargo.Item) (*attempt, bool) {

	trial := layout.Clone()
	sp := trial.Space(containerID)

	origins := make([]cargo.Position, len(subset))
	for i, it := range subset {
		origins[i], _ = sp.Remove(it.ID)
	}

	pos, ok := sp.FirstFit(target.Dimensions)
	if !ok {
		return nil, false
	}
	if err := sp.Place(target.ID, pos); err != nil {
		return nil, false
	}

	steps := make([]cargo.MoveStep, 0, 2*len(subset)+1)
	for i, it := range subset {
		steps = append(steps, cargo.MoveStep{
			Action: cargo.ActionRemove, ItemID: it.ID, ItemName: it.Name,
			From: &cargo.Location{ContainerID: containerID, Position: &origins[i]},
		})
	}
	steps = append(steps, cargo.MoveStep{
		Action: cargo.ActionPlace, ItemID: target.ID, ItemName: target.Name,
		To: &cargo.Location{ContainerID: containerID, Position: &pos},
	})

	for i, it := range subset {
		dest, at, ok := o.replace(ctx, trial, sp, it, origins[i])
		if !ok {
			return nil, false
		}
		action := cargo.ActionMove
		if dest == containerID && at.Start.Equal(origins[i].Start) {
			action = cargo.ActionPlaceBack
		}
		from, to := origins[i], at
		steps = append(steps, cargo.MoveStep{
			Action: action, ItemID: it.ID, ItemName: it.Name,
			From: &cargo.Location{ContainerID: containerID, Position: &from},
			To:   &cargo.Location{ContainerID: dest, Position: &to},
		})
	}

	return &attempt{layout: trial, position: pos, steps: steps}, true
}

// replace finds a new home for a displaced item: its original slot, then any slot in
// the same container, then its preferred zone, then everywhere else.
func (o *Optimizer) replace(ctx context.Context, trial *geometry.Layout, home *geometry.Space,
	it cargo.Item, origin cargo.Position) (string, cargo.Position, bool) {

	dims := origin.Size()
	if home.Fits(origin.Start, dims) {
		if home.Place(it.ID, origin) == nil {
			return home.Container.ID, origin, true
		}
	}
	if pos, ok := home.FirstFit(dims); ok && home.Place(it.ID, pos) == nil {
		return home.Container.ID, pos, true
	}

	var preferred, others []*geometry.Space
	for _, sp := range trial.Spaces() {
		if sp == home {
			continue
		}
		if it.PreferredZone != "" && sp.Container.Zone == it.PreferredZone {
			preferred = append(preferred, sp)
		} else {
			others = append(others, sp)
		}
	}
	for _, sp := range append(preferred, others...) {
		if o.Admit != nil && !o.Admit(ctx, it, sp.Container) {
			continue
		}
		if pos, ok := sp.FirstFit(dims); ok && sp.Place(it.ID, pos) == nil {
			return sp.Container.ID, pos, true
		}
	}
	return "", cargo.Position{}, false
}

// combinations yields k-subsets of [0,n) in lexicographic order until fn returns false.
func combinations(n, k int, fn func([]int) bool) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(append([]int(nil), idx...)) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
