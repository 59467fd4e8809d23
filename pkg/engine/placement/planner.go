// Package placement assigns incoming items to container positions, falling back
// to a bounded rearrangement of low-priority occupants when no slot is free.
package placement

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/config"
	"github.com/DrSkyle/stowage/pkg/engine/geometry"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// Admitter vetoes item/container pairs. A nil Admitter admits everything.
type Admitter interface {
	Admit(ctx context.Context, it cargo.Item, c cargo.Container) bool
}

// Result is the outcome of one placement batch.
type Result struct {
	Placements     []cargo.Placement `json:"placements"`
	Rearrangements []cargo.MoveStep  `json:"rearrangements"`
	Unplaced       []cargo.Unplaced  `json:"unplaced"`
}

// Planner places items into a warehouse state.
type Planner struct {
	Config    config.PlannerConfig
	Admission Admitter
	Logger    *slog.Logger
}

// NewPlanner creates a planner; admission may be nil.
func NewPlanner(cfg config.PlannerConfig, admission Admitter, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{Config: cfg, Admission: admission, Logger: logger}
}

// Order sorts items for placement: priority descending, then earliest expiry
// (no expiry last), then input order.
func Order(items []cargo.Item) []cargo.Item {
	out := append([]cargo.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		switch {
		case a.ExpiryDate == nil:
			return false
		case b.ExpiryDate == nil:
			return true
		default:
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	})
	return out
}

// Place stores items into st. Items that cannot be placed are reported, not
// returned as errors. st is mutated; callers wanting atomicity pass a clone.
func (p *Planner) Place(ctx context.Context, st *warehouse.State, items []cargo.Item) (*Result, error) {
	res := &Result{}
	layout := st.Layout()
	opt := &Optimizer{
		MaxItems:      p.Config.MaxRearrangeItems,
		MaxCandidates: p.Config.MaxRearrangeCandidates,
		Admit:         p.admit,
	}

	for _, it := range Order(items) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, placed := st.Placements[it.ID]; placed {
			return nil, fmt.Errorf("%w: item %s is already stored", cargo.ErrInvalidInput, it.ID)
		}
		// Known to the rearrangement optimizer while it is being placed.
		prev, known := st.Items[it.ID]
		st.Items[it.ID] = it

		preferred, others, blocked := p.partition(ctx, st, it)
		if len(preferred)+len(others) == 0 && blocked > 0 {
			p.restore(st, it.ID, prev, known)
			res.Unplaced = append(res.Unplaced, cargo.Unplaced{
				ItemID: it.ID, Reason: cargo.UnplacedBlocked,
				Detail: fmt.Sprintf("rejected by admission rules in %d container(s)", blocked),
			})
			p.Logger.Debug("Item blocked by policy", "item", it.ID)
			continue
		}

		pl, steps, next, ok := p.placeOne(ctx, st, layout, opt, it, preferred, others)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ok {
			p.restore(st, it.ID, prev, known)
			res.Unplaced = append(res.Unplaced, cargo.Unplaced{
				ItemID: it.ID, Reason: cargo.UnplacedNoCapacity,
				Detail: "no container admits the item, even after rearrangement",
			})
			p.Logger.Debug("Item could not be placed", "item", it.ID)
			continue
		}
		layout = next
		res.Placements = append(res.Placements, pl)
		res.Rearrangements = append(res.Rearrangements, steps...)
	}

	st.ApplyLayout(layout)
	// Rearranged occupants may have moved; report every incoming item at its final position.
	for i := range res.Placements {
		if final, ok := st.Placements[res.Placements[i].ItemID]; ok {
			res.Placements[i] = final
		}
	}
	cargo.Renumber(res.Rearrangements, 1)
	return res, nil
}

func (p *Planner) restore(st *warehouse.State, id string, prev cargo.Item, known bool) {
	if known {
		st.Items[id] = prev
		return
	}
	delete(st.Items, id)
}

// placeOne applies the container try-order: direct fit in the preferred zone,
// rearrangement there, direct fit elsewhere, rearrangement elsewhere.
func (p *Planner) placeOne(ctx context.Context, st *warehouse.State, layout *geometry.Layout, opt *Optimizer,
	it cargo.Item, preferred, others []cargo.Container) (cargo.Placement, []cargo.MoveStep, *geometry.Layout, bool) {

	for _, group := range [][]cargo.Container{preferred, others} {
		if pl, ok := direct(layout, it, group); ok {
			return pl, nil, layout, true
		}
		for _, c := range group {
			if !fitsEmpty(c, it) {
				continue
			}
			next, pos, steps, err := opt.Rearrange(ctx, st, layout, c.ID, it)
			if err != nil {
				continue
			}
			p.Logger.Debug("Rearranged container", "item", it.ID, "container", c.ID, "moves", len(steps))
			return cargo.Placement{ItemID: it.ID, ContainerID: c.ID, Position: pos}, steps, next, true
		}
	}
	return cargo.Placement{}, nil, layout, false
}

// direct places it in the first container of group with a free slot.
func direct(layout *geometry.Layout, it cargo.Item, group []cargo.Container) (cargo.Placement, bool) {
	for _, c := range group {
		sp := layout.Space(c.ID)
		if sp == nil || !fitsEmpty(c, it) {
			continue
		}
		pos, ok := sp.FirstFit(it.Dimensions)
		if !ok {
			continue
		}
		if err := sp.Place(it.ID, pos); err != nil {
			continue
		}
		return cargo.Placement{ItemID: it.ID, ContainerID: c.ID, Position: pos}, true
	}
	return cargo.Placement{}, false
}

// partition splits admitted containers by zone preference, keeping insertion order.
func (p *Planner) partition(ctx context.Context, st *warehouse.State, it cargo.Item) (preferred, others []cargo.Container, blocked int) {
	for _, c := range st.OrderedContainers() {
		if !p.admit(ctx, it, c) {
			blocked++
			continue
		}
		if it.PreferredZone != "" && c.Zone == it.PreferredZone {
			preferred = append(preferred, c)
		} else {
			others = append(others, c)
		}
	}
	return preferred, others, blocked
}

func (p *Planner) admit(ctx context.Context, it cargo.Item, c cargo.Container) bool {
	if p.Admission == nil {
		return true
	}
	return p.Admission.Admit(ctx, it, c)
}

// fitsEmpty reports whether it fits c at all, ignoring occupants.
func fitsEmpty(c cargo.Container, it cargo.Item) bool {
	d := c.Dimensions
	return it.Dimensions.Width <= d.Width+cargo.Epsilon &&
		it.Dimensions.Depth <= d.Depth+cargo.Epsilon &&
		it.Dimensions.Height <= d.Height+cargo.Epsilon
}
