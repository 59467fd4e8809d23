// Package solver builds return plans: which waste items ride out with an
// undocking container, and the moves that get them there.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/geometry"
	"github.com/DrSkyle/stowage/pkg/engine/policy"
	"github.com/DrSkyle/stowage/pkg/engine/retrieval"
	"github.com/DrSkyle/stowage/pkg/engine/tetris"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// ReturnRequest defines solver input parameters.
type ReturnRequest struct {
	UndockingContainerID string    `json:"undockingContainerId"`
	UndockingDate        time.Time `json:"undockingDate"`
	MaxWeight            float64   `json:"maxWeight"`
}

// ReturnPlan is the relocation plan plus the manifest it produces.
type ReturnPlan struct {
	Moves          []cargo.MoveStep     `json:"returnPlan"`
	RetrievalSteps []cargo.MoveStep     `json:"retrievalSteps"`
	Manifest       cargo.ReturnManifest `json:"returnManifest"`
}

type Optimizer struct {
	Policy *policy.Validator
	Packer *tetris.Packer
}

func NewOptimizer(p *policy.Validator) *Optimizer {
	if p == nil {
		p = policy.NewValidator(policy.DefaultPolicy())
	}
	return &Optimizer{
		Policy: p,
		Packer: tetris.NewPacker(),
	}
}

// Solve selects waste for the undocking container and applies the relocation to st.
// Waste already aboard counts against the budget first; the rest is taken greedily
// by density while the mass budget holds and a geometric slot exists.
func (opt *Optimizer) Solve(ctx context.Context, st *warehouse.State, req ReturnRequest) (*ReturnPlan, error) {
	if err := opt.Policy.ValidateReturn(req.MaxWeight); err != nil {
		return nil, err
	}
	target, ok := st.Containers[req.UndockingContainerID]
	if !ok {
		return nil, fmt.Errorf("%w: container %s", cargo.ErrNotFound, req.UndockingContainerID)
	}
	date := req.UndockingDate
	if date.IsZero() {
		date = st.CurrentDate
	}

	layout := st.Layout()
	dock := layout.Space(target.ID)

	manifest := cargo.ReturnManifest{
		UndockingContainerID: target.ID,
		UndockingDate:        cargo.Day(date),
		MaxWeight:            req.MaxWeight,
	}

	var (
		candidates []*tetris.Item
		aboardMass float64
		totalMass  float64
	)
	records := make(map[string]cargo.WasteRecord)
	for _, w := range st.WasteRecords() {
		if w.Placement == nil {
			continue
		}
		it := st.Items[w.ItemID]
		records[w.ItemID] = w
		totalMass += it.Mass
		if w.Placement.ContainerID == target.ID {
			aboardMass += it.Mass
			manifest.Items = append(manifest.Items, manifestItem(it, w, target.ID))
			continue
		}
		candidates = append(candidates, &tetris.Item{
			ID:         it.ID,
			Dimensions: tetris.Dimensions{Mass: it.Mass, Volume: it.Volume()},
			Group:      w.Placement.ContainerID,
		})
	}
	manifest.BudgetExceeded = totalMass > req.MaxWeight+1e-9

	bin := &tetris.Bin{
		ID:       target.ID,
		Capacity: tetris.Dimensions{Mass: req.MaxWeight - aboardMass, Volume: dock.FreeVolume()},
	}

	var moves, retrievals []cargo.MoveStep
	admit := func(ti *tetris.Item) bool {
		if ctx.Err() != nil {
			return false
		}
		step, steps, ok := relocate(st, layout, dock, ti.ID)
		if !ok {
			return false
		}
		moves = append(moves, step)
		retrievals = append(retrievals, steps...)
		return true
	}
	rest := opt.Packer.Fill(bin, candidates, admit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ti := range bin.Items {
		it := st.Items[ti.ID]
		manifest.Items = append(manifest.Items, manifestItem(it, records[ti.ID], ti.Group))
	}
	for _, ti := range rest {
		it := st.Items[ti.ID]
		manifest.Remaining = append(manifest.Remaining, manifestItem(it, records[ti.ID], ti.Group))
	}
	for _, m := range manifest.Items {
		manifest.TotalMass += m.Mass
		manifest.TotalVolume += m.Volume
	}
	manifest.AdditionalUndockings = len(opt.Packer.Pack(rest, func() *tetris.Bin {
		return &tetris.Bin{Capacity: tetris.Dimensions{Mass: req.MaxWeight, Volume: target.Volume()}}
	}))

	st.ApplyLayout(layout)
	st.Returns[target.ID] = manifest

	return &ReturnPlan{
		Moves:          cargo.Renumber(moves, 1),
		RetrievalSteps: cargo.Renumber(retrievals, 1),
		Manifest:       manifest,
	}, nil
}

// relocate extracts itemID from its container and stows it in dock, updating layout.
// When dock has no slot the item is put back untouched.
func relocate(st *warehouse.State, layout *geometry.Layout, dock *geometry.Space, itemID string) (cargo.MoveStep, []cargo.MoveStep, bool) {
	plan, err := retrieval.ComputeIn(st, layout, itemID)
	if err != nil {
		return cargo.MoveStep{}, nil, false
	}
	src := layout.Space(plan.ContainerID)
	origin, _ := src.Remove(itemID)

	pos, ok := dock.FirstFit(origin.Size())
	if !ok || dock.Place(itemID, pos) != nil {
		_ = src.Place(itemID, origin)
		return cargo.MoveStep{}, nil, false
	}

	it := st.Items[itemID]
	from, to := origin, pos
	step := cargo.MoveStep{
		Action:   cargo.ActionMove,
		ItemID:   itemID,
		ItemName: it.Name,
		From:     &cargo.Location{ContainerID: src.Container.ID, Position: &from},
		To:       &cargo.Location{ContainerID: dock.Container.ID, Position: &to},
	}
	return step, plan.Steps, true
}

func manifestItem(it cargo.Item, w cargo.WasteRecord, source string) cargo.ManifestItem {
	return cargo.ManifestItem{
		ItemID:          it.ID,
		Name:            it.Name,
		Reason:          w.Reason,
		Mass:            it.Mass,
		Volume:          it.Volume(),
		SourceContainer: source,
	}
}
