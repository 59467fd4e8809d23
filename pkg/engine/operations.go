package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/depletion"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/engine/lazarus"
	"github.com/DrSkyle/stowage/pkg/engine/placement"
	"github.com/DrSkyle/stowage/pkg/engine/retrieval"
	"github.com/DrSkyle/stowage/pkg/engine/solver"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

// PlaceRequest registers containers and stores items.
type PlaceRequest struct {
	Items      []cargo.Item      `json:"items"`
	Containers []cargo.Container `json:"containers"`
	UserID     string            `json:"userId,omitempty"`
}

// PlaceItems stores a batch atomically. Unplaceable items are reported in the
// result; invalid records fail the whole batch.
func (e *Engine) PlaceItems(ctx context.Context, req PlaceRequest) (*placement.Result, error) {
	if err := rowsError("container", cargo.ValidateContainers(req.Containers)); err != nil {
		return nil, err
	}
	if err := rowsError("item", cargo.ValidateItems(req.Items)); err != nil {
		return nil, err
	}

	var res *placement.Result
	err := e.transact(ctx, "Engine.PlaceItems", func(ctx context.Context, st *warehouse.State) error {
		for _, c := range req.Containers {
			if err := st.AddContainer(c); err != nil {
				return err
			}
		}
		var err error
		if res, err = e.planner.Place(ctx, st, req.Items); err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("items.placed", len(res.Placements)),
			attribute.Int("items.unplaced", len(res.Unplaced)),
			attribute.Int("moves", len(res.Rearrangements)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	add(ctx, e.metrics.placed, len(res.Placements))
	add(ctx, e.metrics.unplaced, len(res.Unplaced))
	add(ctx, e.metrics.moves, len(res.Rearrangements))

	now := e.clock()
	var entries []history.Entry
	for _, p := range res.Placements {
		entries = append(entries, history.NewEntry(history.ActionPlacement, p.ItemID, req.UserID, now,
			history.Details{ToContainer: p.ContainerID}))
	}
	entries = append(entries, moveEntries(res.Rearrangements, history.ActionRearrangement, req.UserID, now, "make room")...)
	e.record(ctx, entries...)

	e.Logger.Info("Placement committed",
		"placed", len(res.Placements), "unplaced", len(res.Unplaced), "moves", len(res.Rearrangements))
	return res, nil
}

// RetrieveRequest takes one item out.
type RetrieveRequest struct {
	ItemID    string    `json:"itemId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// RetrieveItem plans and commits a retrieval. The item record stays known so it
// can be placed again.
func (e *Engine) RetrieveItem(ctx context.Context, req RetrieveRequest) (*retrieval.Plan, error) {
	var plan *retrieval.Plan
	err := e.transact(ctx, "Engine.RetrieveItem", func(ctx context.Context, st *warehouse.State) error {
		var err error
		if plan, err = retrieval.Compute(st, req.ItemID); err != nil {
			return err
		}
		return retrieval.Commit(st, plan)
	})
	if err != nil {
		return nil, err
	}

	add(ctx, e.metrics.moves, plan.Count())
	at := req.Timestamp
	if at.IsZero() {
		at = e.clock()
	}
	e.record(ctx, history.NewEntry(history.ActionRetrieval, req.ItemID, req.UserID, at,
		history.Details{FromContainer: plan.ContainerID}))

	e.Logger.Info("Retrieval committed", "item", req.ItemID, "container", plan.ContainerID, "disturbed", plan.Count())
	return plan, nil
}

// SearchRequest looks an item up by ID or name.
type SearchRequest struct {
	ItemID   string `json:"itemId,omitempty"`
	ItemName string `json:"itemName,omitempty"`
}

// SearchResult previews a retrieval without performing it.
type SearchResult struct {
	Found bool            `json:"found"`
	Item  *cargo.Item     `json:"item,omitempty"`
	Plan  *retrieval.Plan `json:"retrieval,omitempty"`
}

// SearchItem finds a stored item and its retrieval steps. When several stored
// items share a name, the one with the fewest steps wins, then the earliest
// expiry, then the lowest ID.
func (e *Engine) SearchItem(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if (req.ItemID == "") == (req.ItemName == "") {
		return nil, fmt.Errorf("%w: search by exactly one of itemId or itemName", cargo.ErrInvalidInput)
	}

	res := &SearchResult{}
	err := e.view(ctx, "Engine.SearchItem", func(ctx context.Context, st *warehouse.State) error {
		var ids []string
		if req.ItemID != "" {
			ids = []string{req.ItemID}
		} else {
			for _, it := range st.ItemsByName(func(n string) bool { return strings.EqualFold(n, req.ItemName) }) {
				ids = append(ids, it.ID)
			}
		}

		layout := st.Layout()
		for _, id := range ids {
			plan, err := retrieval.ComputeIn(st, layout, id)
			if errors.Is(err, cargo.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			it := st.Items[id]
			if !res.Found || better(it, plan, *res.Item, res.Plan) {
				res.Found, res.Item, res.Plan = true, &it, plan
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func better(a cargo.Item, pa *retrieval.Plan, b cargo.Item, pb *retrieval.Plan) bool {
	if len(pa.Steps) != len(pb.Steps) {
		return len(pa.Steps) < len(pb.Steps)
	}
	switch {
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return true
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return false
	case a.ExpiryDate != nil && !a.ExpiryDate.Equal(*b.ExpiryDate):
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}
	return a.ID < b.ID
}

// AdvanceTime moves the simulated clock forward day by day.
func (e *Engine) AdvanceTime(ctx context.Context, req depletion.Request, userID string) (*depletion.Result, error) {
	var res *depletion.Result
	var fresh []cargo.WasteRecord
	err := e.transact(ctx, "Engine.AdvanceTime", func(ctx context.Context, st *warehouse.State) error {
		var err error
		if res, err = depletion.Advance(ctx, st, req); err != nil {
			return err
		}
		for _, refs := range [][]depletion.ItemRef{res.ItemsDepleted, res.ItemsExpired} {
			for _, it := range refs {
				if w, ok := st.Waste[it.ItemID]; ok {
					fresh = append(fresh, w)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	add(ctx, e.metrics.waste, len(fresh))
	e.notifyWaste(ctx, res.NewDate, fresh)
	now := e.clock()
	var entries []history.Entry
	for _, it := range res.ItemsExpired {
		entries = append(entries, history.NewEntry(history.ActionSimulation, it.ItemID, userID, now,
			history.Details{Reason: string(cargo.ReasonExpired)}))
	}
	for _, it := range res.ItemsDepleted {
		entries = append(entries, history.NewEntry(history.ActionSimulation, it.ItemID, userID, now,
			history.Details{Reason: string(cargo.ReasonOutOfUses)}))
	}
	e.record(ctx, entries...)

	e.Logger.Info("Time advanced", "date", res.NewDate.Format(time.DateOnly),
		"used", len(res.ItemsUsed), "expired", len(res.ItemsExpired), "depleted", len(res.ItemsDepleted))
	return res, nil
}

// IdentifyWaste classifies waste on the current date and returns the full set.
func (e *Engine) IdentifyWaste(ctx context.Context) ([]cargo.WasteRecord, error) {
	var fresh, all []cargo.WasteRecord
	var date time.Time
	err := e.transact(ctx, "Engine.IdentifyWaste", func(ctx context.Context, st *warehouse.State) error {
		fresh, all = depletion.IdentifyWaste(st)
		date = st.CurrentDate
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("waste.new", len(fresh)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	add(ctx, e.metrics.waste, len(fresh))
	e.notifyWaste(ctx, date, fresh)
	e.Logger.Info("Waste identified", "new", len(fresh), "total", len(all))
	return all, nil
}

func (e *Engine) notifyWaste(ctx context.Context, date time.Time, fresh []cargo.WasteRecord) {
	if e.notifier == nil || len(fresh) == 0 {
		return
	}
	if err := e.notifier.WasteIdentified(ctx, date, fresh); err != nil {
		e.Logger.Warn("Failed to send waste alert", "error", err)
	}
}

// PlanReturn loads waste into an undocking container and keeps the manifest
// pending until the container undocks.
func (e *Engine) PlanReturn(ctx context.Context, req solver.ReturnRequest, userID string) (*solver.ReturnPlan, error) {
	var plan *solver.ReturnPlan
	err := e.transact(ctx, "Engine.PlanReturn", func(ctx context.Context, st *warehouse.State) error {
		var err error
		if plan, err = e.solver.Solve(ctx, st, req); err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("container.id", req.UndockingContainerID),
			attribute.Int("return.items", len(plan.Manifest.Items)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	add(ctx, e.metrics.moves, len(plan.Moves))
	e.record(ctx, moveEntries(plan.Moves, history.ActionRearrangement, userID, e.clock(), "return")...)

	m := plan.Manifest
	if e.notifier != nil {
		if err := e.notifier.ReturnPlanned(ctx, m); err != nil {
			e.Logger.Warn("Failed to send return manifest", "error", err)
		}
	}
	e.Logger.Info("Return planned", "container", m.UndockingContainerID, "items", len(m.Items),
		"remaining", len(m.Remaining), "mass", m.TotalMass, "budget_exceeded", m.BudgetExceeded)
	return plan, nil
}

// UndockResult lists what left the station.
type UndockResult struct {
	ContainerID  string   `json:"containerId"`
	ItemsRemoved int      `json:"itemsRemoved"`
	ItemIDs      []string `json:"itemIds"`
}

// CompleteUndocking removes the container, everything in it and the related
// waste records. Each removed item is archived as a tombstone.
func (e *Engine) CompleteUndocking(ctx context.Context, containerID, userID string) (*UndockResult, error) {
	res := &UndockResult{ContainerID: containerID}
	var tombstones []*lazarus.Tombstone
	err := e.transact(ctx, "Engine.CompleteUndocking", func(ctx context.Context, st *warehouse.State) error {
		if _, ok := st.Containers[containerID]; !ok {
			return fmt.Errorf("%w: container %s", cargo.ErrNotFound, containerID)
		}
		for id, p := range st.Placements {
			if p.ContainerID == containerID {
				res.ItemIDs = append(res.ItemIDs, id)
			}
		}
		sort.Strings(res.ItemIDs)
		for _, id := range res.ItemIDs {
			var reason cargo.WasteReason
			if w, ok := st.Waste[id]; ok {
				reason = w.Reason
			}
			tombstones = append(tombstones, lazarus.NewTombstone(st.Items[id], reason, containerID, st.CurrentDate))
			st.DeleteItem(id)
		}
		st.RemoveContainer(containerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.ItemsRemoved = len(res.ItemIDs)

	if e.archive != nil {
		for _, ts := range tombstones {
			if err := ts.Save(ctx, e.archive, e.archivePrefix); err != nil {
				e.Logger.Warn("Failed to archive tombstone", "item", ts.ItemID, "error", err)
			}
		}
	}

	now := e.clock()
	var entries []history.Entry
	for _, ts := range tombstones {
		entries = append(entries, history.NewEntry(history.ActionDisposal, ts.ItemID, userID, now,
			history.Details{FromContainer: containerID, Reason: ts.Reason}))
	}
	e.record(ctx, entries...)

	e.Logger.Info("Undocking completed", "container", containerID, "removed", res.ItemsRemoved)
	return res, nil
}

// RemoveItem forgets an item and its placement or waste record.
func (e *Engine) RemoveItem(ctx context.Context, itemID, userID string) error {
	var from string
	err := e.transact(ctx, "Engine.RemoveItem", func(ctx context.Context, st *warehouse.State) error {
		if _, ok := st.Items[itemID]; !ok {
			return fmt.Errorf("%w: item %s", cargo.ErrNotFound, itemID)
		}
		if p, ok := st.Placement(itemID); ok {
			from = p.ContainerID
		}
		st.DeleteItem(itemID)
		return nil
	})
	if err != nil {
		return err
	}
	e.record(ctx, history.NewEntry(history.ActionDisposal, itemID, userID, e.clock(),
		history.Details{FromContainer: from, Reason: "removed"}))
	e.Logger.Info("Item removed", "item", itemID)
	return nil
}

// Status returns the capacity dashboard.
func (e *Engine) Status(ctx context.Context) (warehouse.Status, error) {
	var s warehouse.Status
	err := e.view(ctx, "Engine.Status", func(ctx context.Context, st *warehouse.State) error {
		s = st.Status()
		return nil
	})
	return s, err
}

// Arrangement lists every stored item with its container and coordinates,
// in container registration order then by item ID.
func (e *Engine) Arrangement(ctx context.Context) ([]cargo.Placement, error) {
	var out []cargo.Placement
	err := e.view(ctx, "Engine.Arrangement", func(ctx context.Context, st *warehouse.State) error {
		out = st.Layout().Placements()
		return nil
	})
	return out, err
}

// Logs queries the activity log.
func (e *Engine) Logs(ctx context.Context, f history.Filter) ([]history.Entry, error) {
	return e.History.Query(ctx, f)
}

func rowsError(kind string, errs []cargo.RowError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, re := range errs {
		msgs[i] = fmt.Sprintf("%s row %d: %s", kind, re.Row, re.Message)
	}
	return fmt.Errorf("%w: %s", cargo.ErrInvalidInput, strings.Join(msgs, "; "))
}

// moveEntries logs every step that leaves an item somewhere new.
func moveEntries(steps []cargo.MoveStep, action history.ActionType, userID string, at time.Time, reason string) []history.Entry {
	var out []history.Entry
	for _, s := range steps {
		if s.Action != cargo.ActionMove && s.Action != cargo.ActionPlaceBack {
			continue
		}
		d := history.Details{Reason: reason}
		if s.From != nil {
			d.FromContainer = s.From.ContainerID
		}
		if s.To != nil {
			d.ToContainer = s.To.ContainerID
		}
		out = append(out, history.NewEntry(action, s.ItemID, userID, at, d))
	}
	return out
}
