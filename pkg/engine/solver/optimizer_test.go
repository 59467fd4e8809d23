package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

var today = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func vec(w, d, h float64) cargo.Vec3 {
	return cargo.Vec3{Width: w, Depth: d, Height: h}
}

// wasteState holds three expired 10cm cubes in "shelf" weighing 50, 40 and 30 kg,
// and an empty undocking container "R".
func wasteState(t *testing.T) *warehouse.State {
	t.Helper()
	st := warehouse.New(today)
	require.NoError(t, st.AddContainer(cargo.Container{ID: "shelf", Zone: "Lab", Dimensions: vec(30, 20, 10)}))
	require.NoError(t, st.AddContainer(cargo.Container{ID: "R", Zone: "Airlock", Dimensions: vec(50, 50, 50)}))

	for i, m := range []float64{50, 40, 30} {
		id := []string{"w50", "w40", "w30"}[i]
		dims := vec(10, 10, 10)
		it := cargo.Item{ID: id, Name: id, Dimensions: dims, Mass: m, Priority: 10}
		st.Items[id] = it
		st.Placements[id] = cargo.Placement{ItemID: id, ContainerID: "shelf",
			Position: cargo.NewPosition(vec(float64(i)*10, 0, 0), dims)}
		st.MarkWaste(it, cargo.ReasonExpired, today)
	}
	require.NoError(t, st.Validate())
	return st
}

func ids(items []cargo.ManifestItem) []string {
	var out []string
	for _, m := range items {
		out = append(out, m.ItemID)
	}
	return out
}

func TestSolve_BudgetSelectsStrictSubset(t *testing.T) {
	st := wasteState(t)

	plan, err := NewOptimizer(nil).Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "R", MaxWeight: 100})
	require.NoError(t, err)

	m := plan.Manifest
	assert.Equal(t, []string{"w50", "w40"}, ids(m.Items))
	assert.Equal(t, []string{"w30"}, ids(m.Remaining))
	assert.InDelta(t, 90, m.TotalMass, 1e-9)
	assert.InDelta(t, 2000, m.TotalVolume, 1e-9)
	assert.True(t, m.BudgetExceeded)
	assert.Equal(t, 1, m.AdditionalUndockings)

	require.Len(t, plan.Moves, 2)
	for i, s := range plan.Moves {
		assert.Equal(t, i+1, s.Step)
		assert.Equal(t, cargo.ActionMove, s.Action)
		assert.Equal(t, "shelf", s.From.ContainerID)
		assert.Equal(t, "R", s.To.ContainerID)
	}

	assert.Equal(t, "R", st.Placements["w50"].ContainerID)
	assert.Equal(t, "R", st.Placements["w40"].ContainerID)
	assert.Equal(t, "shelf", st.Placements["w30"].ContainerID)
	assert.Contains(t, st.Returns, "R")
	assert.NoError(t, st.Validate())
}

func TestSolve_EverythingFits(t *testing.T) {
	st := wasteState(t)

	plan, err := NewOptimizer(nil).Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "R", MaxWeight: 500})
	require.NoError(t, err)
	assert.Len(t, plan.Manifest.Items, 3)
	assert.Empty(t, plan.Manifest.Remaining)
	assert.False(t, plan.Manifest.BudgetExceeded)
	assert.Equal(t, 0, plan.Manifest.AdditionalUndockings)
}

func TestSolve_GeometryLimitsSelection(t *testing.T) {
	st := wasteState(t)
	// Room for a single cube.
	require.NoError(t, st.AddContainer(cargo.Container{ID: "tiny", Zone: "Airlock", Dimensions: vec(10, 10, 10)}))

	plan, err := NewOptimizer(nil).Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "tiny", MaxWeight: 500})
	require.NoError(t, err)
	assert.Equal(t, []string{"w50"}, ids(plan.Manifest.Items))
	assert.Len(t, plan.Manifest.Remaining, 2)
}

func TestSolve_RetrievalStepsForBlockedWaste(t *testing.T) {
	st := wasteState(t)
	// A fresh item in front of w50 must be set aside to reach it.
	front := cargo.Item{ID: "fresh", Name: "fresh", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 80}
	st.Items["fresh"] = front
	st.Placements["fresh"] = cargo.Placement{ItemID: "fresh", ContainerID: "shelf", Position: cargo.NewPosition(vec(0, 0, 0), front.Dimensions)}
	p := st.Placements["w50"]
	p.Position = cargo.NewPosition(vec(0, 10, 0), vec(10, 10, 10))
	st.Placements["w50"] = p
	require.NoError(t, st.Validate())

	plan, err := NewOptimizer(nil).Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "R", MaxWeight: 60})
	require.NoError(t, err)

	require.Equal(t, []string{"w50"}, ids(plan.Manifest.Items))
	var actions []cargo.Action
	for _, s := range plan.RetrievalSteps {
		actions = append(actions, s.Action)
	}
	assert.Equal(t, []cargo.Action{cargo.ActionRemove, cargo.ActionSetAside, cargo.ActionRetrieve, cargo.ActionPlaceBack}, actions)
	assert.Equal(t, "shelf", st.Placements["fresh"].ContainerID)
}

func TestSolve_Errors(t *testing.T) {
	st := wasteState(t)
	opt := NewOptimizer(nil)

	_, err := opt.Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "missing", MaxWeight: 10})
	assert.ErrorIs(t, err, cargo.ErrNotFound)

	_, err = opt.Solve(context.Background(), st, ReturnRequest{UndockingContainerID: "R", MaxWeight: -1})
	assert.ErrorIs(t, err, cargo.ErrInvalidInput)
}
