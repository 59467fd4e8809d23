package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

func vec(w, d, h float64) cargo.Vec3 {
	return cargo.Vec3{Width: w, Depth: d, Height: h}
}

// shelf: a 10-wide column of three boxes stacked front to back, plus one beside them.
func shelf(t *testing.T) *warehouse.State {
	t.Helper()
	st := warehouse.New(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, st.AddContainer(cargo.Container{ID: "C", Zone: "Lab", Dimensions: vec(20, 30, 10)}))
	put := func(id string, start cargo.Vec3) {
		dims := vec(10, 10, 10)
		st.Items[id] = cargo.Item{ID: id, Name: "name-" + id, Dimensions: dims, Mass: 1, Priority: 50}
		st.Placements[id] = cargo.Placement{ItemID: id, ContainerID: "C", Position: cargo.NewPosition(start, dims)}
	}
	put("front", vec(0, 0, 0))
	put("middle", vec(0, 10, 0))
	put("back", vec(0, 20, 0))
	put("side", vec(10, 0, 0))
	require.NoError(t, st.Validate())
	return st
}

func TestCompute_BackItem(t *testing.T) {
	st := shelf(t)

	plan, err := Compute(st, "back")
	require.NoError(t, err)

	type row struct {
		action cargo.Action
		id     string
	}
	var got []row
	for i, s := range plan.Steps {
		assert.Equal(t, i+1, s.Step)
		got = append(got, row{s.Action, s.ItemID})
	}
	assert.Equal(t, []row{
		{cargo.ActionRemove, "front"},
		{cargo.ActionSetAside, "front"},
		{cargo.ActionRemove, "middle"},
		{cargo.ActionSetAside, "middle"},
		{cargo.ActionRetrieve, "back"},
		{cargo.ActionPlaceBack, "middle"},
		{cargo.ActionPlaceBack, "front"},
	}, got)
	assert.Equal(t, 2, plan.Count())

	// placeBack restores the original boxes.
	assert.Equal(t, st.Placements["middle"].Position, *plan.Steps[5].To.Position)
	assert.Equal(t, st.Placements["front"].Position, *plan.Steps[6].To.Position)
	assert.Equal(t, "name-back", plan.Steps[4].ItemName)
}

func TestCompute_FrontItemHasNoBlockers(t *testing.T) {
	plan, err := Compute(shelf(t), "side")
	require.NoError(t, err)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, cargo.ActionRetrieve, plan.Steps[0].Action)
}

func TestCompute_NotFound(t *testing.T) {
	st := shelf(t)
	_, err := Compute(st, "ghost")
	assert.ErrorIs(t, err, cargo.ErrNotFound)

	delete(st.Placements, "back")
	_, err = Compute(st, "back")
	assert.ErrorIs(t, err, cargo.ErrNotFound)
}

func TestBlocks(t *testing.T) {
	target := cargo.NewPosition(vec(0, 20, 0), vec(10, 10, 10))
	cases := []struct {
		name string
		p    cargo.Position
		want bool
	}{
		{"directly in front", cargo.NewPosition(vec(0, 0, 0), vec(10, 10, 10)), true},
		{"partial footprint", cargo.NewPosition(vec(5, 0, 5), vec(10, 5, 10)), true},
		{"beside", cargo.NewPosition(vec(10, 0, 0), vec(10, 10, 10)), false},
		{"behind", cargo.NewPosition(vec(0, 30, 0), vec(10, 5, 10)), false},
		{"above", cargo.NewPosition(vec(0, 0, 10), vec(10, 10, 10)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Blocks(tc.p, target))
		})
	}
}

func TestCommit(t *testing.T) {
	st := shelf(t)
	plan, err := Compute(st, "middle")
	require.NoError(t, err)

	require.NoError(t, Commit(st, plan))
	assert.NotContains(t, st.Placements, "middle")
	assert.Contains(t, st.Items, "middle")

	assert.ErrorIs(t, Commit(st, plan), cargo.ErrConflictingState)
}
