package depletion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

var start = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func intp(n int) *int { return &n }

func datep(t time.Time) *time.Time { return &t }

func newState(items ...cargo.Item) *warehouse.State {
	st := warehouse.New(start)
	for _, it := range items {
		st.Items[it.ID] = it
	}
	return st
}

func TestAdvance_OutOfUsesOnTheDayItHitsZero(t *testing.T) {
	st := newState(cargo.Item{ID: "kit", Name: "Med Kit", UsageLimit: intp(3)})
	used := []UsageRef{{ItemID: "kit"}}

	var depletedOn []time.Time
	for day := 0; day < 5; day++ {
		res, err := Advance(context.Background(), st, Request{Days: intp(1), ItemsUsedPerDay: used})
		require.NoError(t, err)
		if len(res.ItemsDepleted) > 0 {
			depletedOn = append(depletedOn, res.NewDate)
		}
	}

	require.Len(t, depletedOn, 1)
	assert.Equal(t, start.AddDate(0, 0, 3), depletedOn[0])
	assert.Equal(t, cargo.ReasonOutOfUses, st.Waste["kit"].Reason)
	assert.Equal(t, start.AddDate(0, 0, 3), st.Waste["kit"].ClassifiedOn)
	assert.Equal(t, start.AddDate(0, 0, 5), st.CurrentDate)
}

func TestAdvance_SingleCallFiveDays(t *testing.T) {
	st := newState(cargo.Item{ID: "kit", Name: "Med Kit", UsageLimit: intp(3)})

	res, err := Advance(context.Background(), st, Request{Days: intp(5), ItemsUsedPerDay: []UsageRef{{Name: "med kit"}}})
	require.NoError(t, err)

	require.Len(t, res.ItemsDepleted, 1)
	assert.Equal(t, "kit", res.ItemsDepleted[0].ItemID)
	assert.Equal(t, start.AddDate(0, 0, 3), st.Waste["kit"].ClassifiedOn)
	require.Len(t, res.ItemsUsed, 1)
	assert.Equal(t, 0, *res.ItemsUsed[0].RemainingUses)
}

func TestAdvance_ExpiryCaughtMidRange(t *testing.T) {
	st := newState(
		cargo.Item{ID: "milk", Name: "Milk", ExpiryDate: datep(start.AddDate(0, 0, 2))},
		cargo.Item{ID: "rice", Name: "Rice", ExpiryDate: datep(start.AddDate(1, 0, 0))},
	)

	res, err := Advance(context.Background(), st, Request{ToDate: datep(start.AddDate(0, 0, 10))})
	require.NoError(t, err)

	assert.Equal(t, []ItemRef{{ItemID: "milk", Name: "Milk"}}, res.ItemsExpired)
	assert.Equal(t, start.AddDate(0, 0, 2), st.Waste["milk"].ClassifiedOn)
	assert.False(t, st.IsWaste("rice"))
}

func TestAdvance_TimestampedExpiryCountsWholeDay(t *testing.T) {
	noon := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	st := newState(cargo.Item{ID: "yogurt", Name: "Yogurt", ExpiryDate: datep(noon)})

	res, err := Advance(context.Background(), st, Request{Days: intp(2)})
	require.NoError(t, err)

	assert.Equal(t, start.AddDate(0, 0, 2), res.NewDate)
	assert.Equal(t, []ItemRef{{ItemID: "yogurt", Name: "Yogurt"}}, res.ItemsExpired)
	assert.Equal(t, start.AddDate(0, 0, 2), st.Waste["yogurt"].ClassifiedOn)
}

func TestAdvance_SameDayUsageWins(t *testing.T) {
	st := newState(cargo.Item{ID: "x", UsageLimit: intp(1), ExpiryDate: datep(start.AddDate(0, 0, 1))})

	res, err := Advance(context.Background(), st, Request{Days: intp(1), ItemsUsedPerDay: []UsageRef{{ItemID: "x"}}})
	require.NoError(t, err)

	assert.Len(t, res.ItemsDepleted, 1)
	assert.Empty(t, res.ItemsExpired)
	assert.Equal(t, cargo.ReasonOutOfUses, st.Waste["x"].Reason)
}

func TestAdvance_UnlimitedNeverDepletes(t *testing.T) {
	st := newState(cargo.Item{ID: "wrench"})
	res, err := Advance(context.Background(), st, Request{Days: intp(30), ItemsUsedPerDay: []UsageRef{{ItemID: "wrench"}}})
	require.NoError(t, err)
	assert.Empty(t, res.ItemsDepleted)
	require.Len(t, res.ItemsUsed, 1)
	assert.Nil(t, res.ItemsUsed[0].RemainingUses)
}

func TestAdvance_InvalidInput(t *testing.T) {
	cases := map[string]Request{
		"both":     {Days: intp(1), ToDate: datep(start.AddDate(0, 0, 1))},
		"neither":  {},
		"negative": {Days: intp(-1)},
		"past":     {ToDate: datep(start.AddDate(0, 0, -1))},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			st := newState()
			_, err := Advance(context.Background(), st, req)
			assert.ErrorIs(t, err, cargo.ErrInvalidInput)
			assert.Equal(t, start, st.CurrentDate)
		})
	}
}

func TestAdvance_UnknownItem(t *testing.T) {
	_, err := Advance(context.Background(), newState(), Request{Days: intp(1), ItemsUsedPerDay: []UsageRef{{ItemID: "nope"}}})
	assert.ErrorIs(t, err, cargo.ErrNotFound)
}

func TestIdentifyWaste_Idempotent(t *testing.T) {
	st := newState(
		cargo.Item{ID: "b", ExpiryDate: datep(start)},
		cargo.Item{ID: "a", UsageLimit: intp(0)},
		cargo.Item{ID: "c"},
	)

	fresh, all := IdentifyWaste(st)
	require.Len(t, fresh, 2)
	assert.Equal(t, "a", all[0].ItemID)
	assert.Equal(t, cargo.ReasonOutOfUses, all[0].Reason)
	assert.Equal(t, cargo.ReasonExpired, all[1].Reason)

	fresh2, all2 := IdentifyWaste(st)
	assert.Empty(t, fresh2)
	assert.Equal(t, all, all2)
}
