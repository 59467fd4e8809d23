package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/depletion"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/engine/lazarus"
	"github.com/DrSkyle/stowage/pkg/engine/policy"
	"github.com/DrSkyle/stowage/pkg/engine/solver"
	"github.com/DrSkyle/stowage/pkg/storage"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

var missionStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithLogger(quiet()),
		WithState(warehouse.New(missionStart)),
		WithClock(func() time.Time { return missionStart }),
	}
	eng, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	return eng
}

func vec(w, d, h float64) cargo.Vec3 {
	return cargo.Vec3{Width: w, Depth: d, Height: h}
}

func intp(n int) *int { return &n }

func TestEngineInitialization(t *testing.T) {
	eng, err := New(context.Background())
	require.NoError(t, err)
	require.NotNil(t, eng.Logger)
	require.NotNil(t, eng.History)

	_, err = New(context.Background(), WithConfig(Config{
		Rules: []policy.DynamicRule{{ID: "broken", Condition: "mass >", Action: policy.ActionBlock}},
	}))
	assert.ErrorIs(t, err, cargo.ErrInvalidInput)
}

func TestPlaceItems_Rearrangement(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{
			{ID: "C", Zone: "Lab", Dimensions: vec(100, 85, 200)},
			{ID: "C2", Zone: "Storage", Dimensions: vec(60, 85, 200)},
		},
		Items: []cargo.Item{
			{ID: "A", Name: "Sample rack", Dimensions: vec(40, 50, 50), Mass: 5, Priority: 90, PreferredZone: "Lab"},
			{ID: "B", Name: "Spare panels", Dimensions: vec(60, 85, 200), Mass: 20, Priority: 10, PreferredZone: "Lab"},
		},
	})
	require.NoError(t, err)

	res, err := eng.PlaceItems(ctx, PlaceRequest{
		Items: []cargo.Item{{ID: "D", Name: "Centrifuge", Dimensions: vec(55, 85, 200), Mass: 30, Priority: 95, PreferredZone: "Lab"}},
	})
	require.NoError(t, err)
	require.Empty(t, res.Unplaced)
	assert.Equal(t, "C", res.Placements[0].ContainerID)

	snap := eng.Snapshot()
	assert.Equal(t, "C", snap.Placements["A"].ContainerID)
	assert.Equal(t, "C2", snap.Placements["B"].ContainerID)

	logs, err := eng.Logs(ctx, history.Filter{ActionType: history.ActionRearrangement})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "B", logs[0].ItemID)
	assert.Equal(t, "C2", logs[0].Details.ToContainer)
}

func TestRetrieveThenPlaceRoundTrip(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	item := cargo.Item{ID: "kit", Name: "First Aid", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 50}
	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{{ID: "M", Zone: "Medical", Dimensions: vec(20, 20, 20)}},
		Items:      []cargo.Item{item, {ID: "gauze", Name: "Gauze", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 40}},
	})
	require.NoError(t, err)

	plan, err := eng.RetrieveItem(ctx, RetrieveRequest{ItemID: "kit", UserID: "astro-1"})
	require.NoError(t, err)
	assert.Equal(t, "M", plan.ContainerID)

	_, err = eng.RetrieveItem(ctx, RetrieveRequest{ItemID: "kit"})
	assert.ErrorIs(t, err, cargo.ErrNotFound)

	res, err := eng.PlaceItems(ctx, PlaceRequest{Items: []cargo.Item{item}})
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.NoError(t, eng.Snapshot().Validate())

	logs, err := eng.Logs(ctx, history.Filter{UserID: "astro-1"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, history.ActionRetrieval, logs[0].ActionType)
}

func TestCancelledBatchCommitsNothing(t *testing.T) {
	eng := newEngine(t)
	before := eng.Snapshot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{{ID: "M", Zone: "Medical", Dimensions: vec(20, 20, 20)}},
		Items:      []cargo.Item{{ID: "x", Dimensions: vec(1, 1, 1), Mass: 1, Priority: 1}},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, eng.Snapshot())
}

func TestPlaceItems_InvalidBatch(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.PlaceItems(context.Background(), PlaceRequest{
		Items: []cargo.Item{{ID: "x", Dimensions: vec(1, 1, 1), Mass: 1, Priority: 500}},
	})
	assert.ErrorIs(t, err, cargo.ErrInvalidInput)
}

func TestAdmissionRules(t *testing.T) {
	eng := newEngine(t, WithConfig(Config{
		Rules: []policy.DynamicRule{{ID: "no_heavy_quarters", Condition: "mass > 50.0 && zone == 'Crew Quarters'", Action: policy.ActionBlock}},
	}))

	res, err := eng.PlaceItems(context.Background(), PlaceRequest{
		Containers: []cargo.Container{
			{ID: "Q", Zone: "Crew Quarters", Dimensions: vec(50, 50, 50)},
			{ID: "S", Zone: "Storage", Dimensions: vec(50, 50, 50)},
		},
		Items: []cargo.Item{{ID: "anvil", Dimensions: vec(10, 10, 10), Mass: 80, Priority: 50, PreferredZone: "Crew Quarters"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, "S", res.Placements[0].ContainerID)
}

func TestSearchItemPrefersFewestSteps(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	// Two water bags share a name; the one behind the crate needs extra steps.
	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{
			{ID: "deep", Zone: "Galley", Dimensions: vec(10, 20, 10)},
			{ID: "open", Zone: "Galley", Dimensions: vec(10, 10, 10)},
		},
		Items: []cargo.Item{
			{ID: "crate", Name: "Crate", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 90, PreferredZone: "Galley"},
			{ID: "water-1", Name: "Water Bag", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 80, PreferredZone: "Galley"},
			{ID: "water-2", Name: "Water Bag", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 70, PreferredZone: "Galley"},
		},
	})
	require.NoError(t, err)
	snap := eng.Snapshot()
	require.Equal(t, "deep", snap.Placements["water-1"].ContainerID)
	require.Equal(t, "open", snap.Placements["water-2"].ContainerID)

	res, err := eng.SearchItem(ctx, SearchRequest{ItemName: "water bag"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "water-2", res.Item.ID)
	assert.Len(t, res.Plan.Steps, 1)

	res, err = eng.SearchItem(ctx, SearchRequest{ItemID: "water-1"})
	require.NoError(t, err)
	assert.Equal(t, 4, len(res.Plan.Steps))

	res, err = eng.SearchItem(ctx, SearchRequest{ItemID: "ghost"})
	require.NoError(t, err)
	assert.False(t, res.Found)

	_, err = eng.SearchItem(ctx, SearchRequest{})
	assert.ErrorIs(t, err, cargo.ErrInvalidInput)

	assert.Equal(t, snap, eng.Snapshot())
}

func TestWasteLifecycle(t *testing.T) {
	archive := storage.NewMemoryStore()
	alerts := &recordingNotifier{}
	eng := newEngine(t, WithArchive(archive, "archive"), WithNotifier(alerts))
	ctx := context.Background()

	soon := missionStart.AddDate(0, 0, 2)
	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{
			{ID: "shelf", Zone: "Lab", Dimensions: vec(30, 10, 10)},
			{ID: "R", Zone: "Airlock", Dimensions: vec(50, 50, 50)},
		},
		Items: []cargo.Item{
			{ID: "w50", Name: "Coolant", Dimensions: vec(10, 10, 10), Mass: 50, Priority: 30, ExpiryDate: &soon, PreferredZone: "Lab"},
			{ID: "w40", Name: "Filters", Dimensions: vec(10, 10, 10), Mass: 40, Priority: 20, UsageLimit: intp(1), PreferredZone: "Lab"},
			{ID: "w30", Name: "Towels", Dimensions: vec(10, 10, 10), Mass: 30, Priority: 10, ExpiryDate: &soon, PreferredZone: "Lab"},
		},
	})
	require.NoError(t, err)

	adv, err := eng.AdvanceTime(ctx, depletion.Request{Days: intp(3), ItemsUsedPerDay: []depletion.UsageRef{{ItemID: "w40"}}}, "")
	require.NoError(t, err)
	assert.Len(t, adv.ItemsDepleted, 1)
	assert.Len(t, adv.ItemsExpired, 2)
	assert.Len(t, alerts.waste, 3)

	waste, err := eng.IdentifyWaste(ctx)
	require.NoError(t, err)
	require.Len(t, waste, 3)
	again, err := eng.IdentifyWaste(ctx)
	require.NoError(t, err)
	assert.Equal(t, waste, again)
	assert.Len(t, alerts.waste, 3, "already classified waste is not announced twice")

	plan, err := eng.PlanReturn(ctx, solver.ReturnRequest{UndockingContainerID: "R", MaxWeight: 100}, "")
	require.NoError(t, err)
	assert.LessOrEqual(t, plan.Manifest.TotalMass, 100.0)
	assert.Len(t, plan.Manifest.Remaining, 1)
	require.Len(t, alerts.manifests, 1)
	assert.Equal(t, "R", alerts.manifests[0].UndockingContainerID)

	st, err := eng.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"R"}, st.PendingReturns)

	done, err := eng.CompleteUndocking(ctx, "R", "")
	require.NoError(t, err)
	assert.Equal(t, 2, done.ItemsRemoved)

	snap := eng.Snapshot()
	assert.NotContains(t, snap.Containers, "R")
	assert.Len(t, snap.Waste, 1)
	assert.Empty(t, snap.Returns)

	tombs, err := lazarus.List(ctx, archive, "archive")
	require.NoError(t, err)
	assert.Len(t, tombs, 2)

	logs, err := eng.Logs(ctx, history.Filter{ActionType: history.ActionDisposal})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = eng.CompleteUndocking(ctx, "R", "")
	assert.ErrorIs(t, err, cargo.ErrNotFound)
}

type recordingNotifier struct {
	waste     []cargo.WasteRecord
	manifests []cargo.ReturnManifest
}

func (n *recordingNotifier) WasteIdentified(ctx context.Context, date time.Time, fresh []cargo.WasteRecord) error {
	n.waste = append(n.waste, fresh...)
	return nil
}

func (n *recordingNotifier) ReturnPlanned(ctx context.Context, m cargo.ReturnManifest) error {
	n.manifests = append(n.manifests, m)
	return nil
}

func TestRemoveItem(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	assert.ErrorIs(t, eng.RemoveItem(ctx, "nope", ""), cargo.ErrNotFound)

	_, err := eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{{ID: "M", Zone: "Medical", Dimensions: vec(20, 20, 20)}},
		Items:      []cargo.Item{{ID: "x", Dimensions: vec(1, 1, 1), Mass: 1, Priority: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, eng.RemoveItem(ctx, "x", "astro-2"))
	assert.NotContains(t, eng.Snapshot().Items, "x")
}

func TestArrangement(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	got, err := eng.Arrangement(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = eng.PlaceItems(ctx, PlaceRequest{
		Containers: []cargo.Container{
			{ID: "B", Zone: "Lab", Dimensions: vec(10, 10, 10)},
			{ID: "A", Zone: "Lab", Dimensions: vec(10, 10, 10)},
		},
		Items: []cargo.Item{
			{ID: "y", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 5, PreferredZone: "Lab"},
			{ID: "x", Dimensions: vec(10, 10, 10), Mass: 1, Priority: 5, PreferredZone: "Lab"},
		},
	})
	require.NoError(t, err)

	got, err = eng.Arrangement(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].ContainerID)
	assert.Equal(t, "A", got[1].ContainerID)
	for _, p := range got {
		assert.Equal(t, vec(0, 0, 0), p.Position.Start)
		assert.Equal(t, vec(10, 10, 10), p.Position.End)
		assert.Equal(t, eng.Snapshot().Placements[p.ItemID], p)
	}
}
