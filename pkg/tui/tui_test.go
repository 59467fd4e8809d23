package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

func fixture(t *testing.T) *warehouse.State {
	t.Helper()
	st := warehouse.New(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, st.AddContainer(cargo.Container{ID: "lab-1", Zone: "Lab", Dimensions: cargo.Vec3{Width: 10, Depth: 10, Height: 10}}))
	require.NoError(t, st.AddContainer(cargo.Container{ID: "store-1", Zone: "Storage", Dimensions: cargo.Vec3{Width: 10, Depth: 10, Height: 10}}))

	dims := cargo.Vec3{Width: 10, Depth: 5, Height: 10}
	for i, id := range []string{"kit", "ration"} {
		st.Items[id] = cargo.Item{ID: id, Name: map[string]string{"kit": "Med Kit", "ration": "Ration Pack"}[id], Dimensions: dims, Mass: 1, Priority: 50}
		st.Placements[id] = cargo.Placement{ItemID: id, ContainerID: "store-1",
			Position: cargo.NewPosition(cargo.Vec3{Depth: float64(i) * 5}, dims)}
	}
	st.MarkWaste(st.Items["ration"], cargo.ReasonExpired, st.CurrentDate)
	return st
}

func loaded(t *testing.T, m Model, st *warehouse.State, err error) Model {
	t.Helper()
	next, _ := m.Update(loadedMsg{state: st, err: err, at: time.Now()})
	return next.(Model)
}

func key(t *testing.T, m Model, k string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestDashboardList(t *testing.T) {
	st := fixture(t)
	m := loaded(t, NewModel(func(context.Context) (*warehouse.State, error) { return st, nil }), st, nil)

	view := m.View()
	assert.Contains(t, view, "STOWAGE DASHBOARD")
	assert.Contains(t, view, "day 2025-07-01")
	assert.Contains(t, view, "lab-1")
	assert.Contains(t, view, "store-1")
	assert.Contains(t, view, "100.0%")
	assert.Contains(t, view, "2 of 2 item(s) stored")
	assert.Contains(t, view, "1 waste item(s)")
}

func TestDashboardDetails(t *testing.T) {
	st := fixture(t)
	m := loaded(t, NewModel(nil), st, nil)

	m = key(t, m, "down")
	m = key(t, m, "enter")
	require.Equal(t, ViewStateDetail, m.state)

	view := m.View()
	assert.Contains(t, view, "store-1 · Storage")
	assert.Contains(t, view, "Med Kit")
	assert.Contains(t, view, "Ration Pack")
	assert.Contains(t, view, "WASTE")
	assert.Less(t, strings.Index(view, "Med Kit"), strings.Index(view, "Ration Pack"), "open face first")

	m = key(t, m, "esc")
	assert.Equal(t, ViewStateList, m.state)
}

func TestDashboardCursorBounds(t *testing.T) {
	st := fixture(t)
	m := loaded(t, NewModel(nil), st, nil)
	for i := 0; i < 5; i++ {
		m = key(t, m, "down")
	}
	assert.Equal(t, 1, m.cursor)
	m = key(t, m, "k")
	m = key(t, m, "k")
	assert.Equal(t, 0, m.cursor)
}

func TestDashboardLoadError(t *testing.T) {
	m := loaded(t, NewModel(nil), nil, errors.New("bucket unreachable"))
	assert.Contains(t, m.View(), "load failed: bucket unreachable")
}

func TestDashboardQuit(t *testing.T) {
	m := key(t, NewModel(nil), "q")
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}
