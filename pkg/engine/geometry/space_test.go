package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DrSkyle/stowage/pkg/cargo"
)

func v(w, d, h float64) cargo.Vec3 { return cargo.Vec3{Width: w, Depth: d, Height: h} }

func TestOverlaps(t *testing.T) {
	base := cargo.NewPosition(v(0, 0, 0), v(10, 10, 10))
	cases := []struct {
		name string
		box  cargo.Position
		want bool
	}{
		{"identical", base, true},
		{"touching_width_face", cargo.NewPosition(v(10, 0, 0), v(5, 5, 5)), false},
		{"touching_height_face", cargo.NewPosition(v(0, 0, 10), v(5, 5, 5)), false},
		{"partial", cargo.NewPosition(v(9, 9, 9), v(5, 5, 5)), true},
		{"disjoint", cargo.NewPosition(v(20, 20, 20), v(1, 1, 1)), false},
		{"contained", cargo.NewPosition(v(2, 2, 2), v(1, 1, 1)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(base, tc.box))
			assert.Equal(t, tc.want, Overlaps(tc.box, base))
		})
	}
}

func TestSpaceFits(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	require.NoError(t, s.Place("a", cargo.NewPosition(v(0, 0, 0), v(5, 10, 10))))

	assert.False(t, s.Fits(v(0, 0, 0), v(1, 1, 1)), "overlaps occupant")
	assert.True(t, s.Fits(v(5, 0, 0), v(5, 10, 10)), "touches occupant face")
	assert.False(t, s.Fits(v(6, 0, 0), v(5, 1, 1)), "exceeds width")
	assert.False(t, s.Fits(v(-1, 0, 0), v(1, 1, 1)), "negative anchor")
}

func TestSpacePlaceRejectsConflicts(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	require.NoError(t, s.Place("a", cargo.NewPosition(v(0, 0, 0), v(5, 5, 5))))

	err := s.Place("b", cargo.NewPosition(v(4, 4, 4), v(2, 2, 2)))
	assert.ErrorIs(t, err, cargo.ErrConflictingState)

	err = s.Place("c", cargo.NewPosition(v(8, 0, 0), v(5, 1, 1)))
	assert.ErrorIs(t, err, cargo.ErrConflictingState)

	err = s.Place("a", cargo.NewPosition(v(6, 6, 6), v(1, 1, 1)))
	assert.ErrorIs(t, err, cargo.ErrConflictingState)
}

func TestFreeSlotsOrder(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	require.NoError(t, s.Place("a", cargo.NewPosition(v(0, 0, 0), v(4, 3, 2))))

	var got []cargo.Vec3
	for p := range s.FreeSlots() {
		got = append(got, p)
	}

	// (0,0,0) is inside the occupant and skipped.
	want := []cargo.Vec3{
		v(4, 0, 0), v(0, 3, 0), v(4, 3, 0),
		v(0, 0, 2), v(4, 0, 2), v(0, 3, 2), v(4, 3, 2),
	}
	assert.Equal(t, want, got)
}

func TestFreeSlotsStopsEarly(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	n := 0
	for range s.FreeSlots() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFirstFitPrefersLowThenShallow(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	require.NoError(t, s.Place("floor", cargo.NewPosition(v(0, 0, 0), v(10, 5, 1))))

	p, ok := s.FirstFit(v(10, 5, 1))
	require.True(t, ok)
	assert.Equal(t, v(0, 5, 0), p.Start)

	_, ok = s.FirstFit(v(11, 1, 1))
	assert.False(t, ok)
}

func TestOccupiedVolumeAndClone(t *testing.T) {
	s := NewSpace(cargo.Container{ID: "c", Dimensions: v(10, 10, 10)})
	require.NoError(t, s.Place("a", cargo.NewPosition(v(0, 0, 0), v(2, 5, 10))))
	require.NoError(t, s.Place("b", cargo.NewPosition(v(2, 0, 0), v(1, 1, 1))))

	assert.InDelta(t, 101.0, s.OccupiedVolume(), 1e-9)
	assert.InDelta(t, 899.0, s.FreeVolume(), 1e-9)

	c := s.Clone()
	c.Remove("a")
	assert.Equal(t, []string{"a", "b"}, s.Occupants())
	assert.Equal(t, []string{"b"}, c.Occupants())
}
