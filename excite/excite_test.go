package excite

import (
	"testing"

	"github.com/hupe1980/pairci/det"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidOrder(t *testing.T) {
	_, err := New(4, 0)
	assert.ErrorIs(t, err, ErrInvalidOrder)
	_, err = New(4, 3)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestExcitations_CanonicalOrder(t *testing.T) {
	g, err := New(4, 2)
	require.NoError(t, err)

	ref, err := det.FromOccs(4, []int{0, 1})
	require.NoError(t, err)

	var got [][]int
	var orders []int
	for e := range g.Excitations(ref) {
		got = append(got, det.Occs(e.Det, nil))
		orders = append(orders, e.Order)
	}

	assert.Equal(t, [][]int{
		{1, 2}, {1, 3}, // 0 -> 2, 0 -> 3
		{0, 2}, {0, 3}, // 1 -> 2, 1 -> 3
		{2, 3}, // 0,1 -> 2,3
	}, got)
	assert.Equal(t, []int{1, 1, 1, 1, 2}, orders)
}

func TestExcitations_HolesAndParts(t *testing.T) {
	g, err := New(70, 2)
	require.NoError(t, err)

	ref, err := det.FromOccs(70, []int{3, 64})
	require.NoError(t, err)

	for e := range g.Excitations(ref) {
		want := append([]uint64{}, ref...)
		det.Excite(want, want, e.Holes[0], e.Parts[0])
		if e.Order == 2 {
			det.Excite(want, want, e.Holes[1], e.Parts[1])
			require.Less(t, e.Holes[0], e.Holes[1])
			require.Less(t, e.Parts[0], e.Parts[1])
		}
		require.Equal(t, want, e.Det)
		require.NoError(t, det.Validate(e.Det, 70, 2))
		require.True(t, det.Test(ref, e.Holes[0]))
		require.False(t, det.Test(ref, e.Parts[0]))
	}
}

func TestExcitations_CountAndUnique(t *testing.T) {
	for _, order := range []int{1, 2} {
		g, err := New(9, order)
		require.NoError(t, err)

		ref, err := det.FromOccs(9, []int{0, 4, 7})
		require.NoError(t, err)

		seen := map[[1]uint64]bool{{ref[0]}: true}
		n := 0
		for e := range g.Excitations(ref) {
			k := [1]uint64{e.Det[0]}
			require.False(t, seen[k])
			seen[k] = true
			n++
		}
		assert.Equal(t, Count(3, 6, order), n)
	}
	assert.Equal(t, 18, Count(3, 6, 1))
	assert.Equal(t, 18+3*15, Count(3, 6, 2))
}

func TestExcitations_EarlyStop(t *testing.T) {
	g, err := New(6, 2)
	require.NoError(t, err)
	ref, err := det.FromOccs(6, []int{0, 1, 2})
	require.NoError(t, err)

	n := 0
	for range g.Excitations(ref) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestExcitations_Degenerate(t *testing.T) {
	g, err := New(3, 2)
	require.NoError(t, err)

	full, err := det.FromOccs(3, []int{0, 1, 2})
	require.NoError(t, err)
	empty := det.New(3)

	for range g.Excitations(full) {
		t.Fatal("fully occupied determinant has no excitations")
	}
	for range g.Excitations(empty) {
		t.Fatal("empty determinant has no excitations")
	}
}
