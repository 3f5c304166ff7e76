package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestIntegrals_Symmetry(t *testing.T) {
	rng := NewRNG(4711)
	const n = 4
	one, two := rng.Integrals(n)
	require.Len(t, one, n*n)
	require.Len(t, two, n*n*n*n)

	eri := func(i, j, k, l int) float64 { return two[((i*n+j)*n+k)*n+l] }
	for i := range n {
		for j := range n {
			assert.Equal(t, one[i*n+j], one[j*n+i])
			for k := range n {
				for l := range n {
					v := eri(i, j, k, l)
					assert.InDelta(t, v, eri(j, i, k, l), 1e-14)
					assert.InDelta(t, v, eri(i, j, l, k), 1e-14)
					assert.InDelta(t, v, eri(k, l, i, j), 1e-14)
				}
			}
		}
	}
}

func TestRNG_Reproducible(t *testing.T) {
	a, _ := NewRNG(1).Integrals(3)
	b, _ := NewRNG(1).Integrals(3)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(1), NewRNG(1).Seed())
}

func TestDenseSymAndEigenValues(t *testing.T) {
	a := mat.NewSymDense(3, []float64{
		2, 1, 0,
		1, 2, 0,
		0, 0, 5,
	})
	apply := func(x, y []float64) error {
		yv := mat.NewVecDense(3, y)
		yv.MulVec(a, mat.NewVecDense(3, x))
		return nil
	}

	m, err := DenseSym(3, apply)
	require.NoError(t, err)
	vals, err := EigenValues(m)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 3, 5}, vals, 1e-12)

	_, err = DenseSym(2, func(x, y []float64) error {
		y[0] = x[1]
		y[1] = 0
		return nil
	})
	assert.Error(t, err)
}
