package testutil

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/pairci/ham"
	"gonum.org/v1/gonum/mat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Uniform returns a pseudo-random number in [lo,hi).
func (r *RNG) Uniform(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + (hi-lo)*r.rand.Float64()
}

// Integrals returns random one- and two-electron integrals over nbasis
// orbitals. The one-electron matrix is symmetric with increasing diagonal
// (so the lowest orbitals form the reference), and the two-electron
// integrals are built as (ij|kl) = sum_P B^P_ij B^P_kl from symmetric B^P,
// which gives the full 8-fold permutational symmetry.
func (r *RNG) Integrals(nbasis int) (one, two []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := nbasis
	one = make([]float64, n*n)
	for i := range n {
		one[i*n+i] = -2 + 0.6*float64(i) + 0.1*r.rand.Float64()
		for j := range i {
			x := 0.05 * (r.rand.Float64() - 0.5)
			one[i*n+j], one[j*n+i] = x, x
		}
	}

	const naux = 3
	b := make([]float64, naux*n*n)
	for p := range naux {
		for i := range n {
			for j := range i + 1 {
				x := 0.4 * r.rand.Float64()
				if i != j {
					x *= 0.5
				}
				b[(p*n+i)*n+j], b[(p*n+j)*n+i] = x, x
			}
		}
	}
	two = make([]float64, n*n*n*n)
	for ij := range n * n {
		for kl := range n * n {
			var s float64
			for p := range naux {
				s += b[p*n*n+ij] * b[p*n*n+kl]
			}
			two[ij*n*n+kl] = s
		}
	}
	return one, two
}

// Hamiltonian returns a seniority-zero Hamiltonian reduced from random
// integrals.
func (r *RNG) Hamiltonian(nbasis int) *ham.Hamiltonian {
	one, two := r.Integrals(nbasis)
	h, err := ham.FromIntegrals(nbasis, r.Uniform(0, 1), one, two)
	if err != nil {
		panic(fmt.Errorf("testutil: random hamiltonian: %w", err))
	}
	return h
}

// DenseSym materializes an n x n operator from its matrix-vector product
// by applying it to unit vectors. It fails if the result is not symmetric.
func DenseSym(n int, apply func(x, y []float64) error) (*mat.SymDense, error) {
	cols := make([][]float64, n)
	x := make([]float64, n)
	for j := range n {
		clear(x)
		x[j] = 1
		cols[j] = make([]float64, n)
		if err := apply(x, cols[j]); err != nil {
			return nil, err
		}
	}

	m := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			a, b := cols[j][i], cols[i][j]
			if d := a - b; d > 1e-10 || d < -1e-10 {
				return nil, fmt.Errorf("testutil: operator not symmetric at (%d,%d): %g vs %g", i, j, a, b)
			}
			m.SetSym(i, j, a)
		}
	}
	return m, nil
}

// EigenValues returns the eigenvalues of m in ascending order.
func EigenValues(m *mat.SymDense) ([]float64, error) {
	var es mat.EigenSym
	if !es.Factorize(m, false) {
		return nil, errors.New("testutil: eigendecomposition failed")
	}
	return es.Values(nil), nil
}
