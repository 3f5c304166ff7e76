// Package ham provides the seniority-zero (pair) Hamiltonian used to select
// determinants and build the CI operator.
//
// The Hamiltonian is given by three read-only tables over nbasis spatial
// orbitals, indexed row-major:
//
//	H[i]           one-body energy of a doubly occupied orbital i (2 h_ii)
//	V[i*nbasis+a]  pair-transfer element moving a pair from i to a ((ia|ia));
//	               the diagonal V[i*nbasis+i] is the on-site repulsion (ii|ii)
//	W[i*nbasis+j]  interaction energy of pairs in i and j, i != j
//	               (2(2(ii|jj) - (ij|ji))); the diagonal is ignored
//
// For a determinant D the diagonal element is
//
//	sum_{i in D} (H[i] + V[ii]) + sum_{i<j in D} W[ij]
//
// and the element between D and the determinant obtained by moving the pair
// in i to a is V[ia]. Determinants differing by two or more pairs are not
// coupled. The core energy is kept separate and never enters the operator.
package ham

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/pairci/excite"
)

var (
	// ErrInvalidTables is returned when integral tables have the wrong size.
	ErrInvalidTables = errors.New("invalid integral tables")

	// ErrNotSymmetric is returned when V or W is not symmetric.
	ErrNotSymmetric = errors.New("integral table not symmetric")
)

// symmetryTol is the relative tolerance of the symmetry check.
const symmetryTol = 1e-10

// Hamiltonian is an immutable seniority-zero Hamiltonian.
type Hamiltonian struct {
	nbasis int
	ecore  float64
	h      []float64
	v      []float64
	w      []float64
	maxV   float64
}

// New creates a Hamiltonian from reduced tables. The tables are copied.
func New(nbasis int, ecore float64, h, v, w []float64) (*Hamiltonian, error) {
	if nbasis <= 0 {
		return nil, fmt.Errorf("%w: nbasis=%d", ErrInvalidTables, nbasis)
	}
	n2 := nbasis * nbasis
	if len(h) != nbasis || len(v) != n2 || len(w) != n2 {
		return nil, fmt.Errorf("%w: len(h)=%d len(v)=%d len(w)=%d for nbasis=%d",
			ErrInvalidTables, len(h), len(v), len(w), nbasis)
	}
	if err := checkSymmetric("v", nbasis, v); err != nil {
		return nil, err
	}
	if err := checkSymmetric("w", nbasis, w); err != nil {
		return nil, err
	}

	ham := &Hamiltonian{
		nbasis: nbasis,
		ecore:  ecore,
		h:      append([]float64(nil), h...),
		v:      append([]float64(nil), v...),
		w:      append([]float64(nil), w...),
	}
	for i := range nbasis {
		for a := range nbasis {
			if a != i {
				ham.maxV = max(ham.maxV, math.Abs(v[i*nbasis+a]))
			}
		}
	}
	return ham, nil
}

func checkSymmetric(name string, n int, m []float64) error {
	for i := range n {
		for j := i + 1; j < n; j++ {
			a, b := m[i*n+j], m[j*n+i]
			if math.Abs(a-b) > symmetryTol*max(1, math.Abs(a), math.Abs(b)) {
				return fmt.Errorf("%w: %s[%d,%d]=%g, %s[%d,%d]=%g", ErrNotSymmetric, name, i, j, a, name, j, i, b)
			}
		}
	}
	return nil
}

// FromIntegrals reduces full spatial-orbital integrals to the seniority-zero
// tables. one is the nbasis^2 one-electron matrix, two the nbasis^4
// two-electron integrals in chemists' notation, two[((i*n+j)*n+k)*n+l] = (ij|kl).
func FromIntegrals(nbasis int, ecore float64, one, two []float64) (*Hamiltonian, error) {
	n := nbasis
	if n <= 0 || len(one) != n*n || len(two) != n*n*n*n {
		return nil, fmt.Errorf("%w: len(one)=%d len(two)=%d for nbasis=%d", ErrInvalidTables, len(one), len(two), n)
	}
	eri := func(i, j, k, l int) float64 { return two[((i*n+j)*n+k)*n+l] }

	h := make([]float64, n)
	v := make([]float64, n*n)
	w := make([]float64, n*n)
	for i := range n {
		h[i] = 2 * one[i*n+i]
		for j := range n {
			v[i*n+j] = eri(i, j, i, j)
			if i != j {
				w[i*n+j] = 2 * (2*eri(i, i, j, j) - eri(i, j, j, i))
			}
		}
	}
	return New(n, ecore, h, v, w)
}

// NBasis returns the number of spatial orbitals.
func (h *Hamiltonian) NBasis() int { return h.nbasis }

// ECore returns the constant core energy.
func (h *Hamiltonian) ECore() float64 { return h.ecore }

// ExcitationOrder returns the highest substitution order with non-zero
// elements. Pair Hamiltonians only couple single pair transfers.
func (h *Hamiltonian) ExcitationOrder() int { return 1 }

// Diagonal returns the diagonal element of the determinant with the given
// occupied orbitals.
func (h *Hamiltonian) Diagonal(occs []int) float64 {
	n := h.nbasis
	var one, two float64
	for k, i := range occs {
		one += h.h[i] + h.v[i*n+i]
		row := h.w[i*n:]
		for _, j := range occs[k+1:] {
			two += row[j]
		}
	}
	return one + two
}

// Element returns the off-diagonal element between a reference determinant
// and the excitation e of it.
func (h *Hamiltonian) Element(e *excite.Excitation) float64 {
	if e.Order != 1 {
		return 0
	}
	return h.v[e.Holes[0]*h.nbasis+e.Parts[0]]
}

// MaxCoupling returns the largest off-diagonal element magnitude. No
// determinant pair couples more strongly.
func (h *Hamiltonian) MaxCoupling() float64 { return h.maxV }

// PairTransfer returns V[i,a].
func (h *Hamiltonian) PairTransfer(i, a int) float64 { return h.v[i*h.nbasis+a] }
