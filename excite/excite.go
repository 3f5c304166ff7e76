// Package excite enumerates the determinants reachable from a reference by
// one or two orbital substitutions.
//
// Enumeration is lazy and canonical: all singles first (occupied orbital i
// ascending, then virtual orbital a ascending), then all doubles (occupied
// pairs i<j in lexicographic order, then virtual pairs a<b in lexicographic
// order). Candidates are never inserted anywhere; callers filter them first.
package excite

import (
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/pairci/det"
)

// MaxSupportedOrder is the highest substitution order the generator knows.
const MaxSupportedOrder = 2

// ErrInvalidOrder is returned for excitation orders outside [1, MaxSupportedOrder].
var ErrInvalidOrder = errors.New("invalid excitation order")

// Excitation describes one substitution of a reference determinant.
type Excitation struct {
	// Order is 1 for single and 2 for double substitutions.
	Order int
	// Holes are the vacated occupied orbitals (Holes[1] unused for singles).
	Holes [2]int
	// Parts are the filled virtual orbitals (Parts[1] unused for singles).
	Parts [2]int
	// Det is the resulting determinant. It is a scratch buffer owned by the
	// generator and only valid until the iteration advances.
	Det []uint64
}

// Generator produces excitations up to a fixed order.
type Generator struct {
	nbasis   int
	maxOrder int
}

// New creates a generator for determinants over nbasis orbitals.
func New(nbasis, maxOrder int) (*Generator, error) {
	if maxOrder < 1 || maxOrder > MaxSupportedOrder {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, maxOrder)
	}
	return &Generator{nbasis: nbasis, maxOrder: maxOrder}, nil
}

// MaxOrder returns the highest substitution order generated.
func (g *Generator) MaxOrder() int { return g.maxOrder }

// Excitations yields every excitation of ref in canonical order.
// The yielded pointer and its Det buffer are reused between iterations.
func (g *Generator) Excitations(ref []uint64) iter.Seq[*Excitation] {
	return func(yield func(*Excitation) bool) {
		occs := det.Occs(ref, nil)
		virs := det.Virs(ref, g.nbasis, nil)
		e := &Excitation{Det: make([]uint64, len(ref))}

		e.Order = 1
		for _, i := range occs {
			for _, a := range virs {
				e.Holes = [2]int{i, -1}
				e.Parts = [2]int{a, -1}
				det.Excite(e.Det, ref, i, a)
				if !yield(e) {
					return
				}
			}
		}
		if g.maxOrder < 2 {
			return
		}

		e.Order = 2
		for ii, i := range occs {
			for _, j := range occs[ii+1:] {
				for aa, a := range virs {
					for _, b := range virs[aa+1:] {
						e.Holes = [2]int{i, j}
						e.Parts = [2]int{a, b}
						det.Excite(e.Det, ref, i, a)
						det.Excite(e.Det, e.Det, j, b)
						if !yield(e) {
							return
						}
					}
				}
			}
		}
	}
}

// Count returns how many excitations a determinant with nocc occupied and
// nvir virtual orbitals has up to maxOrder.
func Count(nocc, nvir, maxOrder int) int {
	n := 0
	if maxOrder >= 1 {
		n += nocc * nvir
	}
	if maxOrder >= 2 {
		n += det.Binomial(nocc, 2) * det.Binomial(nvir, 2)
	}
	return n
}
