package wfn

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pairci/det"
)

var (
	// ErrInvalidShape is returned for an unusable (nbasis, nocc) pair.
	ErrInvalidShape = errors.New("invalid wavefunction shape")

	// ErrInvalidDet is returned when a determinant does not belong to the
	// wavefunction's (nbasis, nocc) class.
	ErrInvalidDet = det.ErrInvalidDet

	// ErrDuplicateDet is returned when a bulk constructor receives the same
	// determinant twice.
	ErrDuplicateDet = errors.New("duplicate determinant")

	// ErrInvalidExcitation is returned for a negative excitation order.
	ErrInvalidExcitation = errors.New("invalid excitation order")

	// ErrInvalidOccs is returned for malformed occupation lists.
	ErrInvalidOccs = det.ErrInvalidOccs
)

// ErrDimensionMismatch indicates a caller-supplied array whose length is
// inconsistent with the wavefunction shape.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// ErrOutOfRange indicates a determinant position at or beyond Len.
type ErrOutOfRange struct {
	Index int
	Len   int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("determinant index %d out of range [0,%d)", e.Index, e.Len)
}
