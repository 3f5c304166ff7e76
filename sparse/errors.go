package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStructure is returned for CSR arrays that violate the
	// row-pointer or column-index invariants.
	ErrInvalidStructure = errors.New("invalid sparse structure")

	// ErrNotSquare is returned by Solve for operators whose rows and
	// columns do not index the same determinants.
	ErrNotSquare = errors.New("operator is not square")

	// ErrInvalidRows is returned for row or column selections outside
	// the wavefunction.
	ErrInvalidRows = errors.New("invalid row selection")

	// ErrNotConverged is matched by *NotConvergedError.
	ErrNotConverged = errors.New("eigensolver did not converge")
)

// ErrDimensionMismatch indicates a vector whose length does not match the
// operator shape.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// NotConvergedError reports that Solve ran out of iterations. The
// eigenpairs returned alongside it are the best estimate reached.
type NotConvergedError struct {
	Iterations  int
	MaxResidual float64
	Tolerance   float64
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("eigensolver did not converge after %d iterations: residual %g > tolerance %g",
		e.Iterations, e.MaxResidual, e.Tolerance)
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }
