package pairci

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pairci/blobstore"
	"github.com/hupe1980/pairci/hci"
	"github.com/hupe1980/pairci/persistence"
	"github.com/hupe1980/pairci/resource"
	"github.com/hupe1980/pairci/sparse"
	"github.com/hupe1980/pairci/wfn"
)

var (
	// ErrNotConverged is returned when the eigensolver exhausts its iterations.
	ErrNotConverged = errors.New("eigensolver did not converge")

	// ErrInvalidThreshold is returned for a negative or NaN selection threshold.
	ErrInvalidThreshold = errors.New("invalid selection threshold")

	// ErrInvalidShape is returned for an unusable (nbasis, nocc) pair.
	ErrInvalidShape = errors.New("invalid wavefunction shape")

	// ErrMemoryLimitExceeded is returned when the determinant store would
	// outgrow the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptSnapshot is returned for unreadable snapshots.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// ErrDimensionMismatch indicates inputs of inconsistent sizes, such as a
// Hamiltonian over a different basis than the wavefunction.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	What     string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sparse.ErrNotConverged) {
		return fmt.Errorf("%w: %w", ErrNotConverged, err)
	}
	if errors.Is(err, hci.ErrInvalidThreshold) {
		return fmt.Errorf("%w: %w", ErrInvalidThreshold, err)
	}
	if errors.Is(err, wfn.ErrInvalidShape) {
		return fmt.Errorf("%w: %w", ErrInvalidShape, err)
	}
	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, persistence.ErrCorrupt) ||
		errors.Is(err, persistence.ErrInvalidMagic) ||
		errors.Is(err, persistence.ErrUnsupportedVersion) {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	var wdm *wfn.ErrDimensionMismatch
	if errors.As(err, &wdm) {
		return &ErrDimensionMismatch{What: wdm.What, Expected: wdm.Expected, Actual: wdm.Actual, cause: err}
	}
	var sdm *sparse.ErrDimensionMismatch
	if errors.As(err, &sdm) {
		return &ErrDimensionMismatch{What: sdm.What, Expected: sdm.Expected, Actual: sdm.Actual, cause: err}
	}

	return err
}
