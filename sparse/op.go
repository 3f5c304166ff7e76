package sparse

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// SparseOp is an immutable operator in CSR form.
//
// Row i holds the entries data[indptr[i]:indptr[i+1]] in the columns
// indices[indptr[i]:indptr[i+1]]. Column indices are unique and ascending
// within a row.
type SparseOp struct {
	nrow    int
	ncol    int
	data    []float64
	indices []int
	indptr  []int

	// rows maps row i to its determinant position; nil means row i is
	// determinant i.
	rows []int
	// diag holds the diagonal element of every row's determinant.
	diag []float64
}

// NewSparseOp creates an operator from CSR arrays, which it takes
// ownership of. The diagonal is read from the (i, i) entries.
func NewSparseOp(nrow, ncol int, data []float64, indices, indptr []int) (*SparseOp, error) {
	op := &SparseOp{
		nrow:    nrow,
		ncol:    ncol,
		data:    data,
		indices: indices,
		indptr:  indptr,
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	op.diag = make([]float64, nrow)
	for i := range min(nrow, ncol) {
		op.diag[i] = op.At(i, i)
	}
	return op, nil
}

// Validate checks the CSR invariants.
func (op *SparseOp) Validate() error {
	if op.nrow < 0 || op.ncol < 0 {
		return fmt.Errorf("%w: shape %dx%d", ErrInvalidStructure, op.nrow, op.ncol)
	}
	if len(op.indptr) != op.nrow+1 {
		return fmt.Errorf("%w: len(indptr)=%d for %d rows", ErrInvalidStructure, len(op.indptr), op.nrow)
	}
	if op.indptr[0] != 0 {
		return fmt.Errorf("%w: indptr[0]=%d", ErrInvalidStructure, op.indptr[0])
	}
	nnz := op.indptr[op.nrow]
	if len(op.data) != nnz || len(op.indices) != nnz {
		return fmt.Errorf("%w: indptr[nrow]=%d, len(data)=%d, len(indices)=%d",
			ErrInvalidStructure, nnz, len(op.data), len(op.indices))
	}
	for i := range op.nrow {
		lo, hi := op.indptr[i], op.indptr[i+1]
		if hi < lo {
			return fmt.Errorf("%w: indptr decreases at row %d", ErrInvalidStructure, i)
		}
		for k := lo; k < hi; k++ {
			j := op.indices[k]
			if j < 0 || j >= op.ncol {
				return fmt.Errorf("%w: column %d out of range in row %d", ErrInvalidStructure, j, i)
			}
			if k > lo && j <= op.indices[k-1] {
				return fmt.Errorf("%w: columns not unique and ascending in row %d", ErrInvalidStructure, i)
			}
		}
	}
	if op.rows != nil && len(op.rows) != op.nrow {
		return fmt.Errorf("%w: %d row positions for %d rows", ErrInvalidStructure, len(op.rows), op.nrow)
	}
	return nil
}

// Rows returns the number of rows.
func (op *SparseOp) Rows() int { return op.nrow }

// Cols returns the number of columns.
func (op *SparseOp) Cols() int { return op.ncol }

// NNZ returns the number of stored entries.
func (op *SparseOp) NNZ() int { return len(op.data) }

// Data returns the stored values. The slice must not be modified.
func (op *SparseOp) Data() []float64 { return op.data }

// Indices returns the column index of every stored value. The slice must
// not be modified.
func (op *SparseOp) Indices() []int { return op.indices }

// Indptr returns the row offsets. The slice must not be modified.
func (op *SparseOp) Indptr() []int { return op.indptr }

// RowIndex returns the determinant position of row i.
func (op *SparseOp) RowIndex(i int) int {
	if op.rows == nil {
		return i
	}
	return op.rows[i]
}

// Diagonal returns a copy of the diagonal element of every row's
// determinant.
func (op *SparseOp) Diagonal() []float64 { return slices.Clone(op.diag) }

// At returns the entry in row i and column j, or 0 if none is stored.
func (op *SparseOp) At(i, j int) float64 {
	if i < 0 || i >= op.nrow {
		return 0
	}
	cols := op.indices[op.indptr[i]:op.indptr[i+1]]
	if k, ok := slices.BinarySearch(cols, j); ok {
		return op.data[op.indptr[i]+k]
	}
	return 0
}

// PerformOp computes y = A x.
func (op *SparseOp) PerformOp(x, y []float64) error {
	if err := op.checkVectors(x, y); err != nil {
		return err
	}
	op.performRange(x, y, 0, op.nrow)
	return nil
}

// PerformOpParallel computes y = A x with rows split across workers.
func (op *SparseOp) PerformOpParallel(ctx context.Context, x, y []float64, workers int) error {
	if err := op.checkVectors(x, y); err != nil {
		return err
	}
	if workers <= 1 || op.nrow < 2*minRowsPerTask {
		op.performRange(x, y, 0, op.nrow)
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, r := range splitRows(op.nrow, workers, minRowsPerTask) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			op.performRange(x, y, r.lo, r.hi)
			return nil
		})
	}
	return g.Wait()
}

func (op *SparseOp) checkVectors(x, y []float64) error {
	if len(x) != op.ncol {
		return &ErrDimensionMismatch{What: "input vector", Expected: op.ncol, Actual: len(x)}
	}
	if len(y) != op.nrow {
		return &ErrDimensionMismatch{What: "output vector", Expected: op.nrow, Actual: len(y)}
	}
	return nil
}

func (op *SparseOp) performRange(x, y []float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		var sum float64
		for k := op.indptr[i]; k < op.indptr[i+1]; k++ {
			sum += op.data[k] * x[op.indices[k]]
		}
		y[i] = sum
	}
}

// minRowsPerTask keeps tasks large enough to amortize scheduling.
const minRowsPerTask = 256

type rowRange struct{ lo, hi int }

// splitRows cuts [0, n) into contiguous ranges of at least minSize rows,
// a few per worker.
func splitRows(n, workers, minSize int) []rowRange {
	if n == 0 {
		return nil
	}
	workers = max(workers, 1)
	size := max(minSize, (n+4*workers-1)/(4*workers))
	ranges := make([]rowRange, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		ranges = append(ranges, rowRange{lo: lo, hi: min(lo+size, n)})
	}
	return ranges
}
