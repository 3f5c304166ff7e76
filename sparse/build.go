package sparse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/pairci/det"
	"github.com/hupe1980/pairci/excite"
	"github.com/hupe1980/pairci/wfn"
	"golang.org/x/sync/errgroup"
)

// Operator provides the matrix elements of the CI operator.
// *ham.Hamiltonian implements it.
type Operator interface {
	NBasis() int
	// ExcitationOrder is the highest substitution order with non-zero
	// elements. Higher orders are never generated.
	ExcitationOrder() int
	// Diagonal returns the diagonal element of a determinant given its
	// occupied orbitals.
	Diagonal(occs []int) float64
	// Element returns the element between a determinant and its excitation.
	Element(e *excite.Excitation) float64
}

// minBuildRows is the smallest row range handed to one goroutine.
const minBuildRows = 16

// rowPart is the output of one row range before it is stitched into the
// final arrays.
type rowPart struct {
	data    []float64
	indices []int
}

type builder struct {
	w    *wfn.Wavefunction
	h    Operator
	gen  *excite.Generator
	ncol int
	rows []int
	// rowCap bounds the entries of one row.
	rowCap int
}

func (b *builder) rowIndex(i int) int {
	if b.rows == nil {
		return i
	}
	return b.rows[i]
}

// Build computes the operator of w under h. Rows and columns default to
// every determinant of w; see WithNRow, WithRows and WithNCol.
//
// w must not be modified while Build runs.
func Build(ctx context.Context, w *wfn.Wavefunction, h Operator, opts ...Option) (*SparseOp, error) {
	start := time.Now()
	o := applyOptions(opts)
	if h.NBasis() != w.NBasis() {
		return nil, &ErrDimensionMismatch{What: "hamiltonian basis", Expected: w.NBasis(), Actual: h.NBasis()}
	}

	ndet := w.Len()
	ncol := ndet
	if o.ncol >= 0 {
		if o.ncol > ndet {
			return nil, fmt.Errorf("%w: ncol=%d exceeds %d determinants", ErrInvalidRows, o.ncol, ndet)
		}
		ncol = o.ncol
	}
	rows, nrow, err := selectRows(o, ndet)
	if err != nil {
		return nil, err
	}

	b := &builder{w: w, h: h, ncol: ncol, rows: rows}
	if order := h.ExcitationOrder(); order >= 1 {
		b.gen, err = excite.New(w.NBasis(), min(order, excite.MaxSupportedOrder))
		if err != nil {
			return nil, err
		}
		b.rowCap = excite.Count(w.NOcc(), w.NVir(), b.gen.MaxOrder())
	}
	b.rowCap = min(b.rowCap+1, ncol)

	// Phase 1: every range fills its own buffers and the row counts,
	// stored shifted by one so the prefix sum turns them into offsets.
	ranges := splitRows(nrow, o.workers, minBuildRows)
	parts := make([]rowPart, len(ranges))
	indptr := make([]int, nrow+1)
	diag := make([]float64, nrow)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for k, r := range ranges {
		g.Go(func() error {
			p, err := b.buildRange(gctx, r, indptr[r.lo+1:r.hi+1], diag[r.lo:r.hi])
			if err != nil {
				return err
			}
			parts[k] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range nrow {
		indptr[i+1] += indptr[i]
	}

	// Phase 2: copy each range to its final offset.
	nnz := indptr[nrow]
	data := make([]float64, nnz)
	indices := make([]int, nnz)
	var wg sync.WaitGroup
	for k, r := range ranges {
		wg.Add(1)
		go func() {
			defer wg.Done()
			off := indptr[r.lo]
			copy(data[off:], parts[k].data)
			copy(indices[off:], parts[k].indices)
		}()
	}
	wg.Wait()

	op := &SparseOp{
		nrow:    nrow,
		ncol:    ncol,
		data:    data,
		indices: indices,
		indptr:  indptr,
		rows:    rows,
		diag:    diag,
	}
	o.logger.InfoContext(ctx, "operator built",
		"rows", nrow,
		"cols", ncol,
		"nnz", nnz,
		"workers", o.workers,
		"duration", time.Since(start),
	)
	return op, nil
}

// selectRows resolves the row options into determinant positions (nil
// for a prefix) and the row count.
func selectRows(o options, ndet int) ([]int, int, error) {
	if o.rows != nil {
		if !o.rows.IsEmpty() && o.rows.Maximum() >= uint64(ndet) {
			return nil, 0, fmt.Errorf("%w: row %d beyond %d determinants", ErrInvalidRows, o.rows.Maximum(), ndet)
		}
		sel := o.rows.ToArray()
		rows := make([]int, len(sel))
		prefix := true
		for i, r := range sel {
			rows[i] = int(r)
			prefix = prefix && int(r) == i
		}
		if prefix {
			return nil, len(rows), nil
		}
		return rows, len(rows), nil
	}
	if o.nrow >= 0 {
		if o.nrow > ndet {
			return nil, 0, fmt.Errorf("%w: nrow=%d exceeds %d determinants", ErrInvalidRows, o.nrow, ndet)
		}
		return nil, o.nrow, nil
	}
	return nil, ndet, nil
}

func (b *builder) buildRange(ctx context.Context, r rowRange, counts []int, diag []float64) (rowPart, error) {
	var p rowPart
	acc := newAccumulator(b.rowCap)
	ref := make([]uint64, b.w.NWord())
	occs := make([]int, 0, b.w.NOcc())

	for i := r.lo; i < r.hi; i++ {
		if (i-r.lo)%64 == 0 {
			if err := ctx.Err(); err != nil {
				return rowPart{}, err
			}
		}
		pos := b.rowIndex(i)
		if err := b.w.CopyDet(pos, ref); err != nil {
			return rowPart{}, err
		}
		occs = det.Occs(ref, occs[:0])
		d := b.h.Diagonal(occs)
		diag[i-r.lo] = d
		if pos < b.ncol {
			acc.add(pos, d)
		}

		if b.gen != nil {
			for e := range b.gen.Excitations(ref) {
				v := b.h.Element(e)
				if v == 0 {
					continue
				}
				j := b.w.IndexDet(e.Det)
				if j == wfn.NotFound || j >= b.ncol {
					continue
				}
				acc.add(j, v)
			}
		}

		var n int
		p.data, p.indices, n = acc.flush(p.data, p.indices)
		counts[i-r.lo] = n
	}
	return p, nil
}
