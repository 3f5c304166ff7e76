package hci

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/pairci/excite"
	"github.com/hupe1980/pairci/wfn"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidThreshold is returned for a negative or NaN eps.
var ErrInvalidThreshold = errors.New("invalid selection threshold")

// Coupler provides the off-diagonal couplings used to rank candidates.
// *ham.Hamiltonian implements it.
type Coupler interface {
	NBasis() int
	// ExcitationOrder is the highest substitution order with non-zero
	// couplings. Higher orders are never generated.
	ExcitationOrder() int
	// Element returns the coupling between a reference and its excitation.
	Element(e *excite.Excitation) float64
}

// A Coupler that also reports an upper bound on |Element| lets Run skip
// references that cannot admit anything.
type boundedCoupler interface {
	MaxCoupling() float64
}

// minChunk is the smallest number of references handed to one goroutine.
const minChunk = 16

// Run expands w until no excitation of a frontier determinant has a
// coupling bound above eps, and returns the number of determinants added.
//
// On error or cancellation the determinants admitted so far stay in w and
// their count is returned with the error.
func Run(ctx context.Context, w *wfn.Wavefunction, h Coupler, eps float64, opts ...Option) (int, error) {
	if eps < 0 || math.IsNaN(eps) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidThreshold, eps)
	}
	if h.NBasis() != w.NBasis() {
		return 0, &wfn.ErrDimensionMismatch{What: "hamiltonian basis", Expected: w.NBasis(), Actual: h.NBasis()}
	}
	order := h.ExcitationOrder()
	if order < 1 {
		return 0, nil
	}
	gen, err := excite.New(w.NBasis(), min(order, excite.MaxSupportedOrder))
	if err != nil {
		return 0, err
	}

	s := &selector{
		opts:  applyOptions(opts),
		w:     w,
		h:     h,
		gen:   gen,
		eps:   eps,
		bound: math.Inf(1),
	}
	if b, ok := h.(boundedCoupler); ok {
		s.bound = b.MaxCoupling()
	}

	start := w.Len()
	lo, hi := 0, start
	for round := 0; lo < hi; round++ {
		if s.opts.maxRounds > 0 && round >= s.opts.maxRounds {
			break
		}
		if err := ctx.Err(); err != nil {
			return w.Len() - start, err
		}

		roundStart := time.Now()
		frontier := s.frontier(lo, hi)
		if err := s.expand(ctx, frontier); err != nil {
			return w.Len() - start, err
		}

		n := w.Len()
		r := Round{
			Index:      round,
			References: int(frontier.GetCardinality()),
			Added:      n - hi,
			NDet:       n,
			Elapsed:    time.Since(roundStart),
		}
		s.opts.logger.DebugContext(ctx, "selection round completed",
			"round", r.Index,
			"references", r.References,
			"added", r.Added,
			"ndet", r.NDet,
			"elapsed", r.Elapsed,
		)
		if s.opts.hook != nil {
			s.opts.hook(r)
		}
		lo, hi = hi, n
	}

	s.opts.logger.InfoContext(ctx, "selection completed",
		"eps", eps,
		"added", w.Len()-start,
		"ndet", w.Len(),
	)
	return w.Len() - start, nil
}

type selector struct {
	opts  options
	w     *wfn.Wavefunction
	h     Coupler
	gen   *excite.Generator
	eps   float64
	bound float64
}

func (s *selector) weight(pos int) float64 {
	if s.opts.coeffs == nil {
		return 1
	}
	if pos < len(s.opts.coeffs) {
		return math.Abs(s.opts.coeffs[pos])
	}
	return 0
}

// frontier returns the positions in [lo, hi) whose weighted bound can
// still exceed eps.
func (s *selector) frontier(lo, hi int) *roaring64.Bitmap {
	bm := roaring64.New()
	if s.opts.coeffs == nil {
		if s.bound > s.eps {
			bm.AddRange(uint64(lo), uint64(hi))
		}
		return bm
	}
	for pos := lo; pos < hi; pos++ {
		wt := s.weight(pos)
		if wt > 0 && wt*s.bound > s.eps {
			bm.Add(uint64(pos))
		}
	}
	return bm
}

func (s *selector) expand(ctx context.Context, frontier *roaring64.Bitmap) error {
	refs := frontier.ToArray()
	if len(refs) == 0 {
		return nil
	}
	if s.opts.workers <= 1 {
		return s.expandRange(ctx, refs)
	}

	chunk := max(minChunk, (len(refs)+4*s.opts.workers-1)/(4*s.opts.workers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for start := 0; start < len(refs); start += chunk {
		part := refs[start:min(start+chunk, len(refs))]
		g.Go(func() error {
			return s.expandRange(gctx, part)
		})
	}
	return g.Wait()
}

func (s *selector) expandRange(ctx context.Context, refs []uint64) error {
	ref := make([]uint64, s.w.NWord())
	for k, p := range refs {
		if k%64 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		pos := int(p)
		if err := s.w.CopyDet(pos, ref); err != nil {
			return err
		}
		wt := s.weight(pos)
		for e := range s.gen.Excitations(ref) {
			if wt*math.Abs(s.h.Element(e)) <= s.eps {
				continue
			}
			if s.w.IndexDet(e.Det) != wfn.NotFound {
				continue
			}
			if _, err := s.w.AddDet(e.Det); err != nil {
				return fmt.Errorf("admit excitation of determinant %d: %w", pos, err)
			}
		}
	}
	return nil
}
