package pairci

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/pairci/ham"
	"github.com/hupe1980/pairci/hci"
	"github.com/hupe1980/pairci/persistence"
	"github.com/hupe1980/pairci/sparse"
	"github.com/hupe1980/pairci/wfn"
)

// Result is the outcome of a selected CI calculation.
type Result struct {
	// Wavefunction holds the selected determinants.
	Wavefunction *wfn.Wavefunction
	// Energies are the total energies of the lowest states, core energy
	// included, in ascending order.
	Energies []float64
	// Coefficients[k] is the unit eigenvector of state k over the
	// determinants of Wavefunction at the last solve.
	Coefficients [][]float64
	// Residuals are the eigensolver residual norms per state.
	Residuals []float64
	// Iterations is the number of build-and-solve passes.
	Iterations int
	// Converged reports that the last selection pass added nothing.
	Converged bool
}

// Run computes a seniority-zero heat-bath CI wavefunction for nocc electron
// pairs in the basis of h.
//
// Each pass builds the Hamiltonian over the current determinants, solves
// for the lowest states and admits every single pair excitation whose
// coupling weighted by the reference coefficient exceeds eps. Run stops
// when a pass admits nothing or WithMaxIterations is reached.
//
// On failure the partial Result of the last completed pass is returned
// together with the error.
func Run(ctx context.Context, h *ham.Hamiltonian, nocc int, eps float64, opts ...Option) (*Result, error) {
	o := applyOptions(opts)
	if eps < 0 || math.IsNaN(eps) {
		return nil, translateError(fmt.Errorf("%w: %g", hci.ErrInvalidThreshold, eps))
	}

	w, err := o.wavefunction(h.NBasis(), nocc)
	if err != nil {
		return nil, translateError(err)
	}

	r := &runner{
		opts:   o,
		h:      h,
		w:      w,
		logger: o.logger.WithShape(h.NBasis(), nocc).WithEps(eps),
	}
	res := &Result{Wavefunction: w}

	var guess [][]float64
	for iter := 0; ; iter++ {
		log := r.logger.WithIteration(iter)

		eig, err := r.solve(ctx, log, guess)
		if err != nil {
			return res, translateError(err)
		}
		res.Iterations = iter + 1
		res.Coefficients = eig.Vectors
		res.Residuals = eig.Residuals
		res.Energies = make([]float64, len(eig.Values))
		for k, v := range eig.Values {
			res.Energies[k] = v + h.ECore()
		}

		if err := r.snapshot(ctx, log); err != nil {
			return res, translateError(err)
		}
		if o.maxIterations > 0 && res.Iterations >= o.maxIterations {
			break
		}

		added, err := r.selectDets(ctx, log, eps, eig.Vectors)
		if err != nil {
			return res, translateError(err)
		}
		if added == 0 {
			res.Converged = true
			break
		}
		guess = padVectors(eig.Vectors, w.Len())
	}

	r.logger.InfoContext(ctx, "calculation completed",
		"ndet", w.Len(),
		"iterations", res.Iterations,
		"energy", res.Energies[0],
		"converged", res.Converged,
	)
	return res, nil
}

func (o *options) wavefunction(nbasis, nocc int) (*wfn.Wavefunction, error) {
	if w := o.initial; w != nil {
		if w.NBasis() != nbasis {
			return nil, &wfn.ErrDimensionMismatch{What: "initial wavefunction basis", Expected: nbasis, Actual: w.NBasis()}
		}
		if w.NOcc() != nocc {
			return nil, &wfn.ErrDimensionMismatch{What: "initial wavefunction pairs", Expected: nocc, Actual: w.NOcc()}
		}
		if w.Len() > 0 {
			return w, nil
		}
		if _, err := w.AddHartreeFockDet(); err != nil {
			return nil, err
		}
		return w, nil
	}

	w, err := wfn.New(nbasis, nocc,
		wfn.WithResourceController(o.rc),
		wfn.WithLogger(o.logger.Logger),
	)
	if err != nil {
		return nil, err
	}
	if _, err := w.AddHartreeFockDet(); err != nil {
		return nil, err
	}
	return w, nil
}

type runner struct {
	opts   options
	h      *ham.Hamiltonian
	w      *wfn.Wavefunction
	logger *Logger
}

func (r *runner) solve(ctx context.Context, log *Logger, guess [][]float64) (*sparse.Eigenpairs, error) {
	start := time.Now()
	op, err := sparse.Build(ctx, r.w, r.h,
		sparse.WithWorkers(r.opts.workers),
		sparse.WithResourceController(r.opts.rc),
		sparse.WithLogger(log.Logger),
	)
	elapsed := time.Since(start)
	r.opts.metricsCollector.RecordBuild(r.w.Len(), nnz(op), elapsed, err)
	log.LogBuild(ctx, r.w.Len(), nnz(op), elapsed, err)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	eig, err := op.Solve(ctx, sparse.SolveConfig{
		NStates:   r.opts.nstates,
		MaxIter:   r.opts.solverMaxIter,
		Tolerance: r.opts.tolerance,
		Guess:     guess,
		Workers:   r.opts.rc.Workers(r.opts.workers),
	})
	elapsed = time.Since(start)
	iterations := 0
	var energies []float64
	if eig != nil {
		iterations = eig.Iterations
		energies = make([]float64, len(eig.Values))
		for k, v := range eig.Values {
			energies[k] = v + r.h.ECore()
		}
	}
	r.opts.metricsCollector.RecordSolve(iterations, elapsed, err)
	log.LogSolve(ctx, energies, iterations, elapsed, err)
	if err != nil {
		return nil, err
	}
	return eig, nil
}

func nnz(op *sparse.SparseOp) int {
	if op == nil {
		return 0
	}
	return op.NNZ()
}

func (r *runner) snapshot(ctx context.Context, log *Logger) error {
	if r.opts.snapshotStore == nil {
		return nil
	}
	start := time.Now()
	n, err := persistence.Save(ctx, r.opts.snapshotStore, r.opts.snapshotName, r.w,
		persistence.WithCompression(r.opts.compression),
		persistence.WithResourceController(r.opts.rc),
		persistence.WithLogger(log.Logger),
	)
	r.opts.metricsCollector.RecordPersist(n, time.Since(start), err)
	log.LogSnapshot(ctx, r.opts.snapshotName, n, err)
	return err
}

func (r *runner) selectDets(ctx context.Context, log *Logger, eps float64, vectors [][]float64) (int, error) {
	return hci.Run(ctx, r.w, r.h, eps,
		hci.WithCoefficients(selectionWeights(vectors)),
		hci.WithWorkers(r.opts.workers),
		hci.WithResourceController(r.opts.rc),
		hci.WithLogger(log.Logger),
		hci.WithRoundHook(func(round hci.Round) {
			r.opts.metricsCollector.RecordHCIRound(round.References, round.Added, round.Elapsed)
			log.LogHCIRound(ctx, round)
		}),
	)
}

// selectionWeights returns the largest coefficient magnitude of each
// determinant over all states.
func selectionWeights(vectors [][]float64) []float64 {
	if len(vectors) == 1 {
		return vectors[0]
	}
	weights := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, c := range v {
			weights[i] = max(weights[i], math.Abs(c))
		}
	}
	return weights
}

// padVectors extends each vector with zeros to length n. Determinants are
// only ever appended, so existing entries keep their positions.
func padVectors(vectors [][]float64, n int) [][]float64 {
	out := make([][]float64, len(vectors))
	for k, v := range vectors {
		out[k] = make([]float64, n)
		copy(out[k], v)
	}
	return out
}
