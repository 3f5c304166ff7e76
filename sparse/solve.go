package sparse

import (
	"context"
	"runtime"
	"slices"

	"github.com/hupe1980/pairci/internal/davidson"
)

// SolveConfig configures Solve. Zero values select defaults.
type SolveConfig struct {
	// Preconditioner replaces the operator diagonal in the correction
	// equation.
	Preconditioner []float64
	// NStates is the number of lowest eigenpairs wanted (default 1).
	NStates int
	// MaxIter bounds the number of subspace expansions (default 1000).
	MaxIter int
	// NWorking bounds the subspace size before a restart
	// (default max(2*NStates+1, 20)).
	NWorking int
	// Tolerance is the residual norm at which an eigenpair counts as
	// converged (default 1e-8).
	Tolerance float64
	// Guess optionally provides start vectors.
	Guess [][]float64
	// Workers is the number of goroutines per matrix-vector product
	// (default GOMAXPROCS).
	Workers int
}

// Eigenpairs holds the lowest eigenvalues, ascending, and their unit
// eigenvectors.
type Eigenpairs struct {
	Values     []float64
	Vectors    [][]float64
	Residuals  []float64
	Iterations int
}

func (c SolveConfig) withDefaults() SolveConfig {
	if c.NStates <= 0 {
		c.NStates = 1
	}
	if c.MaxIter <= 0 {
		c.MaxIter = 1000
	}
	if c.NWorking <= 0 {
		c.NWorking = max(2*c.NStates+1, 20)
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 1e-8
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Solve computes the lowest eigenpairs of a square operator. When MaxIter
// is exhausted it returns the best estimate together with a
// *NotConvergedError.
func (op *SparseOp) Solve(ctx context.Context, cfg SolveConfig) (*Eigenpairs, error) {
	if op.nrow != op.ncol || op.rows != nil {
		return nil, ErrNotSquare
	}
	cfg = cfg.withDefaults()
	precond := op.diag
	if cfg.Preconditioner != nil {
		if len(cfg.Preconditioner) != op.nrow {
			return nil, &ErrDimensionMismatch{What: "preconditioner", Expected: op.nrow, Actual: len(cfg.Preconditioner)}
		}
		precond = cfg.Preconditioner
	}

	res, err := davidson.Solve(ctx, func(ctx context.Context, x, y []float64) error {
		return op.PerformOpParallel(ctx, x, y, cfg.Workers)
	}, davidson.Config{
		Dim:       op.nrow,
		Diagonal:  precond,
		NStates:   min(cfg.NStates, op.nrow),
		MaxIter:   cfg.MaxIter,
		NWorking:  cfg.NWorking,
		Tolerance: cfg.Tolerance,
		Guess:     cfg.Guess,
	})
	if err != nil {
		return nil, err
	}

	eig := &Eigenpairs{
		Values:     res.Values,
		Vectors:    res.Vectors,
		Residuals:  res.Residuals,
		Iterations: res.Iterations,
	}
	if !res.Converged {
		return eig, &NotConvergedError{
			Iterations:  res.Iterations,
			MaxResidual: slices.Max(res.Residuals),
			Tolerance:   cfg.Tolerance,
		}
	}
	return eig, nil
}
