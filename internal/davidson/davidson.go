// Package davidson implements a block Davidson eigensolver for large sparse
// real symmetric operators that are only available as matrix-vector
// products.
package davidson

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidConfig is returned for unusable solver settings.
	ErrInvalidConfig = errors.New("invalid davidson config")

	// ErrFactorization is returned when the subspace eigenproblem fails.
	ErrFactorization = errors.New("subspace eigendecomposition failed")
)

const (
	// minDenominator guards the diagonal correction against division by
	// values close to zero.
	minDenominator = 1e-8

	// dropNorm is the norm below which an orthogonalized correction is
	// linearly dependent on the basis.
	dropNorm = 1e-10
)

// ApplyFunc computes y = A x. It must not retain x or y.
type ApplyFunc func(ctx context.Context, x, y []float64) error

// Config configures Solve.
type Config struct {
	// Dim is the operator dimension.
	Dim int
	// Diagonal is the preconditioner, usually the operator diagonal.
	Diagonal []float64
	// NStates is the number of lowest eigenpairs wanted.
	NStates int
	// MaxIter bounds the number of subspace expansions.
	MaxIter int
	// NWorking bounds the subspace size before a restart.
	NWorking int
	// Tolerance is the residual norm at which a pair counts as converged.
	Tolerance float64
	// Guess optionally provides start vectors. Missing ones are taken
	// from unit vectors at the smallest diagonal entries.
	Guess [][]float64
}

// Result holds the lowest eigenpairs found.
type Result struct {
	// Values are ascending.
	Values []float64
	// Vectors are unit length, Vectors[i] belongs to Values[i].
	Vectors [][]float64
	// Residuals are the final residual norms ||A x - λ x||.
	Residuals []float64
	// Iterations is the number of subspace expansions performed.
	Iterations int
	// Converged reports whether every residual reached Tolerance.
	Converged bool
}

type solver struct {
	cfg   Config
	apply ApplyFunc

	basis [][]float64 // orthonormal
	image [][]float64 // A applied to basis
}

// Solve computes the cfg.NStates lowest eigenpairs of the operator. When
// MaxIter is exhausted the best estimate is returned with Converged unset.
func Solve(ctx context.Context, apply ApplyFunc, cfg Config) (*Result, error) {
	n, k := cfg.Dim, cfg.NStates
	switch {
	case n <= 0:
		return nil, fmt.Errorf("%w: dim=%d", ErrInvalidConfig, n)
	case k <= 0 || k > n:
		return nil, fmt.Errorf("%w: nstates=%d for dim=%d", ErrInvalidConfig, k, n)
	case len(cfg.Diagonal) != n:
		return nil, fmt.Errorf("%w: len(diagonal)=%d for dim=%d", ErrInvalidConfig, len(cfg.Diagonal), n)
	case cfg.MaxIter <= 0:
		return nil, fmt.Errorf("%w: maxiter=%d", ErrInvalidConfig, cfg.MaxIter)
	case cfg.Tolerance <= 0:
		return nil, fmt.Errorf("%w: tolerance=%g", ErrInvalidConfig, cfg.Tolerance)
	}
	cfg.NWorking = min(n, max(cfg.NWorking, 2*k))

	s := &solver{cfg: cfg, apply: apply}
	if err := s.seed(ctx); err != nil {
		return nil, err
	}

	res := &Result{}
	for {
		vals, vecs, imgs, err := s.rayleighRitz(k)
		if err != nil {
			return nil, err
		}

		residuals := make([][]float64, k)
		norms := make([]float64, k)
		converged := true
		for j := range k {
			r := slices.Clone(imgs[j])
			floats.AddScaled(r, -vals[j], vecs[j])
			residuals[j] = r
			norms[j] = floats.Norm(r, 2)
			if norms[j] > cfg.Tolerance {
				converged = false
			}
		}

		res.Values, res.Vectors, res.Residuals = vals, vecs, norms
		// A full-dimension subspace is exact up to rounding.
		if converged || len(s.basis) == n {
			res.Converged = true
			break
		}
		if res.Iterations >= cfg.MaxIter {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations++

		corrections := make([][]float64, 0, k)
		for j := range k {
			if norms[j] > cfg.Tolerance {
				corrections = append(corrections, s.precondition(residuals[j], vals[j]))
			}
		}
		if len(s.basis)+len(corrections) > cfg.NWorking {
			s.restart(vecs, imgs)
		}
		before := len(s.basis)
		if err := s.extend(ctx, corrections); err != nil {
			return nil, err
		}
		if len(s.basis) == before {
			// Every correction was dependent on the basis; nothing to gain.
			break
		}
	}

	for _, v := range res.Vectors {
		fixSign(v)
	}
	return res, nil
}

// seed fills the basis with cfg.Guess and then with unit vectors at the
// smallest diagonal entries until it holds min(Dim, 2*NStates) vectors.
func (s *solver) seed(ctx context.Context) error {
	n := s.cfg.Dim
	var guess [][]float64
	for _, g := range s.cfg.Guess {
		if len(g) == n && len(guess) < s.cfg.NStates {
			guess = append(guess, slices.Clone(g))
		}
	}
	if err := s.extend(ctx, guess); err != nil {
		return err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(s.cfg.Diagonal[a], s.cfg.Diagonal[b])
	})
	want := min(n, 2*s.cfg.NStates)
	for _, i := range order {
		if len(s.basis) >= want {
			break
		}
		e := make([]float64, n)
		e[i] = 1
		if err := s.extend(ctx, [][]float64{e}); err != nil {
			return err
		}
	}
	return nil
}

// extend orthonormalizes vs against the basis and appends the
// independent ones together with their images.
func (s *solver) extend(ctx context.Context, vs [][]float64) error {
	for _, v := range vs {
		if len(s.basis) >= s.cfg.Dim {
			return nil
		}
		if nrm := floats.Norm(v, 2); nrm > 0 {
			floats.Scale(1/nrm, v)
		} else {
			continue
		}
		// Two passes of classical Gram-Schmidt.
		for range 2 {
			for _, b := range s.basis {
				floats.AddScaled(v, -floats.Dot(b, v), b)
			}
		}
		nrm := floats.Norm(v, 2)
		if nrm < dropNorm {
			continue
		}
		floats.Scale(1/nrm, v)

		av := make([]float64, s.cfg.Dim)
		if err := s.apply(ctx, v, av); err != nil {
			return err
		}
		s.basis = append(s.basis, v)
		s.image = append(s.image, av)
	}
	return nil
}

// rayleighRitz diagonalizes the projected operator and returns the k
// lowest Ritz values, Ritz vectors and their images.
func (s *solver) rayleighRitz(k int) ([]float64, [][]float64, [][]float64, error) {
	m := len(s.basis)
	t := mat.NewSymDense(m, nil)
	for i := range m {
		for j := i; j < m; j++ {
			t.SetSym(i, j, 0.5*(floats.Dot(s.basis[i], s.image[j])+floats.Dot(s.basis[j], s.image[i])))
		}
	}

	var es mat.EigenSym
	if !es.Factorize(t, true) {
		return nil, nil, nil, fmt.Errorf("%w: subspace dim %d", ErrFactorization, m)
	}
	var q mat.Dense
	es.VectorsTo(&q)
	all := es.Values(nil)

	k = min(k, m)
	vals := slices.Clone(all[:k])
	vecs := make([][]float64, k)
	imgs := make([][]float64, k)
	for j := range k {
		x := make([]float64, s.cfg.Dim)
		ax := make([]float64, s.cfg.Dim)
		for i := range m {
			c := q.At(i, j)
			floats.AddScaled(x, c, s.basis[i])
			floats.AddScaled(ax, c, s.image[i])
		}
		vecs[j], imgs[j] = x, ax
	}
	return vals, vecs, imgs, nil
}

// precondition applies the diagonal (Jacobi) correction
// t_i = r_i / (theta - d_i).
func (s *solver) precondition(r []float64, theta float64) []float64 {
	t := make([]float64, len(r))
	for i, ri := range r {
		den := theta - s.cfg.Diagonal[i]
		if math.Abs(den) < minDenominator {
			den = math.Copysign(minDenominator, den)
		}
		t[i] = ri / den
	}
	return t
}

// restart collapses the basis onto the current Ritz vectors.
func (s *solver) restart(vecs, imgs [][]float64) {
	s.basis = s.basis[:0]
	s.image = s.image[:0]
	for j := range vecs {
		s.basis = append(s.basis, slices.Clone(vecs[j]))
		s.image = append(s.image, slices.Clone(imgs[j]))
	}
}

// fixSign makes the largest-magnitude component positive.
func fixSign(v []float64) {
	idx := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[idx]) {
			idx = i
		}
	}
	if v[idx] < 0 {
		floats.Scale(-1, v)
	}
}
