// Package sparse builds the CI operator of a wavefunction in compressed
// sparse row (CSR) form and solves for its lowest eigenpairs.
//
// Row i of the operator belongs to determinant i of the wavefunction. Its
// entries are the diagonal element and the couplings to every excitation
// of the determinant that is itself in the wavefunction. Rows are built in
// parallel without locks: each worker owns a contiguous range of rows, and
// the per-range buffers are stitched together once row offsets are known.
//
// Example:
//
//	op, err := sparse.Build(ctx, w, h, sparse.WithWorkers(8))
//	if err != nil {
//		return err
//	}
//	eig, err := op.Solve(ctx, sparse.SolveConfig{NStates: 1})
package sparse
