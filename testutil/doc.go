// Package testutil provides testing utilities for pairci.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded RNG, random but physically shaped integral sets and
// Hamiltonians, and a dense reference diagonalizer.
//
// # Random Hamiltonians
//
//	rng := testutil.NewRNG(4711)
//	h := rng.Hamiltonian(8)          // seniority-zero tables via ham.FromIntegrals
//	one, two := rng.Integrals(8)     // full integrals with 8-fold symmetry
//
// # Dense Reference
//
//	m, _ := testutil.DenseSym(n, op.PerformOp)
//	vals, _ := testutil.EigenValues(m)
package testutil
