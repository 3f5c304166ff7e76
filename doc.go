// Package pairci computes seniority-zero selected configuration interaction
// wavefunctions.
//
// A seniority-zero determinant has every orbital either empty or doubly
// occupied, so it is fully described by the set of occupied spatial
// orbitals. pairci stores such determinants in a growable indexed set,
// selects new ones with heat-bath CI and diagonalizes the Hamiltonian over
// the selected space with a sparse Davidson solver.
//
// # Quick Start
//
//	h, _ := ham.FromIntegrals(nbasis, ecore, one, two)
//	res, _ := pairci.Run(ctx, h, nocc, 1e-4)
//	fmt.Println(res.Energies[0], res.Wavefunction.Len())
//
// Run starts from the Hartree-Fock determinant and alternates
//
//  1. building the sparse Hamiltonian over the current determinants,
//  2. solving for the lowest eigenpairs,
//  3. adding every excitation whose coefficient-weighted coupling exceeds eps,
//
// until a selection pass adds nothing.
//
// # Packages
//
//   - det: determinant bit strings
//   - wfn: the determinant store and index
//   - excite: single and pair excitation enumeration
//   - ham: seniority-zero Hamiltonian tables
//   - hci: heat-bath selection
//   - sparse: CSR operator build and eigensolve
//   - persistence: binary snapshots over blobstore backends
//
// # Snapshots
//
// WithSnapshot saves the wavefunction after every solve, so an interrupted
// calculation can resume through WithInitialWavefunction:
//
//	store := blobstore.NewLocalStore("./runs")
//	res, _ := pairci.Run(ctx, h, nocc, eps, pairci.WithSnapshot(store, "h2o.pci"))
//	w, _ := persistence.Load(ctx, store, "h2o.pci")
//	res, _ = pairci.Run(ctx, h, nocc, eps/10, pairci.WithInitialWavefunction(w))
package pairci
