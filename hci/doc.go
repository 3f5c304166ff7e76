// Package hci implements heat-bath determinant selection.
//
// Starting from the determinants already in a wavefunction, Run generates
// every excitation of each reference and admits the candidates whose
// coupling bound exceeds a threshold eps. Admitted determinants become the
// references of the next round. The loop stops at the first round that
// admits nothing, so the result is a fixed point: no determinant outside
// the set couples to a member above eps.
//
// The admitted set depends only on the input set, the Hamiltonian and eps.
// With a single worker the sequence order is reproducible as well; with
// several workers only the order within a round may differ.
//
// Example:
//
//	w, _ := wfn.New(nbasis, nocc)
//	w.AddHartreeFockDet()
//	added, err := hci.Run(ctx, w, h, 1e-4, hci.WithWorkers(8))
package hci
