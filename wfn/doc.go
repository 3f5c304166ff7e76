// Package wfn implements the seniority-zero wavefunction: an append-only,
// ordered set of unique determinants together with a concurrent index from
// determinant to position.
//
// The sequence and the index are kept mutually inverse: every determinant
// appears at most once and IndexDet(DetView(i)) == i for all i < Len().
// Determinants are only ever appended, never removed or reordered.
//
// AddDet may be called from many goroutines at once. Duplicate detection is
// at-most-once even when workers race to insert the same determinant.
// Len only counts fully written determinants, so CopyDet(i) for i < Len()
// is safe while writers run. The bulk accessors observe a consistent state
// once all concurrent writers have returned.
package wfn
