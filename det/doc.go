// Package det encodes seniority-zero determinants as packed bit words.
//
// A determinant over nbasis spatial orbitals is stored as NumWords(nbasis)
// uint64 words. Bit k of the word sequence (word k/64, bit k%64) is set iff
// orbital k is doubly occupied. Bits at positions >= nbasis are always zero,
// so two determinants denote the same basis state iff their word sequences
// are equal.
//
// All functions are pure and safe for concurrent use.
package det
