package det

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"

	"github.com/bits-and-blooms/bitset"
)

// WordBits is the number of orbitals packed into one word.
const WordBits = 64

var (
	// ErrInvalidOccs is returned when an occupation list is out of range or
	// contains repeated orbitals.
	ErrInvalidOccs = errors.New("invalid occupation list")

	// ErrInvalidDet is returned when a word sequence is not a valid
	// determinant for the given shape.
	ErrInvalidDet = errors.New("invalid determinant")
)

// NumWords returns the number of words needed for nbasis orbitals.
func NumWords(nbasis int) int {
	return (nbasis + WordBits - 1) / WordBits
}

// New returns a zeroed determinant for nbasis orbitals.
func New(nbasis int) []uint64 {
	return make([]uint64, NumWords(nbasis))
}

// FromOccs encodes an occupation list into a fresh determinant.
func FromOccs(nbasis int, occs []int) ([]uint64, error) {
	d := New(nbasis)
	if err := EncodeInto(d, nbasis, occs); err != nil {
		return nil, err
	}
	return d, nil
}

// EncodeInto clears dst and sets the bits of occs.
// dst must hold NumWords(nbasis) words.
func EncodeInto(dst []uint64, nbasis int, occs []int) error {
	if len(dst) != NumWords(nbasis) {
		return fmt.Errorf("%w: buffer has %d words, need %d", ErrInvalidDet, len(dst), NumWords(nbasis))
	}
	clear(dst)
	for _, k := range occs {
		if k < 0 || k >= nbasis {
			return fmt.Errorf("%w: orbital %d outside [0,%d)", ErrInvalidOccs, k, nbasis)
		}
		w, b := k/WordBits, uint(k%WordBits)
		if dst[w]&(1<<b) != 0 {
			return fmt.Errorf("%w: orbital %d repeated", ErrInvalidOccs, k)
		}
		dst[w] |= 1 << b
	}
	return nil
}

// Occs appends the occupied orbitals of d to dst in ascending order.
func Occs(d []uint64, dst []int) []int {
	bs := bitset.From(d)
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		dst = append(dst, int(i))
	}
	return dst
}

// Virs appends the unoccupied orbitals of d below nbasis to dst in ascending order.
func Virs(d []uint64, nbasis int, dst []int) []int {
	bs := bitset.From(d)
	for i, ok := bs.NextClear(0); ok && int(i) < nbasis; i, ok = bs.NextClear(i + 1) {
		dst = append(dst, int(i))
	}
	return dst
}

// Count returns the number of occupied orbitals.
func Count(d []uint64) int {
	n := 0
	for _, w := range d {
		n += bits.OnesCount64(w)
	}
	return n
}

// Test reports whether orbital k is occupied.
func Test(d []uint64, k int) bool {
	return d[k/WordBits]&(1<<uint(k%WordBits)) != 0
}

// Excite writes into dst the determinant obtained from src by moving the
// occupation of orbital i to orbital a. dst and src may alias.
func Excite(dst, src []uint64, i, a int) {
	copy(dst, src)
	dst[i/WordBits] &^= 1 << uint(i%WordBits)
	dst[a/WordBits] |= 1 << uint(a%WordBits)
}

// Validate checks that d is a determinant with exactly nocc of nbasis
// orbitals occupied and no stray high bits.
func Validate(d []uint64, nbasis, nocc int) error {
	nword := NumWords(nbasis)
	if len(d) != nword {
		return fmt.Errorf("%w: %d words, need %d", ErrInvalidDet, len(d), nword)
	}
	if rem := nbasis % WordBits; rem != 0 && d[nword-1]>>uint(rem) != 0 {
		return fmt.Errorf("%w: bits set above orbital %d", ErrInvalidDet, nbasis-1)
	}
	if n := Count(d); n != nocc {
		return fmt.Errorf("%w: %d orbitals occupied, need %d", ErrInvalidDet, n, nocc)
	}
	return nil
}

// Equal reports whether a and b are the same determinant.
func Equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare orders determinants by their word sequences, most significant
// word first. It returns -1, 0 or +1.
func Compare(a, b []uint64) int {
	for i := len(a) - 1; i >= 0; i-- {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Binomial returns C(n, k), or -1 if the result overflows an int.
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		// r * (n-k+i) / i is exact at every step.
		hi, lo := bits.Mul64(uint64(r), uint64(n-k+i))
		if hi != 0 || lo > math.MaxInt {
			return -1
		}
		r = int(lo / uint64(i))
	}
	return r
}

// Combinations yields every k-subset of [0,n) in lexicographic order.
// The yielded slice is reused between iterations.
func Combinations(n, k int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		if k < 0 || k > n {
			return
		}
		c := make([]int, k)
		for i := range c {
			c[i] = i
		}
		for {
			if !yield(c) {
				return
			}
			i := k - 1
			for i >= 0 && c[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			c[i]++
			for j := i + 1; j < k; j++ {
				c[j] = c[j-1] + 1
			}
		}
	}
}
