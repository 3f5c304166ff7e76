package wfn

import (
	"encoding/binary"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/pairci/det"
	"github.com/hupe1980/pairci/internal/container"
	"github.com/hupe1980/pairci/internal/shardmap"
	"github.com/hupe1980/pairci/resource"
	"lukechampine.com/blake3"
)

// NotFound is returned by IndexDet for determinants absent from the set.
const NotFound = -1

// Wavefunction is an ordered set of seniority-zero determinants.
type Wavefunction struct {
	nbasis int
	nocc   int
	nword  int

	dets *container.WordArray
	dict *shardmap.Map
	// reserved counts claimed slots; ndet counts the written prefix.
	reserved atomic.Int64
	ndet     atomic.Int64

	rc     *resource.Controller
	logger *slog.Logger
}

// New creates an empty wavefunction over nbasis orbitals with nocc of them
// doubly occupied.
func New(nbasis, nocc int, opts ...Option) (*Wavefunction, error) {
	if nbasis <= 0 || nocc < 0 || nocc > nbasis {
		return nil, fmt.Errorf("%w: nbasis=%d nocc=%d", ErrInvalidShape, nbasis, nocc)
	}
	o := applyOptions(opts)

	w := &Wavefunction{
		nbasis: nbasis,
		nocc:   nocc,
		nword:  det.NumWords(nbasis),
		dict:   shardmap.New(o.capacity),
		rc:     o.rc,
		logger: o.logger,
	}
	w.dets = container.NewWordArray(w.nword, o.rc)
	if o.capacity > 0 {
		if err := w.Reserve(o.capacity); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// FromDetArray creates a wavefunction from a flat array of ndet*nword words.
// A determinant that appears twice fails with ErrDuplicateDet.
func FromDetArray(nbasis, nocc, ndet int, words []uint64, opts ...Option) (*Wavefunction, error) {
	if nbasis <= 0 || nocc < 0 || nocc > nbasis {
		return nil, fmt.Errorf("%w: nbasis=%d nocc=%d", ErrInvalidShape, nbasis, nocc)
	}
	nword := det.NumWords(nbasis)
	if ndet < 0 || len(words) != ndet*nword {
		return nil, &ErrDimensionMismatch{What: "determinant array", Expected: ndet * nword, Actual: len(words)}
	}
	// Validate everything up front so a bad entry leaves nothing behind.
	for i := range ndet {
		if err := det.Validate(words[i*nword:(i+1)*nword], nbasis, nocc); err != nil {
			return nil, fmt.Errorf("determinant %d: %w", i, err)
		}
	}

	w, err := New(nbasis, nocc, append([]Option{WithCapacity(ndet)}, opts...)...)
	if err != nil {
		return nil, err
	}
	for i := range ndet {
		pos, err := w.AddDet(words[i*nword : (i+1)*nword])
		if err == nil && pos != i {
			err = fmt.Errorf("%w: determinant %d repeats %d", ErrDuplicateDet, i, pos)
		}
		if err != nil {
			w.Release()
			return nil, err
		}
	}
	return w, nil
}

// FromOccsArray creates a wavefunction from a flat array of ndet*nocc
// occupied-orbital indices.
func FromOccsArray(nbasis, nocc, ndet int, occs []int, opts ...Option) (*Wavefunction, error) {
	if nbasis <= 0 || nocc < 0 || nocc > nbasis {
		return nil, fmt.Errorf("%w: nbasis=%d nocc=%d", ErrInvalidShape, nbasis, nocc)
	}
	if ndet < 0 || len(occs) != ndet*nocc {
		return nil, &ErrDimensionMismatch{What: "occupation array", Expected: ndet * nocc, Actual: len(occs)}
	}
	nword := det.NumWords(nbasis)
	words := make([]uint64, ndet*nword)
	for i := range ndet {
		if err := det.EncodeInto(words[i*nword:(i+1)*nword], nbasis, occs[i*nocc:(i+1)*nocc]); err != nil {
			return nil, fmt.Errorf("determinant %d: %w", i, err)
		}
	}
	return FromDetArray(nbasis, nocc, ndet, words, opts...)
}

// NBasis returns the number of spatial orbitals.
func (w *Wavefunction) NBasis() int { return w.nbasis }

// NOcc returns the number of doubly occupied orbitals per determinant.
func (w *Wavefunction) NOcc() int { return w.nocc }

// NVir returns the number of unoccupied orbitals per determinant.
func (w *Wavefunction) NVir() int { return w.nbasis - w.nocc }

// NWord returns the number of words per determinant.
func (w *Wavefunction) NWord() int { return w.nword }

// Len returns the number of determinants (ndet).
func (w *Wavefunction) Len() int { return int(w.ndet.Load()) }

// ResourceController returns the controller storage is accounted against.
func (w *Wavefunction) ResourceController() *resource.Controller { return w.rc }

func appendKey(dst []byte, d []uint64) []byte {
	for _, word := range d {
		dst = binary.LittleEndian.AppendUint64(dst, word)
	}
	return dst
}

// IndexDet returns the position of d, or NotFound.
func (w *Wavefunction) IndexDet(d []uint64) int {
	if len(d) != w.nword {
		return NotFound
	}
	var buf [32]byte
	pos, ok := w.dict.Get(appendKey(buf[:0], d))
	if !ok {
		return NotFound
	}
	return pos
}

// AddDet inserts d if absent and returns its position. Adding a determinant
// that is already present returns the existing position.
func (w *Wavefunction) AddDet(d []uint64) (int, error) {
	if len(d) != w.nword {
		return NotFound, &ErrDimensionMismatch{What: "determinant", Expected: w.nword, Actual: len(d)}
	}
	if err := det.Validate(d, w.nbasis, w.nocc); err != nil {
		return NotFound, err
	}
	var buf [32]byte
	pos, _, err := w.dict.GetOrInsert(appendKey(buf[:0], d), func() (int, error) {
		pos, err := w.reserveSlot()
		if err != nil {
			return 0, err
		}
		w.dets.Set(pos, d)
		w.commit(pos)
		return pos, nil
	})
	if err != nil {
		return NotFound, err
	}
	return pos, nil
}

// reserveSlot claims the next free position, growing storage as needed.
func (w *Wavefunction) reserveSlot() (int, error) {
	for {
		n := w.reserved.Load()
		if int(n) >= w.dets.Cap() {
			if err := w.dets.Grow(int(n) + 1); err != nil {
				return 0, err
			}
			continue
		}
		if w.reserved.CompareAndSwap(n, n+1) {
			return int(n), nil
		}
	}
}

// commit publishes the written slot pos. Slots are published in position
// order, so Len never covers a slot that is still being written.
func (w *Wavefunction) commit(pos int) {
	for !w.ndet.CompareAndSwap(int64(pos), int64(pos)+1) {
		runtime.Gosched()
	}
}

// AddDetFromOccs encodes occs and adds the resulting determinant.
func (w *Wavefunction) AddDetFromOccs(occs []int) (int, error) {
	if len(occs) != w.nocc {
		return NotFound, &ErrDimensionMismatch{What: "occupation list", Expected: w.nocc, Actual: len(occs)}
	}
	d := make([]uint64, w.nword)
	if err := det.EncodeInto(d, w.nbasis, occs); err != nil {
		return NotFound, err
	}
	return w.AddDet(d)
}

// AddHartreeFockDet adds the determinant occupying the nocc lowest orbitals.
func (w *Wavefunction) AddHartreeFockDet() (int, error) {
	occs := make([]int, w.nocc)
	for i := range occs {
		occs[i] = i
	}
	return w.AddDetFromOccs(occs)
}

// AddAllDets adds every determinant of the (nbasis, nocc) class in
// lexicographic combination order.
func (w *Wavefunction) AddAllDets() error {
	total := det.Binomial(w.nbasis, w.nocc)
	if total < 0 {
		return fmt.Errorf("%w: C(%d,%d) overflows", ErrInvalidShape, w.nbasis, w.nocc)
	}
	if err := w.Reserve(total); err != nil {
		return err
	}
	d := make([]uint64, w.nword)
	for occs := range det.Combinations(w.nbasis, w.nocc) {
		if err := det.EncodeInto(d, w.nbasis, occs); err != nil {
			return err
		}
		if _, err := w.AddDet(d); err != nil {
			return err
		}
	}
	w.logger.Debug("added full space", "nbasis", w.nbasis, "nocc", w.nocc, "ndet", w.Len())
	return nil
}

// AddExcitedDets adds every determinant reached from ref by moving exactly
// e occupied pairs into virtual orbitals. e == 0 adds ref itself; e larger
// than the occupied or virtual count adds nothing.
func (w *Wavefunction) AddExcitedDets(ref []uint64, e int) error {
	if len(ref) != w.nword {
		return &ErrDimensionMismatch{What: "determinant", Expected: w.nword, Actual: len(ref)}
	}
	if err := det.Validate(ref, w.nbasis, w.nocc); err != nil {
		return err
	}
	if e < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidExcitation, e)
	}
	if a, b := det.Binomial(w.nocc, e), det.Binomial(w.NVir(), e); a > 0 && b > 0 && a <= math.MaxInt/b {
		if err := w.Reserve(w.Len() + a*b); err != nil {
			return err
		}
	}

	occs := det.Occs(ref, make([]int, 0, w.nocc))
	virs := det.Virs(ref, w.nbasis, make([]int, 0, w.NVir()))
	d := make([]uint64, w.nword)
	for holes := range det.Combinations(len(occs), e) {
		for parts := range det.Combinations(len(virs), e) {
			copy(d, ref)
			for k := range e {
				det.Excite(d, d, occs[holes[k]], virs[parts[k]])
			}
			if _, err := w.AddDet(d); err != nil {
				return err
			}
		}
	}
	w.logger.Debug("added excited determinants", "order", e, "ndet", w.Len())
	return nil
}

// CopyDet writes the determinant at pos into out.
func (w *Wavefunction) CopyDet(pos int, out []uint64) error {
	if n := w.Len(); pos < 0 || pos >= n {
		return &ErrOutOfRange{Index: pos, Len: n}
	}
	if len(out) < w.nword {
		return &ErrDimensionMismatch{What: "output buffer", Expected: w.nword, Actual: len(out)}
	}
	copy(out, w.dets.At(pos))
	return nil
}

// Det returns a copy of the determinant at pos.
func (w *Wavefunction) Det(pos int) ([]uint64, error) {
	out := make([]uint64, w.nword)
	if err := w.CopyDet(pos, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DetView returns the stored words of the determinant at pos without
// copying. The view must not be modified. pos must be < Len().
func (w *Wavefunction) DetView(pos int) []uint64 {
	return w.dets.At(pos)
}

// All iterates positions and read-only views in sequence order.
func (w *Wavefunction) All() iter.Seq2[int, []uint64] {
	return func(yield func(int, []uint64) bool) {
		n := w.Len()
		for i := range n {
			if !yield(i, w.dets.At(i)) {
				return
			}
		}
	}
}

// ToDetArray returns the flat ndet*nword word array in sequence order.
func (w *Wavefunction) ToDetArray() []uint64 {
	n := w.Len()
	out := make([]uint64, 0, n*w.nword)
	for i := range n {
		out = append(out, w.dets.At(i)...)
	}
	return out
}

// ToOccsArray returns the flat ndet*nocc occupied-orbital array in sequence order.
func (w *Wavefunction) ToOccsArray() []int {
	n := w.Len()
	out := make([]int, 0, n*w.nocc)
	for i := range n {
		out = det.Occs(w.dets.At(i), out)
	}
	return out
}

// Reserve ensures storage for at least n determinants.
func (w *Wavefunction) Reserve(n int) error {
	if err := w.dets.Grow(n); err != nil {
		return err
	}
	w.logger.Debug("reserved determinant storage", "capacity", w.dets.Cap())
	return nil
}

// Squeeze releases storage not needed for the current determinants.
// It must not run concurrently with AddDet.
func (w *Wavefunction) Squeeze() {
	w.dets.Truncate(w.Len())
	w.dict.Compact()
	w.logger.Debug("squeezed determinant storage", "ndet", w.Len(), "capacity", w.dets.Cap())
}

// Release returns all storage to the resource controller. The wavefunction
// must not be used afterwards.
func (w *Wavefunction) Release() {
	w.dets.Release()
}

// Clone returns an independent copy sharing the resource controller.
func (w *Wavefunction) Clone() (*Wavefunction, error) {
	c := &Wavefunction{
		nbasis: w.nbasis,
		nocc:   w.nocc,
		nword:  w.nword,
		dets:   container.NewWordArray(w.nword, w.rc),
		dict:   w.dict.Clone(),
		rc:     w.rc,
		logger: w.logger,
	}
	n := w.Len()
	if err := c.dets.Grow(n); err != nil {
		c.dets.Release()
		return nil, err
	}
	for i := range n {
		c.dets.Set(i, w.dets.At(i))
	}
	c.reserved.Store(int64(n))
	c.ndet.Store(int64(n))
	return c, nil
}

// Digest returns a BLAKE3 digest of the determinant set. It does not
// depend on insertion order, so two wavefunctions holding the same set
// have the same digest.
func (w *Wavefunction) Digest() [32]byte {
	n := w.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return det.Compare(w.dets.At(a), w.dets.At(b))
	})

	h := blake3.New(32, nil)
	var buf []byte
	buf = binary.LittleEndian.AppendUint64(buf, uint64(w.nbasis))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(w.nocc))
	_, _ = h.Write(buf)
	for _, i := range order {
		_, _ = h.Write(appendKey(buf[:0], w.dets.At(i)))
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}
