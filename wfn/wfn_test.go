package wfn

import (
	"math/bits"
	"sync"
	"testing"

	"github.com/hupe1980/pairci/det"
	"github.com/hupe1980/pairci/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidShape(t *testing.T) {
	_, err := New(0, 0)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = New(4, 5)
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = New(4, -1)
	assert.ErrorIs(t, err, ErrInvalidShape)

	w, err := New(70, 3)
	require.NoError(t, err)
	assert.Equal(t, 70, w.NBasis())
	assert.Equal(t, 3, w.NOcc())
	assert.Equal(t, 67, w.NVir())
	assert.Equal(t, 2, w.NWord())
	assert.Equal(t, 0, w.Len())
}

func TestAddAllDets(t *testing.T) {
	cases := []struct{ nbasis, nocc int }{
		{1, 0}, {1, 1}, {4, 2}, {8, 3}, {10, 5}, {66, 2},
	}
	for _, tc := range cases {
		w, err := New(tc.nbasis, tc.nocc)
		require.NoError(t, err)
		require.NoError(t, w.AddAllDets())
		require.Equal(t, det.Binomial(tc.nbasis, tc.nocc), w.Len())

		buf := make([]uint64, w.NWord())
		for i, d := range w.All() {
			require.Equal(t, i, w.IndexDet(d))
			require.NoError(t, w.CopyDet(i, buf))
			require.Equal(t, d, buf)
		}
		assertInverse(t, w)
	}
}

func TestAddAllDets_LexicographicOrder(t *testing.T) {
	w, err := New(4, 2)
	require.NoError(t, err)
	require.NoError(t, w.AddAllDets())

	assert.Equal(t, []int{0, 1, 0, 2, 0, 3, 1, 2, 1, 3, 2, 3}, w.ToOccsArray())
}

func TestAddDet_Idempotent(t *testing.T) {
	w, err := New(6, 3)
	require.NoError(t, err)

	d, err := det.FromOccs(6, []int{0, 2, 4})
	require.NoError(t, err)

	p1, err := w.AddDet(d)
	require.NoError(t, err)
	p2, err := w.AddDet(d)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, w.Len())

	p3, err := w.AddDetFromOccs([]int{0, 2, 4})
	require.NoError(t, err)
	assert.Equal(t, p1, p3)
	assert.Equal(t, 1, w.Len())
}

func TestAddDet_Invalid(t *testing.T) {
	w, err := New(6, 3)
	require.NoError(t, err)

	_, err = w.AddDet([]uint64{0b111, 0})
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 1, dm.Expected)

	_, err = w.AddDet([]uint64{0b11})
	assert.ErrorIs(t, err, ErrInvalidDet)

	_, err = w.AddDet([]uint64{0b1000011})
	assert.ErrorIs(t, err, ErrInvalidDet)

	_, err = w.AddDetFromOccs([]int{0, 1})
	require.ErrorAs(t, err, &dm)

	_, err = w.AddDetFromOccs([]int{0, 1, 6})
	assert.ErrorIs(t, err, ErrInvalidOccs)

	assert.Equal(t, 0, w.Len())
}

func TestIndexDet_NotFound(t *testing.T) {
	w, err := New(6, 3)
	require.NoError(t, err)
	_, err = w.AddHartreeFockDet()
	require.NoError(t, err)

	d, err := det.FromOccs(6, []int{3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, NotFound, w.IndexDet(d))
	assert.Equal(t, NotFound, w.IndexDet([]uint64{0, 0}))

	hf, err := det.FromOccs(6, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, w.IndexDet(hf))
}

func TestCopyDet_OutOfRange(t *testing.T) {
	w, err := New(6, 3)
	require.NoError(t, err)
	_, err = w.AddHartreeFockDet()
	require.NoError(t, err)

	var oor *ErrOutOfRange
	require.ErrorAs(t, w.CopyDet(1, make([]uint64, 1)), &oor)
	assert.Equal(t, 1, oor.Index)
	assert.Equal(t, 1, oor.Len)
	require.ErrorAs(t, w.CopyDet(-1, make([]uint64, 1)), &oor)

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, w.CopyDet(0, nil), &dm)

	_, err = w.Det(5)
	require.ErrorAs(t, err, &oor)
}

func TestFromDetArray(t *testing.T) {
	words := []uint64{0b0011, 0b0101, 0b1001}
	w, err := FromDetArray(4, 2, 3, words)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, words, w.ToDetArray())

	_, err = FromDetArray(4, 2, 4, words)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 3, dm.Actual)

	_, err = FromDetArray(4, 2, 3, []uint64{0b0011, 0b0111, 0b1001})
	assert.ErrorIs(t, err, ErrInvalidDet)

	_, err = FromDetArray(4, 2, 3, []uint64{0b0011, 0b0101, 0b0011})
	assert.ErrorIs(t, err, ErrDuplicateDet)
}

func TestFromOccsArray(t *testing.T) {
	occs := []int{0, 1, 1, 3, 2, 3}
	w, err := FromOccsArray(4, 2, 3, occs)
	require.NoError(t, err)
	assert.Equal(t, occs, w.ToOccsArray())

	_, err = FromOccsArray(4, 2, 2, occs)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)

	_, err = FromOccsArray(4, 2, 1, []int{0, 0})
	assert.ErrorIs(t, err, ErrInvalidOccs)
}

func TestConcurrentAddDet(t *testing.T) {
	const nbasis, nocc = 12, 4
	all := make([][]uint64, 0, det.Binomial(nbasis, nocc))
	for occs := range det.Combinations(nbasis, nocc) {
		d, err := det.FromOccs(nbasis, occs)
		require.NoError(t, err)
		all = append(all, d)
	}

	w, err := New(nbasis, nocc)
	require.NoError(t, err)

	// Every worker inserts every determinant, in a worker-specific order.
	const workers = 8
	var wg sync.WaitGroup
	for g := range workers {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for k := range all {
				d := all[(k*(g+1)+g)%len(all)]
				if _, err := w.AddDet(d); err != nil {
					t.Error(err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, len(all), w.Len())
	assertInverse(t, w)
}

func TestConcurrentAddDet_ReadersSeeWrittenDets(t *testing.T) {
	const nbasis, nocc = 14, 4
	w, err := New(nbasis, nocc)
	require.NoError(t, err)

	const workers = 8
	done := make(chan struct{})
	var wg sync.WaitGroup
	for g := range workers {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			k := 0
			for occs := range det.Combinations(nbasis, nocc) {
				if k%workers == g {
					if _, err := w.AddDetFromOccs(occs); err != nil {
						t.Error(err)
						return
					}
				}
				k++
			}
		}(g)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	buf := make([]uint64, w.NWord())
	for {
		select {
		case <-done:
			assert.Equal(t, det.Binomial(nbasis, nocc), w.Len())
			assertInverse(t, w)
			return
		default:
		}
		n := w.Len()
		if n == 0 {
			continue
		}
		require.NoError(t, w.CopyDet(n-1, buf))
		require.NoError(t, det.Validate(buf, nbasis, nocc), "slot %d read before it was written", n-1)
	}
}

func TestAddExcitedDets(t *testing.T) {
	cases := []struct{ nbasis, nocc, e int }{
		{6, 3, 0}, {6, 3, 1}, {6, 3, 2}, {6, 3, 3}, {10, 4, 3}, {70, 3, 2}, {5, 2, 3},
	}
	for _, tc := range cases {
		w, err := New(tc.nbasis, tc.nocc)
		require.NoError(t, err)
		_, err = w.AddHartreeFockDet()
		require.NoError(t, err)
		ref, err := w.Det(0)
		require.NoError(t, err)

		require.NoError(t, w.AddExcitedDets(ref, tc.e))

		want := det.Binomial(tc.nocc, tc.e) * det.Binomial(tc.nbasis-tc.nocc, tc.e)
		if tc.e > 0 {
			want++ // the reference itself
		}
		require.Equal(t, want, w.Len(), "nbasis=%d nocc=%d e=%d", tc.nbasis, tc.nocc, tc.e)

		for i, d := range w.All() {
			if i == 0 {
				continue
			}
			moved := 0
			for k := range d {
				moved += bits.OnesCount64(d[k] &^ ref[k])
			}
			assert.Equal(t, tc.e, moved, "determinant %d", i)
		}
		assertInverse(t, w)
	}
}

func TestAddExcitedDets_Invalid(t *testing.T) {
	w, err := New(6, 3)
	require.NoError(t, err)

	err = w.AddExcitedDets([]uint64{0b000111}, -1)
	assert.ErrorIs(t, err, ErrInvalidExcitation)

	err = w.AddExcitedDets([]uint64{0b001111}, 1)
	assert.ErrorIs(t, err, ErrInvalidDet)

	var dm *ErrDimensionMismatch
	assert.ErrorAs(t, w.AddExcitedDets(nil, 1), &dm)
	assert.Equal(t, 0, w.Len())
}

func TestMemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	w, err := New(6, 3, WithResourceController(rc))
	require.NoError(t, err)

	_, err = w.AddHartreeFockDet()
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, 0, w.Len())

	d, err := det.FromOccs(6, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, NotFound, w.IndexDet(d))
}

func TestReserveSqueezeRelease(t *testing.T) {
	rc := resource.NewController(resource.Config{})
	w, err := New(8, 4, WithResourceController(rc), WithCapacity(20000))
	require.NoError(t, err)
	reserved := rc.MemoryUsage()
	assert.Positive(t, reserved)

	require.NoError(t, w.AddAllDets())
	w.Squeeze()
	assert.Less(t, rc.MemoryUsage(), reserved)
	assert.Equal(t, 70, w.Len())
	assertInverse(t, w)

	w.Release()
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestCloneAndDigest(t *testing.T) {
	w, err := New(6, 2)
	require.NoError(t, err)
	require.NoError(t, w.AddAllDets())

	c, err := w.Clone()
	require.NoError(t, err)
	assert.Equal(t, w.ToDetArray(), c.ToDetArray())
	assert.Equal(t, w.Digest(), c.Digest())

	// Same set, reversed order.
	words := w.ToDetArray()
	rev := make([]uint64, len(words))
	for i := range words {
		rev[i] = words[len(words)-1-i]
	}
	r, err := FromDetArray(6, 2, len(rev), rev)
	require.NoError(t, err)
	assert.Equal(t, w.Digest(), r.Digest())

	// Mutating the clone leaves the original alone.
	s, err := New(6, 2)
	require.NoError(t, err)
	_, err = s.AddHartreeFockDet()
	require.NoError(t, err)
	sc, err := s.Clone()
	require.NoError(t, err)
	_, err = sc.AddDetFromOccs([]int{4, 5})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, sc.Len())
	assert.NotEqual(t, s.Digest(), sc.Digest())
}

func assertInverse(t *testing.T, w *Wavefunction) {
	t.Helper()
	seen := make(map[string]int, w.Len())
	for i, d := range w.All() {
		require.Equal(t, i, w.IndexDet(d))
		k := string(appendKey(nil, d))
		prev, dup := seen[k]
		require.False(t, dup, "determinant at %d duplicates %d", i, prev)
		seen[k] = i
	}
}
