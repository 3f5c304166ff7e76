package benchmark_test

import (
	"sync"
	"testing"

	"github.com/hupe1980/pairci/wfn"
)

func fullWfn(tb testing.TB, nbasis, nocc int) *wfn.Wavefunction {
	tb.Helper()
	w, err := wfn.New(nbasis, nocc)
	if err != nil {
		tb.Fatal(err)
	}
	if err := w.AddAllDets(); err != nil {
		tb.Fatal(err)
	}
	return w
}

func hfWfn(tb testing.TB, nbasis, nocc int) *wfn.Wavefunction {
	tb.Helper()
	w, err := wfn.New(nbasis, nocc)
	if err != nil {
		tb.Fatal(err)
	}
	if _, err := w.AddHartreeFockDet(); err != nil {
		tb.Fatal(err)
	}
	return w
}

// parallelAdd inserts the n determinants of dets from four goroutines with
// overlapping ranges.
func parallelAdd(tb testing.TB, w *wfn.Wavefunction, dets []uint64, n int) {
	tb.Helper()
	nword := w.NWord()
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := g * n / 8; i < n; i++ {
				if _, err := w.AddDet(dets[i*nword : (i+1)*nword]); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		tb.Fatal(err)
	}
	if w.Len() != n {
		tb.Fatalf("got %d determinants, want %d", w.Len(), n)
	}
}
