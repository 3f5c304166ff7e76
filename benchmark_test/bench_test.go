package benchmark_test

import (
	"context"
	"testing"

	"github.com/hupe1980/pairci"
	"github.com/hupe1980/pairci/hci"
	"github.com/hupe1980/pairci/sparse"
	"github.com/hupe1980/pairci/testutil"
	"github.com/hupe1980/pairci/wfn"
)

func BenchmarkAddAllDets_16_8(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		w, err := wfn.New(16, 8)
		if err != nil {
			b.Fatal(err)
		}
		if err := w.AddAllDets(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIndexDet(b *testing.B) {
	w := fullWfn(b, 16, 8)
	n := w.Len()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pos := i % n
		if w.IndexDet(w.DetView(pos)) != pos {
			b.Fatal("index mismatch")
		}
	}
}

func BenchmarkAddDet_Parallel(b *testing.B) {
	src := fullWfn(b, 20, 4)
	dets := src.ToDetArray()
	n := src.Len()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := wfn.New(20, 4)
		if err != nil {
			b.Fatal(err)
		}
		parallelAdd(b, w, dets, n)
	}
}

func BenchmarkBuild_Workers1(b *testing.B) { benchmarkBuild(b, 1) }
func BenchmarkBuild_Workers4(b *testing.B) { benchmarkBuild(b, 4) }

func benchmarkBuild(b *testing.B, workers int) {
	h := testutil.NewRNG(1).Hamiltonian(14)
	w := fullWfn(b, 14, 7)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sparse.Build(context.Background(), w, h, sparse.WithWorkers(workers)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPerformOp(b *testing.B) {
	h := testutil.NewRNG(1).Hamiltonian(14)
	op, err := sparse.Build(context.Background(), fullWfn(b, 14, 7), h)
	if err != nil {
		b.Fatal(err)
	}
	x := make([]float64, op.Cols())
	for i := range x {
		x[i] = 1
	}
	y := make([]float64, op.Rows())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := op.PerformOp(x, y); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSolve(b *testing.B) {
	h := testutil.NewRNG(1).Hamiltonian(12)
	op, err := sparse.Build(context.Background(), fullWfn(b, 12, 6), h)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := op.Solve(context.Background(), sparse.SolveConfig{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHCI(b *testing.B) {
	h := testutil.NewRNG(1).Hamiltonian(16)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w := hfWfn(b, 16, 8)
		b.StartTimer()
		if _, err := hci.Run(context.Background(), w, h, 5e-2); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun(b *testing.B) {
	h := testutil.NewRNG(1).Hamiltonian(14)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := pairci.Run(context.Background(), h, 7, 1e-3); err != nil {
			b.Fatal(err)
		}
	}
}
