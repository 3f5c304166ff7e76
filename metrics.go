package pairci

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordHCIRound is called after each heat-bath selection round.
	// references is the frontier size, added the number of admitted
	// determinants.
	RecordHCIRound(references, added int, duration time.Duration)

	// RecordBuild is called after each sparse operator build.
	RecordBuild(rows, nnz int, duration time.Duration, err error)

	// RecordSolve is called after each eigensolve.
	RecordSolve(iterations int, duration time.Duration, err error)

	// RecordPersist is called after each snapshot write.
	RecordPersist(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordHCIRound(int, int, time.Duration)     {}
func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSolve(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordPersist(int64, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	HCIRounds       atomic.Int64
	HCIReferences   atomic.Int64
	HCIAdded        atomic.Int64
	HCITotalNanos   atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildRows       atomic.Int64
	BuildNNZ        atomic.Int64
	BuildTotalNanos atomic.Int64
	SolveCount      atomic.Int64
	SolveErrors     atomic.Int64
	SolveIterations atomic.Int64
	SolveTotalNanos atomic.Int64
	PersistCount    atomic.Int64
	PersistErrors   atomic.Int64
	PersistBytes    atomic.Int64
}

// RecordHCIRound implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHCIRound(references, added int, duration time.Duration) {
	b.HCIRounds.Add(1)
	b.HCIReferences.Add(int64(references))
	b.HCIAdded.Add(int64(added))
	b.HCITotalNanos.Add(duration.Nanoseconds())
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows, nnz int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(int64(rows))
	b.BuildNNZ.Add(int64(nnz))
}

// RecordSolve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSolve(iterations int, duration time.Duration, err error) {
	b.SolveCount.Add(1)
	b.SolveIterations.Add(int64(iterations))
	b.SolveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SolveErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(bytes int64, duration time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
		return
	}
	b.PersistBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		HCIRounds:       b.HCIRounds.Load(),
		HCIReferences:   b.HCIReferences.Load(),
		HCIAdded:        b.HCIAdded.Load(),
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildRows:       b.BuildRows.Load(),
		BuildNNZ:        b.BuildNNZ.Load(),
		BuildAvgNanos:   avg(b.BuildTotalNanos.Load(), b.BuildCount.Load()),
		SolveCount:      b.SolveCount.Load(),
		SolveErrors:     b.SolveErrors.Load(),
		SolveIterations: b.SolveIterations.Load(),
		SolveAvgNanos:   avg(b.SolveTotalNanos.Load(), b.SolveCount.Load()),
		PersistCount:    b.PersistCount.Load(),
		PersistErrors:   b.PersistErrors.Load(),
		PersistBytes:    b.PersistBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	HCIRounds       int64
	HCIReferences   int64
	HCIAdded        int64
	BuildCount      int64
	BuildErrors     int64
	BuildRows       int64
	BuildNNZ        int64
	BuildAvgNanos   int64
	SolveCount      int64
	SolveErrors     int64
	SolveIterations int64
	SolveAvgNanos   int64
	PersistCount    int64
	PersistErrors   int64
	PersistBytes    int64
}
