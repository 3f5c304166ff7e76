package prometheus_test

import (
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/pairci"
	pairciprom "github.com/hupe1980/pairci/metrics/prometheus"
	"github.com/hupe1980/pairci/testutil"
	prom "github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prom.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()+"_count"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestCollector_Records(t *testing.T) {
	reg := prom.NewRegistry()
	c := pairciprom.NewCollector(pairciprom.WithRegisterer(reg), pairciprom.WithNamespace("test"))

	c.RecordHCIRound(6, 2, time.Millisecond)
	c.RecordBuild(8, 30, time.Millisecond, nil)
	c.RecordBuild(0, 0, time.Millisecond, errors.New("boom"))
	c.RecordSolve(9, time.Millisecond, nil)
	c.RecordPersist(256, time.Millisecond, nil)

	got := gather(t, reg)
	assert.Equal(t, 1.0, got["test_hci_rounds_total"])
	assert.Equal(t, 6.0, got["test_hci_references_total"])
	assert.Equal(t, 2.0, got["test_hci_determinants_added_total"])
	assert.Equal(t, 8.0, got["test_operator_rows"])
	assert.Equal(t, 30.0, got["test_operator_nonzeros"])
	assert.Equal(t, 256.0, got["test_snapshot_bytes_total"])
	assert.Equal(t, 1.0, got["test_solve_iterations_count"])
	assert.Equal(t, 5.0, got["test_operations_total"])
	assert.Equal(t, 5.0, got["test_operation_duration_seconds_count"])
}

func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prom.NewRegistry()
	pairciprom.NewCollector(pairciprom.WithRegisterer(reg))
	assert.Panics(t, func() {
		pairciprom.NewCollector(pairciprom.WithRegisterer(reg))
	})
}

func TestCollector_Run(t *testing.T) {
	reg := prom.NewRegistry()
	c := pairciprom.NewCollector(pairciprom.WithRegisterer(reg))
	h := testutil.NewRNG(4).Hamiltonian(6)

	res, err := pairci.Run(t.Context(), h, 3, 1e-3, pairci.WithMetricsCollector(c))
	require.NoError(t, err)

	got := gather(t, reg)
	assert.Equal(t, float64(res.Wavefunction.Len()-1), got["pairci_hci_determinants_added_total"])
	assert.Equal(t, float64(res.Wavefunction.Len()), got["pairci_operator_rows"])
	assert.Equal(t, float64(res.Iterations), got["pairci_solve_iterations_count"])

	// One success series per operation kind, no snapshot series.
	n, err := promtest.GatherAndCount(reg, "pairci_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
