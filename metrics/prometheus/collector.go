package prometheus

import (
	"time"

	"github.com/hupe1980/pairci"
	prom "github.com/prometheus/client_golang/prometheus"
)

var _ pairci.MetricsCollector = (*Collector)(nil)

// Collector implements pairci.MetricsCollector on Prometheus metrics.
type Collector struct {
	opLatency  *prom.HistogramVec
	hciRounds  prom.Counter
	hciRefs    prom.Counter
	hciAdded   prom.Counter
	buildRows  prom.Gauge
	buildNNZ   prom.Gauge
	solveIters prom.Histogram
	persisted  prom.Counter
	operations *prom.CounterVec
}

// Option configures NewCollector.
type Option func(*options)

type options struct {
	namespace  string
	registerer prom.Registerer
}

// WithNamespace prefixes every metric name (default "pairci").
func WithNamespace(ns string) Option {
	return func(o *options) { o.namespace = ns }
}

// WithRegisterer registers the metrics with r instead of the default registry.
func WithRegisterer(r prom.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// NewCollector creates and registers the metrics. It panics if a metric of
// the same name is already registered.
func NewCollector(opts ...Option) *Collector {
	o := options{namespace: "pairci", registerer: prom.DefaultRegisterer}
	for _, fn := range opts {
		fn(&o)
	}

	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: o.namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of selection rounds, operator builds, solves and snapshot writes.",
			Buckets:   prom.ExponentialBuckets(1e-4, 4, 10),
		}, []string{"op", "status"}),
		hciRounds: prom.NewCounter(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "hci_rounds_total",
			Help:      "Heat-bath selection rounds completed.",
		}),
		hciRefs: prom.NewCounter(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "hci_references_total",
			Help:      "Reference determinants expanded by selection.",
		}),
		hciAdded: prom.NewCounter(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "hci_determinants_added_total",
			Help:      "Determinants admitted by selection.",
		}),
		buildRows: prom.NewGauge(prom.GaugeOpts{
			Namespace: o.namespace,
			Name:      "operator_rows",
			Help:      "Rows of the last built operator.",
		}),
		buildNNZ: prom.NewGauge(prom.GaugeOpts{
			Namespace: o.namespace,
			Name:      "operator_nonzeros",
			Help:      "Stored entries of the last built operator.",
		}),
		solveIters: prom.NewHistogram(prom.HistogramOpts{
			Namespace: o.namespace,
			Name:      "solve_iterations",
			Help:      "Eigensolver iterations per solve.",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		persisted: prom.NewCounter(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "snapshot_bytes_total",
			Help:      "Bytes written to snapshots.",
		}),
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "operations_total",
			Help:      "Operations completed.",
		}, []string{"op", "status"}),
	}

	o.registerer.MustRegister(
		c.opLatency,
		c.hciRounds,
		c.hciRefs,
		c.hciAdded,
		c.buildRows,
		c.buildNNZ,
		c.solveIters,
		c.persisted,
		c.operations,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (c *Collector) observe(op string, d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues(op, s).Observe(d.Seconds())
	c.operations.WithLabelValues(op, s).Inc()
}

// RecordHCIRound implements pairci.MetricsCollector.
func (c *Collector) RecordHCIRound(references, added int, d time.Duration) {
	c.observe("hci_round", d, nil)
	c.hciRounds.Inc()
	c.hciRefs.Add(float64(references))
	c.hciAdded.Add(float64(added))
}

// RecordBuild implements pairci.MetricsCollector.
func (c *Collector) RecordBuild(rows, nnz int, d time.Duration, err error) {
	c.observe("build", d, err)
	if err == nil {
		c.buildRows.Set(float64(rows))
		c.buildNNZ.Set(float64(nnz))
	}
}

// RecordSolve implements pairci.MetricsCollector.
func (c *Collector) RecordSolve(iterations int, d time.Duration, err error) {
	c.observe("solve", d, err)
	c.solveIters.Observe(float64(iterations))
}

// RecordPersist implements pairci.MetricsCollector.
func (c *Collector) RecordPersist(bytes int64, d time.Duration, err error) {
	c.observe("persist", d, err)
	if err == nil {
		c.persisted.Add(float64(bytes))
	}
}
