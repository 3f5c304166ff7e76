package pairci

import (
	"log/slog"

	"github.com/hupe1980/pairci/blobstore"
	"github.com/hupe1980/pairci/persistence"
	"github.com/hupe1980/pairci/resource"
	"github.com/hupe1980/pairci/wfn"
)

type options struct {
	nstates          int
	workers          int
	maxIterations    int
	tolerance        float64
	solverMaxIter    int
	initial          *wfn.Wavefunction
	rc               *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
	snapshotStore    blobstore.Store
	snapshotName     string
	compression      persistence.Compression
}

// Option configures Run.
type Option func(*options)

// WithStates sets the number of lowest states to solve for (default 1).
// Selection weights each determinant by its largest coefficient magnitude
// over all states.
func WithStates(n int) Option {
	return func(o *options) {
		o.nstates = n
	}
}

// WithWorkers sets the number of goroutines used for selection, operator
// builds and matrix-vector products. Values <= 0 use GOMAXPROCS, bounded by
// the resource controller.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxIterations stops after n build-and-solve passes even if the last
// selection added determinants. n <= 0 means no limit.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithTolerance sets the eigensolver residual tolerance (default 1e-8).
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tolerance = tol
	}
}

// WithSolverMaxIter bounds the eigensolver iterations per solve (default 1000).
func WithSolverMaxIter(n int) Option {
	return func(o *options) {
		o.solverMaxIter = n
	}
}

// WithInitialWavefunction starts from w instead of the Hartree-Fock
// determinant. w is extended in place.
func WithInitialWavefunction(w *wfn.Wavefunction) Option {
	return func(o *options) {
		o.initial = w
	}
}

// WithResourceController bounds memory, workers and snapshot IO by rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pairci.BasicMetricsCollector{}
//	res, _ := pairci.Run(ctx, h, nocc, eps, pairci.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("builds: %d, avg: %dns\n", stats.BuildCount, stats.BuildAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pairci.NewJSONLogger(slog.LevelInfo)
//	res, _ := pairci.Run(ctx, h, nocc, eps, pairci.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSnapshot saves the wavefunction to store under name after every solve.
func WithSnapshot(store blobstore.Store, name string) Option {
	return func(o *options) {
		o.snapshotStore = store
		o.snapshotName = name
	}
}

// WithSnapshotCompression selects the snapshot payload codec (default zstd).
func WithSnapshotCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		nstates:          1,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.CompressionZstd,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.nstates <= 0 {
		o.nstates = 1
	}
	return o
}
