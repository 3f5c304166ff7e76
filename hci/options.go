package hci

import (
	"log/slog"
	"time"

	"github.com/hupe1980/pairci/resource"
)

// Round summarizes one completed selection round.
type Round struct {
	// Index is the zero-based round number.
	Index int
	// References is the number of frontier determinants expanded.
	References int
	// Added is the number of determinants admitted in this round.
	Added int
	// NDet is the wavefunction size after the round.
	NDet int
	// Elapsed is the wall time of the round.
	Elapsed time.Duration
}

type options struct {
	workers   int
	coeffs    []float64
	maxRounds int
	rc        *resource.Controller
	logger    *slog.Logger
	hook      func(Round)
}

// Option configures Run.
type Option func(*options)

// WithWorkers sets the number of goroutines expanding references.
// Values <= 0 use the resource controller's limit (GOMAXPROCS without one).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCoefficients weights each reference r < len(c) by |c[r]|.
// Determinants admitted during the run get weight zero, so they are not
// expanded and the selection finishes after a single pass.
func WithCoefficients(c []float64) Option {
	return func(o *options) {
		o.coeffs = c
	}
}

// WithMaxRounds stops after n rounds even if the last one admitted
// determinants. n <= 0 means no limit.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithResourceController bounds the worker count by rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRoundHook registers fn to be called after every round.
func WithRoundHook(fn func(Round)) Option {
	return func(o *options) {
		o.hook = fn
	}
}

func applyOptions(opts []Option) options {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	o.workers = o.rc.Workers(o.workers)
	return o
}
