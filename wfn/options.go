package wfn

import (
	"log/slog"

	"github.com/hupe1980/pairci/resource"
)

type options struct {
	rc       *resource.Controller
	logger   *slog.Logger
	capacity int
}

// Option configures a Wavefunction.
type Option func(*options)

// WithResourceController accounts determinant storage against rc.
// Growth beyond its memory limit fails with resource.ErrMemoryLimitExceeded.
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

// WithCapacity pre-reserves room for n determinants.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
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
	return o
}
