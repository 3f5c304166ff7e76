package sparse

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/pairci/resource"
)

type options struct {
	nrow    int
	ncol    int
	rows    *roaring64.Bitmap
	workers int
	rc      *resource.Controller
	logger  *slog.Logger
}

// Option configures Build.
type Option func(*options)

// WithNRow builds only the first n rows. The default is every determinant.
func WithNRow(n int) Option {
	return func(o *options) {
		o.nrow = n
	}
}

// WithRows builds the rows of the given determinant positions, in
// ascending order. It takes precedence over WithNRow.
func WithRows(rows *roaring64.Bitmap) Option {
	return func(o *options) {
		o.rows = rows
	}
}

// WithNCol keeps only the columns of the first n determinants. The
// default is every determinant.
func WithNCol(n int) Option {
	return func(o *options) {
		o.ncol = n
	}
}

// WithWorkers sets the number of goroutines building rows.
// Values <= 0 use the resource controller's limit (GOMAXPROCS without one).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
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

func applyOptions(opts []Option) options {
	o := options{nrow: -1, ncol: -1}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	o.workers = o.rc.Workers(o.workers)
	return o
}
