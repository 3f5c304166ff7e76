package persistence

import (
	"log/slog"

	"github.com/hupe1980/pairci/resource"
	"github.com/hupe1980/pairci/wfn"
)

// Option configures Save and Load.
type Option func(*options)

type options struct {
	compression Compression
	rc          *resource.Controller
	logger      *slog.Logger
	wfnOpts     []wfn.Option
}

// WithCompression selects the payload codec used by Save. Default: none.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithResourceController rate limits snapshot IO through rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWavefunctionOptions passes opts to the wavefunction built by Load.
func WithWavefunctionOptions(opts ...wfn.Option) Option {
	return func(o *options) { o.wfnOpts = append(o.wfnOpts, opts...) }
}

func applyOptions(opts []Option) options {
	o := options{
		compression: CompressionNone,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
