package controller

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formmanager/pkg/compress"
	"github.com/goliatone/go-formmanager/pkg/loop"
	"github.com/goliatone/go-formmanager/pkg/transport"
)

// Option customises a Controller.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	client      transport.Client
	compressor  compress.Compressor
	compression compress.Options
	scheduler   loop.Scheduler
	ctx         context.Context
}

func newOptions(opts ...Option) options {
	o := options{
		logger:      slog.Default(),
		compression: compress.DefaultOptions,
		ctx:         context.Background(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
	}
	if o.client == nil {
		o.client = transport.NewHTTPClient()
	}
	if o.compressor == nil {
		o.compressor = compress.NewImageCompressor()
	}
	if o.scheduler == nil {
		o.scheduler = loop.NewAsync()
	}
	return o
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClient overrides the transport used for submission and verification.
func WithClient(client transport.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithCompressor overrides the image compressor.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) {
		o.compressor = c
	}
}

// WithCompressionOptions overrides the compression bounds.
func WithCompressionOptions(opts compress.Options) Option {
	return func(o *options) {
		o.compression = opts
	}
}

// WithScheduler overrides where asynchronous work runs.
func WithScheduler(s loop.Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithContext sets the context used when an operation is called with a nil
// context.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}
