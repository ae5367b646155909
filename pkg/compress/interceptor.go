package compress

import (
	"context"
	"errors"
	"log/slog"

	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/loop"
)

// Interceptor compresses the first file selected on image inputs and records
// the result in a Store.
type Interceptor struct {
	store      *Store
	compressor Compressor
	scheduler  loop.Scheduler
	logger     *slog.Logger
	options    Options
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithCompressor overrides the image compressor.
func WithCompressor(c Compressor) Option {
	return func(i *Interceptor) {
		if c != nil {
			i.compressor = c
		}
	}
}

// WithScheduler overrides where compression runs.
func WithScheduler(s loop.Scheduler) Option {
	return func(i *Interceptor) {
		if s != nil {
			i.scheduler = s
		}
	}
}

// WithLogger sets the logger used for compression diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithOptions overrides the compression bounds.
func WithOptions(opts Options) Option {
	return func(i *Interceptor) {
		i.options = opts
	}
}

// NewInterceptor builds an interceptor writing into store.
func NewInterceptor(store *Store, options ...Option) *Interceptor {
	i := &Interceptor{
		store:      store,
		compressor: NewImageCompressor(),
		scheduler:  loop.NewAsync(),
		logger:     slog.Default(),
		options:    DefaultOptions,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(i)
	}
	if i.store == nil {
		i.store = NewStore()
	}
	return i
}

// Store exposes the record store.
func (i *Interceptor) Store() *Store {
	return i.store
}

// Handle reacts to a file selection on field. Inputs that do not accept
// images are ignored. The compression itself runs on the scheduler; Handle
// returns immediately.
func (i *Interceptor) Handle(ctx context.Context, field form.Field) {
	if !field.AcceptsImages() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	taskCtx, generation := i.store.Begin(ctx, field.Key)
	if len(field.Files) == 0 {
		i.store.Abandon(field.Key, generation)
		i.logger.Warn("FormManager: "+ErrNoFile.Error(), "field", field.Name)
		return
	}

	file := field.Files[0]
	i.scheduler.Go(func() {
		compressed, err := i.compressor.Compress(taskCtx, file, i.options)
		if err != nil {
			if !i.store.Abandon(field.Key, generation) || errors.Is(err, context.Canceled) {
				i.logger.Debug("compression superseded", "field", field.Name, "error", err)
				return
			}
			i.logger.Warn("FormManager: "+err.Error(), "field", field.Name)
			return
		}

		if !i.store.Commit(field.Key, generation, DataURL(compressed)) {
			i.logger.Debug("discarding stale compression", "field", field.Name)
			return
		}
		i.logger.Debug("image compressed",
			"field", field.Name,
			"original_bytes", file.Size(),
			"bytes", compressed.Size(),
		)
	})
}
