// Package loader resolves OpenAPI sources to documents on top of the shared
// document fetcher.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-formmanager/internal/fetch"
	pkgopenapi "github.com/goliatone/go-formmanager/pkg/openapi"
)

var (
	// ErrNilSource is returned when Load is called without a source.
	ErrNilSource = errors.New("openapi loader: source is nil")
	// ErrUnsupportedKind is returned for a source kind the loader cannot read.
	ErrUnsupportedKind = errors.New("openapi loader: unsupported source kind")
)

// Loader implements pkgopenapi.Loader.
type Loader struct {
	fetcher *fetch.Fetcher
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options pkgopenapi.LoaderOptions) pkgopenapi.Loader {
	opts := []fetch.Option{
		fetch.WithFS(options.FileSystem),
		fetch.WithTimeout(options.RequestTimeout),
	}
	switch {
	case options.HTTPClient != nil:
		opts = append(opts, fetch.WithHTTPClient(options.HTTPClient))
	case options.AllowHTTPFallback:
		opts = append(opts, fetch.WithHTTPClient(&http.Client{}))
	}
	return &Loader{fetcher: fetch.New(opts...)}
}

// Load reads the document src points at.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src == nil {
		return pkgopenapi.Document{}, ErrNilSource
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case pkgopenapi.SourceKindFile:
		data, err = l.fetcher.File(ctx, src.Location())
	case pkgopenapi.SourceKindFS:
		data, err = l.fetcher.FS(ctx, src.Location())
	case pkgopenapi.SourceKindURL:
		data, err = l.fetcher.URL(ctx, src.Location())
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedKind, src.Kind())
	}
	if err != nil {
		return pkgopenapi.Document{}, fmt.Errorf("openapi loader: %w", err)
	}
	return pkgopenapi.NewDocument(src, data)
}
