// Package fetch reads raw documents (HTML pages, form configuration, API
// descriptions) from local files, an fs.FS or an HTTP endpoint.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"time"
)

// DefaultMaxBytes caps how much of a remote document is read.
const DefaultMaxBytes int64 = 10 << 20

var (
	// ErrEmptyLocation is returned for an empty path, name or URL.
	ErrEmptyLocation = errors.New("fetch: empty location")
	// ErrNoFS is returned when an fs.FS name is fetched without a filesystem.
	ErrNoFS = errors.New("fetch: no filesystem configured")
	// ErrHTTPDisabled is returned when a URL is fetched without a client.
	ErrHTTPDisabled = errors.New("fetch: http disabled")
	// ErrTooLarge is returned when a remote document exceeds the size cap.
	ErrTooLarge = errors.New("fetch: document too large")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: GET %s: unexpected status %s", e.URL, e.Status)
}

// Fetcher resolves locations to bytes.
type Fetcher struct {
	fsys     fs.FS
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFS sets the filesystem FS names are read from.
func WithFS(fsys fs.FS) Option {
	return func(f *Fetcher) {
		f.fsys = fsys
	}
}

// WithHTTPClient enables URL fetching through client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithHTTP enables URL fetching with a default client.
func WithHTTP() Option {
	return func(f *Fetcher) {
		if f.client == nil {
			f.client = &http.Client{}
		}
	}
}

// WithTimeout bounds each remote fetch. Zero means no bound.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout >= 0 {
			f.timeout = timeout
		}
	}
}

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// New builds a Fetcher. URL fetching stays off unless WithHTTP or
// WithHTTPClient is given.
func New(options ...Option) *Fetcher {
	f := &Fetcher{maxBytes: DefaultMaxBytes}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// HTTPEnabled reports whether URL locations can be fetched.
func (f *Fetcher) HTTPEnabled() bool {
	return f.client != nil
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Location fetches an http(s) URL or, failing that, a local file.
func (f *Fetcher) Location(ctx context.Context, location string) ([]byte, error) {
	if IsURL(location) {
		return f.URL(ctx, location)
	}
	return f.File(ctx, location)
}

// File reads a file from disk.
func (f *Fetcher) File(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyLocation
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", path, err)
	}
	return data, nil
}

// FS reads name from the configured filesystem.
func (f *Fetcher) FS(ctx context.Context, name string) ([]byte, error) {
	if f.fsys == nil {
		return nil, ErrNoFS
	}
	if name == "" {
		return nil, ErrEmptyLocation
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", name, err)
	}
	return data, nil
}

// URL performs a GET and returns the body of a 2xx response.
func (f *Fetcher) URL(ctx context.Context, raw string) ([]byte, error) {
	if f.client == nil {
		return nil, ErrHTTPDisabled
	}
	if raw == "" {
		return nil, ErrEmptyLocation
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request %s: %w", raw, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: GET %s: %w", raw, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: raw, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read %s: %w", raw, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, raw, f.maxBytes)
	}
	return data, nil
}
