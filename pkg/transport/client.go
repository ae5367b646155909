package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-formmanager/pkg/form"
)

// Response is the outcome of an exchange that reached the server.
type Response struct {
	StatusCode int
	Body       string
}

// Client performs one POST exchange with a form payload.
type Client interface {
	Post(ctx context.Context, url string, payload form.Payload) (Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, url string, payload form.Payload) (Response, error)

// Post calls f.
func (f ClientFunc) Post(ctx context.Context, url string, payload form.Payload) (Response, error) {
	return f(ctx, url, payload)
}

// Options configures HTTPClient.
type Options struct {
	// HTTPClient performs the request. Defaults to a client without a timeout.
	HTTPClient *http.Client
	// Timeout caps a single exchange. Zero means no timeout.
	Timeout time.Duration
	// Header is copied onto every request.
	Header http.Header
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// WithHTTPClient injects the underlying *http.Client.
func WithHTTPClient(client *http.Client) OptionFn {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithTimeout caps each exchange.
func WithTimeout(timeout time.Duration) OptionFn {
	return func(o *Options) {
		if timeout > 0 {
			o.Timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) OptionFn {
	return func(o *Options) {
		if o.Header == nil {
			o.Header = http.Header{}
		}
		o.Header.Add(key, value)
	}
}

// NewOptions applies fns over the defaults.
func NewOptions(fns ...OptionFn) Options {
	opts := Options{HTTPClient: &http.Client{}}
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts
}

// HTTPClient posts multipart bodies over net/http.
type HTTPClient struct {
	opts Options
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a Client with default options plus any overrides.
func NewHTTPClient(fns ...OptionFn) *HTTPClient {
	return &HTTPClient{opts: NewOptions(fns...)}
}

// Post encodes payload as multipart/form-data and sends it to url. Any
// response, including non-2xx statuses, is returned without error.
func (c *HTTPClient) Post(ctx context.Context, url string, payload form.Payload) (Response, error) {
	if url == "" {
		return Response{}, &Error{Op: "request", Err: ErrNoURL}
	}
	if c.opts.HTTPClient == nil {
		return Response{}, &Error{Op: "request", URL: url, Err: ErrNoClient}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var body bytes.Buffer
	contentType, err := payload.WriteMultipart(&body)
	if err != nil {
		return Response{}, &Error{Op: "encode", URL: url, Err: err}
	}

	reqCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, &body)
	if err != nil {
		return Response{}, &Error{Op: "request", URL: url, Err: err}
	}
	for key, values := range c.opts.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return Response{}, &Error{Op: "send", URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &Error{Op: "read", URL: url, Err: err}
	}
	return Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}
