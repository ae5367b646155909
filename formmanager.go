// Package formmanager binds HTML forms to a lifecycle controller: validation,
// image compression of file inputs, asynchronous multipart submission and
// host hooks. The subpackages hold the parts; this package wires the common
// entry points.
package formmanager

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-formmanager/pkg/config"
	"github.com/goliatone/go-formmanager/pkg/controller"
	"github.com/goliatone/go-formmanager/pkg/dom"
	pkgopenapi "github.com/goliatone/go-formmanager/pkg/openapi"
)

// DefaultFetchTimeout caps remote OpenAPI document fetches.
const DefaultFetchTimeout = 30 * time.Second

// Controller aliases the bound form controller.
type Controller = controller.Controller

// Bind attaches a controller to the form matched by selector, resolving raw
// options against their defaults.
func Bind(doc *dom.Document, selector string, opts config.Options, options ...controller.Option) (*Controller, error) {
	return controller.New(doc, selector, opts.Resolve(), options...)
}

// BindHTML parses markup and binds the form matched by selector.
func BindHTML(r io.Reader, selector string, opts config.Options, options ...controller.Option) (*Controller, *dom.Document, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := Bind(doc, selector, opts, options...)
	if err != nil {
		return nil, doc, err
	}
	return ctrl, doc, nil
}

// LoadOperation loads src and returns the named operation.
func LoadOperation(ctx context.Context, loader pkgopenapi.Loader, parser pkgopenapi.Parser, src pkgopenapi.Source, operationID string) (pkgopenapi.Operation, error) {
	if loader == nil {
		loader = NewLoader(pkgopenapi.WithHTTPFallback(DefaultFetchTimeout))
	}
	if parser == nil {
		parser = NewParser()
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return pkgopenapi.Operation{}, err
	}
	ops, err := parser.Operations(ctx, doc)
	if err != nil {
		return pkgopenapi.Operation{}, err
	}
	op, ok := ops[operationID]
	if !ok {
		return pkgopenapi.Operation{}, fmt.Errorf("formmanager: operation %q not found in %s", operationID, doc.Location())
	}
	return op, nil
}

// OpenAPIForm builds a bindable document for an OpenAPI operation.
func OpenAPIForm(ctx context.Context, src pkgopenapi.Source, operationID string, options ...pkgopenapi.FormOption) (*dom.Document, error) {
	op, err := LoadOperation(ctx, nil, nil, src, operationID)
	if err != nil {
		return nil, err
	}
	return pkgopenapi.BuildDocument(op, options...)
}

// OpenAPIFormHTML renders the page OpenAPIForm would bind.
func OpenAPIFormHTML(ctx context.Context, src pkgopenapi.Source, operationID string, options ...pkgopenapi.FormOption) (string, error) {
	op, err := LoadOperation(ctx, nil, nil, src, operationID)
	if err != nil {
		return "", err
	}
	return pkgopenapi.RenderPage(op, options...)
}
