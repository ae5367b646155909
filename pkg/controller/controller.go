package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-formmanager/pkg/compress"
	"github.com/goliatone/go-formmanager/pkg/config"
	"github.com/goliatone/go-formmanager/pkg/dom"
	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/loop"
	"github.com/goliatone/go-formmanager/pkg/transport"
)

const (
	submitSelector = "[type='submit']"
	fileSelector   = "input[type='file']"
	activeClass    = "active"
)

// Controller owns one bound form.
type Controller struct {
	doc            *dom.Document
	form           *dom.Element
	selector       string
	cfg            config.Form
	errorContainer *dom.Element

	hooks       Hooks
	store       *compress.Store
	interceptor *compress.Interceptor
	client      transport.Client
	scheduler   loop.Scheduler
	logger      *slog.Logger
	ctx         context.Context

	submissions atomic.Uint64
}

// New binds the form matched by selector inside doc. Selectors follow
// querySelector syntax; XPath expressions are accepted too. It returns a
// *ConfigurationError when the form cannot be resolved.
func New(doc *dom.Document, selector string, cfg config.Form, opts ...Option) (*Controller, error) {
	o := newOptions(opts...)
	logger := o.logger.With("form", selector)

	formEl, err := resolveForm(doc, selector)
	if err != nil {
		cerr := &ConfigurationError{Selector: selector, Err: err}
		logger.Error("FormManager: no form specified", "error", err)
		return nil, cerr
	}

	store := compress.NewStore()
	c := &Controller{
		doc:       doc,
		form:      formEl,
		selector:  selector,
		cfg:       cfg,
		store:     store,
		client:    o.client,
		scheduler: o.scheduler,
		logger:    logger,
		ctx:       o.ctx,
		interceptor: compress.NewInterceptor(store,
			compress.WithCompressor(o.compressor),
			compress.WithScheduler(o.scheduler),
			compress.WithLogger(logger),
			compress.WithOptions(o.compression),
		),
	}

	c.resolveErrorContainer()
	if err := c.bind(); err != nil {
		cerr := &ConfigurationError{Selector: selector, Err: err}
		logger.Error("FormManager: bind form", "error", err)
		return nil, cerr
	}
	return c, nil
}

func resolveForm(doc *dom.Document, selector string) (*dom.Element, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	if strings.TrimSpace(selector) == "" {
		return nil, dom.ErrNotFound
	}
	el, err := doc.Query(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, dom.ErrNotFound
	}
	return el, nil
}

func (c *Controller) resolveErrorContainer() {
	if c.cfg.ErrorContainer == "" {
		c.logger.Warn("FormManager: no errorContainer specified")
		return
	}
	el, err := c.doc.Query(c.cfg.ErrorContainer)
	if err != nil || el == nil {
		c.logger.Warn("FormManager: errorContainer does not exist",
			"selector", c.cfg.ErrorContainer,
			"error", err,
		)
		return
	}
	c.errorContainer = el
}

func (c *Controller) bind() error {
	buttons, err := c.form.QueryAll(submitSelector)
	if err != nil {
		return err
	}
	for _, button := range buttons {
		button.AddEventListener(dom.EventClick, c.handleSubmitClick)
	}

	if !c.cfg.ImageCompression {
		return nil
	}
	inputs, err := c.form.QueryAll(fileSelector)
	if err != nil {
		return err
	}
	for _, input := range inputs {
		input.AddEventListener(dom.EventChange, c.handleFileChange)
	}
	return nil
}

func (c *Controller) handleSubmitClick(ev *dom.Event) {
	ev.PreventDefault()
	if !c.Validate(ev.Context) {
		return
	}
	if c.cfg.AutoSubmit {
		c.Submit(ev.Context)
		return
	}
	c.hooks.submit()
}

func (c *Controller) handleFileChange(ev *dom.Event) {
	ev.PreventDefault()
	c.interceptor.Handle(c.context(ev.Context), ev.Target.Field())
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() config.Form {
	return c.cfg
}

// Form returns the bound form element.
func (c *Controller) Form() *dom.Element {
	return c.form
}

// OnSubmit sets the submit-start hook.
func (c *Controller) OnSubmit(fn func()) {
	c.hooks.SetSubmit(fn)
}

// OnComplete sets the hook receiving the response body.
func (c *Controller) OnComplete(fn func(body string)) {
	c.hooks.SetComplete(fn)
}

// OnError sets the hook receiving submission failures.
func (c *Controller) OnError(fn func(err error)) {
	c.hooks.SetError(fn)
}

// Validate reports whether every field passes its constraints. See Check.
func (c *Controller) Validate(ctx context.Context) bool {
	return c.Check(ctx).OK
}

// Check validates the current state of the form. The first failure's message
// is shown in the error container; when nothing fails the container is
// deactivated. A configured verification URL receives the form payload on
// every call; its outcome is only logged.
func (c *Controller) Check(ctx context.Context) form.Result {
	ctx = c.context(ctx)
	snapshot, err := c.form.Snapshot()
	if err != nil {
		c.logger.Error("FormManager: snapshot form", "error", err)
		return form.Result{}
	}

	result := form.Validate(snapshot)
	if result.OK {
		c.hideError()
	} else {
		c.showError(result.FirstErrorMessage())
		c.logger.Debug("validation failed",
			"failures", result.ErrorCount(),
			"field", result.First.Field,
			"rule", string(result.First.Rule),
		)
	}

	if c.cfg.RecaptchaURL != "" {
		c.verify(ctx, form.CollectPayload(snapshot))
	}
	return result
}

func (c *Controller) verify(ctx context.Context, payload form.Payload) {
	url := c.cfg.RecaptchaURL
	c.scheduler.Go(func() {
		resp, err := c.client.Post(ctx, url, payload)
		if err != nil {
			c.logger.Warn("FormManager: "+err.Error(), "url", url)
			return
		}
		c.logger.Info("FormManager: response - "+resp.Body,
			"url", url,
			"status", resp.StatusCode,
		)
	})
}

// Submit builds the payload from the current form state and posts it to the
// form's action. Compressed images replace the original files of their
// inputs. The outcome is delivered to the hooks unless a newer submission
// has started in the meantime.
func (c *Controller) Submit(ctx context.Context) {
	ctx = c.context(ctx)
	c.hooks.submit()

	snapshot, err := c.form.Snapshot()
	if err != nil {
		c.logger.Error("FormManager: snapshot form", "error", err)
		c.hooks.fail(err)
		return
	}

	// Records are read and cleared in one step so a compression landing
	// mid-build stays in the store for the next submission.
	payload, substituted := form.BuildSubmission(snapshot, c.store.Consume)
	for _, field := range substituted {
		if input := c.control(field.Key); input != nil {
			input.SetValue("")
		}
		c.logger.Debug("submitting compressed image", "field", field.Name)
	}

	generation := c.submissions.Add(1)
	url := snapshot.Action
	c.scheduler.Go(func() {
		resp, err := c.client.Post(ctx, url, payload)
		if current := c.submissions.Load(); current != generation {
			c.logger.Debug("discarding superseded submission",
				"url", url,
				"generation", generation,
				"current", current,
			)
			return
		}
		if err != nil {
			var terr *transport.Error
			if !errors.As(err, &terr) {
				err = &transport.Error{Op: "send", URL: url, Err: err}
			}
			if !c.hooks.fail(err) {
				c.logger.Warn("FormManager: "+err.Error(), "url", url)
			}
			return
		}
		c.logger.Debug("submission complete", "url", url, "status", resp.StatusCode, "bytes", len(resp.Body))
		c.hooks.complete(resp.Body)
	})
}

// Reset clears text, email, textarea and single-select values, unchecks
// checkboxes and deactivates the error container. File inputs and their
// compressed images are left as they are.
func (c *Controller) Reset() {
	controls, err := c.form.QueryAll(dom.ControlsSelector)
	if err != nil {
		c.logger.Error("FormManager: reset form", "error", err)
		return
	}
	for _, control := range controls {
		field := control.Field()
		if !form.Resettable(field) {
			continue
		}
		if field.Type == form.TypeCheckbox {
			control.SetChecked(false)
			continue
		}
		control.SetValue("")
	}
	c.hideError()
}

// Compression returns the compressed data URL currently recorded for the
// file input named name.
func (c *Controller) Compression(name string) (string, bool) {
	inputs, err := c.form.QueryAll(fileSelector)
	if err != nil {
		return "", false
	}
	for _, input := range inputs {
		if input.AttrOr("name") == name {
			return c.store.Lookup(input.Key())
		}
	}
	return "", false
}

// Wait blocks until scheduled compression, verification and submission
// work has finished, when the scheduler supports waiting.
func (c *Controller) Wait() {
	if w, ok := c.scheduler.(loop.Waiter); ok {
		w.Wait()
	}
}

func (c *Controller) showError(message string) {
	if c.errorContainer == nil {
		return
	}
	c.errorContainer.AddClass(activeClass)
	if err := c.errorContainer.SetInnerHTML(message); err != nil {
		c.logger.Warn("FormManager: write error message", "error", err)
	}
}

func (c *Controller) hideError() {
	if c.errorContainer == nil {
		return
	}
	c.errorContainer.RemoveClass(activeClass)
}

func (c *Controller) control(key string) *dom.Element {
	controls, err := c.form.QueryAll(dom.ControlsSelector)
	if err != nil {
		return nil
	}
	for _, control := range controls {
		if control.Key() == key {
			return control
		}
	}
	return nil
}

func (c *Controller) context(ctx context.Context) context.Context {
	if ctx == nil {
		return c.ctx
	}
	return ctx
}
