package openapi

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/goliatone/go-formmanager/pkg/dom"
)

// Extensions read from property schemas.
const (
	ExtensionAccept   = "x-accept"
	ExtensionMaxSize  = "x-max-size"
	ExtensionErrorMsg = "x-error-msg"
)

// DefaultErrorContainerID is the id of the error container emitted with every
// form.
const DefaultErrorContainerID = "form-errors"

// textareaThreshold is the maxLength above which a string becomes a textarea.
const textareaThreshold = 255

// ErrNoFormBody is returned when the operation does not accept a form body.
var ErrNoFormBody = errors.New("openapi: operation has no form request body")

// FormOptions tunes the generated markup.
type FormOptions struct {
	// Server is prefixed to the operation path to build the form action.
	Server string
	// ID overrides the form id; defaults to the operation id.
	ID string
	// ErrorContainerID overrides the error container id.
	ErrorContainerID string
	// SubmitLabel is the submit button text.
	SubmitLabel string
	// Templates overlays the embedded templates; files missing from it fall
	// back to the embedded ones.
	Templates fs.FS
}

// FormOption mutates FormOptions.
type FormOption func(*FormOptions)

// WithServer sets the base URL the form posts to.
func WithServer(server string) FormOption {
	return func(o *FormOptions) {
		o.Server = strings.TrimRight(server, "/")
	}
}

// WithFormID overrides the form id.
func WithFormID(id string) FormOption {
	return func(o *FormOptions) {
		o.ID = id
	}
}

// WithErrorContainerID overrides the error container id.
func WithErrorContainerID(id string) FormOption {
	return func(o *FormOptions) {
		o.ErrorContainerID = id
	}
}

// WithSubmitLabel sets the submit button text.
func WithSubmitLabel(label string) FormOption {
	return func(o *FormOptions) {
		o.SubmitLabel = label
	}
}

// WithTemplates overlays the embedded page, form, fieldset, field and control
// templates with the files in fsys (paths under "templates/").
func WithTemplates(fsys fs.FS) FormOption {
	return func(o *FormOptions) {
		o.Templates = fsys
	}
}

func newFormOptions(op Operation, options ...FormOption) FormOptions {
	opts := FormOptions{
		ID:               op.ID,
		ErrorContainerID: DefaultErrorContainerID,
		SubmitLabel:      "Submit",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}

// RenderForm renders the <form> element for op.
func RenderForm(op Operation, options ...FormOption) (string, error) {
	if !op.HasForm() {
		return "", fmt.Errorf("%w: %s", ErrNoFormBody, op.ID)
	}
	opts := newFormOptions(op, options...)
	r := newRenderer(opts.Templates)
	return r.form(op, opts)
}

// BuildDocument wraps the generated form in a minimal HTML page and returns
// it as a bindable document.
func BuildDocument(op Operation, options ...FormOption) (*dom.Document, error) {
	markup, err := RenderPage(op, options...)
	if err != nil {
		return nil, err
	}
	return dom.ParseString(markup)
}

// RenderPage renders a minimal HTML page holding the generated form.
func RenderPage(op Operation, options ...FormOption) (string, error) {
	if !op.HasForm() {
		return "", fmt.Errorf("%w: %s", ErrNoFormBody, op.ID)
	}
	opts := newFormOptions(op, options...)
	r := newRenderer(opts.Templates)
	formMarkup, err := r.form(op, opts)
	if err != nil {
		return "", err
	}
	return r.render(pageTemplate, map[string]any{
		"title": pageTitle(op),
		"form":  formMarkup,
	})
}

func pageTitle(op Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return Label(op.ID)
}

// attrView is one attribute of a control. Flag attributes render without a
// value.
type attrView struct {
	Key   string
	Value string
	Flag  bool
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

// controlView is the template data for one field.
type controlView struct {
	Control    string // input, select or textarea
	ID         string
	Label      string
	LabelAfter bool
	Attrs      []attrView
	Options    []optionView
	Text       string
}

func (c *controlView) set(key, value string) {
	for i := range c.Attrs {
		if c.Attrs[i].Key == key {
			c.Attrs[i] = attrView{Key: key, Value: value}
			return
		}
	}
	c.Attrs = append(c.Attrs, attrView{Key: key, Value: value})
}

func (c *controlView) flag(key string) {
	c.Attrs = append(c.Attrs, attrView{Key: key, Flag: true})
}

func (c controlView) context() map[string]any {
	attrs := make([]map[string]any, 0, len(c.Attrs))
	for _, a := range c.Attrs {
		attrs = append(attrs, map[string]any{"key": a.Key, "value": a.Value, "flag": a.Flag})
	}
	options := make([]map[string]any, 0, len(c.Options))
	for _, o := range c.Options {
		options = append(options, map[string]any{"value": o.Value, "label": o.Label, "selected": o.Selected})
	}
	return map[string]any{
		"control":     c.Control,
		"id":          c.ID,
		"label":       c.Label,
		"label_after": c.LabelAfter,
		"attrs":       attrs,
		"options":     options,
		"text":        c.Text,
	}
}

func (r *renderer) form(op Operation, opts FormOptions) (string, error) {
	fields, err := r.fields(op.Request, "", op.Encoding)
	if err != nil {
		return "", err
	}
	return r.render(formTemplate, map[string]any{
		"form": map[string]any{
			"id":              opts.ID,
			"action":          opts.Server + op.Path,
			"method":          strings.ToLower(op.Method),
			"enctype":         op.MediaType,
			"error_container": opts.ErrorContainerID,
			"submit_label":    opts.SubmitLabel,
		},
		"fields": fields,
	})
}

// fields renders every property of schema in name order. Nested objects
// become fieldsets whose controls are named parent[child].
func (r *renderer) fields(schema Schema, prefix string, encoding map[string]string) ([]string, error) {
	out := make([]string, 0, len(schema.Properties))
	for _, prop := range schema.PropertyNames() {
		child := schema.Properties[prop]
		name := prop
		if prefix != "" {
			name = prefix + "[" + prop + "]"
		}

		if child.Type == "object" && len(child.Properties) > 0 {
			nested, err := r.fields(child, name, encoding)
			if err != nil {
				return nil, err
			}
			markup, err := r.render(fieldsetTemplate, map[string]any{
				"legend": labelFor(name, child),
				"fields": nested,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, markup)
			continue
		}

		view := controlFor(name, child, schema.IsRequired(prop), encoding)
		markup, err := r.render(fieldTemplate, map[string]any{"field": view.context()})
		if err != nil {
			return nil, err
		}
		out = append(out, markup)
	}
	return out, nil
}

func controlFor(name string, schema Schema, required bool, encoding map[string]string) controlView {
	view := controlView{
		ID:    "field-" + fieldID(name),
		Label: labelFor(name, schema),
	}
	view.set("id", view.ID)
	view.set("name", name)

	switch {
	case isBinary(schema):
		view.Control = "input"
		view.set("type", "file")
		if accept := acceptFor(name, schema, encoding); accept != "" {
			view.set("accept", accept)
		}
		if schema.Type == "array" {
			view.flag("multiple")
		}
	case len(schema.Enum) > 0:
		view.Control = "select"
		view.Options = selectOptions(schema.Enum, schema.Default, true)
	case schema.Type == "array" && schema.Items != nil && len(schema.Items.Enum) > 0:
		view.Control = "select"
		view.flag("multiple")
		view.Options = selectOptions(schema.Items.Enum, schema.Default, false)
	case schema.Type == "boolean":
		view.Control = "input"
		view.LabelAfter = true
		view.set("type", "checkbox")
		view.set("value", "true")
		if v, ok := schema.Default.(bool); ok && v {
			view.flag("checked")
		}
	case schema.Type == "string" && (schema.Format == "textarea" ||
		(schema.MaxLength != nil && *schema.MaxLength > textareaThreshold)):
		view.Control = "textarea"
		if schema.MaxLength != nil {
			view.set("maxlength", strconv.Itoa(*schema.MaxLength))
		}
		if schema.Default != nil {
			view.Text = stringify(schema.Default)
		}
	default:
		view.Control = "input"
		view.set("type", inputType(schema))
		if schema.MaxLength != nil {
			view.set("maxlength", strconv.Itoa(*schema.MaxLength))
		}
		if schema.Default != nil {
			view.set("value", stringify(schema.Default))
		}
	}

	if required {
		view.flag("required")
	}
	if msg, ok := schema.Extension(ExtensionErrorMsg); ok {
		view.set("data-error-msg", msg)
	} else if required {
		view.set("data-error-msg", view.Label+" is required")
	}
	if size, ok := schema.Extension(ExtensionMaxSize); ok {
		view.set("data-max-size", size)
	}
	return view
}

func acceptFor(name string, schema Schema, encoding map[string]string) string {
	if accept, ok := schema.Extension(ExtensionAccept); ok {
		return accept
	}
	if ct := encoding[name]; ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if schema.Items != nil {
		if accept, ok := schema.Items.Extension(ExtensionAccept); ok {
			return accept
		}
	}
	return ""
}

func isBinary(schema Schema) bool {
	if schema.Type == "string" && (schema.Format == "binary" || schema.Format == "byte") {
		return true
	}
	return schema.Type == "array" && schema.Items != nil && isBinary(*schema.Items)
}

func inputType(schema Schema) string {
	switch schema.Type {
	case "integer", "number":
		return "number"
	}
	switch schema.Format {
	case "email":
		return "email"
	case "password":
		return "password"
	case "date":
		return "date"
	case "date-time":
		return "datetime-local"
	case "uri", "url":
		return "url"
	}
	return "text"
}

func selectOptions(values []any, def any, placeholder bool) []optionView {
	selected := map[string]bool{}
	switch d := def.(type) {
	case []any:
		for _, v := range d {
			selected[stringify(v)] = true
		}
	case nil:
	default:
		selected[stringify(d)] = true
	}

	var out []optionView
	if placeholder {
		out = append(out, optionView{Value: "", Label: "Select..."})
	}
	for _, v := range values {
		value := stringify(v)
		out = append(out, optionView{Value: value, Label: Label(value), Selected: selected[value]})
	}
	return out
}

func labelFor(name string, schema Schema) string {
	if schema.Title != "" {
		return schema.Title
	}
	if i := strings.LastIndex(name, "["); i >= 0 {
		name = strings.TrimSuffix(name[i+1:], "]")
	}
	return Label(name)
}

func fieldID(name string) string {
	r := strings.NewReplacer("[", "-", "]", "", ".", "-", " ", "-")
	return r.Replace(name)
}
