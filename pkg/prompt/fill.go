// Package prompt fills a bound form interactively from a terminal. Each
// control is asked for in document order; answers are written back into the
// DOM adapter so the controller sees them exactly as typed input.
package prompt

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formmanager/pkg/dom"
	"github.com/goliatone/go-formmanager/pkg/form"
)

// FileLoader turns a path typed by the user into a selected file.
type FileLoader func(path string) (form.File, error)

// Filler asks for every control of a form.
type Filler struct {
	driver Driver
	load   FileLoader
	logger *slog.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithFileLoader overrides how file paths are read.
func WithFileLoader(load FileLoader) Option {
	return func(f *Filler) {
		if load != nil {
			f.load = load
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New builds a Filler using the survey driver unless overridden.
func New(options ...Option) *Filler {
	f := &Filler{load: form.LoadFile, logger: slog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill prompts for each enabled, named control of formEl. Hidden inputs and
// buttons are skipped; radios sharing a name are asked once. File answers
// are selected on the input, which fires its change listeners.
func (f *Filler) Fill(ctx context.Context, formEl *dom.Element) error {
	if formEl == nil {
		return ErrNoForm
	}
	controls, err := formEl.QueryAll(dom.ControlsSelector)
	if err != nil {
		return err
	}

	radios := map[string][]*dom.Element{}
	var order []*dom.Element
	for _, control := range controls {
		field := control.Field()
		if field.Name == "" || field.Disabled {
			continue
		}
		switch field.Type {
		case form.TypeSubmit, form.TypeButton, form.TypeReset, form.TypeImage, "hidden":
			continue
		case form.TypeRadio:
			if _, seen := radios[field.Name]; !seen {
				order = append(order, control)
			}
			radios[field.Name] = append(radios[field.Name], control)
			continue
		}
		order = append(order, control)
	}

	for _, control := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		field := control.Field()
		var err error
		if field.Type == form.TypeRadio {
			err = f.askRadio(ctx, field, radios[field.Name])
		} else {
			err = f.ask(ctx, control, field)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) ask(ctx context.Context, control *dom.Element, field form.Field) error {
	message := labelOf(control, field)
	help := control.AttrOr("placeholder")

	switch field.Type {
	case form.TypeCheckbox:
		checked, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: field.Checked, Help: help})
		if err != nil {
			return err
		}
		control.SetChecked(checked)
	case form.TypeSelectOne:
		options := control.Options()
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, field.Value),
			Help:         help,
		})
		if err != nil {
			return err
		}
		if idx >= 0 && idx < len(options) {
			control.SetValue(options[idx])
		}
	case form.TypeSelectMultiple:
		options := control.Options()
		idx, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  options,
			Defaults: indicesOf(options, field.Selected),
			Help:     help,
		})
		if err != nil {
			return err
		}
		control.SelectOptions(defaultsFromIndices(options, idx)...)
	case form.TypeTextarea:
		value, err := f.driver.TextArea(ctx, TextAreaConfig{
			Message:   message,
			Default:   field.Value,
			Help:      help,
			Validator: validator(field),
		})
		if err != nil {
			return err
		}
		control.SetValue(value)
	case form.TypeFile:
		return f.askFile(ctx, control, field, message)
	case "password":
		value, err := f.driver.Password(ctx, InputConfig{Message: message, Help: help, Validator: validator(field)})
		if err != nil {
			return err
		}
		control.SetValue(value)
	default:
		value, err := f.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   field.Value,
			Help:      help,
			Validator: validator(field),
		})
		if err != nil {
			return err
		}
		control.SetValue(value)
	}
	return nil
}

func (f *Filler) askRadio(ctx context.Context, field form.Field, group []*dom.Element) error {
	options := make([]string, 0, len(group))
	current := -1
	for i, radio := range group {
		options = append(options, radio.Value())
		if radio.Checked() {
			current = i
		}
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      labelOf(group[0], field),
		Options:      options,
		DefaultIndex: current,
	})
	if err != nil {
		return err
	}
	for i, radio := range group {
		radio.SetChecked(i == idx)
	}
	return nil
}

func (f *Filler) askFile(ctx context.Context, control *dom.Element, field form.Field, message string) error {
	help := "Path to a file"
	if field.Accept != "" {
		help += " (" + field.Accept + ")"
	}
	for {
		path, err := f.driver.Input(ctx, InputConfig{Message: message, Help: help})
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return nil
		}
		file, err := f.load(path)
		if err == nil {
			control.SelectFiles(ctx, file)
			return nil
		}
		f.logger.Warn("prompt: load file", "field", field.Name, "path", path, "error", err)
		if infoErr := f.driver.Info(ctx, err.Error()); infoErr != nil {
			return infoErr
		}
	}
}

// validator mirrors the controller's field rules so the user is asked again
// instead of failing at submit.
func validator(field form.Field) func(string) error {
	if !field.Required {
		return nil
	}
	return func(answer string) error {
		candidate := field
		candidate.Value = answer
		failures := form.CheckField(candidate)
		if len(failures) == 0 {
			return nil
		}
		if msg := failures[0].Message; msg != "" {
			return errors.New(msg)
		}
		return errors.New(string(failures[0].Rule) + " check failed")
	}
}

func labelOf(control *dom.Element, field form.Field) string {
	if id := control.AttrOr("id"); id != "" {
		if label, err := control.Document().Query("label[for='" + id + "']"); err == nil && label != nil {
			if text := strings.TrimSpace(label.Text()); text != "" {
				return text
			}
		}
	}
	return field.Name
}
