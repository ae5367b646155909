// Package config resolves the per-form configuration the controller is built
// with. Raw options can come from code or from JSON/YAML files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Form is the resolved configuration. It is treated as immutable once a
// controller has been built with it.
type Form struct {
	ImageCompression bool
	RecaptchaURL     string
	AutoSubmit       bool
	ErrorContainer   string
}

// Default returns the configuration used when no option is supplied.
func Default() Form {
	return Form{ImageCompression: true, AutoSubmit: true}
}

// Options carries raw, possibly partial settings. Nil pointers mean "unset".
type Options struct {
	ImageCompression *bool   `json:"imageCompression" yaml:"imageCompression"`
	RecaptchaURL     *string `json:"recaptchaUrl" yaml:"recaptchaUrl"`
	Submit           *bool   `json:"submit" yaml:"submit"`
	ErrorContainer   *string `json:"errorContainer" yaml:"errorContainer"`
}

// Resolve applies defaults to the unset options.
func (o Options) Resolve() Form {
	cfg := Default()
	if o.ImageCompression != nil {
		cfg.ImageCompression = *o.ImageCompression
	}
	if o.RecaptchaURL != nil {
		cfg.RecaptchaURL = strings.TrimSpace(*o.RecaptchaURL)
	}
	if o.Submit != nil {
		cfg.AutoSubmit = *o.Submit
	}
	if o.ErrorContainer != nil {
		cfg.ErrorContainer = strings.TrimSpace(*o.ErrorContainer)
	}
	return cfg
}

// Merge overlays the set fields of other on top of o.
func (o Options) Merge(other Options) Options {
	out := o
	if other.ImageCompression != nil {
		out.ImageCompression = other.ImageCompression
	}
	if other.RecaptchaURL != nil {
		out.RecaptchaURL = other.RecaptchaURL
	}
	if other.Submit != nil {
		out.Submit = other.Submit
	}
	if other.ErrorContainer != nil {
		out.ErrorContainer = other.ErrorContainer
	}
	return out
}

// Bool returns a pointer to v, for building Options literals.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for building Options literals.
func String(v string) *string { return &v }

// ErrEmpty is returned when a configuration document has no content.
var ErrEmpty = errors.New("config: document is empty")

// Parse decodes JSON or YAML options. source is only used in error messages.
func Parse(data []byte, source string) (Options, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Options{}, fmt.Errorf("%w: %s", ErrEmpty, source)
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err == nil {
		return opts, nil
	}

	opts = Options{}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return opts, nil
}

// LoadFile reads options from a JSON or YAML file on disk.
func LoadFile(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFS reads options from name inside fsys.
func LoadFS(fsys fs.FS, name string) (Options, error) {
	if fsys == nil {
		return Options{}, errors.New("config: filesystem is not configured")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Options{}, fmt.Errorf("config: read %s: %w", name, err)
	}
	return Parse(data, name)
}
