package openapi

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const (
	pageTemplate     = "templates/page.tmpl"
	formTemplate     = "templates/form.tmpl"
	fieldsetTemplate = "templates/fieldset.tmpl"
	fieldTemplate    = "templates/field.tmpl"
)

// TemplatesFS exposes the embedded template bundle so callers can copy and
// adapt it for WithTemplates.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// renderer executes the form templates. Overlay files take precedence over
// the embedded bundle.
type renderer struct {
	set *pongo2.TemplateSet
}

func newRenderer(overlay fs.FS) *renderer {
	loaders := make([]pongo2.TemplateLoader, 0, 2)
	if overlay != nil {
		loaders = append(loaders, pongo2.NewFSLoader(overlay))
	}
	loaders = append(loaders, pongo2.NewFSLoader(embeddedTemplates))
	return &renderer{set: pongo2.NewSet("formmanager", loaders...)}
}

func (r *renderer) render(name string, data map[string]any) (string, error) {
	tmpl, err := r.set.FromCache(name)
	if err != nil {
		return "", fmt.Errorf("openapi: load template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", fmt.Errorf("openapi: execute template %q: %w", name, err)
	}
	return buf.String(), nil
}
