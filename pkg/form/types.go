package form

import (
	"strconv"
	"strings"
)

// Kind classifies a field for validation purposes.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindCheckbox Kind = "checkbox"
	KindFile     Kind = "file"
	KindOther    Kind = "other"
)

// Control types reported by the host, mirroring the DOM `type` property.
const (
	TypeText           = "text"
	TypeEmail          = "email"
	TypeCheckbox       = "checkbox"
	TypeRadio          = "radio"
	TypeFile           = "file"
	TypeTextarea       = "textarea"
	TypeSelectOne      = "select-one"
	TypeSelectMultiple = "select-multiple"
	TypeSubmit         = "submit"
	TypeButton         = "button"
	TypeReset          = "reset"
	TypeImage          = "image"
)

// File is a user-selected file attached to a file input.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size reports the file length in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Field is a read-only snapshot of one input, select or textarea element.
type Field struct {
	// Key identifies the element for the lifetime of the document. Adapters
	// assign it; the core only compares keys.
	Key string

	Name     string
	Type     string
	Value    string
	Selected []string
	Checked  bool
	Required bool
	Disabled bool
	Accept   string

	// MaxSize holds the raw data-max-size attribute (MiB).
	MaxSize string
	// ErrorMessage holds the raw data-error-msg attribute.
	ErrorMessage string

	Files []File
}

// Snapshot captures every form control in document order.
type Snapshot struct {
	Action string
	Method string
	Fields []Field
}

// FileFields returns the file inputs of the snapshot in document order.
func (s Snapshot) FileFields() []Field {
	var out []Field
	for _, field := range s.Fields {
		if field.Type == TypeFile {
			out = append(out, field)
		}
	}
	return out
}

// Constraint is the validation view derived from a field's declared
// attributes. It is recomputed on every pass.
type Constraint struct {
	Required      bool
	Kind          Kind
	MaxFileSizeMB float64
	HasMaxSize    bool
	ErrorMessage  string
}

// Constraint derives the field's validation rules.
func (f Field) Constraint() Constraint {
	c := Constraint{
		Required:     f.Required,
		Kind:         kindOf(f.Type),
		ErrorMessage: f.ErrorMessage,
	}
	if raw := strings.TrimSpace(f.MaxSize); raw != "" {
		if mb, err := strconv.ParseFloat(raw, 64); err == nil {
			c.MaxFileSizeMB = mb
			c.HasMaxSize = true
		}
	}
	return c
}

// AcceptsImages reports whether the accept attribute advertises an image type.
func (f Field) AcceptsImages() bool {
	return strings.Contains(f.Accept, "image")
}

func kindOf(typ string) Kind {
	switch strings.ToLower(typ) {
	case TypeText, TypeTextarea:
		return KindText
	case TypeEmail:
		return KindEmail
	case TypeCheckbox:
		return KindCheckbox
	case TypeFile:
		return KindFile
	default:
		return KindOther
	}
}

// Resettable reports whether Reset clears the field. File inputs are not
// part of the reset set.
func Resettable(f Field) bool {
	switch f.Type {
	case TypeText, TypeTextarea, TypeCheckbox, TypeEmail, TypeSelectOne:
		return true
	default:
		return false
	}
}
