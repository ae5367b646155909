package form

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

const defaultCheckedValue = "on"

// Entry is one name/value pair of a submission payload. File entries carry a
// File; text entries carry Value.
type Entry struct {
	Name  string
	Value string
	File  *File
}

// IsFile reports whether the entry carries a file.
func (e Entry) IsFile() bool {
	return e.File != nil
}

// Payload is an ordered multipart form body, built with the same rules a
// browser applies when collecting form data.
type Payload struct {
	entries []Entry
}

// Append adds a text entry.
func (p *Payload) Append(name, value string) {
	p.entries = append(p.entries, Entry{Name: name, Value: value})
}

// AppendFile adds a file entry.
func (p *Payload) AppendFile(name string, file File) {
	f := file
	p.entries = append(p.entries, Entry{Name: name, File: &f})
}

// Delete removes every entry with the given name.
func (p *Payload) Delete(name string) {
	kept := p.entries[:0]
	for _, entry := range p.entries {
		if entry.Name != name {
			kept = append(kept, entry)
		}
	}
	p.entries = kept
}

// Get returns the first entry with the given name.
func (p Payload) Get(name string) (Entry, bool) {
	for _, entry := range p.entries {
		if entry.Name == name {
			return entry, true
		}
	}
	return Entry{}, false
}

// GetAll returns every entry with the given name in order.
func (p Payload) GetAll(name string) []Entry {
	var out []Entry
	for _, entry := range p.entries {
		if entry.Name == name {
			out = append(out, entry)
		}
	}
	return out
}

// Entries returns a copy of the payload entries.
func (p Payload) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Len reports the number of entries.
func (p Payload) Len() int {
	return len(p.entries)
}

// WriteMultipart encodes the payload as multipart/form-data and returns the
// content type including the boundary.
func (p Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, entry := range p.entries {
		if !entry.IsFile() {
			if err := mw.WriteField(entry.Name, entry.Value); err != nil {
				return "", fmt.Errorf("form: write field %q: %w", entry.Name, err)
			}
			continue
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(entry.Name), escapeQuotes(entry.File.Name)))
		contentType := entry.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("form: create part %q: %w", entry.Name, err)
		}
		if _, err := part.Write(entry.File.Data); err != nil {
			return "", fmt.Errorf("form: write part %q: %w", entry.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("form: close multipart writer: %w", err)
	}
	return mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// CollectPayload gathers the submittable controls of a snapshot. Unnamed and
// disabled controls are skipped, as are buttons; checkboxes and radios only
// contribute when checked; a file input without a selection contributes an
// empty unnamed file.
func CollectPayload(snapshot Snapshot) Payload {
	var p Payload
	for _, field := range snapshot.Fields {
		if field.Name == "" || field.Disabled {
			continue
		}
		switch field.Type {
		case TypeSubmit, TypeButton, TypeReset, TypeImage:
			continue
		case TypeCheckbox, TypeRadio:
			if !field.Checked {
				continue
			}
			value := field.Value
			if value == "" {
				value = defaultCheckedValue
			}
			p.Append(field.Name, value)
		case TypeSelectMultiple:
			for _, value := range field.Selected {
				p.Append(field.Name, value)
			}
		case TypeFile:
			if len(field.Files) == 0 {
				p.AppendFile(field.Name, File{ContentType: "application/octet-stream"})
				continue
			}
			for _, file := range field.Files {
				p.AppendFile(field.Name, file)
			}
		default:
			p.Append(field.Name, field.Value)
		}
	}
	return p
}

// CompressionLookup resolves the compressed payload recorded for an input. It
// is called at most once per image input and may consume the record.
type CompressionLookup func(key string) (string, bool)

// BuildSubmission collects the payload and swaps in compressed images. For
// each image file input with a record, every entry under its name is removed
// and the compressed value is appended under the same name. The substituted
// fields are returned so the caller can clear their displayed value.
func BuildSubmission(snapshot Snapshot, lookup CompressionLookup) (Payload, []Field) {
	p := CollectPayload(snapshot)
	if lookup == nil {
		return p, nil
	}

	var substituted []Field
	for _, field := range snapshot.FileFields() {
		if field.Name == "" || !field.AcceptsImages() {
			continue
		}
		compressed, ok := lookup(field.Key)
		if !ok {
			continue
		}
		p.Delete(field.Name)
		p.Append(field.Name, compressed)
		substituted = append(substituted, field)
	}
	return p, substituted
}
