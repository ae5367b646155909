package form_test

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formmanager/pkg/form"
)

func sampleSnapshot() form.Snapshot {
	return form.Snapshot{
		Action: "/contact",
		Fields: []form.Field{
			{Key: "k0", Name: "name", Type: form.TypeText, Value: "Ada"},
			{Key: "k1", Name: "terms", Type: form.TypeCheckbox, Checked: true},
			{Key: "k2", Name: "news", Type: form.TypeCheckbox, Value: "yes"},
			{Key: "k3", Name: "tags", Type: form.TypeSelectMultiple, Selected: []string{"go", "web"}},
			{Key: "k4", Name: "secret", Type: form.TypeText, Value: "x", Disabled: true},
			{Key: "k5", Type: form.TypeText, Value: "unnamed"},
			{Key: "k6", Name: "photo", Type: form.TypeFile, Accept: "image/*",
				Files: []form.File{{Name: "cat.png", ContentType: "image/png", Data: []byte("png-bytes")}}},
			{Key: "k7", Name: "cv", Type: form.TypeFile, Accept: ".pdf"},
			{Key: "k8", Name: "send", Type: form.TypeSubmit, Value: "Send"},
		},
	}
}

func entryNames(p form.Payload) []string {
	var out []string
	for _, entry := range p.Entries() {
		out = append(out, entry.Name)
	}
	return out
}

func TestCollectPayload_FormDataRules(t *testing.T) {
	p := form.CollectPayload(sampleSnapshot())

	want := []string{"name", "terms", "tags", "tags", "photo", "cv"}
	if diff := cmp.Diff(want, entryNames(p)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}

	terms, _ := p.Get("terms")
	if terms.Value != "on" {
		t.Fatalf("expected default checkbox value 'on', got %q", terms.Value)
	}

	cv, _ := p.Get("cv")
	if !cv.IsFile() || cv.File.Name != "" || cv.File.Size() != 0 {
		t.Fatalf("expected empty file entry for unselected input, got %#v", cv)
	}
}

func TestBuildSubmission_SubstitutesCompressedImage(t *testing.T) {
	records := map[string]string{"k6": "data:image/jpeg;base64,AAAA"}
	p, substituted := form.BuildSubmission(sampleSnapshot(), func(key string) (string, bool) {
		v, ok := records[key]
		return v, ok
	})

	photos := p.GetAll("photo")
	if len(photos) != 1 {
		t.Fatalf("expected one photo entry, got %d", len(photos))
	}
	if photos[0].IsFile() {
		t.Fatalf("expected original file blob to be removed")
	}
	if photos[0].Value != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("unexpected compressed value %q", photos[0].Value)
	}
	if len(substituted) != 1 || substituted[0].Key != "k6" {
		t.Fatalf("expected photo input reported as substituted, got %#v", substituted)
	}

	names := entryNames(p)
	if names[len(names)-1] != "photo" {
		t.Fatalf("expected compressed entry appended last, got %v", names)
	}
}

func TestBuildSubmission_WithoutRecordKeepsOriginal(t *testing.T) {
	p, substituted := form.BuildSubmission(sampleSnapshot(), func(string) (string, bool) { return "", false })
	if len(substituted) != 0 {
		t.Fatalf("expected no substitution, got %#v", substituted)
	}
	photo, ok := p.Get("photo")
	if !ok || !photo.IsFile() {
		t.Fatalf("expected original file entry, got %#v", photo)
	}
	if diff := cmp.Diff([]byte("png-bytes"), photo.File.Data); diff != "" {
		t.Fatalf("file data mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSubmission_IgnoresNonImageInputs(t *testing.T) {
	records := map[string]string{"k7": "data:application/pdf;base64,AAAA"}
	_, substituted := form.BuildSubmission(sampleSnapshot(), func(key string) (string, bool) {
		v, ok := records[key]
		return v, ok
	})
	if len(substituted) != 0 {
		t.Fatalf("expected non-image input to be left alone, got %#v", substituted)
	}
}

func TestPayload_WriteMultipart(t *testing.T) {
	var p form.Payload
	p.Append("name", "Ada")
	p.AppendFile("photo", form.File{Name: `we"ird.png`, ContentType: "image/png", Data: []byte("png")})

	var buf bytes.Buffer
	contentType, err := p.WriteMultipart(&buf)
	if err != nil {
		t.Fatalf("write multipart: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("unexpected content type %q (%v)", contentType, err)
	}

	reader := multipart.NewReader(&buf, params["boundary"])
	var got []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next part: %v", err)
		}
		body, _ := io.ReadAll(part)
		got = append(got, part.FormName()+"="+string(body)+"|"+part.FileName())
	}

	want := []string{"name=Ada|", `photo=png|we"ird.png`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("parts mismatch (-want +got):\n%s", diff)
	}
}
