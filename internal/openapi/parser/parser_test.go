package parser

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	pkgopenapi "github.com/goliatone/go-formmanager/pkg/openapi"
)

const uploadSpec = `
openapi: 3.0.3
info: {title: Uploads, version: "1.0.0"}
paths:
  /profiles:
    post:
      operationId: createProfile
      summary: Create profile
      requestBody:
        content:
          multipart/form-data:
            schema:
              $ref: '#/components/schemas/Profile'
            encoding:
              avatar:
                contentType: image/png, image/jpeg
      responses:
        "201": {description: created}
    get:
      responses:
        "200": {description: ok}
components:
  schemas:
    Profile:
      type: object
      required: [email, avatar]
      properties:
        email:
          type: string
          format: email
          x-error-msg: Please enter a valid email
        avatar:
          type: string
          format: binary
          x-max-size: 2
        bio:
          type: string
          maxLength: 500
`

func TestOperations_ExtractsFormBody(t *testing.T) {
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("upload.yaml"), []byte(uploadSpec))
	ops, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc)
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}

	op, ok := ops["createProfile"]
	if !ok {
		t.Fatalf("createProfile missing, got %v", keys(ops))
	}
	if _, ok := ops["get:/profiles"]; !ok {
		t.Fatalf("operation without id should be keyed by method and path, got %v", keys(ops))
	}

	maxLen := 500
	want := pkgopenapi.Operation{
		ID:        "createProfile",
		Method:    "POST",
		Path:      "/profiles",
		Summary:   "Create profile",
		MediaType: pkgopenapi.MediaTypeMultipart,
		Encoding:  map[string]string{"avatar": "image/png, image/jpeg"},
		Request: pkgopenapi.Schema{
			Ref:      "#/components/schemas/Profile",
			Type:     "object",
			Required: []string{"email", "avatar"},
			Properties: map[string]pkgopenapi.Schema{
				"email": {
					Type:       "string",
					Format:     "email",
					Extensions: map[string]any{"x-error-msg": "Please enter a valid email"},
				},
				"avatar": {
					Type:       "string",
					Format:     "binary",
					Extensions: map[string]any{"x-max-size": float64(2)},
				},
				"bio": {Type: "string", MaxLength: &maxLen},
			},
		},
	}
	if diff := cmp.Diff(want, op); diff != "" {
		t.Fatalf("operation mismatch (-want +got):\n%s", diff)
	}
}

func TestOperations_RejectsEmptyPaths(t *testing.T) {
	doc := pkgopenapi.MustNewDocument(pkgopenapi.SourceFromFile("empty.yaml"),
		[]byte("openapi: 3.0.0\ninfo: {title: t, version: '1'}\npaths: {}\n"))
	if _, err := New(pkgopenapi.NewParserOptions()).Operations(context.Background(), doc); err == nil {
		t.Fatal("expected error for document without paths")
	}
}

func keys(m map[string]pkgopenapi.Operation) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
