package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formmanager/internal/fetch"
	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/prompt"
)

const signupPage = `<!doctype html>
<html><body>
<form id="signup" action="%ACTION%" method="post">
  <div id="form-errors"></div>
  <input type="email" name="email" value="%EMAIL%" required data-error-msg="Email is invalid">
  <button type="submit">Send</button>
</form>
</body></html>`

func writePage(t *testing.T, action, email string) string {
	t.Helper()
	markup := strings.NewReplacer("%ACTION%", action, "%EMAIL%", email).Replace(signupPage)
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o600))
	return path
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	if a == nil {
		a = &app{}
	}
	root := a.root()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func echoServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got = r.FormValue("email")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(server.Close)
	return server, &got
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, nil, "validate", "--page", writePage(t, "/signup", "ada@example.com"), "--selector", "#signup")
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out)

	out, err = run(t, nil, "validate", "--page", writePage(t, "/signup", ""), "--selector", "#signup")
	require.ErrorIs(t, err, errValidation)
	assert.Contains(t, out, "Email is invalid")
	assert.Contains(t, out, "failing checks")
}

func TestValidateCommand_MissingForm(t *testing.T) {
	_, err := run(t, nil, "validate", "--page", writePage(t, "/signup", ""), "--selector", "#nope")
	require.Error(t, err)
}

func TestSubmitCommand(t *testing.T) {
	server, got := echoServer(t)

	out, err := run(t, nil, "submit", "--page", writePage(t, server.URL, "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", out)
	assert.Equal(t, "ada@example.com", *got)
}

func TestSubmitCommand_Invalid(t *testing.T) {
	server, got := echoServer(t)

	out, err := run(t, nil, "submit", "--page", writePage(t, server.URL, "not-an-email"))
	require.ErrorIs(t, err, errValidation)
	assert.Contains(t, out, "Email is invalid")
	assert.Empty(t, *got)
}

func TestSubmitCommand_BadFileFlag(t *testing.T) {
	_, err := run(t, nil, "submit", "--page", writePage(t, "/x", "ada@example.com"), "--file", "avatar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name=path")
}

func TestSubmitCommand_ValidatesOnce(t *testing.T) {
	var checks atomic.Int32
	recaptcha := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		checks.Add(1)
		_, _ = io.WriteString(w, "verified")
	}))
	t.Cleanup(recaptcha.Close)
	server, got := echoServer(t)

	cfgPath := filepath.Join(t.TempDir(), "form.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("recaptchaUrl: "+recaptcha.URL+"\n"), 0o600))

	out, err := run(t, nil, "submit", "--config", cfgPath, "--page", writePage(t, server.URL, "not-an-email"))
	require.ErrorIs(t, err, errValidation)
	assert.Contains(t, out, "Email is invalid")
	assert.Equal(t, int32(1), checks.Load())
	assert.Empty(t, *got)

	checks.Store(0)
	out, err = run(t, nil, "submit", "--config", cfgPath, "--page", writePage(t, server.URL, "ada@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "{\"ok\":true}\n", out)
	assert.Equal(t, int32(1), checks.Load())
}

func TestSubmitCommand_RemotePageAndConfig(t *testing.T) {
	page := strings.NewReplacer("%ACTION%", "/signup", "%EMAIL%", "ada@example.com").Replace(signupPage)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page.html":
			_, _ = io.WriteString(w, page)
		case "/form.json":
			_, _ = io.WriteString(w, `{"submit": false}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	out, err := run(t, nil, "submit", "--page", server.URL+"/page.html", "--config", server.URL+"/form.json")
	require.NoError(t, err)
	assert.Equal(t, "OK (submission disabled)\n", out)

	_, err = run(t, nil, "validate", "--page", server.URL+"/missing.html")
	var status *fetch.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusNotFound, status.StatusCode)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report(&buf, form.Result{OK: true}))
	assert.Equal(t, "OK\n", buf.String())

	buf.Reset()
	require.ErrorIs(t, report(&buf, form.Result{}), errValidation)
	assert.Equal(t, "form could not be validated\n", buf.String())

	buf.Reset()
	failure := form.Failure{Field: "email", Rule: form.RuleEmail}
	result := form.Result{First: &failure, Failures: []form.Failure{failure}}
	require.ErrorIs(t, report(&buf, result), errValidation)
	assert.Equal(t, "email failed email check (1 failing checks)\n", buf.String())
}

type answerDriver struct {
	prompt.Driver
	answer string
	asked  []string
}

func (d *answerDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	d.asked = append(d.asked, cfg.Message)
	if cfg.Validator != nil {
		if err := cfg.Validator(d.answer); err != nil {
			return "", err
		}
	}
	return d.answer, nil
}

func TestFillCommand(t *testing.T) {
	server, got := echoServer(t)
	driver := &answerDriver{answer: "grace@example.com"}

	out, err := run(t, &app{driver: driver}, "fill", "--page", writePage(t, server.URL, ""))
	require.NoError(t, err)
	assert.Len(t, driver.asked, 1)
	assert.Equal(t, "{\"ok\":true}\n", out)
	assert.Equal(t, "grace@example.com", *got)
}

const noteSpec = `
openapi: 3.0.3
info: {title: Notes, version: "1.0.0"}
paths:
  /notes:
    post:
      operationId: createNote
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              required: [title]
              properties:
                title: {type: string}
      responses:
        "201": {description: created}
`

func TestOpenAPICommand(t *testing.T) {
	specPath := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(noteSpec), 0o600))

	out, err := run(t, nil, "openapi", "--spec", specPath, "--operation", "createNote", "--server", "https://api.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `action="https://api.example.com/notes"`)
	assert.Contains(t, out, `name="title"`)

	target := filepath.Join(t.TempDir(), "form.html")
	out, err = run(t, nil, "openapi", "--spec", specPath, "--operation", "createNote", "--output", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Form written to")
	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(written), "<form")
}
