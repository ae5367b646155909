package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formmanager/pkg/config"
)

func TestResolve_Defaults(t *testing.T) {
	got := config.Options{}.Resolve()
	want := config.Form{ImageCompression: true, AutoSubmit: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_ExplicitFalseWins(t *testing.T) {
	got := config.Options{
		ImageCompression: config.Bool(false),
		Submit:           config.Bool(false),
		RecaptchaURL:     config.String("  /verify "),
		ErrorContainer:   config.String("#errors"),
	}.Resolve()
	want := config.Form{RecaptchaURL: "/verify", ErrorContainer: "#errors"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolve mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_YAMLAndJSON(t *testing.T) {
	cases := map[string]string{
		"yaml": "imageCompression: false\nerrorContainer: '#form-errors'\n",
		"json": `{"imageCompression": false, "errorContainer": "#form-errors"}`,
	}
	want := config.Form{AutoSubmit: true, ErrorContainer: "#form-errors"}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			opts, err := config.Parse([]byte(doc), name)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(want, opts.Resolve()); diff != "" {
				t.Fatalf("resolved mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := config.Parse([]byte("  \n"), "blank.yaml"); !errors.Is(err, config.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := config.Parse([]byte("submit: [unterminated"), "bad.yaml"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFileAndFS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	if err := os.WriteFile(path, []byte("submit: false\nrecaptchaUrl: /captcha\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fromFile, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	fromFS, err := config.LoadFS(fstest.MapFS{
		"form.yaml": &fstest.MapFile{Data: []byte("submit: false\nrecaptchaUrl: /captcha\n")},
	}, "form.yaml")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	want := config.Form{ImageCompression: true, RecaptchaURL: "/captcha"}
	if diff := cmp.Diff(want, fromFile.Resolve()); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, fromFS.Resolve()); diff != "" {
		t.Fatalf("fs mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	base := config.Options{Submit: config.Bool(false), ErrorContainer: config.String("#a")}
	got := base.Merge(config.Options{ErrorContainer: config.String("#b")}).Resolve()
	want := config.Form{ImageCompression: true, ErrorContainer: "#b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
}
