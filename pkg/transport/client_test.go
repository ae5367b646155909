package transport_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formmanager/pkg/form"
	"github.com/goliatone/go-formmanager/pkg/transport"
)

func TestHTTPClient_PostsMultipartPayload(t *testing.T) {
	type received struct {
		Method   string
		Email    string
		FileName string
		FileBody string
		Token    string
	}
	var got received

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		got.Method = r.Method
		got.Email = r.FormValue("email")
		got.Token = r.Header.Get("X-Token")
		file, header, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		got.FileName = header.Filename
		got.FileBody = string(data)
		_, _ = io.WriteString(w, "thanks")
	}))
	defer server.Close()

	var payload form.Payload
	payload.Append("email", "a@b.co")
	payload.AppendFile("photo", form.File{Name: "cat.png", ContentType: "image/png", Data: []byte("png-bytes")})

	client := transport.NewHTTPClient(transport.WithHeader("X-Token", "abc"))
	resp, err := client.Post(context.Background(), server.URL, payload)
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}

	want := received{
		Method:   http.MethodPost,
		Email:    "a@b.co",
		FileName: "cat.png",
		FileBody: "png-bytes",
		Token:    "abc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(transport.Response{StatusCode: http.StatusOK, Body: "thanks"}, resp); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestHTTPClient_NonSuccessStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":"invalid"}`)
	}))
	defer server.Close()

	resp, err := transport.NewHTTPClient().Post(context.Background(), server.URL, form.Payload{})
	if err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnprocessableEntity)
	}
	if resp.Body != `{"error":"invalid"}` {
		t.Fatalf("body = %q", resp.Body)
	}
}

func TestHTTPClient_TransportFailureIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := transport.NewHTTPClient().Post(context.Background(), url, form.Payload{})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	var terr *transport.Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *transport.Error, got %T", err)
	}
	if terr.Op != "send" || terr.URL != url {
		t.Fatalf("unexpected error fields: %+v", terr)
	}
}

func TestHTTPClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := transport.NewHTTPClient(transport.WithTimeout(20*time.Millisecond)).
		Post(context.Background(), server.URL, form.Payload{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestHTTPClient_MissingURL(t *testing.T) {
	_, err := transport.NewHTTPClient().Post(context.Background(), "", form.Payload{})
	if !errors.Is(err, transport.ErrNoURL) {
		t.Fatalf("expected ErrNoURL, got %v", err)
	}
}

func TestClientFunc(t *testing.T) {
	var gotURL string
	client := transport.ClientFunc(func(_ context.Context, url string, _ form.Payload) (transport.Response, error) {
		gotURL = url
		return transport.Response{Body: "ok"}, nil
	})
	resp, err := client.Post(context.Background(), "/submit", form.Payload{})
	if err != nil || resp.Body != "ok" || gotURL != "/submit" {
		t.Fatalf("unexpected result: %+v %v %q", resp, err, gotURL)
	}
}
