package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhook_Post(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	w := NewWebhook()
	if err := w.Post(context.Background(), srv.URL, "slots opened"); err != nil {
		t.Fatalf("post: %v", err)
	}

	if gotContentType != "application/json" {
		t.Fatalf("expected application/json, got %q", gotContentType)
	}
	var body map[string]string
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "slots opened" {
		t.Fatalf("unexpected payload: %v", body)
	}
}

func TestWebhook_PostNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := NewWebhook()
	if err := w.Post(context.Background(), srv.URL, "hi"); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
