package cohere

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer co-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" Short|Punchy ","generation_id":"g1","finish_reason":"COMPLETE"}`)
	}))
	defer srv.Close()

	a := New(Config{APIKey: "co-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	out, err := a.Complete(context.Background(), "be brief", "rewrite this", 0.8)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Short|Punchy" {
		t.Fatalf("unexpected text %q", out)
	}
	if got["message"] != "rewrite this" || got["preamble"] != "be brief" || got["model"] != DefaultModel || got["temperature"] != 0.8 {
		t.Fatalf("unexpected request body: %v", got)
	}
}

func TestComplete_Empty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"   "}`)
	}))
	defer srv.Close()

	a := New(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := a.Complete(context.Background(), "s", "u", 0.7); err == nil {
		t.Fatal("expected error for blank text")
	}
}
