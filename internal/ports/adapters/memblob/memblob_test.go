package memblob

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestPutGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New("https://cdn.example.com/")
	ref, err := s.Put(ctx, "clips/a.mp4", []byte("abc"), "video/mp4")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if ref.Key != "clips/a.mp4" || ref.URL != "https://cdn.example.com/clips/a.mp4" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	b, err := s.Get(ctx, "clips/a.mp4")
	if err != nil || string(b) != "abc" {
		t.Fatalf("get = %q, %v", b, err)
	}
	if ct := s.ContentType("clips/a.mp4"); ct != "video/mp4" {
		t.Fatalf("content type = %q", ct)
	}
	if err := s.Delete(ctx, "clips/a.mp4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "clips/a.mp4"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
}

func TestPut_CopiesInput(t *testing.T) {
	t.Parallel()

	s := New("")
	buf := []byte("abc")
	ref, _ := s.Put(context.Background(), "k", buf, "")
	buf[0] = 'x'
	b, _ := s.Get(context.Background(), "k")
	if string(b) != "abc" {
		t.Fatalf("stored bytes aliased caller buffer: %q", b)
	}
	if ref.URL != "mem://k" {
		t.Fatalf("unexpected mem url: %q", ref.URL)
	}
}
