package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeSource struct {
	text string
	err  error
}

func (f fakeSource) Transcript(ctx context.Context, _ string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("expected bounded context")
	}
	return f.text, f.err
}

func TestFetch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		src    *fakeSource
		want   string
		wantOK bool
	}{
		{name: "no source"},
		{name: "error", src: &fakeSource{err: errors.New("no captions")}},
		{name: "blank", src: &fakeSource{text: " \n\t "}},
		{name: "normalized", src: &fakeSource{text: "hello\n  world "}, want: "hello world", wantOK: true},
	}
	for _, tc := range cases {
		var p *Provider
		if tc.src == nil {
			p = New(nil, time.Second, nil)
		} else {
			p = New(*tc.src, time.Second, nil)
		}
		got, ok := p.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("%s: got %q, %v", tc.name, got, ok)
		}
	}
}

func TestSources_FirstUsableWins(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s := Sources{nil, fakeSource{err: errors.New("no captions")}, fakeSource{text: "  "}, fakeSource{text: "from asr"}}
	got, err := s.Transcript(ctx, "u")
	if err != nil || got != "from asr" {
		t.Fatalf("got %q, %v", got, err)
	}

	_, err = Sources{fakeSource{err: errors.New("no captions")}, fakeSource{}}.Transcript(ctx, "u")
	if err == nil || !strings.Contains(err.Error(), "no captions") || !strings.Contains(err.Error(), "empty transcript") {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if _, err := (Sources{}).Transcript(ctx, "u"); err == nil {
		t.Fatal("expected error with no sources")
	}
}
