package ffmpeg

import (
	"strings"
	"testing"
	"time"
)

func TestExtractArgs(t *testing.T) {
	t.Parallel()

	args := strings.Join(extractArgs("/w/src.mp4", 30*time.Second, 61500*time.Millisecond, "/w/out.mp4"), " ")
	for _, want := range []string{
		"-ss 30.000",
		"-to 61.500",
		"-i /w/src.mp4",
		"scale=1080:1920:force_original_aspect_ratio=increase",
		"crop=1080:1920",
		"-c:v libx264",
		"-c:a aac",
		"/w/out.mp4",
		"-y",
	} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q:\n%s", want, args)
		}
	}
	if strings.Index(args, "-ss") > strings.Index(args, "-i ") {
		t.Fatalf("seek must precede input for fast seeking:\n%s", args)
	}
}

func TestBurnArgs(t *testing.T) {
	t.Parallel()

	args := strings.Join(burnArgs("/w/in.mp4", "/w/subs.ass", "/w/out.mp4"), " ")
	for _, want := range []string{"-i /w/in.mp4", "ass=/w/subs.ass", "-c:a copy", "/w/out.mp4"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q:\n%s", want, args)
		}
	}
}

func TestParseProbeDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		want    time.Duration
		wantErr bool
	}{
		{name: "format", in: `{"format":{"duration":"29.500000"}}`, want: 29500 * time.Millisecond},
		{name: "streams", in: `{"streams":[{"duration":"10.0"},{"duration":"12.25"}],"format":{}}`, want: 12250 * time.Millisecond},
		{name: "missing", in: `{"format":{}}`, wantErr: true},
		{name: "garbage", in: `not json`, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseProbeDuration([]byte(tc.in))
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Fatalf("%s: got %v, %v", tc.name, got, err)
		}
	}
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	if got := fmtSeconds(1234 * time.Millisecond); got != "1.234" {
		t.Fatalf("unexpected seconds: %s", got)
	}
}
