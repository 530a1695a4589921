package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

func TestAssTime_Format(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0:00:00.00"},
		{in: 61*time.Second + 234*time.Millisecond, want: "0:01:01.23"},
		{in: 3*time.Second + 5*time.Millisecond, want: "0:00:03.01"},
		{in: time.Hour + 2*time.Minute + 3*time.Second, want: "1:02:03.00"},
		{in: -time.Second, want: "0:00:00.00"},
	}
	for _, tc := range cases {
		if got := assTime(tc.in); got != tc.want {
			t.Fatalf("assTime(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRender_ASSHasPreambleAndDialogue(t *testing.T) {
	t.Parallel()

	cues := Segment("Hello there|Great job|See you")
	ass, err := Render(cues, types.FormatASS)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"[Script Info]",
		"[V4+ Styles]",
		"Style: Default,Arial,24,",
		"Style: neon,Orbitron,26,",
		"[Events]",
		"Dialogue: 0,0:00:00.00,0:00:03.00,Default,,0,0,0,,Hello there",
		"Dialogue: 0,0:00:06.00,0:00:09.00,Default,,0,0,0,,See you",
	} {
		if !strings.Contains(ass, want) {
			t.Fatalf("ASS missing %q:\n%s", want, ass)
		}
	}
	if n := strings.Count(ass, "Dialogue:"); n != 3 {
		t.Fatalf("expected 3 dialogue lines, got %d", n)
	}
}

func TestRenderStyled_ASSUsesStyleAndAnimation(t *testing.T) {
	t.Parallel()

	cues := []types.SubtitleCue{{StartSeconds: 0, EndSeconds: 3, Text: "Big {news}"}}
	cases := []struct {
		style string
		tag   string
	}{
		{style: StyleModern, tag: `{\fad(250,250)}`},
		{style: StyleBold, tag: `{\t(0,150,`},
		{style: StyleNeon, tag: `{\move(180,650,180,610,0,200)}`},
		{style: StyleClassic, tag: ""},
	}
	for _, tc := range cases {
		ass, err := RenderStyled(cues, types.FormatASS, StyleFor(tc.style))
		if err != nil {
			t.Fatal(err)
		}
		line := ass[strings.Index(ass, "Dialogue:"):]
		if !strings.Contains(line, ","+tc.style+",") {
			t.Fatalf("%s: dialogue does not reference style: %q", tc.style, line)
		}
		if !strings.Contains(line, ",,"+tc.tag) || !strings.HasSuffix(line, "Big (news)") {
			t.Fatalf("%s: expected tag %q and sanitized text, got %q", tc.style, tc.tag, line)
		}
	}
}

func TestAssColour(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"#FFFF00":            "&H0000FFFF",
		"#00FFFF":            "&H00FFFF00",
		"rgba(0, 0, 0, 0.8)": "&H33000000",
		"rgba(0, 0, 0, 0.6)": "&H66000000",
		"rgba(255, 0, 0, 1)": "&H000000FF",
		"rgb(1,2,3)":         "&H00030201",
		"chartreuse":         "&H00FFFFFF",
	}
	for in, want := range cases {
		if got := assColour(in); got != want {
			t.Fatalf("assColour(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAssStyleRow_AlignmentFollowsPosition(t *testing.T) {
	t.Parallel()

	if row := assStyleRow(StyleFor(StyleBold)); !strings.Contains(row, ",1,0,0,0,100,100,0,0,3,2,0,5,") {
		t.Fatalf("bold row should be bold and centered: %s", row)
	}
	if row := assStyleRow(StyleFor(StyleClassic)); !strings.Contains(row, ",0,0,0,0,100,100,0,0,3,2,0,2,") {
		t.Fatalf("classic row should be bottom aligned: %s", row)
	}
}
