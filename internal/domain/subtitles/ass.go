package subtitles

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// The script canvas is 9:16 so style sizes can be given in preview pixels.
const (
	assPlayResX = 360
	assPlayResY = 640
	assMarginV  = 30
)

func renderASS(cues []types.SubtitleCue, style types.SubtitleStyle, animate bool) string {
	styleName := "Default"
	if animate {
		styleName = style.Name
	}
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	lines := make([]string, 0, len(cues))
	for _, c := range cues {
		var ln strings.Builder
		ln.WriteString("Dialogue: 0,")
		ln.WriteString(assTime(dur(c.StartSeconds)))
		ln.WriteString(",")
		ln.WriteString(assTime(dur(c.EndSeconds)))
		ln.WriteString(",")
		ln.WriteString(styleName)
		ln.WriteString(",,0,0,0,,")
		if animate {
			ln.WriteString(animationTag(style))
		}
		ln.WriteString(sanitizeASS(oneLine(c.Text)))
		lines = append(lines, ln.String())
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func assHeader() string {
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	b.WriteString("Title: Reel Subtitles\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", assPlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", assPlayResY)
	b.WriteString("ScaledBorderAndShadow: yes\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	def := StyleFor(StyleModern)
	def.Name = "Default"
	b.WriteString(assStyleRow(def))
	for _, name := range StyleNames() {
		b.WriteString("\n")
		b.WriteString(assStyleRow(StyleFor(name)))
	}
	return b.String()
}

func assStyleRow(s types.SubtitleStyle) string {
	bold := 0
	if s.Name == StyleBold {
		bold = 1
	}
	// BorderStyle 3 draws BackColour as an opaque box behind the text.
	return fmt.Sprintf("Style: %s,%s,%d,%s,&H000000FF,&H00000000,%s,%d,0,0,0,100,100,0,0,3,2,0,%d,10,10,%d,1",
		s.Name,
		primaryFont(s.FontFamily),
		s.FontSizePx,
		assColour(s.TextColor),
		assColour(s.BackgroundColor),
		bold,
		assAlignment(s.Position),
		assMarginV,
	)
}

func animationTag(s types.SubtitleStyle) string {
	switch s.Animation {
	case types.AnimationFade:
		return `{\fad(250,250)}`
	case types.AnimationSlide:
		x := assPlayResX / 2
		y := baselineY(s.Position)
		return fmt.Sprintf(`{\move(%d,%d,%d,%d,0,200)}`, x, y+40, x, y)
	case types.AnimationBounce:
		return `{\t(0,150,\fscx120\fscy120)\t(150,300,\fscx100\fscy100)}`
	default:
		return ""
	}
}

func baselineY(p types.VerticalPosition) int {
	switch p {
	case types.PositionTop:
		return assMarginV
	case types.PositionCenter:
		return assPlayResY / 2
	default:
		return assPlayResY - assMarginV
	}
}

// Numpad layout: 2 bottom-center, 5 middle-center, 8 top-center.
func assAlignment(p types.VerticalPosition) int {
	switch p {
	case types.PositionTop:
		return 8
	case types.PositionCenter:
		return 5
	default:
		return 2
	}
}

func primaryFont(family string) string {
	f := strings.TrimSpace(strings.Split(family, ",")[0])
	if f == "" {
		return "Arial"
	}
	return f
}

var rgbaRE = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)\s*(?:,\s*([0-9.]+)\s*)?\)$`)

// assColour converts "#RRGGBB" or "rgba(r, g, b, a)" into &HAABBGGRR, where
// ASS alpha 00 is opaque.
func assColour(c string) string {
	c = strings.TrimSpace(c)
	var r, g, bl, alpha int
	switch {
	case strings.HasPrefix(c, "#") && len(c) == 7:
		v, err := strconv.ParseUint(c[1:], 16, 32)
		if err != nil {
			return "&H00FFFFFF"
		}
		r, g, bl = int(v>>16&0xFF), int(v>>8&0xFF), int(v&0xFF)
	case rgbaRE.MatchString(c):
		m := rgbaRE.FindStringSubmatch(c)
		r, _ = strconv.Atoi(m[1])
		g, _ = strconv.Atoi(m[2])
		bl, _ = strconv.Atoi(m[3])
		if m[4] != "" {
			a, err := strconv.ParseFloat(m[4], 64)
			if err == nil {
				alpha = int((1-clamp01(a))*255 + 0.5)
			}
		}
	default:
		return "&H00FFFFFF"
	}
	return fmt.Sprintf("&H%02X%02X%02X%02X", alpha, bl&0xFF, g&0xFF, r&0xFF)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// assTime formats H:MM:SS.cc, rounding to the nearest centisecond.
func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(10 * time.Millisecond)
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
