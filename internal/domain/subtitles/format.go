package subtitles

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// ParseFormat maps a user-supplied name to a subtitle format.
func ParseFormat(s string) (types.SubtitleFormat, error) {
	switch types.SubtitleFormat(strings.ToLower(strings.TrimSpace(s))) {
	case types.FormatSRT, "":
		return types.FormatSRT, nil
	case types.FormatVTT:
		return types.FormatVTT, nil
	case types.FormatASS:
		return types.FormatASS, nil
	default:
		return "", fmt.Errorf("%w: unknown subtitle format %q", types.ErrInvalidInput, s)
	}
}

// Render serializes cues. ASS output uses the plain Default style.
func Render(cues []types.SubtitleCue, format types.SubtitleFormat) (string, error) {
	return render(cues, format, types.SubtitleStyle{}, false)
}

// RenderStyled is Render with the named style applied to every ASS event.
// SRT and VTT carry no styling and are identical to Render.
func RenderStyled(cues []types.SubtitleCue, format types.SubtitleFormat, style types.SubtitleStyle) (string, error) {
	return render(cues, format, style, true)
}

func render(cues []types.SubtitleCue, format types.SubtitleFormat, style types.SubtitleStyle, styled bool) (string, error) {
	switch format {
	case types.FormatSRT:
		return renderSRT(cues), nil
	case types.FormatVTT:
		return renderVTT(cues), nil
	case types.FormatASS:
		return renderASS(cues, style, styled), nil
	default:
		return "", fmt.Errorf("%w: unknown subtitle format %q", types.ErrInvalidInput, format)
	}
}

func ContentType(format types.SubtitleFormat) string {
	switch format {
	case types.FormatVTT:
		return "text/vtt; charset=utf-8"
	case types.FormatASS:
		return "text/x-ssa; charset=utf-8"
	default:
		return "application/x-subrip; charset=utf-8"
	}
}

func renderSRT(cues []types.SubtitleCue) string {
	blocks := make([]string, 0, len(cues))
	for i, c := range cues {
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			i+1, clockTime(c.StartSeconds, ','), clockTime(c.EndSeconds, ','), oneLine(c.Text)))
	}
	return strings.Join(blocks, "\n")
}

func renderVTT(cues []types.SubtitleCue) string {
	blocks := make([]string, 0, len(cues))
	for _, c := range cues {
		blocks = append(blocks, fmt.Sprintf("%s --> %s\n%s\n",
			clockTime(c.StartSeconds, '.'), clockTime(c.EndSeconds, '.'), oneLine(c.Text)))
	}
	return "WEBVTT\n\n" + strings.Join(blocks, "\n")
}

// clockTime formats HH:MM:SS<sep>mmm. SRT uses ',' and VTT uses '.'.
func clockTime(sec float64, sep byte) string {
	ms := millis(sec)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms%1000)
}

func millis(sec float64) int64 {
	if sec <= 0 || math.IsNaN(sec) {
		return 0
	}
	return int64(math.Round(sec * 1000))
}

func dur(sec float64) time.Duration { return time.Duration(millis(sec)) * time.Millisecond }

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }

// ParseSRT reads SubRip cues. Cue numbers are ignored; multi-line text is
// joined with "\n".
func ParseSRT(data string) ([]types.SubtitleCue, error) {
	return parseBlocks(data, ',')
}

// ParseVTT reads WebVTT cues, skipping the header and NOTE/STYLE/REGION
// blocks. Cue settings after the end timestamp are dropped.
func ParseVTT(data string) ([]types.SubtitleCue, error) {
	data = strings.TrimPrefix(data, "\ufeff")
	if !strings.HasPrefix(strings.TrimSpace(data), "WEBVTT") {
		return nil, fmt.Errorf("%w: missing WEBVTT header", types.ErrInvalidInput)
	}
	return parseBlocks(data, '.')
}

func parseBlocks(data string, sep byte) ([]types.SubtitleCue, error) {
	data = strings.ReplaceAll(data, "\r\n", "\n")
	var (
		out   []types.SubtitleCue
		block []string
	)
	flush := func() error {
		defer func() { block = block[:0] }()
		timing := -1
		for i, ln := range block {
			if strings.Contains(ln, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			return nil
		}
		start, end, err := parseTiming(block[timing], sep)
		if err != nil {
			return err
		}
		text := strings.Join(block[timing+1:], "\n")
		out = append(out, types.SubtitleCue{StartSeconds: start, EndSeconds: end, Text: text})
		return nil
	}

	sc := bufio.NewScanner(strings.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ln := strings.TrimRight(sc.Text(), " \t")
		if ln == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 && isVTTMetaBlock(ln) {
			// swallow the whole block
			for sc.Scan() && strings.TrimSpace(sc.Text()) != "" {
			}
			continue
		}
		block = append(block, ln)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func isVTTMetaBlock(ln string) bool {
	for _, p := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if ln == p || strings.HasPrefix(ln, p+" ") || strings.HasPrefix(ln, p+"\t") {
			return true
		}
	}
	return false
}

func parseTiming(ln string, sep byte) (float64, float64, error) {
	parts := strings.SplitN(ln, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: bad timing line %q", types.ErrInvalidInput, ln)
	}
	endFields := strings.Fields(parts[1])
	if len(endFields) == 0 {
		return 0, 0, fmt.Errorf("%w: bad timing line %q", types.ErrInvalidInput, ln)
	}
	start, err := parseClock(strings.TrimSpace(parts[0]), sep)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(endFields[0], sep)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseClock accepts HH:MM:SS<sep>mmm and the VTT short form MM:SS.mmm.
func parseClock(s string, sep byte) (float64, error) {
	clock, frac, ok := strings.Cut(s, string(sep))
	if !ok {
		return 0, fmt.Errorf("%w: bad timestamp %q", types.ErrInvalidInput, s)
	}
	fields := strings.Split(clock, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("%w: bad timestamp %q", types.ErrInvalidInput, s)
	}
	var total int64
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: bad timestamp %q", types.ErrInvalidInput, s)
		}
		total = total*60 + n
	}
	ms, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || len(frac) != 3 {
		return 0, fmt.Errorf("%w: bad timestamp %q", types.ErrInvalidInput, s)
	}
	return float64(total) + float64(ms)/1000, nil
}
