package subtitles

import (
	"strings"

	"github.com/forPelevin/reelcut/internal/types"
)

const (
	// Separator delimits model-rewritten subtitle segments.
	Separator = "|"

	CueSeconds  = 3
	WordsPerCue = 5
)

// Segment splits text into sequential 3s cues. Text containing Separator is
// treated as model output (one cue per piece, enhanced); anything else is cut
// every WordsPerCue words. Timing is index-derived, not audio-aligned.
func Segment(text string) []types.SubtitleCue {
	if strings.Contains(text, Separator) {
		var out []types.SubtitleCue
		for _, part := range strings.Split(text, Separator) {
			part = oneLine(part)
			if part == "" {
				continue
			}
			i := len(out)
			out = append(out, types.SubtitleCue{
				StartSeconds: float64(i * CueSeconds),
				EndSeconds:   float64((i + 1) * CueSeconds),
				Text:         part,
				Enhanced:     true,
			})
		}
		return out
	}

	words := strings.Fields(text)
	out := make([]types.SubtitleCue, 0, (len(words)+WordsPerCue-1)/WordsPerCue)
	for i := 0; i < len(words); i += WordsPerCue {
		j := min(i+WordsPerCue, len(words))
		n := i / WordsPerCue
		out = append(out, types.SubtitleCue{
			StartSeconds: float64(n * CueSeconds),
			EndSeconds:   float64((n + 1) * CueSeconds),
			Text:         strings.Join(words[i:j], " "),
		})
	}
	return out
}
