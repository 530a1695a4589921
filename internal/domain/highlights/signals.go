package highlights

import (
	"regexp"
	"strings"
)

var (
	reNumber  = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`)
	reTeach   = regexp.MustCompile(`(?i)\b(how\s+to|step\s+\d+|tips?|secret|the\s+reason|here'?s\s+why)\b`)
	reEmotion = regexp.MustCompile(`(?i)\b(amazing|insane|crazy|shocking|unbelievable|never|always|love|hate|wow|omg)\b`)
	reSurface = regexp.MustCompile(`(?i)\b(wait|look|watch|listen|imagine)\b`)
)

// Signals rates a transcript slice on two rough 0-10 scales: info (numbers,
// instructional phrasing) and hook (emotional words, direct address,
// questions). Placeholder slices score zero on both.
func Signals(text string) (info, hook float64) {
	t := strings.TrimSpace(text)
	if t == "" || strings.HasPrefix(t, "Segment ") {
		return 0, 0
	}

	info = 0.4 * float64(len(reNumber.FindAllStringIndex(t, -1)))
	info += 1.2 * float64(len(reTeach.FindAllStringIndex(t, -1)))

	hook = 0.9 * float64(len(reEmotion.FindAllStringIndex(t, -1)))
	hook += 0.6 * float64(len(reSurface.FindAllStringIndex(t, -1)))
	hook += 0.7 * float64(strings.Count(t, "?"))
	hook += 0.3 * float64(strings.Count(t, "!"))

	return clamp(info, 0, 10), clamp(hook, 0, 10)
}
