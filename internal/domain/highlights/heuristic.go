package highlights

import (
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/reelcut/internal/types"
)

const (
	maxHeuristicHighlights = 8
	heuristicViral         = 0.8
	heuristicSummary       = "Heuristic analysis: evenly spaced segments ranked by position"
)

var heuristicKeywords = [...][]string{
	{"shocking", "surprising", "wow"},
	{"funny", "hilarious", "comedy"},
	{"educational", "tutorial", "howto"},
	{"inspirational", "motivational", "uplifting"},
	{"trending", "viral", "popular"},
	{"dramatic", "intense", "emotional"},
	{"creative", "artistic", "unique"},
	{"informative", "facts", "knowledge"},
}

var heuristicReasons = [...]string{
	"High emotional impact with surprising content",
	"Humorous moment likely to be shared",
	"Educational value that provides clear benefit",
	"Inspirational message with broad appeal",
	"Trending topic with viral potential",
	"Dramatic peak that hooks viewers",
	"Creative demonstration with visual appeal",
	"Informative content that answers common questions",
}

// Heuristic spreads up to eight windows evenly over the video with scores
// 0.9, 0.8, ... in timeline order. Videos shorter than one window still get
// a single highlight covering the whole video. Each window carries the text
// of the candidate segments it overlaps.
func Heuristic(segs []types.CandidateSegment, duration int) types.Analysis {
	a := types.Analysis{Summary: heuristicSummary, ViralPotential: heuristicViral, Heuristic: true}
	if duration <= 0 {
		return a
	}
	n := max(1, min(maxHeuristicHighlights, duration/DefaultWindowSeconds))
	a.Highlights = make([]types.Highlight, 0, n)
	for i := 0; i < n; i++ {
		start := math.Floor(float64(duration) / float64(n) * float64(i))
		end := math.Min(start+DefaultWindowSeconds, float64(duration))
		summary := OverlapText(segs, start, end)
		if summary == "" {
			summary = fmt.Sprintf("Engaging content segment at %ds", int(start))
		}
		a.Highlights = append(a.Highlights, types.Highlight{
			StartSeconds:      start,
			EndSeconds:        end,
			Score:             float64(9-i) / 10,
			Keywords:          append([]string(nil), heuristicKeywords[i%len(heuristicKeywords)]...),
			TranscriptSummary: summary,
			Reason:            heuristicReasons[i%len(heuristicReasons)],
		})
	}
	Sort(a.Highlights)
	return a
}

// OverlapText joins the transcript slices of the segments overlapping
// [start, end).
func OverlapText(segs []types.CandidateSegment, start, end float64) string {
	var parts []string
	for _, s := range segs {
		ss := float64(s.StartSeconds)
		se := ss + float64(s.DurationSeconds)
		if ss < end && se > start && s.TranscriptSlice != "" {
			parts = append(parts, s.TranscriptSlice)
		}
	}
	return strings.Join(parts, " ")
}
