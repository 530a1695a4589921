// Package highlights ranks candidate windows of a video by how well they
// would work as standalone reels.
package highlights

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
)

const (
	scoreTemperature = 0.7
	titleTemperature = 0.8

	// DefaultWindowSeconds is used for a highlight whose end the model omits.
	DefaultWindowSeconds = 30
	MaxTitleRunes        = 50

	descriptionLimit = 500
)

type Deps struct {
	AI     ports.Completer
	Logger *slog.Logger
}

type Scorer struct {
	ai  ports.Completer
	log *slog.Logger
}

func New(d Deps) *Scorer {
	return &Scorer{ai: d.AI, log: logging.WithComponent(d.Logger, "highlights")}
}

// Score asks the model for ranked highlight windows and falls back to the
// heuristic ranking when the model is absent, fails, or answers outside the
// expected schema. For duration > 0 the result is never empty.
func (s *Scorer) Score(ctx context.Context, info types.VideoInfo, segs []types.CandidateSegment, duration int) types.Result[types.Analysis] {
	if s.ai == nil {
		return types.Degrade(Heuristic(segs, duration), "ai disabled")
	}

	raw, err := s.ai.Complete(ctx, scoreSystemPrompt, buildScorePrompt(info, segs), scoreTemperature)
	if err != nil {
		s.log.Warn("highlight scoring failed, using heuristic", "error", err)
		return types.Degradef(Heuristic(segs, duration), "score: %v", err)
	}
	a, err := parseAnalysis(raw, duration)
	if err != nil {
		s.log.Warn("rejected model highlights, using heuristic", "error", err)
		return types.Degradef(Heuristic(segs, duration), "score: %v", err)
	}
	s.log.Info("highlights scored", "count", len(a.Highlights), "viral_potential", a.ViralPotential)
	return types.OK(a)
}

const scoreSystemPrompt = "You are an expert social media content analyzer. Your job is to identify the most " +
	"engaging and viral-worthy segments from video content that would work well as short vertical reels."

func buildScorePrompt(info types.VideoInfo, segs []types.CandidateSegment) string {
	var b strings.Builder
	b.WriteString("Analyze this video content for the best reel segments.\n\n")
	fmt.Fprintf(&b, "Video Title: %s\n", info.Title)
	fmt.Fprintf(&b, "Video Duration: %d seconds\n", info.DurationSeconds)
	fmt.Fprintf(&b, "Description: %s\n\n", truncate(info.Description, descriptionLimit))
	b.WriteString("Transcript segments:\n")
	for _, seg := range segs {
		info, hook := Signals(seg.TranscriptSlice)
		fmt.Fprintf(&b, "%ds [info=%.1f hook=%.1f]: %s\n", seg.StartSeconds, info, hook, oneLine(seg.TranscriptSlice))
	}
	b.WriteString(`
info and hook are rough keyword signals (0-10); use them as hints only.
Identify the top 5-10 most engaging segments. Favor high emotional impact, surprising content,
clear visual storytelling, quotable moments, educational value and entertainment.

Return strictly valid JSON (no markdown, no code fences) with this shape:
{"segments":[{"start":<seconds>,"end":<seconds>,"score":<1-10>,"keywords":["..."],"transcript":"<brief summary>","reason":"<why it would go viral>"}],
 "summary":"<one sentence>","viralPotential":<0-1>}`)
	return b.String()
}

// TitleFor produces a short clickable title for h. The template title is
// used whenever the model is absent or gives nothing usable.
func (s *Scorer) TitleFor(ctx context.Context, originalTitle string, h types.Highlight) types.Result[string] {
	if s.ai == nil {
		return types.Degrade(TemplateTitle(h), "ai disabled")
	}
	user := fmt.Sprintf("Create a catchy title for this video segment.\n\n"+
		"Original title: %s\nSegment content: %s\nKeywords: %s\nWhy it's engaging: %s\n\n"+
		"Make it short (under %d characters), engaging, and optimized for social media. Reply with the title only.",
		originalTitle, h.TranscriptSummary, strings.Join(h.Keywords, ", "), h.Reason, MaxTitleRunes)
	out, err := s.ai.Complete(ctx, titleSystemPrompt, user, titleTemperature)
	if err != nil {
		s.log.Debug("title generation failed", "error", err)
		return types.Degradef(TemplateTitle(h), "title: %v", err)
	}
	t := strings.Trim(oneLine(out), `"'`+"`")
	if t == "" {
		return types.Degrade(TemplateTitle(h), "title: empty completion")
	}
	return types.OK(truncate(t, MaxTitleRunes))
}

const titleSystemPrompt = "You are a viral social media content creator. Create engaging, clickable titles " +
	"for short vertical reels that will maximize views and engagement."

// TemplateTitle picks one of five keyword templates by int(start) mod 5.
func TemplateTitle(h types.Highlight) string {
	kw := "engaging"
	if len(h.Keywords) > 0 && strings.TrimSpace(h.Keywords[0]) != "" {
		kw = strings.TrimSpace(h.Keywords[0])
	}
	templates := [...]string{
		strings.ToUpper(kw) + "! You won't believe this...",
		"This " + kw + " moment is INSANE",
		kw + " content that went VIRAL",
		"Wait for it... " + kw + " surprise!",
		kw + " hack everyone needs to see",
	}
	i := int(math.Max(0, h.StartSeconds)) % len(templates)
	return truncate(templates[i], MaxTitleRunes)
}

// Sort orders highlights by score descending, earlier start first on ties.
func Sort(hs []types.Highlight) {
	sort.SliceStable(hs, func(i, j int) bool {
		if hs[i].Score != hs[j].Score {
			return hs[i].Score > hs[j].Score
		}
		return hs[i].StartSeconds < hs[j].StartSeconds
	})
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
