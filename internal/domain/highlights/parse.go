package highlights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/forPelevin/reelcut/internal/types"
)

const (
	defaultModelScore  = 5.0
	defaultViral       = 0.7
	defaultModelReason = "AI selected for engagement potential"
	defaultSummary     = "AI analysis completed"
)

// modelSegment is the schema of one model-proposed window. Pointer fields
// distinguish "missing" from zero; a field of the wrong JSON type fails the
// whole decode.
type modelSegment struct {
	Start      *float64 `json:"start"`
	End        *float64 `json:"end"`
	Score      *float64 `json:"score"`
	Keywords   []string `json:"keywords"`
	Transcript *string  `json:"transcript"`
	Reason     *string  `json:"reason"`
}

type modelAnalysis struct {
	Segments       []modelSegment `json:"segments"`
	Summary        *string        `json:"summary"`
	ViralPotential *float64       `json:"viralPotential"`
}

var errNoSegments = errors.New("no usable segments")

// parseAnalysis validates a model reply and turns it into clamped, sorted
// highlights. Any schema violation is an error.
func parseAnalysis(raw string, duration int) (types.Analysis, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return types.Analysis{}, err
	}

	var m modelAnalysis
	if body[0] == '[' {
		err = strictUnmarshal(body, &m.Segments)
	} else {
		err = strictUnmarshal(body, &m)
	}
	if err != nil {
		return types.Analysis{}, fmt.Errorf("schema: %w", err)
	}

	hs := make([]types.Highlight, 0, len(m.Segments))
	for _, seg := range m.Segments {
		h, ok := clampSegment(seg, float64(duration))
		if ok {
			hs = append(hs, h)
		}
	}
	if len(hs) == 0 {
		return types.Analysis{}, errNoSegments
	}
	Sort(hs)

	a := types.Analysis{Highlights: hs, Summary: defaultSummary, ViralPotential: defaultViral}
	if m.Summary != nil && strings.TrimSpace(*m.Summary) != "" {
		a.Summary = strings.TrimSpace(*m.Summary)
	}
	if m.ViralPotential != nil && *m.ViralPotential > 0 {
		a.ViralPotential = clamp(*m.ViralPotential, 0, 1)
	}
	return a, nil
}

func strictUnmarshal(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}

// clampSegment applies the window rules: start >= 0, end defaults to
// start+30 and is capped at duration, score moves from 1-10 to [0,1].
// Windows left empty after clamping are rejected.
func clampSegment(seg modelSegment, duration float64) (types.Highlight, bool) {
	start := 0.0
	if seg.Start != nil {
		start = math.Max(0, *seg.Start)
	}
	end := start + DefaultWindowSeconds
	if seg.End != nil && *seg.End != 0 {
		end = *seg.End
	}
	end = math.Min(duration, end)
	if !(end > start) {
		return types.Highlight{}, false
	}

	score := defaultModelScore
	if seg.Score != nil && *seg.Score != 0 {
		score = *seg.Score
	}
	kws := make([]string, 0, len(seg.Keywords))
	for _, k := range seg.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, k)
		}
	}
	if len(kws) == 0 {
		kws = []string{"engaging"}
	}
	h := types.Highlight{
		StartSeconds: start,
		EndSeconds:   end,
		Score:        clamp(score/10, 0, 1),
		Keywords:     kws,
		Reason:       defaultModelReason,
	}
	if seg.Transcript != nil {
		h.TranscriptSummary = strings.TrimSpace(*seg.Transcript)
	}
	if seg.Reason != nil && strings.TrimSpace(*seg.Reason) != "" {
		h.Reason = strings.TrimSpace(*seg.Reason)
	}
	return h, true
}

// extractJSON strips markdown fences and returns the outermost JSON object
// or array in s.
func extractJSON(s string) ([]byte, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, errors.New("empty completion")
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	open := strings.IndexAny(t, "{[")
	if open < 0 {
		return nil, fmt.Errorf("no JSON value in: %q", truncate(t, 200))
	}
	closer := "}"
	if t[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(t, closer)
	if end <= open {
		return nil, fmt.Errorf("unterminated JSON value in: %q", truncate(t, 200))
	}
	return []byte(t[open : end+1]), nil
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
