// Package segments cuts a video's timeline into fixed candidate windows for
// highlight scoring.
package segments

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/types"
)

const (
	DefaultWindowSeconds = 30
	DefaultMaxSegments   = 10

	maxKeywords = 5
)

type Options struct {
	WindowSeconds int
	MaxSegments   int
}

type Analyzer struct {
	o   Options
	log *slog.Logger
}

func New(o Options, log *slog.Logger) *Analyzer {
	if o.WindowSeconds <= 0 {
		o.WindowSeconds = DefaultWindowSeconds
	}
	if o.MaxSegments <= 0 {
		o.MaxSegments = DefaultMaxSegments
	}
	return &Analyzer{o: o, log: logging.WithComponent(log, "segments")}
}

// Partition splits [0, duration) into whole windows, at most MaxSegments of
// them. An empty transcript means none was available; each window then gets
// a placeholder naming its index and the video title.
func (a *Analyzer) Partition(info types.VideoInfo, transcript string) []types.CandidateSegment {
	total := info.DurationSeconds / a.o.WindowSeconds
	n := min(total, a.o.MaxSegments)
	if n <= 0 {
		a.log.Debug("video shorter than one window", "duration_s", info.DurationSeconds)
		return nil
	}

	words := strings.Fields(transcript)
	wps := 0.0
	if len(words) > 0 && info.DurationSeconds > 0 {
		wps = float64(len(words)) / float64(info.DurationSeconds)
	}

	out := make([]types.CandidateSegment, 0, n)
	for i := 0; i < n; i++ {
		start := i * a.o.WindowSeconds
		var slice string
		if len(words) > 0 {
			slice = sliceWords(words, wps, start, a.o.WindowSeconds)
		} else {
			slice = fmt.Sprintf("Segment %d of %s", i+1, info.Title)
		}
		out = append(out, types.CandidateSegment{
			StartSeconds:    start,
			DurationSeconds: a.o.WindowSeconds,
			TranscriptSlice: slice,
			Keywords:        Keywords(slice),
		})
	}
	a.log.Info("segments analyzed", "count", len(out), "window_s", a.o.WindowSeconds, "transcript", len(words) > 0)
	return out
}

func sliceWords(words []string, wps float64, start, window int) string {
	from := min(int(float64(start)*wps), len(words))
	to := min(int(float64(start+window)*wps), len(words))
	return strings.Join(words[from:to], " ")
}

var nonWord = regexp.MustCompile(`\W+`)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`the a an and or but in on at to for of with by is are was were
		be been being have has had do does did will would could should this that these those`) {
		stopwords[w] = struct{}{}
	}
}

// Keywords returns up to five distinct lowercase tokens longer than three
// characters that are not stopwords, in order of first appearance.
func Keywords(text string) []string {
	out := make([]string, 0, maxKeywords)
	seen := map[string]struct{}{}
	for _, w := range nonWord.Split(strings.ToLower(text), -1) {
		if len(w) <= 3 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
