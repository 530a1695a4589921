package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forPelevin/reelcut/internal/domain/clips"
	"github.com/forPelevin/reelcut/internal/domain/highlights"
	"github.com/forPelevin/reelcut/internal/domain/segments"
	"github.com/forPelevin/reelcut/internal/domain/source"
	"github.com/forPelevin/reelcut/internal/domain/subtitles"
	"github.com/forPelevin/reelcut/internal/domain/transcript"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/ports/adapters/memblob"
	"github.com/forPelevin/reelcut/internal/types"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

type fakeMeta struct {
	info types.VideoInfo
	err  error
}

func (f fakeMeta) VideoInfo(context.Context, string, string) (types.VideoInfo, error) {
	return f.info, f.err
}

type fakeStreams struct{ url string }

func (f fakeStreams) Formats(context.Context, string) ([]types.StreamFormat, error) {
	return []types.StreamFormat{{URL: f.url, Container: "mp4", QualityLabel: "360p", ContentLength: 11, HasVideo: true, HasAudio: true}}, nil
}

type fakeTranscript struct{ text string }

func (f fakeTranscript) Transcript(context.Context, string) (string, error) {
	if f.text == "" {
		return "", errors.New("no captions")
	}
	return f.text, nil
}

// fakeAI answers by prompt kind so one completer can serve scoring, titles
// and subtitle enhancement.
type fakeAI struct {
	err   error
	score string
}

func (f fakeAI) Complete(_ context.Context, system, _ string, _ float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	switch {
	case strings.Contains(system, "analyzer"):
		return f.score, nil
	case strings.Contains(system, "clickable titles"):
		return `"Watch this"`, nil
	default:
		return "Hook one|Hook two|Hook three", nil
	}
}

type fakeEncoder struct {
	delay   func(start time.Duration) time.Duration
	burnErr error
}

func (f fakeEncoder) ExtractVertical(_ context.Context, in string, start, _ time.Duration, out string) error {
	if f.delay != nil {
		time.Sleep(f.delay(start))
	}
	return copyFile(in, out)
}

func (f fakeEncoder) BurnSubtitles(_ context.Context, in, ass, out string) error {
	if f.burnErr != nil {
		return f.burnErr
	}
	if _, err := os.Stat(ass); err != nil {
		return err
	}
	return copyFile(in, out)
}

func (fakeEncoder) ProbeDuration(context.Context, string) (time.Duration, error) {
	return 0, errors.New("no probe")
}

func copyFile(in, out string) error {
	b, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

type env struct {
	store *memblob.Adapter
	uc    *Usecase
}

type envOptions struct {
	ai         ports.Completer
	encoder    ports.Encoder
	meta       ports.MetadataSource
	transcript string
	strategy   Strategy
	noStream   bool
}

func newEnv(t *testing.T, o envOptions) env {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	}))
	t.Cleanup(srv.Close)

	store := memblob.New("")
	var streams ports.StreamSource = fakeStreams{url: srv.URL}
	if o.noStream {
		streams = nil
	}
	if o.meta == nil {
		o.meta = fakeMeta{info: types.VideoInfo{Title: "Talk", DurationSeconds: 180, SourceID: "dQw4w9WgXcQ"}}
	}
	work := t.TempDir()

	uc := New(Deps{
		Source:     source.New(source.Deps{Metadata: o.meta, Streams: streams, Store: store, HTTP: srv.Client()}, source.Options{}),
		Transcript: transcript.New(fakeTranscript{text: o.transcript}, time.Second, nil),
		Segments:   segments.New(segments.Options{}, nil),
		Scorer:     highlights.New(highlights.Deps{AI: o.ai}),
		Clips:      clips.New(clips.Deps{Store: store, Encoder: o.encoder}, clips.Options{WorkDir: work}),
		Subtitles:  subtitles.NewEngine(subtitles.Deps{AI: o.ai, Store: store, Encoder: o.encoder}, subtitles.Options{WorkDir: work}),
		Store:      store,
	}, Options{Strategy: o.strategy, Storage: types.StorageLocal})

	var n int64
	uc.newID = func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1)) }
	return env{store: store, uc: uc}
}

func TestRun_InvalidInput(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})
	cases := []Request{
		{URL: "https://example.com/video", NumberOfReels: 3},
		{URL: "not a url", NumberOfReels: 3},
		{URL: testURL, NumberOfReels: 0},
	}
	for _, req := range cases {
		if _, err := e.uc.Run(context.Background(), req); !errors.Is(err, types.ErrInvalidInput) {
			t.Fatalf("%+v: expected invalid input, got %v", req, err)
		}
	}
}

func TestRun_HeuristicWithoutEncoder(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{})
	sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: 3, Burn: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sess.Reels) != 3 || sess.ClipsGenerated != 3 {
		t.Fatalf("expected 3 reels, got %d", len(sess.Reels))
	}
	if sess.AIEnhanced || sess.ViralPotential != 0.8 || sess.OriginalDuration != 180 || sess.VideoTitle != "Talk" {
		t.Fatalf("unexpected session metadata: %+v", sess)
	}
	if sess.Storage != types.StorageLocal || !strings.HasPrefix(sess.SourceRef.Key, "sources/dQw4w9WgXcQ-") {
		t.Fatalf("unexpected source: storage=%s ref=%+v", sess.Storage, sess.SourceRef)
	}
	for i, want := range []float64{0.9, 0.8, 0.7} {
		r := sess.Reels[i]
		if math.Abs(r.Score-want) > 1e-9 {
			t.Fatalf("reel %d: score %v, want %v", i, r.Score, want)
		}
		if !r.Degraded || r.State != types.StateDegraded || r.SubtitleCueCount != 0 {
			t.Fatalf("reel %d: expected degraded reel, got %+v", i, r)
		}
		if r.MediaRef != sess.SourceRef || r.Filename != path.Base(sess.SourceRef.Key) {
			t.Fatalf("reel %d: expected source media, got %+v / %s", i, r.MediaRef, r.Filename)
		}
		if r.DurationSeconds != 30 || len(r.Keywords) == 0 || r.Transcript == "" {
			t.Fatalf("reel %d: highlight metadata not carried: %+v", i, r)
		}
	}
}

func TestRun_CompletesWithBurnAndCleanup(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{encoder: fakeEncoder{}, transcript: strings.Repeat("word ", 360)})
	sess, err := e.uc.Run(context.Background(), Request{
		URL: testURL, NumberOfReels: 2, Style: "neon", Format: types.FormatVTT, Burn: true, Cleanup: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, r := range sess.Reels {
		if r.Degraded || r.State != types.StateCompleted {
			t.Fatalf("reel %d: expected completed, got %+v", i, r)
		}
		if r.MediaRef.Key != "reels/"+r.ID+".mp4" || r.Filename != r.ID+".mp4" {
			t.Fatalf("reel %d: unexpected media %+v / %s", i, r.MediaRef, r.Filename)
		}
		if r.SubtitleRef.Key != "subtitles/"+r.ID+".vtt" || r.SubtitleCueCount == 0 {
			t.Fatalf("reel %d: unexpected subtitles %+v (%d cues)", i, r.SubtitleRef, r.SubtitleCueCount)
		}
		if r.Title == "" || len([]rune(r.Title)) > highlights.MaxTitleRunes {
			t.Fatalf("reel %d: bad title %q", i, r.Title)
		}
		vtt, err := e.store.Get(context.Background(), r.SubtitleRef.Key)
		if err != nil || !strings.HasPrefix(string(vtt), "WEBVTT\n\n") {
			t.Fatalf("reel %d: sidecar not stored as vtt: %q %v", i, vtt, err)
		}
	}
	for _, k := range e.store.Keys() {
		if strings.HasPrefix(k, "clips/") {
			t.Fatalf("intermediate clip %s not cleaned up", k)
		}
	}
}

func TestRun_SidecarOnlyKeepsClip(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{encoder: fakeEncoder{}, ai: fakeAI{score: `{"segments":[{"start":10,"end":40,"score":9}]}`}})
	sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: 1, Format: types.FormatSRT})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r := sess.Reels[0]
	if r.Degraded || !strings.HasPrefix(r.MediaRef.Key, "clips/id-") {
		t.Fatalf("expected rendered clip without burn-in, got %+v", r)
	}
	if !sess.AIEnhanced || r.Title != "Watch this" || r.SubtitleCueCount != 3 {
		t.Fatalf("expected ai title and three enhanced cues, got %+v", r)
	}
	srt, _ := e.store.Get(context.Background(), r.SubtitleRef.Key)
	if !strings.Contains(string(srt), "00:00:03,000 --> 00:00:06,000\nHook two\n") {
		t.Fatalf("unexpected srt:\n%s", srt)
	}
}

func TestRun_BurnFailureKeepsSidecar(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{
		encoder: fakeEncoder{burnErr: errors.New("exit status 1")},
		ai:      fakeAI{score: `{"segments":[{"start":10,"end":40,"score":9}]}`},
	})
	sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: 1, Format: types.FormatSRT, Burn: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r := sess.Reels[0]
	if !r.Degraded || r.State != types.StateDegraded {
		t.Fatalf("expected degraded reel, got %+v", r)
	}
	if strings.Count(r.DegradedReason, "burn-in") != 1 || !strings.Contains(r.DegradedReason, "exit status 1") {
		t.Fatalf("unexpected reason %q", r.DegradedReason)
	}
	if r.SubtitleCueCount != 3 || r.SubtitleRef.Key != "subtitles/"+r.ID+".srt" {
		t.Fatalf("published subtitles dropped: %d cues, ref %+v", r.SubtitleCueCount, r.SubtitleRef)
	}
	if _, err := e.store.Get(context.Background(), r.SubtitleRef.Key); err != nil {
		t.Fatalf("sidecar missing: %v", err)
	}
	if !strings.HasPrefix(r.MediaRef.Key, "clips/") {
		t.Fatalf("expected the rendered clip, got %+v", r.MediaRef)
	}
}

func TestRun_SidecarASSUsesStyle(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{encoder: fakeEncoder{}, ai: fakeAI{score: `{"segments":[{"start":10,"end":40,"score":9}]}`}})
	sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: 1, Style: "neon", Format: types.FormatASS})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	ass, _ := e.store.Get(context.Background(), sess.Reels[0].SubtitleRef.Key)
	if !strings.Contains(string(ass), ",neon,,0,0,0,,") {
		t.Fatalf("sidecar events are not styled:\n%s", ass)
	}
}

func TestRun_SessionInvariant(t *testing.T) {
	t.Parallel()

	ais := map[string]ports.Completer{
		"no-ai":      nil,
		"ai-fails":   fakeAI{err: errors.New("503")},
		"ai-garbage": fakeAI{score: "sorry, I cannot help"},
		"ai-ok":      fakeAI{score: `[{"start":0,"end":20,"score":7},{"start":60,"end":90,"score":8}]`},
	}
	encoders := map[string]ports.Encoder{"no-encoder": nil, "encoder": fakeEncoder{}}
	durations := []int{0, 45, 180, 600}

	for aiName, ai := range ais {
		for encName, enc := range encoders {
			for _, d := range durations {
				for _, n := range []int{1, 3, 5} {
					t.Run(fmt.Sprintf("%s/%s/%ds/%d", aiName, encName, d, n), func(t *testing.T) {
						t.Parallel()

						meta := fakeMeta{info: types.VideoInfo{Title: "T", DurationSeconds: d, SourceID: "dQw4w9WgXcQ"}}
						e := newEnv(t, envOptions{ai: ai, encoder: enc, meta: meta})
						sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: n, Burn: true})
						if err != nil {
							t.Fatalf("run: %v", err)
						}
						if len(sess.Reels) != n {
							t.Fatalf("got %d reels, want %d", len(sess.Reels), n)
						}
						seen := map[string]bool{}
						for i, r := range sess.Reels {
							if r.ID == "" || seen[r.ID] {
								t.Fatalf("reel %d: missing or duplicate id %q", i, r.ID)
							}
							seen[r.ID] = true
							if r.Degraded != (r.State == types.StateDegraded) {
								t.Fatalf("reel %d: degraded flag and state disagree: %+v", i, r)
							}
							if r.Degraded && r.DegradedReason == "" {
								t.Fatalf("reel %d: degraded reel without reason: %+v", i, r)
							}
							if (r.SubtitleCueCount == 0) != r.SubtitleRef.IsZero() {
								t.Fatalf("reel %d: cue count and subtitle reference disagree: %+v", i, r)
							}
							if !r.Degraded && r.SubtitleCueCount == 0 {
								t.Fatalf("reel %d: completed reel without cues", i)
							}
							if r.MediaRef.IsZero() {
								t.Fatalf("reel %d: no media reference", i)
							}
						}
					})
				}
			}
		}
	}
}

func TestRun_MockStorageWhenSourceNotStored(t *testing.T) {
	t.Parallel()

	e := newEnv(t, envOptions{noStream: true, meta: fakeMeta{err: errors.New("down")}})
	sess, err := e.uc.Run(context.Background(), Request{URL: "https://youtu.be/abcdefghijk", NumberOfReels: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sess.Storage != types.StorageMock || !strings.HasPrefix(sess.SourceRef.URL, "mock://") {
		t.Fatalf("expected mock storage, got %s %+v", sess.Storage, sess.SourceRef)
	}
	if sess.VideoTitle != "Video abcdefghijk" || len(sess.Reels) != 2 {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestRun_PoolPreservesRankOrder(t *testing.T) {
	t.Parallel()

	// Earlier windows take longer so completion order is the reverse of rank.
	enc := fakeEncoder{delay: func(start time.Duration) time.Duration {
		return 50*time.Millisecond - time.Duration(start.Seconds()/4)*time.Millisecond
	}}
	e := newEnv(t, envOptions{encoder: enc, strategy: Pool{Limit: 4}})
	sess, err := e.uc.Run(context.Background(), Request{URL: testURL, NumberOfReels: 6})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(sess.Reels); i++ {
		if sess.Reels[i-1].Score < sess.Reels[i].Score {
			t.Fatalf("reels out of rank order at %d: %v < %v", i, sess.Reels[i-1].Score, sess.Reels[i].Score)
		}
	}
}

func TestStrategies_VisitEverySlot(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{StrategyFor(1), StrategyFor(0), StrategyFor(3), Pool{}} {
		var mu sync.Mutex
		seen := map[int]int{}
		s.Each(context.Background(), 7, func(_ context.Context, i int) {
			mu.Lock()
			seen[i]++
			mu.Unlock()
		})
		if len(seen) != 7 {
			t.Fatalf("%T: visited %d slots", s, len(seen))
		}
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("%T: slot %d visited %d times", s, i, c)
			}
		}
	}
	if _, ok := StrategyFor(1).(Sequential); !ok {
		t.Fatal("concurrency 1 should be sequential")
	}
	if p, ok := StrategyFor(4).(Pool); !ok || p.Limit != 4 {
		t.Fatal("concurrency 4 should be a pool of 4")
	}
}

func TestWindowText(t *testing.T) {
	t.Parallel()

	segs := []types.CandidateSegment{
		{StartSeconds: 0, DurationSeconds: 30, TranscriptSlice: "first"},
		{StartSeconds: 30, DurationSeconds: 30, TranscriptSlice: "second"},
		{StartSeconds: 60, DurationSeconds: 30, TranscriptSlice: "third"},
	}
	cases := []struct {
		start, end float64
		want       string
	}{
		{10, 40, "first second"},
		{30, 60, "second"},
		{95, 120, "Highlight at 95s"},
	}
	for _, tc := range cases {
		if got := windowText(segs, types.Highlight{StartSeconds: tc.start, EndSeconds: tc.end}); got != tc.want {
			t.Fatalf("[%v,%v): got %q want %q", tc.start, tc.end, got, tc.want)
		}
	}
}
