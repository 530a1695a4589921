// Package usecase runs one video-to-reels session end to end.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/forPelevin/reelcut/internal/domain/clips"
	"github.com/forPelevin/reelcut/internal/domain/highlights"
	"github.com/forPelevin/reelcut/internal/domain/segments"
	"github.com/forPelevin/reelcut/internal/domain/source"
	"github.com/forPelevin/reelcut/internal/domain/subtitles"
	"github.com/forPelevin/reelcut/internal/domain/transcript"
	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
)

const DefaultReels = 3

type Deps struct {
	Source     *source.Resolver
	Transcript *transcript.Provider
	Segments   *segments.Analyzer
	Scorer     *highlights.Scorer
	Clips      *clips.Renderer
	Subtitles  *subtitles.Engine
	Store      ports.BlobStore
	Logger     *slog.Logger
}

type Options struct {
	Strategy Strategy
	// Storage is the mode reported when the source was stored successfully.
	Storage types.StorageMode
}

type Usecase struct {
	d     Deps
	o     Options
	log   *slog.Logger
	newID func() string
}

func New(d Deps, o Options) *Usecase {
	if o.Strategy == nil {
		o.Strategy = Sequential{}
	}
	if o.Storage == "" {
		o.Storage = types.StorageLocal
	}
	return &Usecase{d: d, o: o, log: logging.WithComponent(d.Logger, "session"), newID: uuid.NewString}
}

type Request struct {
	URL           string
	NumberOfReels int
	Style         string
	Format        types.SubtitleFormat
	// Burn overlays subtitles on each clip; otherwise only the sidecar file is
	// produced.
	Burn bool
	// Cleanup deletes the un-subtitled clip once a burned copy exists.
	Cleanup bool
}

// Run processes one request. The returned session always holds exactly
// NumberOfReels reels; only invalid input is reported as an error.
func (u *Usecase) Run(ctx context.Context, req Request) (types.Session, error) {
	if !source.Validate(req.URL) {
		return types.Session{}, fmt.Errorf("%w: unrecognized video url %q", types.ErrInvalidInput, req.URL)
	}
	if req.NumberOfReels <= 0 {
		return types.Session{}, fmt.Errorf("%w: number of reels must be positive, got %d", types.ErrInvalidInput, req.NumberOfReels)
	}
	if req.Format == "" {
		req.Format = types.FormatSRT
	}
	style := subtitles.StyleFor(req.Style)

	sess := types.Session{ID: u.newID(), SourceURL: req.URL, Storage: u.o.Storage}
	log := u.log.With("session_id", sess.ID)

	infoRes, err := u.d.Source.FetchInfo(ctx, req.URL)
	if err != nil {
		return types.Session{}, err
	}
	info := infoRes.Value
	sess.VideoTitle = info.Title
	sess.OriginalDuration = info.DurationSeconds

	src := u.d.Source.Persist(ctx, req.URL, info)
	sess.SourceRef = src.Value.Ref
	if src.Degraded {
		sess.Storage = types.StorageMock
	}

	var text string
	if u.d.Transcript != nil {
		text, _ = u.d.Transcript.Fetch(ctx, req.URL)
	}
	segs := u.d.Segments.Partition(info, text)
	analysis := u.d.Scorer.Score(ctx, info, segs, info.DurationSeconds)
	sess.Summary = analysis.Value.Summary
	sess.ViralPotential = analysis.Value.ViralPotential
	sess.AIEnhanced = !analysis.Degraded

	top := analysis.Value.Highlights
	if len(top) > req.NumberOfReels {
		top = top[:req.NumberOfReels]
	}
	for i := range top {
		top[i].ID = u.newID()
		if top[i].TranscriptSummary == "" {
			top[i].TranscriptSummary = windowText(segs, top[i])
		}
	}
	log.Info("highlights selected",
		"requested", req.NumberOfReels, "selected", len(top), "heuristic", analysis.Value.Heuristic)

	job := reelJob{req: req, style: style, info: info, source: src.Value}
	reels := make([]types.FinalReel, req.NumberOfReels)
	u.o.Strategy.Each(ctx, req.NumberOfReels, func(ctx context.Context, i int) {
		if i >= len(top) {
			reels[i] = u.emptySlot(job, i)
			return
		}
		reels[i] = u.processSafe(ctx, job, top[i])
	})

	sess.Reels = reels
	sess.ClipsGenerated = len(reels)
	degraded := 0
	for _, r := range reels {
		if r.Degraded {
			degraded++
		}
	}
	log.Info("session finished", "reels", len(reels), "degraded", degraded, "storage", sess.Storage)
	return sess, nil
}

type reelJob struct {
	req    Request
	style  types.SubtitleStyle
	info   types.VideoInfo
	source source.Persisted
}

// processSafe turns a panic inside one reel into a degraded reel on the
// source media.
func (u *Usecase) processSafe(ctx context.Context, job reelJob, h types.Highlight) (reel types.FinalReel) {
	defer func() {
		if p := recover(); p != nil {
			u.log.Error("reel panicked", "reel_id", h.ID, "panic", p)
			reel = baseReel(h, job.source.Ref, job.source.Filename, h.Duration(), h.TranscriptSummary)
			degrade(&reel, fmt.Sprintf("panic: %v", p))
		}
	}()
	return u.process(ctx, job, h)
}

func (u *Usecase) process(ctx context.Context, job reelJob, h types.Highlight) types.FinalReel {
	reel := baseReel(h, job.source.Ref, job.source.Filename, h.Duration(), h.TranscriptSummary)
	log := u.log.With("reel_id", h.ID)
	log.Debug("reel state", "state", reel.State, "start_s", h.StartSeconds, "end_s", h.EndSeconds, "score", h.Score)

	reel.State = types.StateRendering
	log.Debug("reel state", "state", reel.State)
	clipRes := u.d.Clips.Render(ctx, h, job.source.Ref, h.TranscriptSummary)
	clip := clipRes.Value
	reel.Filename = clip.Filename
	reel.MediaRef = clip.MediaRef
	reel.DurationSeconds = clip.DurationSeconds
	if clipRes.Degraded {
		degrade(&reel, clipRes.Reason)
		log.Warn("reel degraded", "state", reel.State, "reason", reel.DegradedReason)
		return reel
	}

	reel.State = types.StateSubtitling
	log.Debug("reel state", "state", reel.State)
	reel.Title = u.d.Scorer.TitleFor(ctx, job.info.Title, h).Value

	text := u.d.Subtitles.Enhance(ctx, clip.Transcript, h.Keywords).Value
	cues := subtitles.Segment(text)
	if len(cues) == 0 {
		degrade(&reel, "no subtitle text")
		log.Warn("reel degraded", "state", reel.State, "reason", reel.DegradedReason)
		return reel
	}

	subRef, err := u.d.Subtitles.Publish(ctx, cues, job.req.Format, job.style, fmt.Sprintf("subtitles/%s.%s", h.ID, job.req.Format))
	if err != nil {
		degrade(&reel, fmt.Sprintf("subtitles: %v", err))
		log.Warn("reel degraded", "state", reel.State, "reason", reel.DegradedReason)
		return reel
	}
	reel.SubtitleRef = subRef
	reel.SubtitleCueCount = len(cues)

	if job.req.Burn && u.d.Subtitles.CanBurn() {
		key := "reels/" + h.ID + ".mp4"
		burned, err := u.d.Subtitles.BurnIn(ctx, clip.MediaRef, cues, job.style, key)
		if err != nil {
			degrade(&reel, fmt.Sprintf("burn-in: %v", err))
			log.Warn("reel degraded", "state", reel.State, "reason", reel.DegradedReason)
			return reel
		}
		if job.req.Cleanup {
			if err := u.d.Store.Delete(ctx, clip.MediaRef.Key); err != nil {
				log.Warn("intermediate clip not deleted", "key", clip.MediaRef.Key, "error", err)
			}
		}
		reel.MediaRef = burned
		reel.Filename = path.Base(key)
	}

	reel.State = types.StateCompleted
	log.Info("reel completed", "state", reel.State, "cues", reel.SubtitleCueCount, "key", reel.MediaRef.Key)
	return reel
}

// windowText joins the transcript slices of the candidate windows that
// overlap h, for highlights the model returned without text.
func windowText(segs []types.CandidateSegment, h types.Highlight) string {
	if text := highlights.OverlapText(segs, h.StartSeconds, h.EndSeconds); text != "" {
		return text
	}
	return fmt.Sprintf("Highlight at %ds", int(h.StartSeconds))
}

// emptySlot fills a requested reel that has no highlight behind it.
func (u *Usecase) emptySlot(job reelJob, i int) types.FinalReel {
	h := types.Highlight{ID: u.newID(), Keywords: []string{}}
	reel := baseReel(h, job.source.Ref, job.source.Filename, float64(job.info.DurationSeconds), "")
	degrade(&reel, "no highlight for slot")
	u.log.Warn("reel degraded", "reel_id", h.ID, "slot", i, "state", reel.State, "reason", reel.DegradedReason)
	return reel
}

func baseReel(h types.Highlight, media types.BlobRef, filename string, dur float64, transcript string) types.FinalReel {
	kw := h.Keywords
	if kw == nil {
		kw = []string{}
	}
	return types.FinalReel{
		ID:              h.ID,
		Title:           highlights.TemplateTitle(h),
		Filename:        filename,
		MediaRef:        media,
		DurationSeconds: dur,
		Score:           h.Score,
		Keywords:        kw,
		Transcript:      strings.TrimSpace(transcript),
		State:           types.StateSelected,
	}
}

// degrade moves a reel to the terminal degraded state. Whatever the reel
// already holds (clip, published subtitles) is kept.
func degrade(r *types.FinalReel, reason string) {
	r.State = types.StateDegraded
	r.Degraded = true
	r.DegradedReason = reason
}
