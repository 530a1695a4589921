// Package clips cuts highlight windows out of the source video as vertical
// clips.
package clips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path"
	"time"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
	"github.com/forPelevin/reelcut/internal/workspace"
)

const DefaultRenderTimeout = 5 * time.Minute

type Deps struct {
	Store   ports.BlobStore
	Encoder ports.Encoder
	Logger  *slog.Logger
}

type Options struct {
	WorkDir       string
	RenderTimeout time.Duration
	// MaxClipSeconds caps each window; zero keeps the highlight length.
	MaxClipSeconds float64
}

type Renderer struct {
	d   Deps
	o   Options
	log *slog.Logger
	now func() time.Time
}

func New(d Deps, o Options) *Renderer {
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = DefaultRenderTimeout
	}
	return &Renderer{d: d, o: o, log: logging.WithComponent(d.Logger, "clips"), now: time.Now}
}

// Render extracts [start, end) of h from source as a 9:16 clip. It always
// returns a clip carrying h's id; when encoding is impossible the clip points
// at the source media and is marked degraded.
func (r *Renderer) Render(ctx context.Context, h types.Highlight, source types.BlobRef, transcript string) types.Result[types.RenderedClip] {
	start, end := Window(h, r.o.MaxClipSeconds)
	stamp := r.now().UnixMilli()
	clip := types.RenderedClip{
		ID:              h.ID,
		MediaRef:        source,
		Filename:        fmt.Sprintf("%s-%d.mp4", h.ID, stamp),
		DurationSeconds: end - start,
		Transcript:      transcript,
		Keywords:        h.Keywords,
	}
	log := r.log.With("reel_id", h.ID)

	if r.d.Encoder == nil {
		ref, err := r.placeholder(ctx, clip, source, start, end, stamp)
		if err != nil {
			log.Warn("placeholder descriptor not stored", "error", err)
		}
		clip.PlaceholderRef = ref
		clip.Filename = sourceFilename(source, clip.Filename)
		return types.Degrade(clip, "no encoder")
	}

	ref, dur, err := r.encode(ctx, source, start, end, "clips/"+clip.Filename)
	if err != nil {
		log.Warn("clip render failed, using source media", "error", err)
		clip.Filename = sourceFilename(source, clip.Filename)
		return types.Degradef(clip, "render: %v", err)
	}
	clip.MediaRef = ref
	if dur > 0 {
		clip.DurationSeconds = dur
	}
	log.Info("clip rendered", "key", ref.Key, "start_s", start, "end_s", end)
	return types.OK(clip)
}

// sourceFilename names the media a degraded clip points at.
func sourceFilename(source types.BlobRef, fallback string) string {
	if source.Key == "" {
		return fallback
	}
	return path.Base(source.Key)
}

// Window returns the highlight bounds with the end capped at start+maxClip
// when maxClip > 0.
func Window(h types.Highlight, maxClip float64) (float64, float64) {
	start, end := math.Max(0, h.StartSeconds), h.EndSeconds
	if maxClip > 0 {
		end = math.Min(end, start+maxClip)
	}
	return start, end
}

func (r *Renderer) encode(ctx context.Context, source types.BlobRef, start, end float64, key string) (types.BlobRef, float64, error) {
	if !(end > start) {
		return types.BlobRef{}, 0, fmt.Errorf("%w: empty window [%v, %v)", types.ErrInvalidInput, start, end)
	}
	ws, err := workspace.Open(r.o.WorkDir, "clip-*", r.d.Store)
	if err != nil {
		return types.BlobRef{}, 0, err
	}
	defer ws.Close()

	in, err := ws.Fetch(ctx, source.Key, "source.mp4")
	if err != nil {
		return types.BlobRef{}, 0, err
	}
	out := ws.Path("clip.mp4")

	rctx, cancel := context.WithTimeout(ctx, r.o.RenderTimeout)
	defer cancel()
	if err := r.d.Encoder.ExtractVertical(rctx, in, seconds(start), seconds(end), out); err != nil {
		return types.BlobRef{}, 0, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	var dur float64
	if d, err := r.d.Encoder.ProbeDuration(rctx, out); err == nil {
		dur = d.Seconds()
	}
	ref, err := ws.Upload(ctx, "clip.mp4", key, "video/mp4")
	if err != nil {
		return types.BlobRef{}, 0, err
	}
	return ref, dur, nil
}

type descriptor struct {
	ID              string        `json:"id"`
	Placeholder     bool          `json:"placeholder"`
	Source          types.BlobRef `json:"source"`
	StartSeconds    float64       `json:"start_seconds"`
	EndSeconds      float64       `json:"end_seconds"`
	DurationSeconds float64       `json:"duration_seconds"`
	AspectRatio     string        `json:"aspect_ratio"`
	Transcript      string        `json:"transcript"`
	Keywords        []string      `json:"keywords"`
	Note            string        `json:"note"`
}

func (r *Renderer) placeholder(ctx context.Context, clip types.RenderedClip, source types.BlobRef, start, end float64, stamp int64) (types.BlobRef, error) {
	if r.d.Store == nil {
		return types.BlobRef{}, errors.New("no blob store")
	}
	b, err := json.MarshalIndent(descriptor{
		ID:              clip.ID,
		Placeholder:     true,
		Source:          source,
		StartSeconds:    start,
		EndSeconds:      end,
		DurationSeconds: clip.DurationSeconds,
		AspectRatio:     "9:16",
		Transcript:      clip.Transcript,
		Keywords:        clip.Keywords,
		Note:            "no media encoder available; play the source between start and end",
	}, "", "  ")
	if err != nil {
		return types.BlobRef{}, err
	}
	return r.d.Store.Put(ctx, fmt.Sprintf("clips/%s-%d.json", clip.ID, stamp), b, "application/json")
}

func seconds(s float64) time.Duration { return time.Duration(math.Round(s*1000)) * time.Millisecond }
