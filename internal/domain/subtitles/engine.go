package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
	"github.com/forPelevin/reelcut/internal/workspace"
)

const (
	enhanceTemperature = 0.8
	defaultBurnTimeout = 5 * time.Minute
)

type Deps struct {
	AI      ports.Completer
	Store   ports.BlobStore
	Encoder ports.Encoder
	Logger  *slog.Logger
}

type Options struct {
	WorkDir     string
	BurnTimeout time.Duration
}

type Engine struct {
	d   Deps
	o   Options
	log *slog.Logger
}

func NewEngine(d Deps, o Options) *Engine {
	if o.BurnTimeout <= 0 {
		o.BurnTimeout = defaultBurnTimeout
	}
	return &Engine{d: d, o: o, log: logging.WithComponent(d.Logger, "subtitles")}
}

// CanBurn reports whether an encoder is wired in.
func (e *Engine) CanBurn() bool { return e.d.Encoder != nil }

// Enhance asks the model to rewrite transcript into Separator-delimited
// short segments. Any failure returns the transcript verbatim.
func (e *Engine) Enhance(ctx context.Context, transcript string, keywords []string) types.Result[string] {
	if strings.TrimSpace(transcript) == "" {
		return types.Degrade(transcript, "empty transcript")
	}
	if e.d.AI == nil {
		return types.Degrade(transcript, "ai disabled")
	}
	out, err := e.d.AI.Complete(ctx, enhanceSystemPrompt(keywords), enhanceUserPrompt(transcript), enhanceTemperature)
	if err != nil {
		e.log.Warn("enhance failed, using verbatim transcript", "error", err)
		return types.Degradef(transcript, "enhance: %v", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return types.Degrade(transcript, "enhance: empty completion")
	}
	return types.OK(out)
}

func enhanceSystemPrompt(keywords []string) string {
	return "You are an expert at creating engaging social media content. " +
		"Rewrite video transcripts so they work as short-form reel subtitles.\n\n" +
		"Rules:\n" +
		"1. Keep the core message intact\n" +
		"2. Add engaging hooks and power words\n" +
		"3. Use strategic emojis (max 3 per sentence)\n" +
		"4. Break into short, punchy sentences\n" +
		"5. Add calls to action when appropriate\n" +
		"6. Make it feel conversational and energetic\n" +
		"7. Focus on these keywords: " + strings.Join(keywords, ", ") + "\n\n" +
		`Format the output as short subtitle-friendly segments separated by "` + Separator + `". ` +
		"Output only the segments."
}

func enhanceUserPrompt(transcript string) string {
	return fmt.Sprintf("Enhance this transcript for maximum engagement: %q", transcript)
}

// Publish renders cues in style and stores the file under key. Only ASS
// sidecars carry the style.
func (e *Engine) Publish(ctx context.Context, cues []types.SubtitleCue, format types.SubtitleFormat, style types.SubtitleStyle, key string) (types.BlobRef, error) {
	body, err := RenderStyled(cues, format, style)
	if err != nil {
		return types.BlobRef{}, err
	}
	ref, err := e.d.Store.Put(ctx, key, []byte(body), ContentType(format))
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("store subtitles: %w", err)
	}
	e.log.Debug("subtitle file stored", "key", ref.Key, "format", format, "cues", len(cues))
	return ref, nil
}

// BurnIn overlays cues on the clip stored at media using style and stores
// the result under outputKey.
func (e *Engine) BurnIn(ctx context.Context, media types.BlobRef, cues []types.SubtitleCue, style types.SubtitleStyle, outputKey string) (types.BlobRef, error) {
	if e.d.Encoder == nil {
		return types.BlobRef{}, fmt.Errorf("%w: no encoder", types.ErrUpstreamUnavailable)
	}
	if len(cues) == 0 {
		return types.BlobRef{}, fmt.Errorf("%w: no cues to burn", types.ErrInvalidInput)
	}
	ass, err := RenderStyled(cues, types.FormatASS, style)
	if err != nil {
		return types.BlobRef{}, err
	}

	ws, err := workspace.Open(e.o.WorkDir, "burn-*", e.d.Store)
	if err != nil {
		return types.BlobRef{}, err
	}
	defer ws.Close()

	in, err := ws.Fetch(ctx, media.Key, "in.mp4")
	if err != nil {
		return types.BlobRef{}, err
	}
	assPath, err := ws.WriteFile("subs.ass", []byte(ass))
	if err != nil {
		return types.BlobRef{}, err
	}

	bctx, cancel := context.WithTimeout(ctx, e.o.BurnTimeout)
	defer cancel()
	if err := e.d.Encoder.BurnSubtitles(bctx, in, assPath, ws.Path("out.mp4")); err != nil {
		return types.BlobRef{}, fmt.Errorf("%w: encoder: %v", types.ErrUpstreamUnavailable, err)
	}
	ref, err := ws.Upload(ctx, "out.mp4", outputKey, "video/mp4")
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("store burned clip: %w", err)
	}
	e.log.Info("subtitles burned", "key", ref.Key, "style", style.Name, "cues", len(cues))
	return ref, nil
}
