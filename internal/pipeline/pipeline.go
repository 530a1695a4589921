// Package pipeline turns a Config into wired components, runs one session and
// records its manifest.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/reelcut/internal/domain/clips"
	"github.com/forPelevin/reelcut/internal/domain/highlights"
	"github.com/forPelevin/reelcut/internal/domain/segments"
	"github.com/forPelevin/reelcut/internal/domain/source"
	"github.com/forPelevin/reelcut/internal/domain/subtitles"
	"github.com/forPelevin/reelcut/internal/domain/transcript"
	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/ports/adapters/cohere"
	"github.com/forPelevin/reelcut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/reelcut/internal/ports/adapters/localblob"
	"github.com/forPelevin/reelcut/internal/ports/adapters/memblob"
	"github.com/forPelevin/reelcut/internal/ports/adapters/openai"
	"github.com/forPelevin/reelcut/internal/ports/adapters/s3blob"
	"github.com/forPelevin/reelcut/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/reelcut/internal/ports/adapters/youtubeapi"
	"github.com/forPelevin/reelcut/internal/ports/adapters/ytdlp"
	"github.com/forPelevin/reelcut/internal/types"
	"github.com/forPelevin/reelcut/internal/usecase"
)

const (
	ProviderAuto   = ""
	ProviderOpenAI = "openai"
	ProviderCohere = "cohere"
	ProviderNone   = "none"
)

type Config struct {
	URL          string
	Reels        int
	Style        string
	Format       string
	ClipDuration time.Duration
	Concurrency  int
	Burn         bool
	Cleanup      bool
	Logger       *slog.Logger

	// WorkDir holds short-lived encode workspaces. Empty uses the OS temp dir.
	WorkDir string

	// Storage: S3 when S3.Bucket is set, else MockStorage, else a local
	// directory per run under StoreDir.
	S3          s3blob.Config
	StoreDir    string
	PublicURL   string
	MockStorage bool

	FFmpegPath  string
	FFprobePath string
	YTDLPPath   string

	// WhisperModel enables local transcription when captions are missing.
	WhisperBin   string
	WhisperModel string

	YouTubeAPIKey string

	AIProvider         string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIBaseURL      string
	OpenAIAllowedHosts []string
	CohereAPIKey       string
	CohereModel        string
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return errors.New("video url is empty")
	}
	if !source.Validate(c.URL) {
		return fmt.Errorf("%w: unrecognized video url %q", types.ErrInvalidInput, c.URL)
	}
	if c.Reels <= 0 {
		return fmt.Errorf("reels must be > 0")
	}
	if c.ClipDuration < 0 {
		return fmt.Errorf("clip duration must be >= 0")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0")
	}
	if _, err := subtitles.ParseFormat(c.Format); err != nil {
		return err
	}
	if !knownStyle(c.Style) {
		return fmt.Errorf("unknown subtitle style %q (want one of %s)", c.Style, strings.Join(subtitles.StyleNames(), ", "))
	}
	switch strings.ToLower(c.AIProvider) {
	case ProviderAuto, ProviderNone:
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderCohere:
		if c.CohereAPIKey == "" {
			return errors.New("COHERE_API_KEY is required for the cohere provider")
		}
	default:
		return fmt.Errorf("unknown AI provider %q (want openai, cohere or none)", c.AIProvider)
	}
	return openai.ValidateBaseURL(c.OpenAIBaseURL, c.OpenAIAllowedHosts)
}

func knownStyle(name string) bool {
	if name == "" {
		return true
	}
	for _, s := range subtitles.StyleNames() {
		if strings.EqualFold(strings.TrimSpace(name), s) {
			return true
		}
	}
	return false
}

// Outcome is a finished session plus where its manifest was stored.
type Outcome struct {
	Session  types.Session
	Manifest types.BlobRef
}

func Run(ctx context.Context, cfg Config) (Outcome, error) {
	log := logging.OrDiscard(cfg.Logger)
	format, err := subtitles.ParseFormat(cfg.Format)
	if err != nil {
		return Outcome{}, err
	}

	store, mode, err := newStore(ctx, cfg, time.Now().UTC())
	if err != nil {
		return Outcome{}, fmt.Errorf("blob store: %w", err)
	}
	ai := newCompleter(cfg, log)
	enc := newEncoder(cfg, log)
	meta, streams, captions := newSources(ctx, cfg, log)
	log.Info("pipeline wired",
		"storage", mode, "ai", ai != nil, "encoder", enc != nil, "metadata", meta != nil, "streams", streams != nil)

	uc := usecase.New(usecase.Deps{
		Source: source.New(source.Deps{
			Metadata: meta, Streams: streams, Store: store, Logger: log,
		}, source.Options{}),
		Transcript: transcript.New(captions, 0, log),
		Segments:   segments.New(segments.Options{}, log),
		Scorer:     highlights.New(highlights.Deps{AI: ai, Logger: log}),
		Clips: clips.New(clips.Deps{Store: store, Encoder: enc, Logger: log}, clips.Options{
			WorkDir:        cfg.WorkDir,
			MaxClipSeconds: cfg.ClipDuration.Seconds(),
		}),
		Subtitles: subtitles.NewEngine(subtitles.Deps{AI: ai, Store: store, Encoder: enc, Logger: log}, subtitles.Options{
			WorkDir: cfg.WorkDir,
		}),
		Store:  store,
		Logger: log,
	}, usecase.Options{
		Strategy: usecase.StrategyFor(cfg.Concurrency),
		Storage:  mode,
	})

	sess, err := uc.Run(ctx, usecase.Request{
		URL:           cfg.URL,
		NumberOfReels: cfg.Reels,
		Style:         cfg.Style,
		Format:        format,
		Burn:          cfg.Burn,
		Cleanup:       cfg.Cleanup,
	})
	if err != nil {
		return Outcome{}, err
	}

	ref, err := writeManifest(ctx, store, sess)
	if err != nil {
		// The reels exist; a missing manifest only loses the index.
		log.Warn("manifest not stored", "session_id", sess.ID, "error", err)
		return Outcome{Session: sess}, nil
	}
	log.Info("manifest written", "session_id", sess.ID, "key", ref.Key, "url", ref.URL)
	return Outcome{Session: sess, Manifest: ref}, nil
}

func ManifestKey(sessionID string) string {
	return "sessions/" + sessionID + "/manifest.json"
}

func writeManifest(ctx context.Context, store ports.BlobStore, sess types.Session) (types.BlobRef, error) {
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return types.BlobRef{}, fmt.Errorf("marshal manifest: %w", err)
	}
	return store.Put(ctx, ManifestKey(sess.ID), b, "application/json")
}

func newStore(ctx context.Context, cfg Config, now time.Time) (ports.BlobStore, types.StorageMode, error) {
	switch {
	case cfg.S3.Bucket != "":
		s, err := s3blob.New(ctx, cfg.S3)
		if err != nil {
			return nil, "", err
		}
		return s, types.StorageDurable, nil
	case cfg.MockStorage:
		return memblob.New(cfg.PublicURL), types.StorageMock, nil
	default:
		root := cfg.StoreDir
		if root == "" {
			root = "out"
		}
		id, _ := source.ExtractID(cfg.URL)
		s, err := localblob.New(localblob.Config{Root: buildRunOutDir(root, id, now), PublicURL: cfg.PublicURL})
		if err != nil {
			return nil, "", err
		}
		return s, types.StorageLocal, nil
	}
}

// newCompleter returns nil when AI is disabled or no provider is configured;
// every stage then takes its deterministic path.
func newCompleter(cfg Config, log *slog.Logger) ports.Completer {
	provider := strings.ToLower(cfg.AIProvider)
	if provider == ProviderAuto {
		switch {
		case cfg.OpenAIAPIKey != "":
			provider = ProviderOpenAI
		case cfg.CohereAPIKey != "":
			provider = ProviderCohere
		default:
			provider = ProviderNone
		}
	}
	switch provider {
	case ProviderOpenAI:
		a := openai.New(openai.Config{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL})
		log.Debug("ai provider selected", "provider", provider, "model", a.Model())
		return a
	case ProviderCohere:
		a := cohere.New(cohere.Config{APIKey: cfg.CohereAPIKey, Model: cfg.CohereModel})
		log.Debug("ai provider selected", "provider", provider, "model", a.Model())
		return a
	default:
		log.Info("ai disabled, using heuristic ranking and verbatim subtitles")
		return nil
	}
}

func newEncoder(cfg Config, log *slog.Logger) ports.Encoder {
	ff := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	if err := ff.Available(); err != nil {
		log.Warn("encoder unavailable, clips will be placeholders", "error", err)
		return nil
	}
	return ff
}

// newSources prefers the Data API for metadata when a key is configured;
// yt-dlp covers metadata otherwise and provides streams and captions, with
// whisper.cpp behind the captions when a model is configured.
func newSources(ctx context.Context, cfg Config, log *slog.Logger) (ports.MetadataSource, ports.StreamSource, ports.TranscriptSource) {
	var (
		meta     ports.MetadataSource
		streams  ports.StreamSource
		captions ports.TranscriptSource
	)
	yt := ytdlp.New(cfg.YTDLPPath, cfg.WorkDir)
	if err := yt.Available(); err != nil {
		log.Warn("yt-dlp unavailable, source media and captions disabled", "error", err)
	} else {
		meta, streams, captions = yt, yt, yt
		if cfg.WhisperModel != "" {
			asr := whispercpp.New(whispercpp.Config{Bin: cfg.WhisperBin, Model: cfg.WhisperModel, WorkDir: cfg.WorkDir, Audio: yt})
			if err := asr.Available(); err != nil {
				log.Warn("local transcription disabled", "error", err)
			} else {
				captions = transcript.Sources{yt, asr}
			}
		}
	}
	if cfg.YouTubeAPIKey != "" {
		api, err := youtubeapi.New(ctx, youtubeapi.Config{APIKey: cfg.YouTubeAPIKey})
		if err != nil {
			log.Warn("youtube data api unavailable", "error", err)
		} else {
			meta = api
		}
	}
	return meta, streams, captions
}

func buildRunOutDir(outRoot, sourceID string, now time.Time) string {
	name := normalizePathSegment(sourceID)
	if name == "" {
		name = "video"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", sourceID, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var (
	_ ports.BlobStore        = (*s3blob.Store)(nil)
	_ ports.BlobStore        = (*localblob.Adapter)(nil)
	_ ports.BlobStore        = (*memblob.Adapter)(nil)
	_ ports.Completer        = (*openai.Adapter)(nil)
	_ ports.Completer        = (*cohere.Adapter)(nil)
	_ ports.Encoder          = (*ffmpeg.Adapter)(nil)
	_ ports.MetadataSource   = (*youtubeapi.Client)(nil)
	_ ports.MetadataSource   = (*ytdlp.Adapter)(nil)
	_ ports.StreamSource     = (*ytdlp.Adapter)(nil)
	_ ports.TranscriptSource = (*ytdlp.Adapter)(nil)
	_ ports.TranscriptSource = (*whispercpp.Adapter)(nil)
	_ ports.TranscriptSource = transcript.Sources(nil)

	_ whispercpp.AudioFetcher = (*ytdlp.Adapter)(nil)
)
