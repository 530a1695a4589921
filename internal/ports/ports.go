package ports

import (
	"context"
	"time"

	"github.com/forPelevin/reelcut/internal/types"
)

// BlobStore is an append-only key->bytes store. Keys are unique per artifact.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (types.BlobRef, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Completer runs one chat completion. An empty string with a nil error is
// treated the same as an error by every caller.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error)
}

// Encoder works on local files; callers move bytes in and out of the blob store.
type Encoder interface {
	ExtractVertical(ctx context.Context, inMP4 string, start, end time.Duration, outMP4 string) error
	BurnSubtitles(ctx context.Context, inMP4, assPath, outMP4 string) error
	ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error)
}

type MetadataSource interface {
	VideoInfo(ctx context.Context, url, sourceID string) (types.VideoInfo, error)
}

type StreamSource interface {
	Formats(ctx context.Context, url string) ([]types.StreamFormat, error)
}

type TranscriptSource interface {
	Transcript(ctx context.Context, url string) (string, error)
}
