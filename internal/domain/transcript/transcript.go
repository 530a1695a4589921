// Package transcript fetches best-effort caption text for a video.
package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
)

const DefaultTimeout = 45 * time.Second

type Provider struct {
	src     ports.TranscriptSource
	timeout time.Duration
	log     *slog.Logger
}

func New(src ports.TranscriptSource, timeout time.Duration, log *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{src: src, timeout: timeout, log: logging.WithComponent(log, "transcript")}
}

// Fetch returns the transcript and true, or "" and false when none could be
// obtained. Absence is not an error.
func (p *Provider) Fetch(ctx context.Context, url string) (string, bool) {
	if p.src == nil {
		return "", false
	}
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.src.Transcript(tctx, url)
	if err != nil {
		p.log.Info("no transcript", "reason", err)
		return "", false
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		p.log.Info("no transcript", "reason", "empty")
		return "", false
	}
	p.log.Info("transcript fetched", "words", strings.Count(text, " ")+1)
	return text, true
}

// Sources tries each source in order and returns the first usable transcript.
type Sources []ports.TranscriptSource

func (s Sources) Transcript(ctx context.Context, url string) (string, error) {
	var errs []error
	for _, src := range s {
		if src == nil {
			continue
		}
		text, err := src.Transcript(ctx, url)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty transcript")
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no transcript sources")
	}
	return "", errors.Join(errs...)
}
