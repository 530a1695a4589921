// Package whispercpp transcribes a video's audio locally with whisper.cpp
// when the platform offers no captions.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// AudioFetcher writes the audio track of url as a 16 kHz mono WAV.
type AudioFetcher interface {
	FetchAudio(ctx context.Context, url, outWAV string) error
}

type Config struct {
	Bin     string
	Model   string
	WorkDir string
	Audio   AudioFetcher
}

type Adapter struct {
	bin     string
	model   string
	workDir string
	audio   AudioFetcher
	run     func(ctx context.Context, args ...string) ([]byte, error)
}

func New(cfg Config) *Adapter {
	bin := cfg.Bin
	if bin == "" {
		bin = "whisper-cli"
	}
	a := &Adapter{bin: bin, model: cfg.Model, workDir: cfg.WorkDir, audio: cfg.Audio}
	a.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, a.bin, args...).CombinedOutput()
	}
	return a
}

func (a *Adapter) Available() error {
	if a.audio == nil {
		return errors.New("whisper.cpp: no audio source")
	}
	if _, err := exec.LookPath(a.bin); err != nil {
		return fmt.Errorf("%s not found: %w", a.bin, err)
	}
	if _, err := os.Stat(a.model); err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	return nil
}

func (a *Adapter) Transcript(ctx context.Context, url string) (string, error) {
	if a.audio == nil {
		return "", errors.New("whisper.cpp: no audio source")
	}
	if a.workDir != "" {
		if err := os.MkdirAll(a.workDir, 0o755); err != nil {
			return "", err
		}
	}
	dir, err := os.MkdirTemp(a.workDir, "asr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "audio.wav")
	if err := a.audio.FetchAudio(ctx, url, wav); err != nil {
		return "", fmt.Errorf("fetch audio: %w", err)
	}

	outPrefix := filepath.Join(dir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wav,
		"-oj",
		"-of", outPrefix,
		"-np",
	}
	if b, err := a.run(ctx, args...); err != nil {
		return "", fmt.Errorf("whisper.cpp failed: %w\n%s", err, tail(string(b), 400))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return "", err
	}
	return parseTranscription(jb)
}

// parseTranscription joins the segment texts of whisper.cpp's -oj output.
func parseTranscription(b []byte) (string, error) {
	if !gjson.ValidBytes(b) {
		return "", errors.New("whisper.cpp: invalid json output")
	}
	var parts []string
	for _, t := range gjson.GetBytes(b, "transcription.#.text").Array() {
		if s := strings.TrimSpace(t.String()); s != "" && s != "[BLANK_AUDIO]" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("whisper.cpp: empty transcription")
	}
	return strings.Join(parts, " "), nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
