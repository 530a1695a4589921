package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

const (
	reelWidth  = 1080
	reelHeight = 1920
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Available reports whether both binaries resolve on PATH.
func (a *Adapter) Available() error {
	for _, bin := range []string{a.ffmpeg, a.ffprobe} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
	}
	return nil
}

// ExtractVertical cuts [start, end) from inMP4 and reframes it to 1080x1920,
// scaling to cover and center-cropping the overflow.
func (a *Adapter) ExtractVertical(ctx context.Context, inMP4 string, start, end time.Duration, outMP4 string) error {
	return a.run(ctx, "extract clip", extractArgs(inMP4, start, end, outMP4))
}

func extractArgs(inMP4 string, start, end time.Duration, outMP4 string) []string {
	in := ffmpeggo.Input(inMP4, ffmpeggo.KwArgs{"ss": fmtSeconds(start), "to": fmtSeconds(end)})
	video := in.Video().
		Filter("scale", ffmpeggo.Args{strconv.Itoa(reelWidth), strconv.Itoa(reelHeight)},
			ffmpeggo.KwArgs{"force_original_aspect_ratio": "increase"}).
		Filter("crop", ffmpeggo.Args{strconv.Itoa(reelWidth), strconv.Itoa(reelHeight)}).
		Filter("setsar", ffmpeggo.Args{"1"})
	return ffmpeggo.Output([]*ffmpeggo.Stream{video, in.Audio()}, outMP4, ffmpeggo.KwArgs{
		"c:v":      "libx264",
		"preset":   "veryfast",
		"crf":      "18",
		"c:a":      "aac",
		"b:a":      "192k",
		"movflags": "+faststart",
	}).OverWriteOutput().GetArgs()
}

// BurnSubtitles renders the ASS script onto inMP4, copying the audio track.
func (a *Adapter) BurnSubtitles(ctx context.Context, inMP4, assPath, outMP4 string) error {
	return a.run(ctx, "burn subtitles", burnArgs(inMP4, assPath, outMP4))
}

func burnArgs(inMP4, assPath, outMP4 string) []string {
	in := ffmpeggo.Input(inMP4)
	video := in.Video().Filter("ass", ffmpeggo.Args{assPath})
	return ffmpeggo.Output([]*ffmpeggo.Stream{video, in.Audio()}, outMP4, ffmpeggo.KwArgs{
		"c:v":      "libx264",
		"preset":   "veryfast",
		"crf":      "18",
		"c:a":      "copy",
		"movflags": "+faststart",
	}).OverWriteOutput().GetArgs()
}

func (a *Adapter) run(ctx context.Context, what string, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", what, err, tail(string(b), 2000))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		inMP4,
	)
	b, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeDuration(b)
}

// parseProbeDuration reads format.duration, falling back to the longest
// stream duration for containers that omit it.
func parseProbeDuration(probeJSON []byte) (time.Duration, error) {
	if !gjson.ValidBytes(probeJSON) {
		return 0, fmt.Errorf("ffprobe: invalid json output")
	}
	sec := gjson.GetBytes(probeJSON, "format.duration").Float()
	if sec <= 0 {
		for _, d := range gjson.GetBytes(probeJSON, "streams.#.duration").Array() {
			sec = max(sec, d.Float())
		}
	}
	if sec <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration in output")
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
