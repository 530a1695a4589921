// Package ytdlp resolves metadata, stream formats and captions by shelling
// out to yt-dlp.
package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/forPelevin/reelcut/internal/domain/subtitles"
	"github.com/forPelevin/reelcut/internal/types"
)

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

type Adapter struct {
	bin     string
	workDir string
	run     runFunc

	mu    sync.Mutex
	dumps map[string][]byte
}

// New returns an adapter using the yt-dlp binary at bin ("yt-dlp" when
// empty). Caption files are staged under workDir.
func New(bin, workDir string) *Adapter {
	if bin == "" {
		bin = "yt-dlp"
	}
	a := &Adapter{bin: bin, workDir: workDir, dumps: map[string][]byte{}}
	a.run = a.exec
	return a
}

func (a *Adapter) Available() error {
	if _, err := exec.LookPath(a.bin); err != nil {
		return fmt.Errorf("%s not found: %w", a.bin, err)
	}
	return nil
}

func (a *Adapter) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(lastLine(stderr.String())))
	}
	return out, nil
}

// dump returns the -J metadata document for url, running yt-dlp at most once
// per url.
func (a *Adapter) dump(ctx context.Context, url string) ([]byte, error) {
	a.mu.Lock()
	b, ok := a.dumps[url]
	a.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := a.run(ctx, "-J", "--no-playlist", "--no-warnings", url)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(b) {
		return nil, errors.New("yt-dlp: invalid json output")
	}
	a.mu.Lock()
	a.dumps[url] = b
	a.mu.Unlock()
	return b, nil
}

func (a *Adapter) VideoInfo(ctx context.Context, url, sourceID string) (types.VideoInfo, error) {
	b, err := a.dump(ctx, url)
	if err != nil {
		return types.VideoInfo{}, err
	}
	doc := gjson.ParseBytes(b)
	info := types.VideoInfo{
		Title:           doc.Get("title").String(),
		DurationSeconds: int(math.Round(doc.Get("duration").Float())),
		Description:     doc.Get("description").String(),
		SourceID:        doc.Get("id").String(),
	}
	if info.SourceID == "" {
		info.SourceID = sourceID
	}
	for _, th := range doc.Get("thumbnails.#.url").Array() {
		info.ThumbnailURLs = append(info.ThumbnailURLs, th.String())
	}
	if len(info.ThumbnailURLs) == 0 && doc.Get("thumbnail").Exists() {
		info.ThumbnailURLs = []string{doc.Get("thumbnail").String()}
	}
	if info.Title == "" {
		return types.VideoInfo{}, errors.New("yt-dlp: metadata has no title")
	}
	return info, nil
}

func (a *Adapter) Formats(ctx context.Context, url string) ([]types.StreamFormat, error) {
	b, err := a.dump(ctx, url)
	if err != nil {
		return nil, err
	}
	var out []types.StreamFormat
	gjson.GetBytes(b, "formats").ForEach(func(_, f gjson.Result) bool {
		u := f.Get("url").String()
		if u == "" || strings.HasPrefix(f.Get("protocol").String(), "m3u8") {
			return true
		}
		size := f.Get("filesize").Int()
		if size <= 0 {
			size = f.Get("filesize_approx").Int()
		}
		label := f.Get("format_note").String()
		if h := f.Get("height").Int(); h > 0 {
			label = fmt.Sprintf("%dp", h)
		}
		out = append(out, types.StreamFormat{
			URL:           u,
			Container:     f.Get("ext").String(),
			QualityLabel:  label,
			ContentLength: size,
			HasVideo:      codecPresent(f.Get("vcodec")),
			HasAudio:      codecPresent(f.Get("acodec")),
		})
		return true
	})
	return out, nil
}

func codecPresent(r gjson.Result) bool {
	return r.Exists() && r.String() != "" && r.String() != "none"
}

// Transcript downloads English captions (manual, else automatic) as VTT and
// flattens them to plain text.
func (a *Adapter) Transcript(ctx context.Context, url string) (string, error) {
	if a.workDir != "" {
		if err := os.MkdirAll(a.workDir, 0o755); err != nil {
			return "", err
		}
	}
	dir, err := os.MkdirTemp(a.workDir, "subs-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	_, err = a.run(ctx,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "vtt",
		"--no-playlist",
		"--no-warnings",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
		url,
	)
	if err != nil {
		return "", err
	}
	files, _ := filepath.Glob(filepath.Join(dir, "*.vtt"))
	if len(files) == 0 {
		return "", errors.New("yt-dlp: no captions available")
	}
	raw, err := os.ReadFile(files[0])
	if err != nil {
		return "", err
	}
	return CaptionText(string(raw))
}

// FetchAudio extracts the audio track of url to outWAV as 16 kHz mono.
func (a *Adapter) FetchAudio(ctx context.Context, url, outWAV string) error {
	tmpl := strings.TrimSuffix(outWAV, filepath.Ext(outWAV)) + ".%(ext)s"
	_, err := a.run(ctx,
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "wav",
		"--postprocessor-args", "ffmpeg:-ar 16000 -ac 1",
		"--no-playlist",
		"--no-warnings",
		"-o", tmpl,
		url,
	)
	if err != nil {
		return err
	}
	if _, err := os.Stat(outWAV); err != nil {
		return fmt.Errorf("yt-dlp: audio not written: %w", err)
	}
	return nil
}

var tagRE = regexp.MustCompile(`<[^>]+>`)

// CaptionText flattens VTT cues to text, dropping inline tags and the
// repeated lines that rolling auto-captions produce.
func CaptionText(vtt string) (string, error) {
	cues, err := subtitles.ParseVTT(vtt)
	if err != nil {
		return "", err
	}
	var parts []string
	prev := ""
	for _, c := range cues {
		for _, ln := range strings.Split(c.Text, "\n") {
			ln = strings.Join(strings.Fields(tagRE.ReplaceAllString(ln, "")), " ")
			if ln == "" || ln == prev {
				continue
			}
			parts = append(parts, ln)
			prev = ln
		}
	}
	text := strings.Join(parts, " ")
	if text == "" {
		return "", errors.New("yt-dlp: captions are empty")
	}
	return text, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
