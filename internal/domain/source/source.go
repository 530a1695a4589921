// Package source validates video URLs, resolves their metadata and media
// stream, and copies the media into the blob store.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/ports"
	"github.com/forPelevin/reelcut/internal/types"
)

const (
	DefaultMaxStreamBytes  = 100 << 20
	DefaultDownloadLimit   = 50 << 20
	DefaultDownloadTimeout = 30 * time.Second
	DefaultMetadataTimeout = 20 * time.Second

	fallbackDurationSeconds = 180
	preferredContainer      = "mp4"
	userAgent               = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type Deps struct {
	Metadata ports.MetadataSource
	Streams  ports.StreamSource
	Store    ports.BlobStore
	HTTP     *http.Client
	Logger   *slog.Logger
}

type Options struct {
	MaxStreamBytes  int64
	DownloadLimit   int64
	DownloadTimeout time.Duration
	MetadataTimeout time.Duration
	// MockBaseURL prefixes the reference handed out when the source could not
	// be stored.
	MockBaseURL string
}

type Resolver struct {
	d   Deps
	o   Options
	log *slog.Logger
	now func() time.Time
}

func New(d Deps, o Options) *Resolver {
	if o.MaxStreamBytes <= 0 {
		o.MaxStreamBytes = DefaultMaxStreamBytes
	}
	if o.DownloadLimit <= 0 {
		o.DownloadLimit = DefaultDownloadLimit
	}
	if o.DownloadTimeout <= 0 {
		o.DownloadTimeout = DefaultDownloadTimeout
	}
	if o.MetadataTimeout <= 0 {
		o.MetadataTimeout = DefaultMetadataTimeout
	}
	if o.MockBaseURL == "" {
		o.MockBaseURL = "mock://reelcut"
	}
	if d.HTTP == nil {
		d.HTTP = &http.Client{}
	}
	return &Resolver{d: d, o: o, log: logging.WithComponent(d.Logger, "source"), now: time.Now}
}

var videoURLRE = regexp.MustCompile(
	`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/)|youtu\.be/)([A-Za-z0-9_-]{6,})(?:[?&#/].*)?$`)

// ExtractID returns the video id embedded in a recognized URL.
func ExtractID(url string) (string, bool) {
	m := videoURLRE.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Validate reports whether url is a recognized video URL. It never panics.
func Validate(url string) bool {
	_, ok := ExtractID(url)
	return ok
}

// FetchInfo resolves metadata. Upstream failure yields a degraded placeholder
// built from the id in the URL; a URL without an id is invalid input.
func (r *Resolver) FetchInfo(ctx context.Context, url string) (types.Result[types.VideoInfo], error) {
	id, ok := ExtractID(url)
	if !ok {
		return types.Result[types.VideoInfo]{}, fmt.Errorf("%w: unrecognized video url %q", types.ErrInvalidInput, url)
	}
	if r.d.Metadata == nil {
		return types.Degrade(Placeholder(id), "no metadata source"), nil
	}

	mctx, cancel := context.WithTimeout(ctx, r.o.MetadataTimeout)
	defer cancel()
	info, err := r.d.Metadata.VideoInfo(mctx, url, id)
	if err != nil {
		r.log.Warn("metadata unavailable, using placeholder", "source_id", id, "error", err)
		return types.Degradef(Placeholder(id), "metadata: %v", err), nil
	}
	if info.SourceID == "" {
		info.SourceID = id
	}
	if info.DurationSeconds < 0 {
		info.DurationSeconds = 0
	}
	r.log.Info("video info resolved", "source_id", info.SourceID, "title", info.Title, "duration_s", info.DurationSeconds)
	return types.OK(info), nil
}

// Placeholder is the VideoInfo used when metadata cannot be fetched.
func Placeholder(id string) types.VideoInfo {
	return types.VideoInfo{
		Title:           "Video " + id,
		DurationSeconds: fallbackDurationSeconds,
		Description:     "Metadata for this video could not be fetched; reels were cut from a default-length timeline.",
		ThumbnailURLs:   []string{"https://img.youtube.com/vi/" + id + "/maxresdefault.jpg"},
		SourceID:        id,
	}
}

// ResolveStream picks a downloadable format: mp4 under the size ceiling
// (highest quality first), then any format under the ceiling, then the first
// one offered. The ceiling never exceeds the download limit.
func (r *Resolver) ResolveStream(ctx context.Context, url string) (types.StreamFormat, error) {
	if r.d.Streams == nil {
		return types.StreamFormat{}, fmt.Errorf("%w: no stream source", types.ErrStreamUnavailable)
	}
	formats, err := r.d.Streams.Formats(ctx, url)
	if err != nil {
		return types.StreamFormat{}, fmt.Errorf("%w: %v", types.ErrStreamUnavailable, err)
	}
	f, ok := PickFormat(formats, min(r.o.MaxStreamBytes, r.o.DownloadLimit))
	if !ok {
		return types.StreamFormat{}, fmt.Errorf("%w: no formats offered", types.ErrStreamUnavailable)
	}
	r.log.Debug("stream selected", "container", f.Container, "quality", f.QualityLabel, "bytes", f.ContentLength)
	return f, nil
}

func PickFormat(formats []types.StreamFormat, ceiling int64) (types.StreamFormat, bool) {
	var muxed []types.StreamFormat
	for _, f := range formats {
		if f.URL != "" && f.HasVideo && f.HasAudio {
			muxed = append(muxed, f)
		}
	}
	if len(muxed) == 0 {
		for _, f := range formats {
			if f.URL != "" {
				muxed = append(muxed, f)
			}
		}
	}
	if len(muxed) == 0 {
		return types.StreamFormat{}, false
	}

	under := func(f types.StreamFormat) bool { return f.ContentLength > 0 && f.ContentLength <= ceiling }
	ranked := append([]types.StreamFormat(nil), muxed...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return qualityHeight(ranked[i].QualityLabel) > qualityHeight(ranked[j].QualityLabel)
	})
	for _, f := range ranked {
		if strings.EqualFold(f.Container, preferredContainer) && under(f) {
			return f, true
		}
	}
	for _, f := range ranked {
		if under(f) {
			return f, true
		}
	}
	return muxed[0], true
}

var qualityRE = regexp.MustCompile(`(\d{3,4})p`)

func qualityHeight(label string) int {
	m := qualityRE.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

type Persisted struct {
	Ref      types.BlobRef
	Filename string
}

// Persist downloads the source media within the time and size budget and
// stores it as <id>-<unix ms>.mp4. Any failure returns a degraded mock
// reference of the same shape; nothing is written under that key.
func (r *Resolver) Persist(ctx context.Context, url string, info types.VideoInfo) types.Result[Persisted] {
	filename := fmt.Sprintf("%s-%d.mp4", info.SourceID, r.now().UnixMilli())
	key := "sources/" + filename

	ref, err := r.persist(ctx, url, key)
	if err != nil {
		mock := types.BlobRef{Key: key, URL: strings.TrimRight(r.o.MockBaseURL, "/") + "/" + key}
		r.log.Warn("source not stored, using mock reference", "key", key, "error", err)
		return types.Degradef(Persisted{Ref: mock, Filename: filename}, "persist: %v", err)
	}
	r.log.Info("source stored", "key", ref.Key)
	return types.OK(Persisted{Ref: ref, Filename: filename})
}

func (r *Resolver) persist(ctx context.Context, url, key string) (types.BlobRef, error) {
	if r.d.Store == nil {
		return types.BlobRef{}, errors.New("no blob store")
	}
	f, err := r.ResolveStream(ctx, url)
	if err != nil {
		return types.BlobRef{}, err
	}
	data, err := r.download(ctx, f.URL)
	if err != nil {
		return types.BlobRef{}, err
	}
	return r.d.Store.Put(ctx, key, data, "video/mp4")
}

func (r *Resolver) download(ctx context.Context, streamURL string) ([]byte, error) {
	dctx, cancel := context.WithTimeout(ctx, r.o.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := r.d.HTTP.Do(req)
	if err != nil {
		if errors.Is(dctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: download exceeded %s", types.ErrResourceExhausted, r.o.DownloadTimeout)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: stream status %d", types.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if resp.ContentLength > r.o.DownloadLimit {
		return nil, fmt.Errorf("%w: stream is %d bytes, limit %d", types.ErrResourceExhausted, resp.ContentLength, r.o.DownloadLimit)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.o.DownloadLimit+1))
	if err != nil {
		if errors.Is(dctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: download exceeded %s", types.ErrResourceExhausted, r.o.DownloadTimeout)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrUpstreamUnavailable, err)
	}
	if int64(len(data)) > r.o.DownloadLimit {
		return nil, fmt.Errorf("%w: stream exceeds %d bytes", types.ErrResourceExhausted, r.o.DownloadLimit)
	}
	return data, nil
}
