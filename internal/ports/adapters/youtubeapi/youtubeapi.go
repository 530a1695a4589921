// Package youtubeapi reads video metadata from the YouTube Data API v3.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/forPelevin/reelcut/internal/types"
)

type Config struct {
	APIKey string
	// Endpoint overrides the API base URL (tests, proxies).
	Endpoint   string
	HTTPClient *http.Client
}

type Client struct {
	svc *youtube.Service
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube api key is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) VideoInfo(ctx context.Context, _ string, sourceID string) (types.VideoInfo, error) {
	resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails"}).Id(sourceID).Context(ctx).Do()
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("youtube videos.list: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return types.VideoInfo{}, fmt.Errorf("youtube: video %s not found", sourceID)
	}
	v := resp.Items[0]
	info := types.VideoInfo{
		Title:       v.Snippet.Title,
		Description: v.Snippet.Description,
		SourceID:    v.Id,
	}
	if info.SourceID == "" {
		info.SourceID = sourceID
	}
	if v.ContentDetails != nil {
		secs, err := ParseISODuration(v.ContentDetails.Duration)
		if err != nil {
			return types.VideoInfo{}, err
		}
		info.DurationSeconds = secs
	}
	info.ThumbnailURLs = thumbnails(v.Snippet.Thumbnails)
	return info, nil
}

// thumbnails lists the available renditions, largest first.
func thumbnails(td *youtube.ThumbnailDetails) []string {
	if td == nil {
		return nil
	}
	var out []string
	for _, t := range []*youtube.Thumbnail{td.Maxres, td.Standard, td.High, td.Medium, td.Default} {
		if t != nil && t.Url != "" {
			out = append(out, t.Url)
		}
	}
	return out
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts the API's ISO 8601 durations ("PT1H2M3S",
// "P1DT5M") to whole seconds.
func ParseISODuration(s string) (int, error) {
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("youtube: bad duration %q", s)
	}
	total := 0
	for i, mul := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("youtube: bad duration %q", s)
		}
		total += n * mul
	}
	return total, nil
}
