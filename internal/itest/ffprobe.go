//go:build integration

package itest

import (
	"fmt"
	"os/exec"

	"github.com/tidwall/gjson"
)

type probeInfo struct {
	DurationSeconds float64
	Width, Height   int64
}

func probe(mp4Path string) (probeInfo, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration:stream=width,height",
		"-of", "json",
		mp4Path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return probeInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, string(b))
	}
	doc := gjson.ParseBytes(b)
	return probeInfo{
		DurationSeconds: doc.Get("format.duration").Float(),
		Width:           doc.Get("streams.0.width").Int(),
		Height:          doc.Get("streams.0.height").Int(),
	}, nil
}
