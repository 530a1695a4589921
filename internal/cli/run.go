package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/reelcut/internal/logging"
	"github.com/forPelevin/reelcut/internal/pipeline"
	"github.com/forPelevin/reelcut/internal/ports/adapters/s3blob"
)

func run(cmd *cobra.Command, url string) error {
	reels, _ := cmd.Flags().GetInt("reels")
	style, _ := cmd.Flags().GetString("style")
	format, _ := cmd.Flags().GetString("format")
	clipSec, _ := cmd.Flags().GetInt("clip-duration")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	noBurn, _ := cmd.Flags().GetBool("no-burn")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	cleanup, _ := cmd.Flags().GetBool("cleanup")
	outDir, _ := cmd.Flags().GetString("out")
	mock, _ := cmd.Flags().GetBool("mock-storage")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	workDir, _ := cmd.Flags().GetString("work-dir")

	log := logging.NewLogger(cmd.ErrOrStderr(), os.Getenv("REELCUT_LOG_LEVEL"), os.Getenv("REELCUT_LOG_FORMAT"))

	cfg := configFromEnv()
	cfg.URL = strings.TrimSpace(url)
	cfg.Reels = reels
	cfg.Style = style
	cfg.Format = format
	cfg.ClipDuration = time.Duration(clipSec) * time.Second
	cfg.Concurrency = concurrency
	cfg.Burn = !noBurn
	cfg.Cleanup = cleanup
	if cmd.Flags().Changed("out") || cfg.StoreDir == "" {
		cfg.StoreDir = outDir
	}
	cfg.MockStorage = mock
	cfg.WorkDir = workDir
	cfg.Logger = log
	if noAI {
		cfg.AIProvider = pipeline.ProviderNone
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out.Session)
}

// configFromEnv reads everything that is not a flag. It is the only place
// the process environment is consulted.
func configFromEnv() pipeline.Config {
	return pipeline.Config{
		S3: s3blob.Config{
			Bucket:       os.Getenv("REELCUT_S3_BUCKET"),
			Region:       os.Getenv("REELCUT_S3_REGION"),
			Prefix:       os.Getenv("REELCUT_S3_PREFIX"),
			PublicURL:    os.Getenv("REELCUT_S3_PUBLIC_URL"),
			UsePathStyle: getenvBool("REELCUT_S3_PATH_STYLE"),
		},
		PublicURL: os.Getenv("REELCUT_PUBLIC_URL"),
		StoreDir:  os.Getenv("REELCUT_STORE_DIR"),

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),
		YTDLPPath:   getenvDefault("YTDLP_PATH", "yt-dlp"),

		WhisperBin:   getenvDefault("WHISPER_BIN", "whisper-cli"),
		WhisperModel: os.Getenv("WHISPER_MODEL"),

		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),

		AIProvider:         strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER"))),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		OpenAIAllowedHosts: splitCSV(os.Getenv("OPENAI_ALLOWED_HOSTS")),
		CohereAPIKey:       os.Getenv("COHERE_API_KEY"),
		CohereModel:        os.Getenv("COHERE_MODEL"),
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvBool(k string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(k)))
	return b
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
