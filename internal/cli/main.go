package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/reelcut/internal/domain/subtitles"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "reelcut <video-url>",
		Short:        "Turn a long video into vertical reels with AI-picked highlights and subtitles",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.Flags().Int("reels", 3, "Number of reels to produce")
	root.Flags().String("style", subtitles.StyleModern, "Subtitle style ("+strings.Join(subtitles.StyleNames(), "|")+")")
	root.Flags().String("format", "srt", "Subtitle sidecar format (srt|vtt|ass)")
	root.Flags().Int("clip-duration", 0, "Cap each reel at this many seconds (0 keeps the highlight length)")
	root.Flags().Int("concurrency", 1, "Reels processed in parallel (1 is sequential)")
	root.Flags().Bool("no-burn", false, "Only write subtitle sidecars, do not burn them into the video")
	root.Flags().Bool("no-ai", false, "Skip the AI provider even when a key is configured")
	root.Flags().Bool("cleanup", false, "Delete intermediate clips after burn-in")
	root.Flags().String("out", "out", "Local output directory when no S3 bucket is configured")
	root.Flags().Bool("mock-storage", false, "Keep artifacts in memory instead of writing them")
	root.Flags().Duration("timeout", time.Hour, "Overall session timeout")

	// Hidden tuning flag (internal)
	root.Flags().String("work-dir", "", "Scratch directory for encode workspaces")
	_ = root.Flags().MarkHidden("work-dir")

	return root
}
