package subtitles

import (
	"strings"

	"github.com/forPelevin/reelcut/internal/types"
)

const (
	StyleModern  = "modern"
	StyleBold    = "bold"
	StyleNeon    = "neon"
	StyleClassic = "classic"
)

// StyleNames lists the named styles in their canonical order.
func StyleNames() []string {
	return []string{StyleModern, StyleBold, StyleNeon, StyleClassic}
}

// StyleFor looks up a named style. Unknown names resolve to modern.
func StyleFor(name string) types.SubtitleStyle {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StyleBold:
		return types.SubtitleStyle{
			Name:            StyleBold,
			FontFamily:      "Impact, Arial Black, sans-serif",
			FontSizePx:      28,
			TextColor:       "#FFFF00",
			BackgroundColor: "rgba(0, 0, 0, 0.9)",
			Position:        types.PositionCenter,
			Animation:       types.AnimationBounce,
		}
	case StyleNeon:
		return types.SubtitleStyle{
			Name:            StyleNeon,
			FontFamily:      "Orbitron, monospace",
			FontSizePx:      26,
			TextColor:       "#00FFFF",
			BackgroundColor: "rgba(0, 0, 0, 0.7)",
			Position:        types.PositionBottom,
			Animation:       types.AnimationSlide,
		}
	case StyleClassic:
		return types.SubtitleStyle{
			Name:            StyleClassic,
			FontFamily:      "Times New Roman, serif",
			FontSizePx:      22,
			TextColor:       "#FFFFFF",
			BackgroundColor: "rgba(0, 0, 0, 0.6)",
			Position:        types.PositionBottom,
			Animation:       types.AnimationNone,
		}
	default:
		return types.SubtitleStyle{
			Name:            StyleModern,
			FontFamily:      "Arial, sans-serif",
			FontSizePx:      24,
			TextColor:       "#FFFFFF",
			BackgroundColor: "rgba(0, 0, 0, 0.8)",
			Position:        types.PositionBottom,
			Animation:       types.AnimationFade,
		}
	}
}
