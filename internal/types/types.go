package types

type BlobRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (r BlobRef) IsZero() bool { return r.Key == "" && r.URL == "" }

type VideoInfo struct {
	Title           string   `json:"title"`
	DurationSeconds int      `json:"duration_seconds"`
	Description     string   `json:"description"`
	ThumbnailURLs   []string `json:"thumbnail_urls"`
	SourceID        string   `json:"source_id"`
}

type StreamFormat struct {
	URL           string `json:"url"`
	Container     string `json:"container"`
	QualityLabel  string `json:"quality_label"`
	ContentLength int64  `json:"content_length"`
	HasVideo      bool   `json:"has_video"`
	HasAudio      bool   `json:"has_audio"`
}

type CandidateSegment struct {
	StartSeconds    int      `json:"start_seconds"`
	DurationSeconds int      `json:"duration_seconds"`
	TranscriptSlice string   `json:"transcript_slice"`
	Keywords        []string `json:"keywords"`
}

type Highlight struct {
	ID                string   `json:"id,omitempty"`
	StartSeconds      float64  `json:"start_seconds"`
	EndSeconds        float64  `json:"end_seconds"`
	Score             float64  `json:"score"`
	Keywords          []string `json:"keywords"`
	TranscriptSummary string   `json:"transcript_summary"`
	Reason            string   `json:"reason"`
}

func (h Highlight) Duration() float64 { return h.EndSeconds - h.StartSeconds }

type Analysis struct {
	Highlights     []Highlight `json:"highlights"`
	Summary        string      `json:"summary"`
	ViralPotential float64     `json:"viral_potential"`
	// Heuristic is true when the model was skipped or its output was rejected.
	Heuristic bool `json:"heuristic"`
}

type RenderedClip struct {
	ID              string   `json:"id"`
	MediaRef        BlobRef  `json:"media_ref"`
	Filename        string   `json:"filename"`
	DurationSeconds float64  `json:"duration_seconds"`
	Transcript      string   `json:"transcript"`
	Keywords        []string `json:"keywords"`
	// PlaceholderRef points at a descriptor written instead of real video when
	// no encoder is available.
	PlaceholderRef BlobRef `json:"placeholder_ref,omitempty"`
}

type SubtitleCue struct {
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
	Text         string  `json:"text"`
	Enhanced     bool    `json:"enhanced"`
}

type VerticalPosition string

const (
	PositionTop    VerticalPosition = "top"
	PositionCenter VerticalPosition = "center"
	PositionBottom VerticalPosition = "bottom"
)

type Animation string

const (
	AnimationNone   Animation = "none"
	AnimationFade   Animation = "fade"
	AnimationSlide  Animation = "slide"
	AnimationBounce Animation = "bounce"
)

type SubtitleStyle struct {
	Name            string           `json:"name"`
	FontFamily      string           `json:"font_family"`
	FontSizePx      int              `json:"font_size_px"`
	TextColor       string           `json:"text_color"`
	BackgroundColor string           `json:"background_color"`
	Position        VerticalPosition `json:"position"`
	Animation       Animation        `json:"animation"`
}

type SubtitleFormat string

const (
	FormatSRT SubtitleFormat = "srt"
	FormatVTT SubtitleFormat = "vtt"
	FormatASS SubtitleFormat = "ass"
)

type ReelState string

const (
	StateSelected   ReelState = "selected"
	StateRendering  ReelState = "rendering"
	StateSubtitling ReelState = "subtitling"
	StateCompleted  ReelState = "completed"
	StateDegraded   ReelState = "degraded"
)

type FinalReel struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Filename         string    `json:"filename"`
	MediaRef         BlobRef   `json:"media_ref"`
	SubtitleRef      BlobRef   `json:"subtitle_ref,omitempty"`
	DurationSeconds  float64   `json:"duration_seconds"`
	Score            float64   `json:"score"`
	Keywords         []string  `json:"keywords"`
	Transcript       string    `json:"transcript"`
	SubtitleCueCount int       `json:"subtitle_cue_count"`
	State            ReelState `json:"state"`
	Degraded         bool      `json:"degraded"`
	DegradedReason   string    `json:"degraded_reason,omitempty"`
}

type StorageMode string

const (
	StorageDurable StorageMode = "durable"
	StorageLocal   StorageMode = "local"
	StorageMock    StorageMode = "mock"
)

type Session struct {
	ID               string      `json:"session_id"`
	SourceURL        string      `json:"source_url"`
	VideoTitle       string      `json:"video_title"`
	OriginalDuration int         `json:"original_duration"`
	ClipsGenerated   int         `json:"clips_generated"`
	Summary          string      `json:"summary"`
	ViralPotential   float64     `json:"viral_potential"`
	SourceRef        BlobRef     `json:"source_ref"`
	Storage          StorageMode `json:"storage"`
	AIEnhanced       bool        `json:"ai_enhanced"`
	Reels            []FinalReel `json:"reels"`
}
