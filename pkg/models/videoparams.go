package models

// Fixed video synthesis parameters. The negative prompt excludes the
// artifacts the video model most commonly introduces in ad footage.
const (
	VideoAspectRatio = "16:9"
	VideoResolution  = "1080p"

	NegativePrompt = "cartoon, drawing, low quality, blurry, distorted faces, " +
		"extra limbs, deformed hands, text overlays, watermarks, logos, " +
		"jittery motion, morphing objects, inconsistent lighting"
)

// VideoPromptParameters is the per-scene output of Phase 3: everything
// the video model needs for one reference-to-video call.
type VideoPromptParameters struct {
	SceneNumber     int              `json:"scene_number"`
	Prompt          string           `json:"prompt"`
	NegativePrompt  string           `json:"negative_prompt"`
	DurationSeconds int              `json:"duration_seconds"`
	AspectRatio     string           `json:"aspect_ratio"`
	Resolution      string           `json:"resolution"`
	GenerateAudio   bool             `json:"generate_audio"`
	ReferenceImages []ReferenceImage `json:"-"`

	// Metadata for logging: original/enhanced/sanitized lengths etc.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SceneVideo is a handle to a synthesized clip.
type SceneVideo struct {
	SceneNumber int     `json:"scene_number"`
	FilePath    string  `json:"file_path"`
	Cost        float64 `json:"cost"`
}

// SceneResult is the per-scene outcome of parallel synthesis, in input
// order. Exactly one of FilePath and FailureReason is non-empty.
type SceneResult struct {
	SceneNumber   int     `json:"scene_number"`
	FilePath      string  `json:"file_path,omitempty"`
	Cost          float64 `json:"cost"`
	FailureReason string  `json:"failure_reason,omitempty"`
}
