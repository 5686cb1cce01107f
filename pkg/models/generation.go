// Package models defines the domain types shared across the generation
// pipeline: generations, stories, scenes, cohesion reports, agent
// interactions, progress events, and video prompt parameters.
package models

import "time"

// GenerationStatus represents the lifecycle state of a generation.
type GenerationStatus string

const (
	GenerationStatusProcessing GenerationStatus = "processing"
	GenerationStatusCompleted  GenerationStatus = "completed"
	GenerationStatusFailed     GenerationStatus = "failed"
)

// Generation is the persistent record for one ad-video generation.
// Terminal states (completed, failed) are immutable.
type Generation struct {
	ID        string           `json:"generation_id"`
	UserID    string           `json:"user_id"`
	Prompt    string           `json:"prompt"`
	Title     string           `json:"title,omitempty"`
	BrandName string           `json:"brand_name,omitempty"`
	Status    GenerationStatus `json:"status"`

	// CurrentStep tracks the pipeline phase for the polling fallback.
	// Updated at phase boundaries only, to avoid write amplification.
	CurrentStep string `json:"current_step,omitempty"`

	// Populated on completion.
	FinalVideoPath  string   `json:"final_video_path,omitempty"`
	SceneVideoPaths []string `json:"scene_video_paths,omitempty"`
	NumScenes       int      `json:"num_scenes,omitempty"`
	StoryScore      int      `json:"story_score,omitempty"`
	CohesionScore   int      `json:"cohesion_score,omitempty"`
	GenerationTime  float64  `json:"generation_time_seconds,omitempty"`

	// Populated on failure.
	ErrorMessage string `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the generation has reached a final state.
func (g *Generation) IsTerminal() bool {
	return g.Status == GenerationStatusCompleted || g.Status == GenerationStatusFailed
}

// ReferenceImage is a user-supplied image guiding subject appearance in
// the synthesized video. Read-only after submission.
type ReferenceImage struct {
	// Index is 1-based, preserving submission order.
	Index    int
	Name     string
	MIMEType string
	Data     []byte
}

// AllowedImageMIMETypes are the accepted reference image content types.
var AllowedImageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}
