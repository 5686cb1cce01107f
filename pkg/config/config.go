// Package config holds the service configuration, loaded from the
// environment with per-field defaults. The .env file (if any) is loaded
// by main via godotenv before Load runs.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	HTTP     HTTPConfig
	LLM      LLMConfig
	Video    VideoConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Stitch   StitchConfig
	Bus      BusConfig
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// LLMConfig configures the chat model client.
type LLMConfig struct {
	APIKey  string
	BaseURL string // empty = provider default
	Model   string

	// CallTimeout is the per-call deadline; expiry is treated as a
	// transport failure and enters the retry path.
	CallTimeout time.Duration
	MaxRetries  int

	// Concurrency caps parallel LLM calls (Phase 3 enhancement fan-out).
	Concurrency int
}

// VideoConfig configures the video synthesis client and dispatcher.
type VideoConfig struct {
	APIKey      string
	Model       string
	CallTimeout time.Duration
	MaxRetries  int

	// MaxConcurrent is K: the cap on in-flight synthesis calls.
	MaxConcurrent int

	// PollInterval is the delay between operation status polls.
	PollInterval time.Duration
}

// PipelineConfig holds the orchestrator's iteration caps and score
// thresholds.
type PipelineConfig struct {
	MaxStoryIterations    int
	MaxSceneIterations    int
	MaxCohesionIterations int

	StoryApprovalScore    int
	SceneApprovalScore    int
	CohesionApprovalScore int

	DefaultTargetDuration int
}

// StorageConfig configures the per-generation scratch area.
type StorageConfig struct {
	// BasePath is the root of the scratch tree:
	// <BasePath>/<user_id>/<generation_id>/...
	BasePath string

	// MaxImageBytes is the per-reference-image size cap.
	MaxImageBytes int64
}

// StitchConfig configures the video stitcher.
type StitchConfig struct {
	FFmpegPath  string
	FFprobePath string

	FrameRate        int
	VideoBitrateKbps int
	IntroFadeSecs    float64
	OutroFadeSecs    float64
}

// BusConfig configures the progress bus.
type BusConfig struct {
	// SubscriberBuffer is the per-subscriber event buffer depth. When
	// full, the oldest undelivered event is dropped for that subscriber.
	SubscriberBuffer int
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Video.APIKey == "" {
		return fmt.Errorf("VIDEO_API_KEY is required")
	}
	if c.Video.MaxConcurrent < 1 {
		return fmt.Errorf("VIDEO_MAX_CONCURRENT must be >= 1, got %d", c.Video.MaxConcurrent)
	}
	if c.LLM.Concurrency < 1 {
		return fmt.Errorf("LLM_CONCURRENCY must be >= 1, got %d", c.LLM.Concurrency)
	}
	if c.Pipeline.MaxStoryIterations < 1 {
		return fmt.Errorf("MAX_STORY_ITERATIONS must be >= 1, got %d", c.Pipeline.MaxStoryIterations)
	}
	if c.Storage.BasePath == "" {
		return fmt.Errorf("STORAGE_BASE_PATH is required")
	}
	if c.Bus.SubscriberBuffer < 1 {
		return fmt.Errorf("BUS_SUBSCRIBER_BUFFER must be >= 1, got %d", c.Bus.SubscriberBuffer)
	}
	return nil
}
