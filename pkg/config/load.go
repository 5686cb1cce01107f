package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Load builds a Config from the environment, applying defaults for
// everything except credentials, then validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      os.Getenv("LLM_API_KEY"),
			BaseURL:     os.Getenv("LLM_BASE_URL"),
			Model:       getEnv("LLM_MODEL", "gpt-4o"),
			CallTimeout: getDuration("LLM_CALL_TIMEOUT", 120*time.Second),
			MaxRetries:  getInt("LLM_MAX_RETRIES", 3),
			Concurrency: getInt("LLM_CONCURRENCY", 4),
		},
		Video: VideoConfig{
			APIKey:        os.Getenv("VIDEO_API_KEY"),
			Model:         getEnv("VIDEO_MODEL", "veo-3.0-generate-001"),
			CallTimeout:   getDuration("VIDEO_CALL_TIMEOUT", 600*time.Second),
			MaxRetries:    getInt("VIDEO_MAX_RETRIES", 3),
			MaxConcurrent: getInt("VIDEO_MAX_CONCURRENT", 4),
			PollInterval:  getDuration("VIDEO_POLL_INTERVAL", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxStoryIterations:    getInt("MAX_STORY_ITERATIONS", 3),
			MaxSceneIterations:    getInt("MAX_SCENE_ITERATIONS", 3),
			MaxCohesionIterations: getInt("MAX_COHESION_ITERATIONS", 2),
			StoryApprovalScore:    getInt("STORY_APPROVAL_SCORE", 85),
			SceneApprovalScore:    getInt("SCENE_APPROVAL_SCORE", 80),
			CohesionApprovalScore: getInt("COHESION_APPROVAL_SCORE", 75),
			DefaultTargetDuration: getInt("DEFAULT_TARGET_DURATION", 30),
		},
		Storage: StorageConfig{
			BasePath:      getEnv("STORAGE_BASE_PATH", "/tmp/reelforge"),
			MaxImageBytes: int64(getInt("MAX_IMAGE_BYTES", 10*1024*1024)),
		},
		Stitch: StitchConfig{
			FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
			FrameRate:        getInt("STITCH_FRAME_RATE", 24),
			VideoBitrateKbps: getInt("STITCH_BITRATE_KBPS", 5000),
			IntroFadeSecs:    getFloat("STITCH_INTRO_FADE_SECS", 0.3),
			OutroFadeSecs:    getFloat("STITCH_OUTRO_FADE_SECS", 0.3),
		},
		Bus: BusConfig{
			SubscriberBuffer: getInt("BUS_SUBSCRIBER_BUFFER", 256),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
