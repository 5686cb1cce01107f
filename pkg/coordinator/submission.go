package coordinator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/models"
)

// Submission is one generation request.
type Submission struct {
	UserID    string
	Prompt    string
	Title     string
	BrandName string
	Images    []models.ReferenceImage

	// ClientGenerationID, when set, is the caller-reserved UUID so
	// subscribers can attach before work starts.
	ClientGenerationID string

	// MaxStoryIterations overrides the configured cap when positive.
	MaxStoryIterations int

	// GenerateScenes and GenerateVideos default to true when nil.
	GenerateScenes *bool
	GenerateVideos *bool

	// TargetDurationSeconds must be one of 15, 30, 45, 60; zero takes
	// the configured default.
	TargetDurationSeconds int
}

// InvalidInputError rejects a submission before any record is created.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

var validTargetDurations = map[int]bool{15: true, 30: true, 45: true, 60: true}

const (
	minPromptChars = 10
	maxPromptChars = 2000
	maxTitleChars  = 200
	maxBrandChars  = 50
	maxImages      = 3
)

// validate rejects malformed submissions and resolves the generation ID.
func (c *Coordinator) validate(sub *Submission) (uuid.UUID, error) {
	if len(sub.Prompt) < minPromptChars || len(sub.Prompt) > maxPromptChars {
		return uuid.Nil, invalidInput("prompt must be %d-%d characters, got %d",
			minPromptChars, maxPromptChars, len(sub.Prompt))
	}
	if len(sub.Title) > maxTitleChars {
		return uuid.Nil, invalidInput("title exceeds %d characters", maxTitleChars)
	}
	if len(sub.BrandName) > maxBrandChars {
		return uuid.Nil, invalidInput("brand name exceeds %d characters", maxBrandChars)
	}
	if sub.UserID == "" {
		return uuid.Nil, invalidInput("user id is required")
	}
	if len(sub.Images) > maxImages {
		return uuid.Nil, invalidInput("at most %d reference images, got %d", maxImages, len(sub.Images))
	}
	for _, img := range sub.Images {
		if !models.AllowedImageMIMETypes[img.MIMEType] {
			return uuid.Nil, invalidInput("image %q has disallowed type %s", img.Name, img.MIMEType)
		}
		if int64(len(img.Data)) > c.cfg.Storage.MaxImageBytes {
			return uuid.Nil, invalidInput("image %q exceeds %d bytes", img.Name, c.cfg.Storage.MaxImageBytes)
		}
	}
	if sub.TargetDurationSeconds == 0 {
		sub.TargetDurationSeconds = c.cfg.Pipeline.DefaultTargetDuration
	}
	if !validTargetDurations[sub.TargetDurationSeconds] {
		return uuid.Nil, invalidInput("target duration must be one of 15, 30, 45, 60, got %d",
			sub.TargetDurationSeconds)
	}

	if sub.ClientGenerationID == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(sub.ClientGenerationID)
	if err != nil {
		return uuid.Nil, invalidInput("client generation id is not a UUID: %v", err)
	}
	return id, nil
}
