// Package videogen dispatches per-scene video synthesis against the
// external video model under a bounded concurrency cap.
package videogen

import (
	"context"
	"errors"

	"github.com/reelforge/reelforge/pkg/models"
)

// ErrContentRejected marks a provider content-policy refusal. It is
// never retried; the scene is marked failed and the others continue.
var ErrContentRejected = errors.New("video model rejected prompt on content policy")

// Result is one successful synthesis call.
type Result struct {
	VideoBytes []byte
	Cost       float64
}

// Client is the single-call reference-to-video interface.
type Client interface {
	Generate(ctx context.Context, params models.VideoPromptParameters) (*Result, error)
}
