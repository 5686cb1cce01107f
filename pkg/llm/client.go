// Package llm wraps the chat model behind a small interface so agents
// and tests never touch the provider SDK directly.
package llm

import (
	"context"

	"github.com/reelforge/reelforge/pkg/models"
)

// Request is one chat completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string

	// Images, when set, are attached to the user turn as inline data
	// URLs (vision input).
	Images []models.ReferenceImage

	// JSONMode forces the model to emit a single JSON object. Used by
	// the critic and cohesion roles.
	JSONMode bool

	Temperature float32
	MaxTokens   int
}

// Response is the model's reply.
type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Client is the chat completion interface agents depend on.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
