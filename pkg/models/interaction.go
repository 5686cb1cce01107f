package models

import "time"

// InteractionType distinguishes the two halves of an agent exchange.
type InteractionType string

const (
	InteractionPrompt   InteractionType = "prompt"
	InteractionResponse InteractionType = "response"
)

// InteractionMetadata is the typed bag attached to an AgentInteraction.
// Zero-valued fields are omitted on the wire.
type InteractionMetadata struct {
	Iteration        int     `json:"iteration,omitempty"`
	SceneNumber      int     `json:"scene_number,omitempty"`
	Score            int     `json:"score,omitempty"`
	Status           string  `json:"status,omitempty"`
	WordCount        int     `json:"word_count,omitempty"`
	ExpansionPercent float64 `json:"expansion_percent,omitempty"`
}

// AgentInteraction is an append-only record of one agent emission.
// Interactions within a generation are totally ordered by timestamp and
// insertion order.
type AgentInteraction struct {
	AgentName       string              `json:"agent"`
	InteractionType InteractionType     `json:"interaction_type"`
	Content         string              `json:"content"`
	Metadata        InteractionMetadata `json:"metadata"`
	Timestamp       time.Time           `json:"timestamp"`
}
