package bus

import (
	"encoding/json"
	"fmt"

	"github.com/reelforge/reelforge/pkg/models"
)

// EventType discriminates the stream envelope.
type EventType string

const (
	EventProgress    EventType = "progress"
	EventInteraction EventType = "llm_interaction"
)

// Event is the envelope delivered to subscribers. Exactly one payload
// field is set, matching Type.
type Event struct {
	Type        EventType
	Progress    *models.ProgressEvent
	Interaction *models.AgentInteraction
}

// NewProgress wraps a progress update in an envelope.
func NewProgress(p models.ProgressEvent) Event {
	return Event{Type: EventProgress, Progress: &p}
}

// NewInteraction wraps an agent interaction in an envelope.
func NewInteraction(i models.AgentInteraction) Event {
	return Event{Type: EventInteraction, Interaction: &i}
}

// Terminal reports whether this event ends the stream: a completed or
// failed "complete" step.
func (e Event) Terminal() bool {
	if e.Type != EventProgress || e.Progress == nil {
		return false
	}
	if e.Progress.Status == models.ProgressFailed {
		return true
	}
	return e.Progress.Step == models.StepComplete && e.Progress.Status == models.ProgressCompleted
}

// MarshalJSON flattens the payload alongside the type discriminator, the
// shape the streaming endpoint writes on the wire.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventProgress:
		payload = e.Progress
	case EventInteraction:
		payload = e.Interaction
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	typeRaw, _ := json.Marshal(string(e.Type))
	fields["type"] = typeRaw
	return json.Marshal(fields)
}
