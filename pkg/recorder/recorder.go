// Package recorder keeps the append-only conversation transcript of each
// running generation in memory until the pipeline reaches a terminal
// state and the transcript is persisted.
package recorder

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/models"
)

// Recorder accumulates agent interactions per generation.
type Recorder struct {
	mu      sync.Mutex
	records map[uuid.UUID][]models.AgentInteraction
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{records: make(map[uuid.UUID][]models.AgentInteraction)}
}

// Append adds one interaction to a generation's transcript, stamping the
// timestamp if the caller left it zero.
func (r *Recorder) Append(generationID uuid.UUID, interaction models.AgentInteraction) {
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now().UTC()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[generationID] = append(r.records[generationID], interaction)
}

// Get returns a copy of a generation's transcript in insertion order.
func (r *Recorder) Get(generationID uuid.UUID) []models.AgentInteraction {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.records[generationID]
	out := make([]models.AgentInteraction, len(src))
	copy(out, src)
	return out
}

// Clear discards a generation's transcript, typically after it has been
// persisted.
func (r *Recorder) Clear(generationID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, generationID)
}
