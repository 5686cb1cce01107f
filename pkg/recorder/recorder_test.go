package recorder

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/pkg/models"
)

func TestAppendAndGet_PreservesOrder(t *testing.T) {
	r := New()
	genID := uuid.New()

	r.Append(genID, models.AgentInteraction{AgentName: "story_director", InteractionType: models.InteractionPrompt, Content: "p1"})
	r.Append(genID, models.AgentInteraction{AgentName: "story_director", InteractionType: models.InteractionResponse, Content: "r1"})
	r.Append(genID, models.AgentInteraction{AgentName: "story_critic", InteractionType: models.InteractionResponse, Content: "r2"})

	got := r.Get(genID)
	require.Len(t, got, 3)
	assert.Equal(t, "p1", got[0].Content)
	assert.Equal(t, "r1", got[1].Content)
	assert.Equal(t, "story_critic", got[2].AgentName)
	for _, it := range got {
		assert.False(t, it.Timestamp.IsZero())
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	genID := uuid.New()
	r.Append(genID, models.AgentInteraction{AgentName: "a", Content: "original"})

	got := r.Get(genID)
	got[0].Content = "mutated"

	assert.Equal(t, "original", r.Get(genID)[0].Content)
}

func TestGet_UnknownGenerationIsEmpty(t *testing.T) {
	r := New()
	assert.Empty(t, r.Get(uuid.New()))
}

func TestClear_DiscardsTranscript(t *testing.T) {
	r := New()
	genID := uuid.New()
	r.Append(genID, models.AgentInteraction{AgentName: "a"})

	r.Clear(genID)
	assert.Empty(t, r.Get(genID))
}

func TestAppend_ConcurrentWriters(t *testing.T) {
	r := New()
	genID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				r.Append(genID, models.AgentInteraction{AgentName: "scene_writer"})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Get(genID), 200)
}
