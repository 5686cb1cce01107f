package bus

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/pkg/models"
)

func progressEvent(step models.ProgressStep, status models.ProgressStatus, pct int) Event {
	return NewProgress(models.ProgressEvent{
		Step:      step,
		Status:    status,
		Progress:  pct,
		Timestamp: time.Now().UTC(),
	})
}

func TestPublish_DeliversInOrder(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()
	b.Create(genID)

	ch, cancel := b.Subscribe(genID)
	defer cancel()

	b.Publish(genID, progressEvent(models.StepInit, models.ProgressCompleted, 0))
	b.Publish(genID, progressEvent(models.StepUpload, models.ProgressCompleted, 5))
	b.Publish(genID, progressEvent(models.StepStory, models.ProgressInProgress, 10))

	steps := []models.ProgressStep{models.StepInit, models.StepUpload, models.StepStory}
	for _, want := range steps {
		ev := <-ch
		require.NotNil(t, ev.Progress)
		assert.Equal(t, want, ev.Progress.Step)
	}
}

func TestCreate_Idempotent(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()

	b.Create(genID)
	ch, cancel := b.Subscribe(genID)
	defer cancel()

	// A second Create must not drop the existing subscriber.
	b.Create(genID)
	b.Publish(genID, progressEvent(models.StepInit, models.ProgressCompleted, 0))

	select {
	case ev := <-ch:
		assert.Equal(t, models.StepInit, ev.Progress.Step)
	case <-time.After(time.Second):
		t.Fatal("subscriber lost after idempotent Create")
	}
}

func TestSubscribe_CreatesQueueIfAbsent(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()

	ch, cancel := b.Subscribe(genID)
	defer cancel()

	b.Publish(genID, progressEvent(models.StepInit, models.ProgressCompleted, 0))
	select {
	case ev := <-ch:
		assert.Equal(t, models.StepInit, ev.Progress.Step)
	case <-time.After(time.Second):
		t.Fatal("event not delivered to pre-registered subscriber")
	}
}

func TestPublish_UnknownGenerationIsNoop(t *testing.T) {
	b := New(16, nil)
	b.Publish(uuid.New(), progressEvent(models.StepInit, models.ProgressCompleted, 0))
}

func TestPublish_DropsOldestWhenBufferFull(t *testing.T) {
	b := New(2, nil)
	genID := uuid.New()
	ch, cancel := b.Subscribe(genID)
	defer cancel()

	for i := 0; i < 5; i++ {
		b.Publish(genID, NewProgress(models.ProgressEvent{
			Step:     models.StepVideos,
			Status:   models.ProgressInProgress,
			Progress: i,
		}))
	}

	// Buffer of 2 keeps the newest two events.
	first := <-ch
	second := <-ch
	assert.Equal(t, 3, first.Progress.Progress)
	assert.Equal(t, 4, second.Progress.Progress)
}

func TestLastProgress_TracksHighWaterMark(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()

	assert.Zero(t, b.LastProgress(genID), "unknown generation")

	b.Create(genID)
	b.Publish(genID, progressEvent(models.StepInit, models.ProgressInProgress, 0))
	b.Publish(genID, progressEvent(models.StepStory, models.ProgressCompleted, 25))
	assert.Equal(t, 25, b.LastProgress(genID))

	// A lower or absent value never regresses the mark.
	b.Publish(genID, progressEvent(models.StepVideos, models.ProgressFailed, 0))
	assert.Equal(t, 25, b.LastProgress(genID))

	b.Close(genID)
	assert.Zero(t, b.LastProgress(genID), "closed generation")
}

func TestClose_ClosesSubscriberChannels(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()
	ch, cancel := b.Subscribe(genID)
	defer cancel()

	b.Close(genID)

	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribe_AfterCloseReturnsClosedChannel(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()
	b.Create(genID)
	b.Close(genID)

	ch, cancel := b.Subscribe(genID)
	defer cancel()

	_, open := <-ch
	assert.False(t, open)
}

func TestClose_EvictsOldestClosedEntries(t *testing.T) {
	b := New(4, nil)
	oldest := uuid.New()
	b.Create(oldest)
	b.Close(oldest)

	var newest uuid.UUID
	for i := 0; i < maxClosedTracked; i++ {
		newest = uuid.New()
		b.Create(newest)
		b.Close(newest)
	}

	// Recent closures still short-circuit to an ended stream.
	ch, cancel := b.Subscribe(newest)
	defer cancel()
	_, open := <-ch
	assert.False(t, open)

	// The evicted generation behaves like an unknown one: a fresh open
	// queue rather than unbounded closed-set growth.
	ch, cancel = b.Subscribe(oldest)
	defer cancel()
	select {
	case _, open := <-ch:
		t.Fatalf("expected open empty channel, got receive (open=%v)", open)
	default:
	}
}

func TestCancel_DetachesSubscriber(t *testing.T) {
	b := New(16, nil)
	genID := uuid.New()

	ch1, cancel1 := b.Subscribe(genID)
	ch2, cancel2 := b.Subscribe(genID)
	defer cancel2()

	cancel1()
	cancel1() // second call is a no-op

	b.Publish(genID, progressEvent(models.StepStory, models.ProgressInProgress, 10))

	_, open := <-ch1
	assert.False(t, open)

	select {
	case ev := <-ch2:
		assert.Equal(t, models.StepStory, ev.Progress.Step)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber missed event")
	}
}

func TestEvent_Terminal(t *testing.T) {
	assert.True(t, progressEvent(models.StepComplete, models.ProgressCompleted, 100).Terminal())
	assert.True(t, progressEvent(models.StepStory, models.ProgressFailed, 20).Terminal())
	assert.False(t, progressEvent(models.StepStory, models.ProgressInProgress, 20).Terminal())
	assert.False(t, NewInteraction(models.AgentInteraction{AgentName: "story_director"}).Terminal())
}

func TestEvent_MarshalJSON_FlattensType(t *testing.T) {
	ev := NewInteraction(models.AgentInteraction{
		AgentName:       "story_critic",
		InteractionType: models.InteractionResponse,
		Content:         "score 88",
		Timestamp:       time.Now().UTC(),
	})
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "llm_interaction", decoded["type"])
	assert.Equal(t, "story_critic", decoded["agent"])
}

func TestPublish_ConcurrentSubscribers(t *testing.T) {
	b := New(64, nil)
	genID := uuid.New()

	const subs = 8
	chans := make([]<-chan Event, subs)
	for i := 0; i < subs; i++ {
		ch, cancel := b.Subscribe(genID)
		defer cancel()
		chans[i] = ch
	}

	const events = 20
	done := make(chan struct{})
	go func() {
		for i := 0; i < events; i++ {
			b.Publish(genID, NewProgress(models.ProgressEvent{
				Step:     models.StepVideos,
				Status:   models.ProgressInProgress,
				Progress: i,
				Message:  fmt.Sprintf("clip %d", i),
			}))
		}
		close(done)
	}()
	<-done

	for i, ch := range chans {
		for j := 0; j < events; j++ {
			select {
			case ev := <-ch:
				assert.Equal(t, j, ev.Progress.Progress, "subscriber %d event %d", i, j)
			case <-time.After(time.Second):
				t.Fatalf("subscriber %d missed event %d", i, j)
			}
		}
	}
}
