package videogen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
)

// fakeVideoClient tracks in-flight concurrency and fails configured
// scenes.
type fakeVideoClient struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       map[int]int
	failWith    map[int]error
	delay       time.Duration
}

func newFakeVideoClient() *fakeVideoClient {
	return &fakeVideoClient{calls: make(map[int]int), failWith: make(map[int]error)}
}

func (f *fakeVideoClient) Generate(ctx context.Context, p models.VideoPromptParameters) (*Result, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.calls[p.SceneNumber]++
	failErr := f.failWith[p.SceneNumber]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}
	return &Result{VideoBytes: []byte(fmt.Sprintf("clip-%d", p.SceneNumber)), Cost: 0.25}, nil
}

func testVideoConfig(k int) config.VideoConfig {
	return config.VideoConfig{
		MaxConcurrent: k,
		MaxRetries:    3,
		CallTimeout:   5 * time.Second,
	}
}

func sceneParams(n int) []models.VideoPromptParameters {
	params := make([]models.VideoPromptParameters, n)
	for i := range params {
		params[i] = models.VideoPromptParameters{
			SceneNumber:     i + 1,
			Prompt:          fmt.Sprintf("scene %d prompt", i+1),
			DurationSeconds: 8,
		}
	}
	return params
}

func newTestSynthesizer(client Client, k int) (*Synthesizer, *bus.Bus) {
	b := bus.New(256, nil)
	s := NewSynthesizer(client, b, testVideoConfig(k), nil)
	// Fast retries in tests.
	s.policy.BaseDelay = time.Millisecond
	s.policy.Jitter = 0
	return s, b
}

func TestRun_AllScenesSucceed(t *testing.T) {
	fake := newFakeVideoClient()
	s, _ := newTestSynthesizer(fake, 4)
	dir := t.TempDir()

	results, err := s.Run(context.Background(), uuid.New(), dir, sceneParams(3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i+1, r.SceneNumber, "results preserve input order")
		assert.Empty(t, r.FailureReason)
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("scene_%02d.mp4", i+1)), r.FilePath)
		data, err := os.ReadFile(r.FilePath)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("clip-%d", i+1), string(data))
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	fake := newFakeVideoClient()
	fake.delay = 30 * time.Millisecond
	s, _ := newTestSynthesizer(fake, 2)

	_, err := s.Run(context.Background(), uuid.New(), t.TempDir(), sceneParams(6))
	require.NoError(t, err)
	assert.LessOrEqual(t, fake.maxInFlight, 2, "never more than K calls in flight")
}

func TestRun_PartialFailureContinues(t *testing.T) {
	fake := newFakeVideoClient()
	fake.failWith[3] = fmt.Errorf("%w: violent content", ErrContentRejected)
	s, _ := newTestSynthesizer(fake, 4)

	results, err := s.Run(context.Background(), uuid.New(), t.TempDir(), sceneParams(4))
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NotEmpty(t, results[0].FilePath)
	assert.NotEmpty(t, results[1].FilePath)
	assert.Empty(t, results[2].FilePath)
	assert.Contains(t, results[2].FailureReason, "content policy")
	assert.NotEmpty(t, results[3].FilePath)
}

func TestRun_ContentRejectionNotRetried(t *testing.T) {
	fake := newFakeVideoClient()
	fake.failWith[1] = ErrContentRejected
	s, _ := newTestSynthesizer(fake, 4)

	_, err := s.Run(context.Background(), uuid.New(), t.TempDir(), sceneParams(2))
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls[1], "policy rejection must not be retried")
}

func TestRun_TransientFailureRetried(t *testing.T) {
	fake := newFakeVideoClient()
	fake.failWith[1] = errors.New("connection reset")
	s, _ := newTestSynthesizer(fake, 4)

	results, err := s.Run(context.Background(), uuid.New(), t.TempDir(), sceneParams(2))
	require.NoError(t, err)
	assert.Equal(t, 3, fake.calls[1], "transport failures retry to the cap")
	assert.Contains(t, results[0].FailureReason, "connection reset")
}

func TestRun_AllScenesFail(t *testing.T) {
	fake := newFakeVideoClient()
	fake.failWith[1] = ErrContentRejected
	fake.failWith[2] = ErrContentRejected
	s, _ := newTestSynthesizer(fake, 4)

	_, err := s.Run(context.Background(), uuid.New(), t.TempDir(), sceneParams(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 scenes failed")
}

func TestRun_PublishesProgressBand(t *testing.T) {
	fake := newFakeVideoClient()
	s, b := newTestSynthesizer(fake, 4)
	genID := uuid.New()
	ch, cancel := b.Subscribe(genID)
	defer cancel()

	_, err := s.Run(context.Background(), genID, t.TempDir(), sceneParams(2))
	require.NoError(t, err)

	var progresses []int
	for i := 0; i < 3; i++ {
		ev := <-ch
		require.NotNil(t, ev.Progress)
		assert.Equal(t, models.StepVideos, ev.Progress.Step)
		progresses = append(progresses, ev.Progress.Progress)
	}
	assert.Equal(t, 70, progresses[0])
	for i := 1; i < len(progresses); i++ {
		assert.GreaterOrEqual(t, progresses[i], progresses[i-1], "progress is nondecreasing")
	}
	assert.LessOrEqual(t, progresses[len(progresses)-1], 95)
}

func TestRun_Cancellation(t *testing.T) {
	fake := newFakeVideoClient()
	fake.delay = 200 * time.Millisecond
	s, _ := newTestSynthesizer(fake, 2)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := s.Run(ctx, uuid.New(), t.TempDir(), sceneParams(4))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
