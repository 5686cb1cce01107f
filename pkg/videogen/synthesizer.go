package videogen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
	"github.com/reelforge/reelforge/pkg/retry"
)

// Synthesis progress band: 70% at dispatch, approaching 95% as scenes
// complete.
const (
	progressVideosStart = 70
	progressVideosEnd   = 95
)

// Synthesizer fans per-scene synthesis calls out to the video model with
// at most K in flight. Queue discipline is FIFO in input order.
type Synthesizer struct {
	client      Client
	bus         *bus.Bus
	sem         *semaphore.Weighted
	policy      retry.Policy
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewSynthesizer wires a Synthesizer from config.
func NewSynthesizer(client Client, b *bus.Bus, cfg config.VideoConfig, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	policy := retry.Default()
	policy.MaxAttempts = cfg.MaxRetries
	policy.Retryable = func(err error) bool { return !errors.Is(err, ErrContentRejected) }

	return &Synthesizer{
		client:      client,
		bus:         b,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		policy:      policy,
		callTimeout: cfg.CallTimeout,
		logger:      logger.With("component", "synthesizer"),
	}
}

// Run synthesizes all scenes, persisting each successful clip to
// sceneDir as scene_{NN}.mp4. Results preserve input order. The run
// succeeds when at least one scene does; it fails only when every scene
// fails or the context is cancelled.
func (s *Synthesizer) Run(ctx context.Context, generationID uuid.UUID,
	sceneDir string, params []models.VideoPromptParameters) ([]models.SceneResult, error) {

	if len(params) == 0 {
		return nil, fmt.Errorf("no scenes to synthesize")
	}
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating scene directory: %w", err)
	}

	s.publishProgress(generationID, models.ProgressInProgress, progressVideosStart,
		fmt.Sprintf("Synthesizing %d scene videos", len(params)))

	results := make([]models.SceneResult, len(params))
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
	)

	for i, p := range params {
		// Acquiring in submission order keeps the queue FIFO.
		if err := s.sem.Acquire(ctx, 1); err != nil {
			results[i] = models.SceneResult{SceneNumber: p.SceneNumber, FailureReason: "cancelled"}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)

			results[i] = s.synthesizeScene(ctx, sceneDir, p)

			mu.Lock()
			completed++
			pct := progressVideosStart +
				(progressVideosEnd-progressVideosStart)*completed/len(params)
			done := completed
			mu.Unlock()
			s.publishProgress(generationID, models.ProgressInProgress, pct,
				fmt.Sprintf("Scene videos completed: %d of %d", done, len(params)))
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	succeeded := 0
	for _, r := range results {
		if r.FilePath != "" {
			succeeded++
		}
	}
	s.logger.Info("synthesis finished",
		"generation_id", generationID,
		"succeeded", succeeded, "failed", len(params)-succeeded)
	if succeeded == 0 {
		return results, fmt.Errorf("all %d scenes failed synthesis: %s",
			len(params), results[0].FailureReason)
	}
	return results, nil
}

// synthesizeScene runs one scene through the retry policy and persists
// the clip on success.
func (s *Synthesizer) synthesizeScene(ctx context.Context, sceneDir string,
	p models.VideoPromptParameters) models.SceneResult {

	var out *Result
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
		var err error
		out, err = s.client.Generate(callCtx, p)
		return err
	})
	if err != nil {
		s.logger.Warn("scene synthesis failed",
			"scene", p.SceneNumber, "error", err)
		reason := err.Error()
		if errors.Is(err, context.Canceled) {
			reason = "cancelled"
		}
		return models.SceneResult{SceneNumber: p.SceneNumber, FailureReason: reason}
	}

	path := filepath.Join(sceneDir, fmt.Sprintf("scene_%02d.mp4", p.SceneNumber))
	if err := os.WriteFile(path, out.VideoBytes, 0o644); err != nil {
		s.logger.Error("writing scene clip failed", "scene", p.SceneNumber, "error", err)
		return models.SceneResult{SceneNumber: p.SceneNumber,
			FailureReason: fmt.Sprintf("writing clip: %v", err)}
	}
	return models.SceneResult{SceneNumber: p.SceneNumber, FilePath: path, Cost: out.Cost}
}

func (s *Synthesizer) publishProgress(generationID uuid.UUID,
	status models.ProgressStatus, progress int, message string) {

	s.bus.Publish(generationID, bus.NewProgress(models.ProgressEvent{
		Step:      models.StepVideos,
		Status:    status,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}))
}
