// Package coordinator is the generation entry point: it validates
// submissions, reserves IDs, prepares the scratch area, and drives the
// pipeline phases in the background while streaming progress.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/agent/orchestrator"
	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
	"github.com/reelforge/reelforge/pkg/recorder"
	"github.com/reelforge/reelforge/pkg/services"
)

// GenerationStore is the persistence surface the coordinator needs.
type GenerationStore interface {
	CreateGeneration(ctx context.Context, gen *models.Generation) error
	CompleteGeneration(ctx context.Context, id string, outcome services.CompletionOutcome) error
	FailGeneration(ctx context.Context, id, reason string) error
	UpdateCurrentStep(ctx context.Context, id string, step models.ProgressStep) error
	SetConversationHistory(ctx context.Context, id string, interactions []models.AgentInteraction) error
}

// Pipeline runs phases 1-3.
type Pipeline interface {
	Run(ctx context.Context, in orchestrator.Input) (*orchestrator.Output, error)
}

// SceneSynthesizer runs phase 4 synthesis.
type SceneSynthesizer interface {
	Run(ctx context.Context, generationID uuid.UUID, sceneDir string,
		params []models.VideoPromptParameters) ([]models.SceneResult, error)
}

// VideoStitcher assembles the final video.
type VideoStitcher interface {
	Run(ctx context.Context, clipPaths []string, transitions []models.TransitionKind,
		outputPath string) (string, error)
}

// Coordinator accepts submissions and supervises running generations.
type Coordinator struct {
	cfg      *config.Config
	bus      *bus.Bus
	recorder *recorder.Recorder
	store    GenerationStore
	pipeline Pipeline
	synth    SceneSynthesizer
	stitcher VideoStitcher
	logger   *slog.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
}

// New wires a Coordinator.
func New(cfg *config.Config, b *bus.Bus, rec *recorder.Recorder, store GenerationStore,
	pipeline Pipeline, synth SceneSynthesizer, stitcher VideoStitcher, logger *slog.Logger) *Coordinator {

	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:      cfg,
		bus:      b,
		recorder: rec,
		store:    store,
		pipeline: pipeline,
		synth:    synth,
		stitcher: stitcher,
		logger:   logger.With("component", "coordinator"),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit validates a submission, creates the record and progress queue,
// stages the reference images, and starts the pipeline in the
// background. It returns as soon as the record and queue exist.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) (uuid.UUID, error) {
	id, err := c.validate(&sub)
	if err != nil {
		return uuid.Nil, err
	}

	// A subscriber may have created the queue already; Create is
	// idempotent either way.
	c.bus.Create(id)

	gen := &models.Generation{
		ID:          id.String(),
		UserID:      sub.UserID,
		Prompt:      sub.Prompt,
		Title:       sub.Title,
		BrandName:   sub.BrandName,
		Status:      models.GenerationStatusProcessing,
		CurrentStep: string(models.StepInit),
		CreatedAt:   time.Now().UTC(),
	}
	if err := c.store.CreateGeneration(ctx, gen); err != nil {
		return uuid.Nil, fmt.Errorf("creating generation record: %w", err)
	}

	c.publish(id, models.StepInit, models.ProgressInProgress, 0, "Generation accepted")

	scratchDir := filepath.Join(c.cfg.Storage.BasePath, sub.UserID, id.String())
	c.publish(id, models.StepUpload, models.ProgressInProgress, 5, "Staging reference images")
	if err := stageReferenceImages(scratchDir, sub.Images); err != nil {
		reason := fmt.Sprintf("staging reference images: %v", err)
		c.finishFailed(id, models.StepUpload, reason)
		return uuid.Nil, errors.New(reason)
	}
	c.publish(id, models.StepUpload, models.ProgressCompleted, 10,
		fmt.Sprintf("Staged %d reference images", len(sub.Images)))

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.cancels[id] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.cancels, id)
			c.mu.Unlock()
			cancel()
		}()
		c.run(runCtx, id, sub, scratchDir)
	}()
	return id, nil
}

// Cancel aborts a running generation. It reports whether a running
// generation was found.
func (c *Coordinator) Cancel(id uuid.UUID) bool {
	c.mu.Lock()
	cancel, ok := c.cancels[id]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels every running generation and waits for their
// terminal transitions.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	for _, cancel := range c.cancels {
		cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// run drives phases 1-4 for one generation and records the outcome.
func (c *Coordinator) run(ctx context.Context, id uuid.UUID, sub Submission, scratchDir string) {
	start := time.Now()
	step := models.StepStory
	fail := func(reason string) {
		if ctx.Err() != nil {
			reason = "cancelled"
		}
		c.finishFailed(id, step, reason)
	}

	_ = c.store.UpdateCurrentStep(ctx, id.String(), models.StepStory)
	out, err := c.pipeline.Run(ctx, orchestrator.Input{
		GenerationID:          id,
		Prompt:                sub.Prompt,
		Title:                 sub.Title,
		BrandName:             sub.BrandName,
		Images:                sub.Images,
		TargetDurationSeconds: sub.TargetDurationSeconds,
		MaxStoryIterations:    sub.MaxStoryIterations,
		GenerateScenes:        boolOrTrue(sub.GenerateScenes),
	})
	if err != nil {
		fail(err.Error())
		return
	}

	outcome := services.CompletionOutcome{
		StoryScore:     out.Story.Score,
		NumScenes:      len(out.Scenes),
		GenerationTime: time.Since(start).Seconds(),
	}
	if out.Cohesion != nil {
		outcome.CohesionScore = out.Cohesion.OverallCohesionScore
	}
	if !boolOrTrue(sub.GenerateScenes) || !boolOrTrue(sub.GenerateVideos) {
		outcome.GenerationTime = time.Since(start).Seconds()
		c.finishCompleted(id, outcome)
		return
	}

	step = models.StepVideos
	_ = c.store.UpdateCurrentStep(ctx, id.String(), models.StepVideos)
	sceneDir := filepath.Join(scratchDir, "scene_videos")
	results, err := c.synth.Run(ctx, id, sceneDir, out.Params)
	if err != nil {
		fail(fmt.Sprintf("video synthesis: %v", err))
		return
	}

	clips, surviving, scenePaths := survivingClips(results)
	transitions, err := models.PlanTransitions(out.Cohesion, surviving)
	if err != nil {
		fail(fmt.Sprintf("planning transitions: %v", err))
		return
	}

	finalPath := filepath.Join(scratchDir, fmt.Sprintf("final_video_%d.mp4", time.Now().Unix()))
	if _, err := c.stitcher.Run(ctx, clips, transitions, finalPath); err != nil {
		fail(fmt.Sprintf("stitching: %v", err))
		return
	}

	outcome.FinalVideoPath = c.urlPath(finalPath)
	outcome.SceneVideoPaths = make([]string, len(scenePaths))
	for i, p := range scenePaths {
		outcome.SceneVideoPaths[i] = c.urlPath(p)
	}
	outcome.NumScenes = len(clips)
	outcome.GenerationTime = time.Since(start).Seconds()
	c.finishCompleted(id, outcome)
}

// finishCompleted performs the terminal success transition: persist the
// outcome, flush the conversation, emit the completion event, close the
// queue.
func (c *Coordinator) finishCompleted(id uuid.UUID, outcome services.CompletionOutcome) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelCtx()

	if err := c.store.CompleteGeneration(ctx, id.String(), outcome); err != nil {
		c.logger.Error("recording completion failed", "generation_id", id, "error", err)
	}
	c.flushConversation(ctx, id)

	c.bus.Publish(id, bus.NewProgress(models.ProgressEvent{
		Step:     models.StepComplete,
		Status:   models.ProgressCompleted,
		Progress: 100,
		Message:  "Generation completed",
		Data: map[string]any{
			"final_video_path": outcome.FinalVideoPath,
			"scene_videos":     outcome.SceneVideoPaths,
			"num_scenes":       outcome.NumScenes,
			"story_score":      outcome.StoryScore,
			"cohesion_score":   outcome.CohesionScore,
		},
		Timestamp: time.Now().UTC(),
	}))
	c.bus.Close(id)
	c.logger.Info("generation completed",
		"generation_id", id,
		"num_scenes", outcome.NumScenes,
		"elapsed_seconds", outcome.GenerationTime)
}

// finishFailed performs the terminal failure transition.
func (c *Coordinator) finishFailed(id uuid.UUID, step models.ProgressStep, reason string) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelCtx()

	if err := c.store.FailGeneration(ctx, id.String(), reason); err != nil {
		c.logger.Error("recording failure failed", "generation_id", id, "error", err)
	}
	c.flushConversation(ctx, id)

	c.bus.Publish(id, bus.NewProgress(models.ProgressEvent{
		Step:   step,
		Status: models.ProgressFailed,
		// Keep the subscriber-visible progress nondecreasing.
		Progress:  c.bus.LastProgress(id),
		Message:   reason,
		Timestamp: time.Now().UTC(),
	}))
	c.bus.Close(id)
	c.logger.Warn("generation failed", "generation_id", id, "reason", reason)
}

// flushConversation moves the in-memory transcript to the persistent
// record and clears it.
func (c *Coordinator) flushConversation(ctx context.Context, id uuid.UUID) {
	interactions := c.recorder.Get(id)
	if err := c.store.SetConversationHistory(ctx, id.String(), interactions); err != nil {
		c.logger.Error("flushing conversation failed", "generation_id", id, "error", err)
		return
	}
	c.recorder.Clear(id)
}

func (c *Coordinator) publish(id uuid.UUID, step models.ProgressStep,
	status models.ProgressStatus, progress int, message string) {

	c.bus.Publish(id, bus.NewProgress(models.ProgressEvent{
		Step:      step,
		Status:    status,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}))
}

// urlPath converts an absolute scratch path to its URL form: base prefix
// stripped, forward slashes, leading slash.
func (c *Coordinator) urlPath(absPath string) string {
	rel := strings.TrimPrefix(absPath, c.cfg.Storage.BasePath)
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// stageReferenceImages copies the uploaded images into the scratch area
// with deterministic names.
func stageReferenceImages(scratchDir string, images []models.ReferenceImage) error {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	for _, img := range images {
		name := fmt.Sprintf("reference_%d_%s", img.Index, filepath.Base(img.Name))
		if err := os.WriteFile(filepath.Join(scratchDir, name), img.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

// survivingClips extracts the successful clips in scene order.
func survivingClips(results []models.SceneResult) (clips []string, surviving []int, paths []string) {
	for _, r := range results {
		if r.FilePath != "" {
			clips = append(clips, r.FilePath)
			surviving = append(surviving, r.SceneNumber)
			paths = append(paths, r.FilePath)
		}
	}
	return clips, surviving, paths
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}
