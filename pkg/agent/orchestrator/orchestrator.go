// Package orchestrator sequences the agent pipeline: story generation,
// scene generation with cohesion analysis, and the enhancement,
// alignment, and sanitization passes that produce the per-scene video
// prompt parameters.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/agent"
	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
	"github.com/reelforge/reelforge/pkg/sanitize"
)

// Progress checkpoints for the orchestrated steps. Synthesis owns the
// 70-95 band and the coordinator owns init, upload, and complete.
const (
	progressStoryStart  = 10
	progressStoryDone   = 25
	progressScenesStart = 25
	progressScenesDone  = 55
	progressParamsStart = 55
	progressParamsDone  = 70
)

// Input is one generation's pipeline input.
type Input struct {
	GenerationID          uuid.UUID
	Prompt                string
	Title                 string
	BrandName             string
	Images                []models.ReferenceImage
	TargetDurationSeconds int

	// MaxStoryIterations overrides the configured cap when positive.
	MaxStoryIterations int

	// GenerateScenes short-circuits the pipeline after Phase 1 when
	// false.
	GenerateScenes bool
}

// Output is everything downstream phases need.
type Output struct {
	Story    models.Story
	Scenes   []models.Scene
	Cohesion *models.CohesionReport
	Params   []models.VideoPromptParameters
}

// Orchestrator drives phases 1-3.
type Orchestrator struct {
	runner    *agent.Runner
	sanitizer *sanitize.Service
	bus       *bus.Bus
	cfg       config.PipelineConfig
	llmLimit  int
	logger    *slog.Logger
}

// New wires an Orchestrator. llmLimit bounds the Phase 3 enhancement
// fan-out.
func New(runner *agent.Runner, sanitizer *sanitize.Service, b *bus.Bus,
	cfg config.PipelineConfig, llmLimit int, logger *slog.Logger) *Orchestrator {

	if logger == nil {
		logger = slog.Default()
	}
	if llmLimit < 1 {
		llmLimit = 1
	}
	return &Orchestrator{
		runner:    runner,
		sanitizer: sanitizer,
		bus:       b,
		cfg:       cfg,
		llmLimit:  llmLimit,
		logger:    logger.With("component", "orchestrator"),
	}
}

// Run executes phases 1-3 for one generation.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Output, error) {
	story, err := o.generateStory(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("story generation: %w", err)
	}
	out := &Output{Story: story}
	if !in.GenerateScenes {
		return out, nil
	}

	scenes, report, err := o.generateScenes(ctx, in, story)
	if err != nil {
		return nil, fmt.Errorf("scene generation: %w", err)
	}
	out.Scenes = scenes
	out.Cohesion = report

	params, err := o.buildVideoParams(ctx, in, scenes)
	if err != nil {
		return nil, fmt.Errorf("video parameter preparation: %w", err)
	}
	out.Params = params
	return out, nil
}

func (o *Orchestrator) publish(generationID uuid.UUID, step models.ProgressStep,
	status models.ProgressStatus, progress int, message string) {

	o.bus.Publish(generationID, bus.NewProgress(models.ProgressEvent{
		Step:      step,
		Status:    status,
		Progress:  progress,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}))
}
