package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/reelforge/reelforge/pkg/models"
)

// buildVideoParams runs Phase 3: parallel per-scene enhancement, the
// single-call alignment pass, and local sanitization. Each pass runs
// exactly once.
func (o *Orchestrator) buildVideoParams(ctx context.Context, in Input,
	scenes []models.Scene) ([]models.VideoPromptParameters, error) {

	o.publish(in.GenerationID, models.StepVideoParams, models.ProgressInProgress,
		progressParamsStart, "Enhancing scene prompts")

	enhanced, err := o.enhanceScenes(ctx, in, scenes)
	if err != nil {
		return nil, err
	}

	aligned, err := o.runner.RunAligner(ctx, in.GenerationID, enhanced,
		models.InteractionMetadata{})
	if err != nil {
		return nil, err
	}

	params := make([]models.VideoPromptParameters, 0, len(scenes))
	allEmpty := true
	for i, scene := range scenes {
		scenes[i].EnhancedContent = aligned[i]
		res := o.sanitizer.SanitizeScene(scene.Number, aligned[i])
		if strings.TrimSpace(res.Text) != "" {
			allEmpty = false
		}
		params = append(params, models.VideoPromptParameters{
			SceneNumber:     scene.Number,
			Prompt:          res.Text,
			NegativePrompt:  models.NegativePrompt,
			DurationSeconds: scene.DurationSeconds,
			AspectRatio:     models.VideoAspectRatio,
			Resolution:      models.VideoResolution,
			GenerateAudio:   true,
			ReferenceImages: in.Images,
			Metadata: map[string]any{
				"content_chars":   len(scene.Content),
				"enhanced_chars":  len(aligned[i]),
				"sanitized_chars": len(res.Text),
				"removed_chars":   res.RemovedChars,
			},
		})
	}
	if allEmpty {
		return nil, fmt.Errorf("sanitization emptied every scene prompt")
	}

	o.publish(in.GenerationID, models.StepVideoParams, models.ProgressCompleted,
		progressParamsDone, fmt.Sprintf("Prepared %d video prompts", len(params)))
	return params, nil
}

// enhanceScenes fans the enhancer out across all scenes, bounded by the
// LLM concurrency limit. Expansion must be monotonic; a shrunken result
// falls back to the original content.
func (o *Orchestrator) enhanceScenes(ctx context.Context, in Input,
	scenes []models.Scene) ([]string, error) {

	enhanced := make([]string, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.llmLimit)

	for i, scene := range scenes {
		g.Go(func() error {
			out, expansion, err := o.runner.RunEnhancer(gctx, in.GenerationID, scene)
			if err != nil {
				return err
			}
			if len(out) < len(scene.Content) {
				o.logger.Warn("enhancement shrank scene, keeping original",
					"generation_id", in.GenerationID, "scene", scene.Number,
					"expansion_percent", expansion)
				out = scene.Content
			} else {
				o.logger.Info("scene enhanced",
					"generation_id", in.GenerationID, "scene", scene.Number,
					"expansion_percent", expansion)
			}
			enhanced[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enhanced, nil
}
