package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/pkg/agent"
	"github.com/reelforge/reelforge/pkg/agent/prompt"
	"github.com/reelforge/reelforge/pkg/models"
)

var storyStatuses = []string{
	string(models.StoryStatusApproved),
	string(models.StoryStatusNeedsRevision),
	string(models.StoryStatusRejected),
}

// generateStory runs the Phase 1 director/critic loop: up to the
// configured cap, terminating early on approval. On cap exhaustion the
// highest-scoring draft wins; ties go to the latest iteration.
func (o *Orchestrator) generateStory(ctx context.Context, in Input) (models.Story, error) {
	maxIter := o.cfg.MaxStoryIterations
	if in.MaxStoryIterations > 0 {
		maxIter = in.MaxStoryIterations
	}
	o.publish(in.GenerationID, models.StepStory, models.ProgressInProgress,
		progressStoryStart, "Drafting the story")

	var (
		best         models.Story
		haveBest     bool
		prevDraft    string
		prevCritique *models.Critique
	)
	for k := 1; k <= maxIter; k++ {
		userPrompt := prompt.StoryDirector(in.Prompt, in.Title, in.BrandName, k, prevDraft, prevCritique)
		var images []models.ReferenceImage
		if k == 1 {
			images = in.Images
		}
		draft, err := o.runner.Run(ctx, in.GenerationID, agent.StoryDirector(),
			userPrompt, images, models.InteractionMetadata{Iteration: k})
		if err != nil {
			return models.Story{}, err
		}
		if strings.TrimSpace(draft) == "" {
			o.logger.Warn("empty story draft", "generation_id", in.GenerationID, "iteration", k)
			continue
		}
		prevDraft = draft

		critique, err := o.runner.RunCritique(ctx, in.GenerationID, agent.StoryCritic(),
			prompt.StoryCritic(draft), storyStatuses, models.InteractionMetadata{Iteration: k})
		if err != nil {
			if errors.Is(err, agent.ErrMalformed) && k < maxIter {
				o.logger.Warn("story critique unusable, continuing",
					"generation_id", in.GenerationID, "iteration", k, "error", err)
				if !haveBest {
					best = models.Story{Content: draft, Status: models.StoryStatusNeedsRevision}
					haveBest = true
				}
				prevCritique = nil
				continue
			}
			return models.Story{}, err
		}
		prevCritique = critique

		if !haveBest || critique.Score >= best.Score {
			best = models.Story{
				Content: draft,
				Score:   critique.Score,
				Status:  models.StoryStatus(critique.Status),
			}
			haveBest = true
		}
		if critique.Score >= o.cfg.StoryApprovalScore {
			best.Status = models.StoryStatusApproved
			o.logger.Info("story approved",
				"generation_id", in.GenerationID, "iteration", k, "score", critique.Score)
			o.publish(in.GenerationID, models.StepStory, models.ProgressCompleted,
				progressStoryDone, fmt.Sprintf("Story approved with score %d", critique.Score))
			return best, nil
		}
		o.logger.Info("story needs revision",
			"generation_id", in.GenerationID, "iteration", k, "score", critique.Score)
	}

	if !haveBest {
		return models.Story{}, fmt.Errorf("no usable story draft after %d iterations", maxIter)
	}
	o.logger.Info("story iteration cap reached, keeping best draft",
		"generation_id", in.GenerationID, "score", best.Score)
	o.publish(in.GenerationID, models.StepStory, models.ProgressCompleted,
		progressStoryDone, fmt.Sprintf("Story finalized with score %d", best.Score))
	return best, nil
}
