package orchestrator

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/pkg/agent"
	"github.com/reelforge/reelforge/pkg/agent/prompt"
	"github.com/reelforge/reelforge/pkg/models"
)

var sceneStatuses = []string{
	string(models.SceneStatusApproved),
	string(models.SceneStatusNeedsMinorRevision),
	string(models.SceneStatusNeedsRevision),
}

// generateScenes runs Phase 2: the per-scene writer/critic loops
// followed by the cohesion pass. Scene numbering is dense and 1-indexed,
// and the scene count fixed here is preserved across cohesion rewrites.
func (o *Orchestrator) generateScenes(ctx context.Context, in Input,
	story models.Story) ([]models.Scene, *models.CohesionReport, error) {

	numScenes := models.SceneCountForDuration(in.TargetDurationSeconds)
	durations := sceneDurations(in.TargetDurationSeconds, numScenes)
	o.publish(in.GenerationID, models.StepScenes, models.ProgressInProgress,
		progressScenesStart, fmt.Sprintf("Writing %d scenes", numScenes))

	scenes := make([]models.Scene, 0, numScenes)
	for n := 1; n <= numScenes; n++ {
		scene, err := o.draftScene(ctx, in, story, n, numScenes, durations[n-1], scenes, "")
		if err != nil {
			return nil, nil, err
		}
		scenes = append(scenes, scene)
		pct := progressScenesStart +
			(progressScenesDone-progressScenesStart-5)*n/numScenes
		o.publish(in.GenerationID, models.StepScenes, models.ProgressInProgress,
			pct, fmt.Sprintf("Scene %d of %d written (score %d)", n, numScenes, scene.Score))
	}
	if len(scenes) == 0 {
		return nil, nil, fmt.Errorf("no scenes produced")
	}

	report, err := o.cohesionPass(ctx, in, story, scenes)
	if err != nil {
		return nil, nil, err
	}
	o.publish(in.GenerationID, models.StepScenes, models.ProgressCompleted,
		progressScenesDone, fmt.Sprintf("Scenes finalized, cohesion %d", report.OverallCohesionScore))
	return scenes, report, nil
}

// draftScene runs the writer/critic loop for one scene, up to the
// configured cap with early termination on approval. On exhaustion the
// highest-scoring draft is kept; ties go to the latest iteration.
func (o *Orchestrator) draftScene(ctx context.Context, in Input, story models.Story,
	n, numScenes, durationSeconds int, approved []models.Scene,
	cohesionFeedback string) (models.Scene, error) {

	var (
		best     models.Scene
		haveBest bool
		critique *models.Critique
	)
	for k := 1; k <= o.cfg.MaxSceneIterations; k++ {
		userPrompt := prompt.SceneWriter(story.Content, n, numScenes, durationSeconds,
			approved, critique, cohesionFeedback)
		meta := models.InteractionMetadata{Iteration: k, SceneNumber: n}
		draft, err := o.runner.Run(ctx, in.GenerationID, agent.SceneWriter(), userPrompt, nil, meta)
		if err != nil {
			return models.Scene{}, err
		}

		critique, err = o.runner.RunCritique(ctx, in.GenerationID, agent.SceneCritic(),
			prompt.SceneCritic(draft, n, durationSeconds, approved), sceneStatuses, meta)
		if err != nil {
			return models.Scene{}, err
		}

		if !haveBest || critique.Score >= best.Score {
			best = models.Scene{
				Number:          n,
				DurationSeconds: durationSeconds,
				Content:         draft,
				Score:           critique.Score,
				Status:          models.SceneStatus(critique.Status),
			}
			haveBest = true
		}
		if critique.Score >= o.cfg.SceneApprovalScore {
			best.Status = models.SceneStatusApproved
			return best, nil
		}
	}
	if !haveBest {
		return models.Scene{}, fmt.Errorf("scene %d produced no usable draft", n)
	}
	o.logger.Info("scene iteration cap reached, keeping best draft",
		"generation_id", in.GenerationID, "scene", n, "score", best.Score)
	return best, nil
}

// cohesionPass runs the Step B loop: analyze, and while below threshold,
// rewrite the flagged scenes and re-analyze. The scene count never
// changes here. On cap exhaustion the last report stands.
func (o *Orchestrator) cohesionPass(ctx context.Context, in Input,
	story models.Story, scenes []models.Scene) (*models.CohesionReport, error) {

	var report *models.CohesionReport
	for k := 1; k <= o.cfg.MaxCohesionIterations; k++ {
		var err error
		report, err = o.runner.RunCohesion(ctx, in.GenerationID,
			prompt.SceneCohesor(scenes), len(scenes), models.InteractionMetadata{Iteration: k})
		if err != nil {
			return nil, err
		}
		if report.OverallCohesionScore >= o.cfg.CohesionApprovalScore {
			o.logger.Info("cohesion approved",
				"generation_id", in.GenerationID, "iteration", k,
				"score", report.OverallCohesionScore)
			return report, nil
		}
		if k == o.cfg.MaxCohesionIterations || len(report.SceneFeedback) == 0 {
			break
		}

		for num, feedback := range report.SceneFeedback {
			if num < 1 || num > len(scenes) {
				o.logger.Warn("cohesion feedback names unknown scene",
					"generation_id", in.GenerationID, "scene", num)
				continue
			}
			others := make([]models.Scene, 0, len(scenes)-1)
			for _, s := range scenes {
				if s.Number != num {
					others = append(others, s)
				}
			}
			rewritten, err := o.draftScene(ctx, in, story, num, len(scenes),
				scenes[num-1].DurationSeconds, others, feedback)
			if err != nil {
				return nil, err
			}
			scenes[num-1] = rewritten
		}
	}
	o.logger.Info("cohesion cap reached, keeping last report",
		"generation_id", in.GenerationID, "score", report.OverallCohesionScore)
	return report, nil
}

// sceneDurations splits the target duration across n scenes using the
// valid clip lengths, greedily tracking the per-scene average of what
// remains.
func sceneDurations(targetSeconds, n int) []int {
	durations := make([]int, n)
	remaining := targetSeconds
	for i := 0; i < n; i++ {
		left := n - i
		avg := float64(remaining) / float64(left)
		var d int
		switch {
		case avg <= 5:
			d = 4
		case avg <= 7:
			d = 6
		default:
			d = 8
		}
		durations[i] = d
		remaining -= d
	}
	return durations
}
