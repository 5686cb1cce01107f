package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge/pkg/agent/prompt"
	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/llm"
	"github.com/reelforge/reelforge/pkg/models"
	"github.com/reelforge/reelforge/pkg/recorder"
)

// ErrMalformed is returned when a structured role's output still fails
// to parse after the format-correction retries.
var ErrMalformed = errors.New("agent response malformed after retries")

// parseRetries is the number of attempts a structured role gets before
// ErrMalformed; attempts after the first carry a schema reminder.
const parseRetries = 3

// Runner dispatches any Agent against the LLM client and mirrors every
// exchange to the progress bus and the conversation recorder.
type Runner struct {
	llm      llm.Client
	bus      *bus.Bus
	recorder *recorder.Recorder
	logger   *slog.Logger
}

// NewRunner wires a Runner.
func NewRunner(client llm.Client, b *bus.Bus, rec *recorder.Recorder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{llm: client, bus: b, recorder: rec, logger: logger.With("component", "agent")}
}

// Run executes one agent call: publishes the prompt interaction, calls
// the model, publishes the response interaction with the caller's
// metadata, and returns the raw response text.
func (r *Runner) Run(ctx context.Context, generationID uuid.UUID, ag Agent,
	userPrompt string, images []models.ReferenceImage, meta models.InteractionMetadata) (string, error) {

	content, err := r.exchange(ctx, generationID, ag, userPrompt, images, meta)
	if err != nil {
		return "", err
	}
	meta.WordCount = wordCount(content)
	r.emit(generationID, ag.Name, models.InteractionResponse, content, meta)
	return content, nil
}

// exchange publishes the prompt interaction, calls the model, and logs
// the call. Emitting the response interaction is left to the caller so
// metadata parsed out of the content can ride on it.
func (r *Runner) exchange(ctx context.Context, generationID uuid.UUID, ag Agent,
	userPrompt string, images []models.ReferenceImage, meta models.InteractionMetadata) (string, error) {

	r.emit(generationID, ag.Name, models.InteractionPrompt, userPrompt, meta)

	start := time.Now()
	resp, err := r.llm.Complete(ctx, llm.Request{
		SystemPrompt: ag.SystemPrompt,
		UserPrompt:   userPrompt,
		Images:       images,
		JSONMode:     ag.JSONMode,
		Temperature:  ag.Temperature,
		MaxTokens:    ag.MaxTokens,
	})
	if err != nil {
		r.logger.Error("agent call failed",
			"agent", ag.Name, "generation_id", generationID,
			"elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("agent %s: %w", ag.Name, err)
	}

	r.logger.Info("agent call completed",
		"agent", ag.Name, "generation_id", generationID,
		"elapsed", time.Since(start),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)
	return resp.Content, nil
}

// RunEnhancer runs the enhancer for one scene and stamps the measured
// expansion on the response interaction. The monotonic-expansion
// fallback stays with the caller.
func (r *Runner) RunEnhancer(ctx context.Context, generationID uuid.UUID,
	scene models.Scene) (string, float64, error) {

	ag := SceneEnhancer()
	meta := models.InteractionMetadata{SceneNumber: scene.Number}
	content, err := r.exchange(ctx, generationID, ag, prompt.SceneEnhancer(scene), nil, meta)
	if err != nil {
		return "", 0, err
	}

	expansion := 0.0
	if len(scene.Content) > 0 {
		expansion = 100 * float64(len(content)-len(scene.Content)) / float64(len(scene.Content))
	}
	meta.WordCount = wordCount(content)
	meta.ExpansionPercent = expansion
	r.emit(generationID, ag.Name, models.InteractionResponse, content, meta)
	return content, expansion, nil
}

// RunCritique runs a critic role and parses its structured output,
// retrying with a schema reminder on malformed responses.
func (r *Runner) RunCritique(ctx context.Context, generationID uuid.UUID, ag Agent,
	userPrompt string, validStatuses []string, meta models.InteractionMetadata) (*models.Critique, error) {

	var lastErr error
	p := userPrompt
	for attempt := 1; attempt <= parseRetries; attempt++ {
		content, err := r.exchange(ctx, generationID, ag, p, nil, meta)
		if err != nil {
			return nil, err
		}
		respMeta := meta
		respMeta.WordCount = wordCount(content)
		critique, err := parseCritique(content, validStatuses)
		if err == nil {
			respMeta.Score = critique.Score
			respMeta.Status = critique.Status
			r.emit(generationID, ag.Name, models.InteractionResponse, content, respMeta)
			return critique, nil
		}
		// Malformed responses still go on the record.
		r.emit(generationID, ag.Name, models.InteractionResponse, content, respMeta)
		lastErr = err
		r.logger.Warn("critique parse failed",
			"agent", ag.Name, "generation_id", generationID,
			"attempt", attempt, "error", err)
		p = prompt.WithSchemaReminder(userPrompt)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, ag.Name, lastErr)
}

// RunCohesion runs the cohesor and parses its report, with the same
// parse-retry discipline as RunCritique.
func (r *Runner) RunCohesion(ctx context.Context, generationID uuid.UUID,
	userPrompt string, numScenes int, meta models.InteractionMetadata) (*models.CohesionReport, error) {

	ag := SceneCohesor()
	var lastErr error
	p := userPrompt
	for attempt := 1; attempt <= parseRetries; attempt++ {
		content, err := r.exchange(ctx, generationID, ag, p, nil, meta)
		if err != nil {
			return nil, err
		}
		respMeta := meta
		respMeta.WordCount = wordCount(content)
		report, err := parseCohesionReport(content, numScenes)
		if err == nil {
			respMeta.Score = report.OverallCohesionScore
			r.emit(generationID, ag.Name, models.InteractionResponse, content, respMeta)
			return report, nil
		}
		r.emit(generationID, ag.Name, models.InteractionResponse, content, respMeta)
		lastErr = err
		r.logger.Warn("cohesion report parse failed",
			"generation_id", generationID, "attempt", attempt, "error", err)
		p = prompt.WithSchemaReminder(userPrompt)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, ag.Name, lastErr)
}

// RunAligner runs the aligner over all enhanced scenes in a single call
// and parses the rewritten array.
func (r *Runner) RunAligner(ctx context.Context, generationID uuid.UUID,
	enhanced []string, meta models.InteractionMetadata) ([]string, error) {

	ag := SceneAligner()
	userPrompt := prompt.SceneAligner(enhanced)
	var lastErr error
	p := userPrompt
	for attempt := 1; attempt <= parseRetries; attempt++ {
		content, err := r.Run(ctx, generationID, ag, p, nil, meta)
		if err != nil {
			return nil, err
		}
		scenes, err := parseAlignedScenes(content, len(enhanced))
		if err == nil {
			return scenes, nil
		}
		lastErr = err
		r.logger.Warn("aligned scenes parse failed",
			"generation_id", generationID, "attempt", attempt, "error", err)
		p = prompt.WithSchemaReminder(userPrompt)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, ag.Name, lastErr)
}

func (r *Runner) emit(generationID uuid.UUID, agentName string,
	kind models.InteractionType, content string, meta models.InteractionMetadata) {

	interaction := models.AgentInteraction{
		AgentName:       agentName,
		InteractionType: kind,
		Content:         content,
		Metadata:        meta,
		Timestamp:       time.Now().UTC(),
	}
	r.recorder.Append(generationID, interaction)
	r.bus.Publish(generationID, bus.NewInteraction(interaction))
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
