// Package services implements the persistence operations for generation
// records and their conversation history.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/reelforge/reelforge/pkg/database"
	"github.com/reelforge/reelforge/pkg/models"
)

const uniqueViolation = "23505"

// CompletionOutcome carries the terminal payload of a successful
// generation.
type CompletionOutcome struct {
	FinalVideoPath  string
	SceneVideoPaths []string
	NumScenes       int
	StoryScore      int
	CohesionScore   int
	GenerationTime  float64
}

// GenerationService persists generation records. Terminal transitions
// are guarded so completed and failed rows stay immutable.
type GenerationService struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewGenerationService creates a service over the database client.
func NewGenerationService(client *database.Client, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{db: client.DB(), logger: logger.With("component", "generation_service")}
}

// CreateGeneration inserts a new record in state processing.
func (s *GenerationService) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, user_id, prompt, title, brand_name, status, current_step, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		gen.ID, gen.UserID, gen.Prompt, gen.Title, gen.BrandName,
		string(models.GenerationStatusProcessing), gen.CurrentStep, gen.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, gen.ID)
		}
		return fmt.Errorf("creating generation: %w", err)
	}
	return nil
}

// GetGeneration returns the current record for an ID.
func (s *GenerationService) GetGeneration(ctx context.Context, id string) (*models.Generation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, prompt, title, brand_name, status, current_step,
		       final_video_path, scene_video_paths, num_scenes, story_score,
		       cohesion_score, generation_time_seconds, error_message,
		       created_at, completed_at
		FROM generations WHERE id = $1`, id)

	var (
		gen         models.Generation
		status      string
		finalPath   sql.NullString
		scenePaths  []byte
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(&gen.ID, &gen.UserID, &gen.Prompt, &gen.Title, &gen.BrandName,
		&status, &gen.CurrentStep, &finalPath, &scenePaths, &gen.NumScenes,
		&gen.StoryScore, &gen.CohesionScore, &gen.GenerationTime, &errMsg,
		&gen.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading generation: %w", err)
	}

	gen.Status = models.GenerationStatus(status)
	gen.FinalVideoPath = finalPath.String
	gen.ErrorMessage = errMsg.String
	if completedAt.Valid {
		gen.CompletedAt = &completedAt.Time
	}
	if len(scenePaths) > 0 {
		if err := json.Unmarshal(scenePaths, &gen.SceneVideoPaths); err != nil {
			return nil, fmt.Errorf("decoding scene video paths: %w", err)
		}
	}
	return &gen, nil
}

// UpdateCurrentStep records the pipeline phase for the polling fallback.
// Updates against terminal rows are silently skipped.
func (s *GenerationService) UpdateCurrentStep(ctx context.Context, id string, step models.ProgressStep) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generations SET current_step = $2
		WHERE id = $1 AND status = $3`,
		id, string(step), string(models.GenerationStatusProcessing))
	if err != nil {
		return fmt.Errorf("updating current step: %w", err)
	}
	return nil
}

// CompleteGeneration transitions a processing record to completed with
// its outcome payload.
func (s *GenerationService) CompleteGeneration(ctx context.Context, id string, outcome CompletionOutcome) error {
	scenePaths, err := json.Marshal(outcome.SceneVideoPaths)
	if err != nil {
		return fmt.Errorf("encoding scene video paths: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE generations
		SET status = $2, current_step = $3, final_video_path = $4,
		    scene_video_paths = $5, num_scenes = $6, story_score = $7,
		    cohesion_score = $8, generation_time_seconds = $9, completed_at = $10
		WHERE id = $1 AND status = $11`,
		id, string(models.GenerationStatusCompleted), string(models.StepComplete),
		outcome.FinalVideoPath, scenePaths, outcome.NumScenes, outcome.StoryScore,
		outcome.CohesionScore, outcome.GenerationTime, time.Now().UTC(),
		string(models.GenerationStatusProcessing))
	if err != nil {
		return fmt.Errorf("completing generation: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// FailGeneration transitions a processing record to failed with a
// human-readable reason.
func (s *GenerationService) FailGeneration(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE generations
		SET status = $2, error_message = $3, completed_at = $4
		WHERE id = $1 AND status = $5`,
		id, string(models.GenerationStatusFailed), reason, time.Now().UTC(),
		string(models.GenerationStatusProcessing))
	if err != nil {
		return fmt.Errorf("failing generation: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// SetConversationHistory writes the flushed transcript as an ordered
// JSON array.
func (s *GenerationService) SetConversationHistory(ctx context.Context, id string,
	interactions []models.AgentInteraction) error {

	history, err := json.Marshal(interactions)
	if err != nil {
		return fmt.Errorf("encoding conversation history: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE generations SET llm_conversation_history = $2 WHERE id = $1`,
		id, history)
	if err != nil {
		return fmt.Errorf("storing conversation history: %w", err)
	}
	return nil
}

// GetConversation returns the persisted transcript of a terminal
// generation. Unknown or still-processing generations report not found.
func (s *GenerationService) GetConversation(ctx context.Context, id string) ([]models.AgentInteraction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT status, llm_conversation_history FROM generations WHERE id = $1`, id)

	var (
		status  string
		history []byte
	)
	err := row.Scan(&status, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	if models.GenerationStatus(status) == models.GenerationStatusProcessing || len(history) == 0 {
		return nil, fmt.Errorf("%w: conversation for %s not yet available", ErrNotFound, id)
	}

	var interactions []models.AgentInteraction
	if err := json.Unmarshal(history, &interactions); err != nil {
		return nil, fmt.Errorf("decoding conversation history: %w", err)
	}
	return interactions, nil
}

// checkTransition maps a zero-row terminal update to the right error:
// the row either does not exist or is already terminal.
func (s *GenerationService) checkTransition(ctx context.Context, res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking transition: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM generations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking transition: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", ErrTerminal, id)
}
