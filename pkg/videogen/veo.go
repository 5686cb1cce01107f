package videogen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
)

// VeoClient is the production Client backed by the Veo models on the
// Gemini API.
type VeoClient struct {
	client       *genai.Client
	model        string
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewVeoClient builds a client from config.
func NewVeoClient(ctx context.Context, cfg config.VideoConfig, logger *slog.Logger) (*VeoClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating video model client: %w", err)
	}
	return &VeoClient{
		client:       client,
		model:        cfg.Model,
		pollInterval: cfg.PollInterval,
		logger:       logger.With("component", "videogen"),
	}, nil
}

// Generate starts one reference-to-video operation and polls it to
// completion. The first reference image guides subject appearance.
func (c *VeoClient) Generate(ctx context.Context, params models.VideoPromptParameters) (*Result, error) {
	genCfg := &genai.GenerateVideosConfig{
		AspectRatio:     params.AspectRatio,
		Resolution:      params.Resolution,
		NegativePrompt:  params.NegativePrompt,
		DurationSeconds: genai.Ptr(int32(params.DurationSeconds)),
		GenerateAudio:   genai.Ptr(params.GenerateAudio),
	}
	var image *genai.Image
	if len(params.ReferenceImages) > 0 {
		ref := params.ReferenceImages[0]
		image = &genai.Image{ImageBytes: ref.Data, MIMEType: ref.MIMEType}
	}

	start := time.Now()
	op, err := c.client.Models.GenerateVideos(ctx, c.model, params.Prompt, image, genCfg)
	if err != nil {
		return nil, classifyGenerateError(err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		op, err = c.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("polling video operation: %w", err)
		}
	}

	resp := op.Response
	if resp == nil {
		return nil, fmt.Errorf("video operation finished without a response")
	}
	if resp.RAIMediaFilteredCount > 0 {
		reason := "unspecified"
		if len(resp.RAIMediaFilteredReasons) > 0 {
			reason = strings.Join(resp.RAIMediaFilteredReasons, "; ")
		}
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, reason)
	}
	if len(resp.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("video operation returned no videos")
	}

	video := resp.GeneratedVideos[0].Video
	if video == nil {
		return nil, fmt.Errorf("video operation returned an empty video handle")
	}
	if len(video.VideoBytes) == 0 {
		if _, err := c.client.Files.Download(ctx, video, nil); err != nil {
			return nil, fmt.Errorf("downloading video: %w", err)
		}
	}

	c.logger.Info("video synthesized",
		"scene", params.SceneNumber,
		"duration_seconds", params.DurationSeconds,
		"elapsed", time.Since(start),
		"bytes", len(video.VideoBytes))
	return &Result{VideoBytes: video.VideoBytes}, nil
}

// classifyGenerateError surfaces policy refusals as ErrContentRejected
// so the dispatcher skips the retry path for them.
func classifyGenerateError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "safety") || strings.Contains(msg, "policy") ||
		strings.Contains(msg, "blocked") {
		return fmt.Errorf("%w: %v", ErrContentRejected, err)
	}
	return fmt.Errorf("starting video operation: %w", err)
}
