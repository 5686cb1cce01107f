// ReelForge server — accepts ad-video generation requests over HTTP,
// runs the multi-agent story and scene pipeline, synthesizes scene
// clips, and stitches the final video.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/reelforge/reelforge/pkg/agent"
	"github.com/reelforge/reelforge/pkg/agent/orchestrator"
	"github.com/reelforge/reelforge/pkg/api"
	"github.com/reelforge/reelforge/pkg/bus"
	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/coordinator"
	"github.com/reelforge/reelforge/pkg/database"
	"github.com/reelforge/reelforge/pkg/llm"
	"github.com/reelforge/reelforge/pkg/recorder"
	"github.com/reelforge/reelforge/pkg/sanitize"
	"github.com/reelforge/reelforge/pkg/services"
	"github.com/reelforge/reelforge/pkg/stitch"
	"github.com/reelforge/reelforge/pkg/version"
	"github.com/reelforge/reelforge/pkg/videogen"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment", "error", err)
	}

	slog.Info("Starting ReelForge", "version", version.Full())

	ctx := context.Background()

	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Database
	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		slog.Error("Failed to load database config", "error", err)
		os.Exit(1)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			slog.Error("Error closing database client", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL database")

	// 3. Streaming and persistence services
	progressBus := bus.New(cfg.Bus.SubscriberBuffer, nil)
	conversationRecorder := recorder.New()
	generationService := services.NewGenerationService(dbClient, nil)

	// 4. Model clients
	llmClient := llm.NewOpenAIClient(cfg.LLM, nil)
	videoClient, err := videogen.NewVeoClient(ctx, cfg.Video, nil)
	if err != nil {
		slog.Error("Failed to initialize video client", "error", err)
		os.Exit(1)
	}
	slog.Info("Model clients initialized",
		"llm_model", cfg.LLM.Model, "video_model", cfg.Video.Model)

	// 5. Pipeline
	runner := agent.NewRunner(llmClient, progressBus, conversationRecorder, nil)
	sanitizer := sanitize.New(nil)
	pipeline := orchestrator.New(runner, sanitizer, progressBus, cfg.Pipeline, cfg.LLM.Concurrency, nil)
	synthesizer := videogen.NewSynthesizer(videoClient, progressBus, cfg.Video, nil)
	stitcher := stitch.New(cfg.Stitch, nil)

	coord := coordinator.New(cfg, progressBus, conversationRecorder, generationService,
		pipeline, synthesizer, stitcher, nil)

	// 6. HTTP server (non-blocking)
	httpServer := api.NewServer(cfg, dbClient, coord, generationService, progressBus, nil)
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.HTTP.Port
		slog.Info("HTTP server listening", "addr", addr)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown: stop accepting requests, then cancel running
	// generations and wait for their terminal transitions.
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	done := make(chan struct{})
	go func() {
		coord.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		slog.Info("Running generations stopped gracefully")
	case <-shutdownCtx.Done():
		slog.Warn("Shutdown timeout exceeded with generations still finishing")
	}
	slog.Info("ReelForge stopped")
}
