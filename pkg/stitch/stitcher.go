// Package stitch assembles the synthesized scene clips into the final
// advertisement video: deterministic composition driven by the per-pair
// transition kinds, executed as a single ffmpeg pass.
package stitch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/reelforge/reelforge/pkg/config"
	"github.com/reelforge/reelforge/pkg/models"
)

// Stitcher composes clips with ffmpeg. It does not retry; a single
// unreadable clip fails the whole stitch.
type Stitcher struct {
	ffmpegPath  string
	ffprobePath string
	spec        graphSpec
	bitrateKbps int
	logger      *slog.Logger
}

// New builds a Stitcher from config.
func New(cfg config.StitchConfig, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stitcher{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		spec: graphSpec{
			frameRate: cfg.FrameRate,
			introFade: cfg.IntroFadeSecs,
			outroFade: cfg.OutroFadeSecs,
		},
		bitrateKbps: cfg.VideoBitrateKbps,
		logger:      logger.With("component", "stitch"),
	}
}

// Run probes each clip, builds the composition graph, and encodes the
// final video to outputPath. A partial output file is removed on
// failure.
func (s *Stitcher) Run(ctx context.Context, clipPaths []string,
	transitions []models.TransitionKind, outputPath string) (string, error) {

	if len(clipPaths) == 0 {
		return "", fmt.Errorf("no clips to stitch")
	}
	if len(transitions) != len(clipPaths)-1 {
		return "", fmt.Errorf("need %d transitions for %d clips, got %d",
			len(clipPaths)-1, len(clipPaths), len(transitions))
	}

	clips := make([]clipInfo, len(clipPaths))
	for i, path := range clipPaths {
		info, err := s.probeClip(ctx, path)
		if err != nil {
			return "", err
		}
		clips[i] = info
	}

	graph, vOut, aOut, err := buildFilterGraph(clips, transitions, s.spec)
	if err != nil {
		return "", err
	}

	args := make([]string, 0, 4*len(clips)+16)
	args = append(args, "-y", "-hide_banner", "-loglevel", "error")
	for _, c := range clips {
		args = append(args, "-i", c.path)
	}
	args = append(args,
		"-filter_complex", graph,
		"-map", "["+vOut+"]",
		"-map", "["+aOut+"]",
		"-r", fmt.Sprintf("%d", s.spec.frameRate),
		"-c:v", "libx264",
		"-b:v", fmt.Sprintf("%dk", s.bitrateKbps),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		outputPath,
	)

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg stitch failed: %w: %s", err, stderr.String())
	}

	s.logger.Info("final video stitched",
		"clips", len(clips),
		"transitions", len(transitions),
		"output", outputPath,
		"elapsed", time.Since(start))
	return outputPath, nil
}
