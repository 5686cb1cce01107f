package stitch

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// clipInfo is the probed metadata the filtergraph needs per clip.
type clipInfo struct {
	path     string
	duration float64
	width    int
	height   int
}

// probeClip reads duration and video resolution with ffprobe. An
// unreadable clip fails the whole stitch.
func (s *Stitcher) probeClip(ctx context.Context, path string) (clipInfo, error) {
	out, err := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	).Output()
	if err != nil {
		return clipInfo{}, fmt.Errorf("probing %s: %w", path, err)
	}

	// Two CSV lines: "width,height" then "duration".
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) < 2 {
		return clipInfo{}, fmt.Errorf("probing %s: unexpected ffprobe output %q", path, out)
	}
	dims := strings.Split(strings.TrimSpace(lines[0]), ",")
	if len(dims) < 2 {
		return clipInfo{}, fmt.Errorf("probing %s: missing resolution in %q", path, lines[0])
	}
	width, err := strconv.Atoi(strings.TrimSpace(dims[0]))
	if err != nil {
		return clipInfo{}, fmt.Errorf("probing %s: bad width: %w", path, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(dims[1]))
	if err != nil {
		return clipInfo{}, fmt.Errorf("probing %s: bad height: %w", path, err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
	if err != nil || duration <= 0 {
		return clipInfo{}, fmt.Errorf("probing %s: bad duration %q", path, lines[1])
	}
	return clipInfo{path: path, duration: duration, width: width, height: height}, nil
}
