// Package sanitize strips invented human-appearance descriptors from
// scene prompts so the video model stays faithful to the uploaded
// reference images. Phrasing already anchored to a reference image is
// preserved verbatim.
package sanitize

import (
	"fmt"
	"log/slog"
	"strings"
)

// Result is the outcome of sanitizing one prompt.
type Result struct {
	Text         string
	RemovedChars int
	// Matches counts replacements per pattern name. Empty when the
	// prompt was already clean.
	Matches map[string]int
}

// Service applies the built-in descriptor patterns. Thread-safe and
// stateless aside from compiled patterns.
type Service struct {
	patterns []*CompiledPattern
	logger   *slog.Logger
}

// New creates a sanitizer with the built-in pattern set.
func New(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		patterns: builtinPatterns,
		logger:   logger.With("component", "sanitize"),
	}
}

// Sanitize rewrites a single prompt. Anchored reference-image phrases
// are masked out before pattern application and restored afterwards, so
// "the exact same woman from Reference Image 1" survives even though
// "woman" alone would match an ethnicity rule's subject group.
func (s *Service) Sanitize(prompt string) Result {
	anchors := anchorRegex.FindAllString(prompt, -1)
	working := prompt
	for i, a := range anchors {
		working = strings.Replace(working, a, anchorPlaceholder(i), 1)
	}

	matches := make(map[string]int)
	for _, p := range s.patterns {
		found := p.Regex.FindAllString(working, -1)
		if len(found) == 0 {
			continue
		}
		matches[p.Name] += len(found)
		working = p.Regex.ReplaceAllString(working, p.Replacement)
	}

	for i, a := range anchors {
		working = strings.Replace(working, anchorPlaceholder(i), a, 1)
	}
	working = collapseSpaces(working)

	removed := len(prompt) - len(working)
	if removed < 0 {
		removed = 0
	}
	if len(matches) == 0 {
		matches = nil
	}
	return Result{Text: working, RemovedChars: removed, Matches: matches}
}

// SanitizeScene wraps Sanitize with per-scene stat logging.
func (s *Service) SanitizeScene(sceneNumber int, prompt string) Result {
	res := s.Sanitize(prompt)
	if res.Matches != nil {
		s.logger.Info("sanitized scene prompt",
			"scene", sceneNumber,
			"removed_chars", res.RemovedChars,
			"patterns_hit", len(res.Matches))
	}
	return res
}

func anchorPlaceholder(i int) string {
	return fmt.Sprintf("\x00ANCHOR%d\x00", i)
}

// collapseSpaces tidies the residue replacements leave behind: runs of
// spaces, space before punctuation, doubled commas.
func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.ReplaceAll(s, " ,", ",")
	s = strings.ReplaceAll(s, " .", ".")
	for strings.Contains(s, ",,") {
		s = strings.ReplaceAll(s, ",,", ",")
	}
	return strings.TrimSpace(s)
}
