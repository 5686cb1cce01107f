package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/pkg/models"
)

// extractJSONObject pulls the JSON object out of a model response that
// may wrap it in markdown fences or surrounding prose.
func extractJSONObject(content string) (string, error) {
	s := strings.TrimSpace(content)
	if fenced := stripFence(s); fenced != "" {
		s = fenced
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// parseCritique is the single parse point for critic output.
func parseCritique(content string, validStatuses []string) (*models.Critique, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var c models.Critique
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("critique is not valid JSON: %w", err)
	}
	if c.Score < 0 || c.Score > 100 {
		return nil, fmt.Errorf("critique score %d out of range [0,100]", c.Score)
	}
	c.Status = strings.ToLower(strings.TrimSpace(c.Status))
	valid := false
	for _, s := range validStatuses {
		if c.Status == s {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("critique status %q not in %v", c.Status, validStatuses)
	}
	return &c, nil
}

// parseCohesionReport is the single parse point for cohesor output.
// numScenes pins the expected pairwise length.
func parseCohesionReport(content string, numScenes int) (*models.CohesionReport, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var r models.CohesionReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("cohesion report is not valid JSON: %w", err)
	}
	if r.OverallCohesionScore < 0 || r.OverallCohesionScore > 100 {
		return nil, fmt.Errorf("overall cohesion score %d out of range [0,100]", r.OverallCohesionScore)
	}
	if len(r.Pairwise) != numScenes-1 {
		return nil, fmt.Errorf("expected %d pairwise transitions, got %d", numScenes-1, len(r.Pairwise))
	}
	for i, p := range r.Pairwise {
		if p.FromScene != i+1 || p.ToScene != i+2 {
			return nil, fmt.Errorf("pairwise[%d] covers (%d,%d), want (%d,%d)",
				i, p.FromScene, p.ToScene, i+1, i+2)
		}
		if p.TransitionScore < 0 || p.TransitionScore > 100 {
			return nil, fmt.Errorf("pairwise[%d] transition score %d out of range [0,100]", i, p.TransitionScore)
		}
	}
	return &r, nil
}

// parseAlignedScenes is the single parse point for aligner output.
func parseAlignedScenes(content string, numScenes int) ([]string, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}
	var out struct {
		Scenes []string `json:"scenes"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("aligned scenes are not valid JSON: %w", err)
	}
	if len(out.Scenes) != numScenes {
		return nil, fmt.Errorf("expected %d aligned scenes, got %d", numScenes, len(out.Scenes))
	}
	for i, s := range out.Scenes {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("aligned scene %d is empty", i+1)
		}
	}
	return out.Scenes, nil
}
