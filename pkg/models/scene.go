package models

// SceneStatus is the scene critic's verdict on a scene draft.
type SceneStatus string

const (
	SceneStatusApproved           SceneStatus = "approved"
	SceneStatusNeedsMinorRevision SceneStatus = "needs_minor_revision"
	SceneStatusNeedsRevision      SceneStatus = "needs_revision"
)

// Scene count and duration bounds.
const (
	MinScenes = 3
	MaxScenes = 8
)

// ValidSceneDurations are the clip lengths the video model accepts.
var ValidSceneDurations = []int{4, 6, 8}

// Scene is one member of the ordered 3-8 scene sequence derived from a
// story. Content holds the Phase 2 draft (150-250 words); EnhancedContent
// is populated during Phase 3 (300-500 words) and never overwrites Content.
type Scene struct {
	Number          int         `json:"scene_number"`
	DurationSeconds int         `json:"duration_seconds"`
	Content         string      `json:"content"`
	EnhancedContent string      `json:"enhanced_content,omitempty"`
	Score           int         `json:"score"`
	Status          SceneStatus `json:"status"`
}

// SceneCountForDuration maps a requested target duration to a scene
// count: ceil(target/8), clamped to [MinScenes, MaxScenes].
func SceneCountForDuration(targetSeconds int) int {
	n := (targetSeconds + 7) / 8
	if n < MinScenes {
		return MinScenes
	}
	if n > MaxScenes {
		return MaxScenes
	}
	return n
}

// PairwiseTransition is the cohesor's assessment of the flow between an
// adjacent scene pair (FromScene, ToScene) = (i, i+1).
type PairwiseTransition struct {
	FromScene       int    `json:"from_scene"`
	ToScene         int    `json:"to_scene"`
	TransitionScore int    `json:"transition_score"`
	Critique        string `json:"critique"`
}

// CohesionReport is the cohesor's whole-sequence analysis produced after
// all scenes are drafted.
type CohesionReport struct {
	OverallCohesionScore int                  `json:"overall_cohesion_score"`
	Pairwise             []PairwiseTransition `json:"pairwise"`
	GlobalIssues         []string             `json:"global_issues"`
	SceneFeedback        map[int]string       `json:"scene_specific_feedback"`
}
