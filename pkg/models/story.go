package models

// StoryStatus is the critic's verdict on a story draft.
type StoryStatus string

const (
	StoryStatusApproved      StoryStatus = "approved"
	StoryStatusNeedsRevision StoryStatus = "needs_revision"
	StoryStatusRejected      StoryStatus = "rejected"
)

// MinStoryChars is the soft floor on story length. Drafts below it are
// flagged in the critic prompt but not rejected outright.
const MinStoryChars = 7500

// Story is the narrative produced in Phase 1, scored by the Story Critic.
type Story struct {
	Content string      `json:"content"`
	Score   int         `json:"score"`
	Status  StoryStatus `json:"status"`
}

// Critique is the structured output of a critic role (story or scene).
// A single parse point (pkg/agent) validates this shape; retries are
// driven by parse failure.
type Critique struct {
	Score         int      `json:"score"`
	Status        string   `json:"status"`
	Critique      string   `json:"critique"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	PriorityFixes []string `json:"priority_fixes"`
}
