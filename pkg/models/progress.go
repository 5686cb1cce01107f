package models

import "time"

// ProgressStep identifies a pipeline milestone. The step vocabulary is
// part of the streaming wire contract and must not be extended casually.
type ProgressStep string

const (
	StepInit        ProgressStep = "init"
	StepUpload      ProgressStep = "upload"
	StepStory       ProgressStep = "story"
	StepScenes      ProgressStep = "scenes"
	StepVideoParams ProgressStep = "video_params"
	StepVideos      ProgressStep = "videos"
	StepComplete    ProgressStep = "complete"
)

// ProgressStatus is the state of a step.
type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// ProgressEvent is a step-keyed status update published to the progress
// bus. Progress values across a generation's events are nondecreasing.
// Data is only populated on terminal events.
type ProgressEvent struct {
	Step      ProgressStep   `json:"step"`
	Status    ProgressStatus `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
