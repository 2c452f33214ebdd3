package domain

import (
	"fmt"
	"strings"
)

type JobStatus string

const (
	JobStatusUnknown   JobStatus = "unknown"
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusTimedOut  JobStatus = "timed_out"
)

func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusTimedOut:
		return true
	default:
		return false
	}
}

// RemoteJob tracks a single provider-side generation task. Cost is fixed at
// submission time and never revised afterwards.
type RemoteJob struct {
	ID              string
	Prompt          string
	AspectRatio     string
	DurationClass   string
	RemoveWatermark bool
	Status          JobStatus
	ArtifactURL     string
	ErrorDetail     string
	Cost            float64
}

func (j *RemoteJob) MarkRunning() {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusRunning
}

func (j *RemoteJob) MarkSucceeded(artifactURL string) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusSucceeded
	j.ArtifactURL = artifactURL
}

func (j *RemoteJob) MarkFailed(detail string) {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusFailed
	j.ErrorDetail = detail
}

func (j *RemoteJob) MarkTimedOut() {
	if j.Status.IsTerminal() {
		return
	}
	j.Status = JobStatusTimedOut
}

type SceneOutcome string

const (
	ScenePending   SceneOutcome = "pending"
	SceneSucceeded SceneOutcome = "succeeded"
	SceneFailed    SceneOutcome = "failed"
)

// SceneTask is owned by exactly one worker goroutine until it is sent on the
// task's result channel.
type SceneTask struct {
	Index        int
	Prompt       string
	Job          *RemoteJob
	Outcome      SceneOutcome
	ArtifactURL  string
	ErrorMessage string
}

type SceneFailure struct {
	Index  int    `json:"index"`
	Prompt string `json:"prompt"`
	Error  string `json:"error"`
}

type SceneBatchResult struct {
	ArtifactURLs []string
	Failures     []SceneFailure
	TotalCost    float64
}

type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

const (
	StageScriptGeneration = "Script Generation"
	StageVoiceSynthesis   = "Voice Synthesis"
	StageVisualGeneration = "Visual Generation"
	StageVideoAssembly    = "Video Assembly"
)

type StageResult struct {
	Stage     string                 `json:"stage"`
	Artifacts []string               `json:"artifacts,omitempty"`
	Cost      float64                `json:"cost"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// PipelineRun accumulates stage results for one video generation request.
// It leaves RunStatusProcessing exactly once; once completed or failed no
// further stage may be committed.
type PipelineRun struct {
	ID           string
	Topic        string
	Status       RunStatus
	Stages       []StageResult
	TotalCost    float64
	VideoURL     string
	ErrorMessage string
}

func NewPipelineRun(id string, topic string) *PipelineRun {
	return &PipelineRun{
		ID:     id,
		Topic:  topic,
		Status: RunStatusProcessing,
		Stages: make([]StageResult, 0, 4),
	}
}

func (r *PipelineRun) Terminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

func (r *PipelineRun) CommitStage(result StageResult) error {
	if r.Terminal() {
		return fmt.Errorf("cannot commit stage %s: run %s is already %s", result.Stage, r.ID, r.Status)
	}
	r.Stages = append(r.Stages, result)
	r.TotalCost += result.Cost
	return nil
}

func (r *PipelineRun) Complete(videoURL string) error {
	if r.Terminal() {
		return fmt.Errorf("cannot complete run %s: already %s", r.ID, r.Status)
	}
	r.Status = RunStatusCompleted
	r.VideoURL = videoURL
	return nil
}

func (r *PipelineRun) Fail(message string) error {
	if r.Terminal() {
		return fmt.Errorf("cannot fail run %s: already %s", r.ID, r.Status)
	}
	r.Status = RunStatusFailed
	r.ErrorMessage = message
	return nil
}

func (r *PipelineRun) CostBreakdown() map[string]float64 {
	breakdown := make(map[string]float64, len(r.Stages))
	for _, stage := range r.Stages {
		breakdown[stage.Stage] += stage.Cost
	}
	return breakdown
}

type VideoScript struct {
	Hook               string   `json:"hook"`
	ValueProp          string   `json:"value_prop"`
	MainContent        string   `json:"main_content"`
	CTA                string   `json:"cta"`
	FullScript         string   `json:"full_script"`
	EstimatedWordCount int      `json:"estimated_word_count"`
	SceneDescriptions  []string `json:"scene_descriptions"`
}

func (s *VideoScript) Validate() error {
	missing := make([]string, 0)
	if s.Hook == "" {
		missing = append(missing, "hook")
	}
	if s.ValueProp == "" {
		missing = append(missing, "value_prop")
	}
	if s.MainContent == "" {
		missing = append(missing, "main_content")
	}
	if s.CTA == "" {
		missing = append(missing, "cta")
	}
	if s.FullScript == "" {
		missing = append(missing, "full_script")
	}
	if len(missing) > 0 {
		return &ValidationError{Message: "script is missing required fields: " + strings.Join(missing, ", ")}
	}
	return nil
}

const (
	EventStart    = "start"
	EventPhase    = "phase"
	EventComplete = "complete"
	EventError    = "error"
)

const (
	PhaseStatusProcessing = "processing"
	PhaseStatusCompleted  = "completed"
)

type ProgressEvent struct {
	Name    string
	Payload interface{}
}

type StartPayload struct {
	RunID string `json:"run_id"`
	Topic string `json:"topic"`
}

type PhasePayload struct {
	Phase  int      `json:"phase"`
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Cost   *float64 `json:"cost,omitempty"`
}

type CompletePayload struct {
	RunID     string  `json:"run_id"`
	VideoURL  string  `json:"video_url"`
	TotalCost float64 `json:"total_cost"`
}

type ErrorPayload struct {
	RunID   string `json:"run_id"`
	Message string `json:"message"`
}
