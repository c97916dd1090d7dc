package models

import "time"

// RunState is the lifecycle state of a pipeline run
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateCancelled RunState = "cancelled"
	RunStateFailed    RunState = "failed"
)

// Terminal reports whether the state is a final one
func (s RunState) Terminal() bool {
	switch s {
	case RunStateCompleted, RunStateCancelled, RunStateFailed:
		return true
	}
	return false
}

// StageResult records one stage's outcome inside a run
type StageResult struct {
	Stage      string        `json:"stage"`
	Rows       int           `json:"rows"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"-"`
	Err        string        `json:"error,omitempty"`
}

// PipelineRun is one trigger-to-terminal execution of the stage sequence
type PipelineRun struct {
	RunID        string        `json:"run_id"`
	State        RunState      `json:"state"`
	CurrentStage string        `json:"current_stage,omitempty"`
	FailedStage  string        `json:"failed_stage,omitempty"`
	Stages       []StageResult `json:"stages"`
	Error        string        `json:"error,omitempty"`
	Trigger      string        `json:"trigger"` // manual, scheduled
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at"`
}
