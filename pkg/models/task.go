package models

import "time"

// TaskStatus represents the current state of a subtask.
type TaskStatus string

const (
	// TaskStatusPending indicates the subtask has not been dispatched.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the subtask is executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusSucceeded indicates the subtask completed successfully.
	TaskStatusSucceeded TaskStatus = "succeeded"
	// TaskStatusFailed indicates the subtask failed or was never scheduled.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once a status can no longer change.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSucceeded || s == TaskStatusFailed
}

// SubTask represents one decomposed unit of a batch request.
// SubTasks are created by the decomposer (or a taskfile) and their status is
// mutated only by the scheduler: once to running at dispatch, once to a
// terminal state at completion.
type SubTask struct {
	// ID is unique within a batch.
	ID string `json:"id"`
	// Prompt is the natural-language instruction for this unit.
	Prompt string `json:"prompt"`
	// DependsOn lists subtask IDs that must complete before this one.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`
	// Backend optionally names the backend this subtask should run on.
	Backend string `json:"backend,omitempty"`
	// Model optionally overrides the backend's default model.
	Model string `json:"model,omitempty"`
	// Timeout optionally overrides the per-task timeout.
	Timeout time.Duration `json:"timeout,omitempty"`
	// CreatedAt is when the subtask was created.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when the scheduler dispatched the subtask, if it was.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the subtask reached a terminal status, if it did.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
