package models

import (
	"fmt"
	"time"
)

// ErrorKind classifies execution failures.
type ErrorKind string

const (
	// ErrKindClassificationDefaulted records that the intent analyzer fell
	// back to conservative defaults. Non-fatal.
	ErrKindClassificationDefaulted ErrorKind = "classification_defaulted"
	// ErrKindCycleDetected records a dependency cycle. Fatal for the batch.
	ErrKindCycleDetected ErrorKind = "cycle_detected"
	// ErrKindDependencyFailed records that a prerequisite failed, so the
	// subtask was never scheduled.
	ErrKindDependencyFailed ErrorKind = "dependency_failed"
	// ErrKindTimeout records that an executor call exceeded its allotted time.
	ErrKindTimeout ErrorKind = "timeout"
	// ErrKindAllTiersExhausted records that both the preferred and degraded
	// executor paths failed.
	ErrKindAllTiersExhausted ErrorKind = "all_tiers_exhausted"
	// ErrKindBatchCancelled records batch-level cancellation before the
	// subtask started.
	ErrKindBatchCancelled ErrorKind = "batch_cancelled"
)

// ExecutionError describes why a unit of execution failed.
type ExecutionError struct {
	// Kind is the failure classification.
	Kind ErrorKind `json:"kind"`
	// Message is the human-readable detail.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewExecutionError builds an ExecutionError with a formatted message.
func NewExecutionError(kind ErrorKind, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExecutionTier names which executor tier produced a result.
type ExecutionTier string

const (
	// TierPreferred is the configured backend/skill path.
	TierPreferred ExecutionTier = "preferred"
	// TierDegraded is the local, dependency-free fallback path.
	TierDegraded ExecutionTier = "degraded"
)

// ExecutionResult is the outcome of one unit of execution.
// A result is owned exclusively by the caller that receives it.
type ExecutionResult struct {
	// TaskID correlates the result with a SubTask, empty for single requests.
	TaskID string `json:"task_id,omitempty"`
	// Output is the text payload.
	Output string `json:"output"`
	// Success is true when execution produced a usable output.
	Success bool `json:"success"`
	// Duration is the elapsed wall-clock time.
	Duration time.Duration `json:"duration"`
	// Error is present only when Success is false.
	Error *ExecutionError `json:"error,omitempty"`
	// Backend names the backend that served the request, if any.
	Backend string `json:"backend,omitempty"`
	// Model names the model that served the request, if any.
	Model string `json:"model,omitempty"`
	// Tier records whether the preferred or degraded path produced the output.
	Tier ExecutionTier `json:"tier,omitempty"`
	// CompletedAt is when the result was produced.
	CompletedAt time.Time `json:"completed_at"`
}

// BatchResult aggregates the outcome of one DAG execution.
type BatchResult struct {
	// BatchID identifies the batch run.
	BatchID string `json:"batch_id"`
	// Total is the number of subtasks in the batch.
	Total int `json:"total"`
	// Succeeded is the number of subtasks that completed successfully.
	Succeeded int `json:"succeeded"`
	// Failed is the number of subtasks that failed or were never scheduled.
	Failed int `json:"failed"`
	// Partial is true if some subtasks failed while others completed.
	Partial bool `json:"partial"`
	// Results holds per-subtask outcomes ordered by completion time, not
	// submission order. Correlate by TaskID, never by position.
	Results []*ExecutionResult `json:"results"`
	// StartedAt is when batch execution began.
	StartedAt time.Time `json:"started_at"`
	// Duration is the total elapsed wall-clock time for the batch.
	Duration time.Duration `json:"duration"`
}

// ResultFor returns the result for the given subtask ID, or nil.
func (b *BatchResult) ResultFor(taskID string) *ExecutionResult {
	for _, r := range b.Results {
		if r.TaskID == taskID {
			return r
		}
	}
	return nil
}
