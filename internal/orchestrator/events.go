// Package orchestrator turns natural-language requests into executed work:
// it classifies a request, decomposes composite requests into a task DAG,
// and runs the DAG level by level across the configured backends.
package orchestrator

import (
	"time"

	"github.com/ShayCichocki/loom/pkg/models"
)

// Phase is one stage of the per-request state machine.
type Phase string

const (
	// PhaseClassifying is intent classification.
	PhaseClassifying Phase = "classifying"
	// PhaseRouting is single-task executor selection.
	PhaseRouting Phase = "routing"
	// PhaseDecomposing is batch splitting and DAG construction.
	PhaseDecomposing Phase = "decomposing"
	// PhaseScheduling is DAG execution.
	PhaseScheduling Phase = "scheduling"
	// PhaseAggregating is result collection.
	PhaseAggregating Phase = "aggregating"
	// PhaseDone is terminal.
	PhaseDone Phase = "done"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPhase indicates the request entered a new phase.
	EventPhase EventType = "phase"
	// EventClassified carries the classification outcome.
	EventClassified EventType = "classified"
	// EventDecomposed carries the decomposition outcome.
	EventDecomposed EventType = "decomposed"
	// EventTaskStarted indicates a task has started execution.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a task failed.
	EventTaskFailed EventType = "task_failed"
	// EventLevelDone indicates a DAG level finished.
	EventLevelDone EventType = "level_done"
	// EventRunDone indicates the whole request is complete.
	EventRunDone EventType = "run_done"
)

// Event represents an event emitted by the orchestrator. Events drive the
// TUI and headless progress output.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Phase is the state-machine phase, set on phase events.
	Phase Phase
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Prompt is the prompt of the related task, if applicable.
	Prompt string
	// Intent is the classification, set on classified events.
	Intent *models.Intent
	// TaskCount is the number of subtasks, set on decomposed events.
	TaskCount int
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err *models.ExecutionError
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// Duration is the task or run duration, on completion events.
	Duration time.Duration
}
