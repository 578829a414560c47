// Package scheduler runs a task DAG level by level on a bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/loom/internal/graph"
	"github.com/ShayCichocki/loom/pkg/models"
)

// DefaultMaxWorkers bounds concurrent task execution when no explicit
// worker count is configured.
const DefaultMaxWorkers = 3

// DefaultTaskTimeout bounds a single executor call.
const DefaultTaskTimeout = 5 * time.Minute

// Executor runs one subtask to completion. Execution failures come back
// inside the result, never as a Go error.
type Executor interface {
	Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult
}

// EventKind identifies a scheduler notification.
type EventKind string

const (
	// EventTaskStarted fires when a task is dispatched to a worker.
	EventTaskStarted EventKind = "task_started"
	// EventTaskSucceeded fires when a task reaches succeeded.
	EventTaskSucceeded EventKind = "task_succeeded"
	// EventTaskFailed fires when a task reaches failed, including tasks
	// that were never dispatched.
	EventTaskFailed EventKind = "task_failed"
	// EventLevelDone fires when the last task of a level reaches a
	// terminal status.
	EventLevelDone EventKind = "level_done"
)

// Notify receives scheduler events. task is nil for level events.
// Callbacks fire from worker goroutines and may run concurrently.
type Notify func(kind EventKind, task *models.SubTask, result *models.ExecutionResult)

// Scheduler holds scheduling policy. Each Run call builds its own working
// state, so one Scheduler serves concurrent batches.
type Scheduler struct {
	maxWorkers  int
	taskTimeout time.Duration
	notify      Notify
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxWorkers sets the worker pool bound.
func WithMaxWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxWorkers = n
		}
	}
}

// WithTaskTimeout sets the per-task execution timeout used when a task
// does not carry its own.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.taskTimeout = d
		}
	}
}

// WithNotify sets the event callback.
func WithNotify(fn Notify) Option {
	return func(s *Scheduler) {
		s.notify = fn
	}
}

// New creates a Scheduler with the given options.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		maxWorkers:  DefaultMaxWorkers,
		taskTimeout: DefaultTaskTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the DAG and returns the aggregated batch result. Levels are
// processed in order with a barrier between them, so a task never starts
// before all of its dependencies reached a terminal status. Within a level
// tasks run on the bounded pool and a failure never aborts its siblings.
// Results are appended in completion order.
func (s *Scheduler) Run(ctx context.Context, dag *graph.DAG, exec Executor) *models.BatchResult {
	batch := &models.BatchResult{
		BatchID:   uuid.New().String()[:8],
		Total:     dag.Size(),
		StartedAt: time.Now(),
	}

	run := &runState{
		dag:     dag,
		exec:    exec,
		sem:     make(chan struct{}, s.maxWorkers),
		failed:  make(map[string]bool),
		timeout: s.taskTimeout,
		notify:  s.notify,
		batch:   batch,
	}

	for _, level := range dag.Levels() {
		run.runLevel(ctx, level)
	}

	batch.Duration = time.Since(batch.StartedAt)
	for _, r := range batch.Results {
		if r.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Partial = batch.Succeeded > 0 && batch.Failed > 0
	return batch
}

// runState is the per-Run working state.
type runState struct {
	dag     *graph.DAG
	exec    Executor
	sem     chan struct{}
	timeout time.Duration
	notify  Notify
	batch   *models.BatchResult

	mu     sync.Mutex
	failed map[string]bool
}

func (r *runState) runLevel(ctx context.Context, level []string) {
	var wg sync.WaitGroup
	remaining := int32(len(level))

	for _, id := range level {
		task := r.dag.Task(id)

		if ctx.Err() != nil {
			r.recordSkip(task, models.ErrKindBatchCancelled, "batch cancelled before task started", &remaining)
			continue
		}
		if dep := r.failedDependency(id); dep != "" {
			r.recordSkip(task, models.ErrKindDependencyFailed, "dependency "+dep+" failed", &remaining)
			continue
		}

		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
			r.recordSkip(task, models.ErrKindBatchCancelled, "batch cancelled before task started", &remaining)
			continue
		}

		now := time.Now()
		task.Status = models.TaskStatusRunning
		task.StartedAt = &now
		r.emit(EventTaskStarted, task, nil)

		wg.Add(1)
		go func(task *models.SubTask) {
			defer wg.Done()
			defer func() { <-r.sem }()
			result := r.execute(ctx, task)
			r.record(task, result, &remaining)
		}(task)
	}

	wg.Wait()
}

// failedDependency returns the ID of a failed direct dependency, or "".
// Failure propagates transitively because skipped tasks are recorded as
// failed themselves.
func (r *runState) failedDependency(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dep := range r.dag.Dependencies(id) {
		if r.failed[dep] {
			return dep
		}
	}
	return ""
}

func (r *runState) execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	timeout := r.timeout
	if task.Timeout > 0 {
		timeout = task.Timeout
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.exec.Execute(taskCtx, task)
}

// record finishes a dispatched task: terminal status write, result
// bookkeeping, and the level counter decrement.
func (r *runState) record(task *models.SubTask, result *models.ExecutionResult, remaining *int32) {
	if result == nil {
		result = &models.ExecutionResult{
			TaskID:      task.ID,
			Success:     false,
			Error:       models.NewExecutionError(models.ErrKindAllTiersExhausted, "executor returned no result"),
			CompletedAt: time.Now(),
		}
	}

	now := time.Now()
	task.CompletedAt = &now
	if result.Success {
		task.Status = models.TaskStatusSucceeded
	} else {
		task.Status = models.TaskStatusFailed
	}

	r.mu.Lock()
	if !result.Success {
		r.failed[task.ID] = true
	}
	r.batch.Results = append(r.batch.Results, result)
	r.mu.Unlock()

	if result.Success {
		r.emit(EventTaskSucceeded, task, result)
	} else {
		r.emit(EventTaskFailed, task, result)
	}
	if atomic.AddInt32(remaining, -1) == 0 {
		r.emit(EventLevelDone, nil, nil)
	}
}

// recordSkip fails a task that never reached a worker.
func (r *runState) recordSkip(task *models.SubTask, kind models.ErrorKind, message string, remaining *int32) {
	now := time.Now()
	task.Status = models.TaskStatusFailed
	task.CompletedAt = &now

	result := &models.ExecutionResult{
		TaskID:      task.ID,
		Success:     false,
		Error:       models.NewExecutionError(kind, "%s", message),
		CompletedAt: now,
	}

	r.mu.Lock()
	r.failed[task.ID] = true
	r.batch.Results = append(r.batch.Results, result)
	r.mu.Unlock()

	r.emit(EventTaskFailed, task, result)
	if atomic.AddInt32(remaining, -1) == 0 {
		r.emit(EventLevelDone, nil, nil)
	}
}

func (r *runState) emit(kind EventKind, task *models.SubTask, result *models.ExecutionResult) {
	if r.notify != nil {
		r.notify(kind, task, result)
	}
}
