// Package executor provides the execution strategies behind the orchestrator:
// direct backend calls, structured commands, skill invocations, and template
// rendering. Every strategy follows the same two-tier discipline: try the
// preferred backend-powered path, fall back to a local capability-reduced
// path, and report failure only when both tiers are exhausted. Failures are
// always returned inside the result, never as panics or Go errors.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/ShayCichocki/loom/pkg/models"
)

// Executor runs one subtask to completion.
type Executor interface {
	// Name identifies the strategy in results and logs.
	Name() string
	// Execute runs the task. The context carries the per-task deadline;
	// implementations must return within it plus a small epsilon.
	Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult
}

// tierOutput is what a preferred-path attempt produces on success.
type tierOutput struct {
	output  string
	backend string
	model   string
}

// preferredFunc is the backend-powered execution path.
type preferredFunc func(ctx context.Context, task *models.SubTask) (*tierOutput, error)

// degradedFunc is the local fallback path. It takes no context: degraded
// paths must not depend on external services, and the same task always
// yields the same output. A strategy that cannot answer sensibly after the
// preferred tier failed returns an error instead of guessing.
type degradedFunc func(task *models.SubTask) (*tierOutput, error)

// runTiers applies the two-tier fallback discipline shared by all executors.
// The degraded path is a single bounded retry; there are no retry loops at
// this layer.
func runTiers(ctx context.Context, task *models.SubTask, preferred preferredFunc, degraded degradedFunc) *models.ExecutionResult {
	started := time.Now()

	out, prefErr := preferred(ctx, task)
	if prefErr == nil {
		return finish(task, started, out, models.TierPreferred)
	}

	out, degErr := degraded(task)
	if degErr == nil {
		return finish(task, started, out, models.TierDegraded)
	}

	kind := models.ErrKindAllTiersExhausted
	if errors.Is(prefErr, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = models.ErrKindTimeout
	}

	return &models.ExecutionResult{
		TaskID:      task.ID,
		Success:     false,
		Duration:    time.Since(started),
		Error:       models.NewExecutionError(kind, "preferred: %v; degraded: %v", prefErr, degErr),
		CompletedAt: time.Now(),
	}
}

func finish(task *models.SubTask, started time.Time, out *tierOutput, tier models.ExecutionTier) *models.ExecutionResult {
	return &models.ExecutionResult{
		TaskID:      task.ID,
		Output:      out.output,
		Success:     true,
		Duration:    time.Since(started),
		Backend:     out.backend,
		Model:       out.model,
		Tier:        tier,
		CompletedAt: time.Now(),
	}
}
