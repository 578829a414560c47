package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/pkg/models"
)

// BackendExecutor sends the task prompt straight to a backend. The preferred
// tier resolves the task's backend and may retry once on a configured
// fallback backend (by default ollama) so a provider outage does not take
// every request down with it. The degraded tier never touches the registry:
// it renders an offline receipt of the task locally, so the same input
// always produces the same output.
type BackendExecutor struct {
	registry   *backend.Registry
	tracker    *backend.TokenTracker
	fallbackID string
}

// BackendOption configures a BackendExecutor.
type BackendOption func(*BackendExecutor)

// WithTokenTracker records token usage from successful calls.
func WithTokenTracker(t *backend.TokenTracker) BackendOption {
	return func(e *BackendExecutor) { e.tracker = t }
}

// WithFallbackBackend names a second backend the preferred tier tries when
// the task's own backend fails. Pass an empty id to disable the retry.
func WithFallbackBackend(id string) BackendOption {
	return func(e *BackendExecutor) { e.fallbackID = id }
}

// NewBackendExecutor creates a BackendExecutor over the given registry.
func NewBackendExecutor(registry *backend.Registry, opts ...BackendOption) *BackendExecutor {
	e := &BackendExecutor{
		registry:   registry,
		fallbackID: "ollama",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name identifies the strategy.
func (e *BackendExecutor) Name() string { return "backend" }

// Execute runs the task prompt against its backend with local fallback.
func (e *BackendExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	return runTiers(ctx, task, e.preferred, func(t *models.SubTask) (*tierOutput, error) {
		return e.degraded(ctx, t)
	})
}

// preferred resolves the task's backend and invokes it. When that fails and
// a distinct fallback backend is registered, it gets one attempt within the
// same task deadline.
func (e *BackendExecutor) preferred(ctx context.Context, task *models.SubTask) (*tierOutput, error) {
	b, err := e.registry.Resolve(task.Backend)
	if err == nil {
		var out *tierOutput
		out, err = e.invoke(ctx, b, task)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}

	if e.fallbackID == "" {
		return nil, err
	}
	fb, fbErr := e.registry.Get(e.fallbackID)
	if fbErr != nil {
		return nil, err
	}
	if b != nil && fb.ID() == b.ID() {
		return nil, err
	}
	// The subtask's model override belongs to its own backend; the fallback
	// backend serves its default model.
	out, fbErr := e.invoke(ctx, fb, &models.SubTask{ID: task.ID, Prompt: task.Prompt})
	if fbErr != nil {
		return nil, fmt.Errorf("%v; fallback %s: %v", err, e.fallbackID, fbErr)
	}
	return out, nil
}

// degraded writes an offline receipt of the task: no registry, no network,
// same input always yields the same output. It refuses once the task context
// has ended so an unresponsive backend still surfaces as a failure.
func (e *BackendExecutor) degraded(ctx context.Context, task *models.SubTask) (*tierOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("task context ended before any backend answered: %v", err)
	}
	return &tierOutput{output: offlineReceipt(task)}, nil
}

// offlineReceipt summarizes the task so the caller can replay it once a
// backend is reachable again.
func offlineReceipt(task *models.SubTask) string {
	var b strings.Builder
	b.WriteString("[offline] No backend was reachable; this is a local record of the request.\n")
	if task.Backend != "" {
		fmt.Fprintf(&b, "Requested backend: %s\n", task.Backend)
	}
	b.WriteString("Prompt:\n")
	b.WriteString(task.Prompt)
	if !strings.HasSuffix(task.Prompt, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("Re-run this task once a backend is available.")
	return b.String()
}

func (e *BackendExecutor) invoke(ctx context.Context, b backend.Backend, task *models.SubTask) (*tierOutput, error) {
	resp, err := b.Invoke(ctx, backend.Request{
		Prompt: task.Prompt,
		Model:  task.Model,
	})
	if err != nil {
		return nil, err
	}
	if e.tracker != nil {
		e.tracker.Record(resp)
	}
	return &tierOutput{output: resp.Output, backend: b.ID(), model: resp.Model}, nil
}
