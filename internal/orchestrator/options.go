package orchestrator

import (
	"time"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/internal/decompose"
	"github.com/ShayCichocki/loom/internal/executor"
	"github.com/ShayCichocki/loom/internal/intent"
	"github.com/ShayCichocki/loom/internal/skill"
	"github.com/ShayCichocki/loom/internal/state"
)

// RequiredConfig contains the minimal required configuration for an
// Orchestrator. All fields are required and have no defaults.
type RequiredConfig struct {
	// Backends is the backend registry executions run against.
	Backends *backend.Registry
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	maxWorkers      int
	taskTimeout     time.Duration
	fallbackBackend string
	skills          *skill.Registry
	tracker         *backend.TokenTracker
	history         *state.DB

	// Injectable components for testing
	analyzer   *intent.Analyzer
	decomposer *decompose.Decomposer
	router     *executor.Router
}

// WithMaxWorkers sets the worker pool bound for batch execution.
func WithMaxWorkers(n int) Option {
	return func(o *orchestratorOptions) { o.maxWorkers = n }
}

// WithTaskTimeout sets the per-task execution timeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *orchestratorOptions) { o.taskTimeout = d }
}

// WithFallbackBackend names a second backend that direct execution retries
// on when the task's own backend fails. Pass an empty id to disable it.
func WithFallbackBackend(id string) Option {
	return func(o *orchestratorOptions) { o.fallbackBackend = id }
}

// WithSkills sets the skill registry.
func WithSkills(s *skill.Registry) Option {
	return func(o *orchestratorOptions) { o.skills = s }
}

// WithTokenTracker records token usage across all backend calls.
func WithTokenTracker(t *backend.TokenTracker) Option {
	return func(o *orchestratorOptions) { o.tracker = t }
}

// WithHistory records completed runs to the given history database.
func WithHistory(db *state.DB) Option {
	return func(o *orchestratorOptions) { o.history = db }
}

// WithAnalyzer sets a custom intent analyzer (mainly for testing).
func WithAnalyzer(a *intent.Analyzer) Option {
	return func(o *orchestratorOptions) { o.analyzer = a }
}

// WithDecomposer sets a custom task decomposer (mainly for testing).
func WithDecomposer(d *decompose.Decomposer) Option {
	return func(o *orchestratorOptions) { o.decomposer = d }
}

// WithRouter sets a custom executor router (mainly for testing).
func WithRouter(r *executor.Router) Option {
	return func(o *orchestratorOptions) { o.router = r }
}
