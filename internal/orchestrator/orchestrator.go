package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/loom/internal/decompose"
	"github.com/ShayCichocki/loom/internal/executor"
	"github.com/ShayCichocki/loom/internal/graph"
	"github.com/ShayCichocki/loom/internal/intent"
	"github.com/ShayCichocki/loom/internal/scheduler"
	"github.com/ShayCichocki/loom/internal/state"
	"github.com/ShayCichocki/loom/pkg/models"
)

// Outcome is the result of one Process call. Exactly one of Single or
// Batch is set: Single when the request ran as one task, Batch when it was
// decomposed into a DAG.
type Outcome struct {
	// Intent is the classification that routed the request.
	Intent models.Intent
	// Single is the result of the single-task path.
	Single *models.ExecutionResult
	// Batch is the aggregated result of the batch path.
	Batch *models.BatchResult
	// Tasks are the subtasks of the batch path, in decomposition order.
	Tasks []*models.SubTask
}

// Orchestrator is the public entry point: it classifies requests, routes
// single tasks to an executor, and schedules decomposed batches. An
// Orchestrator holds no per-request state; Process may be called
// concurrently from multiple goroutines.
type Orchestrator struct {
	analyzer   *intent.Analyzer
	decomposer *decompose.Decomposer
	router     *executor.Router
	sched      *scheduler.Scheduler
	history    *state.DB

	taskTimeout time.Duration

	// events is the channel for emitting orchestrator events.
	events chan Event
	// closed guards against emitting after Close.
	closed bool
	mu     sync.Mutex
}

// New creates an Orchestrator with the given configuration.
func New(req RequiredConfig, opts ...Option) *Orchestrator {
	options := &orchestratorOptions{
		maxWorkers:      scheduler.DefaultMaxWorkers,
		taskTimeout:     scheduler.DefaultTaskTimeout,
		fallbackBackend: "ollama",
	}
	for _, opt := range opts {
		opt(options)
	}

	analyzer := options.analyzer
	if analyzer == nil {
		analyzer = intent.NewAnalyzer()
	}
	decomposer := options.decomposer
	if decomposer == nil {
		decomposer = decompose.New()
	}
	router := options.router
	if router == nil {
		router = executor.NewRouter(executor.RouterConfig{
			Backends:        req.Backends,
			Skills:          options.skills,
			Tracker:         options.tracker,
			FallbackBackend: options.fallbackBackend,
		})
	}

	o := &Orchestrator{
		analyzer:    analyzer,
		decomposer:  decomposer,
		router:      router,
		history:     options.history,
		taskTimeout: options.taskTimeout,
		events:      make(chan Event, 100),
	}
	o.sched = scheduler.New(
		scheduler.WithMaxWorkers(options.maxWorkers),
		scheduler.WithTaskTimeout(options.taskTimeout),
		scheduler.WithNotify(o.onSchedulerEvent),
	)
	return o
}

// Events returns the event stream. Events are dropped, not blocked on,
// when the consumer falls behind.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// Close shuts the event channel. Call after the last Process call has
// returned.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
}

// Process handles one request end to end: classify, then either route a
// single task to an executor or decompose into a DAG and schedule it.
// Execution failures come back inside the Outcome; the returned error is
// reserved for structural failures such as a dependency cycle.
func (o *Orchestrator) Process(ctx context.Context, request string) (*Outcome, error) {
	o.emitPhase(PhaseClassifying)
	it := o.analyzer.Classify(request)
	classified := Event{Type: EventClassified, Intent: &it, Timestamp: time.Now()}
	if it.Defaulted {
		classified.Err = models.NewExecutionError(models.ErrKindClassificationDefaulted,
			"no intent matched; defaulted to %s mode with confidence %.2f", it.Mode, it.Confidence)
	}
	o.emit(classified)

	if !it.EnableParallel {
		return o.processSingle(ctx, request, it)
	}

	o.emitPhase(PhaseDecomposing)
	tasks := o.decomposer.Decompose(request, it)
	o.emit(Event{Type: EventDecomposed, TaskCount: len(tasks), Timestamp: time.Now()})

	// A request that would not genuinely split takes the single path.
	if len(tasks) < 2 {
		return o.processSingle(ctx, request, it)
	}

	for _, task := range tasks {
		if task.Backend == "" {
			task.Backend = it.BackendHint
		}
	}

	dag, err := graph.Build(tasks)
	if err != nil {
		return nil, fmt.Errorf("building task graph: %w", err)
	}
	return o.runBatch(ctx, request, it, dag, tasks)
}

// ProcessBatch executes an explicit batch of task descriptors, as loaded
// from a taskfile. Declared dependencies are authoritative; no edges are
// inferred from prompt text.
func (o *Orchestrator) ProcessBatch(ctx context.Context, tasks []*models.SubTask) (*models.BatchResult, error) {
	dag, err := graph.BuildExplicit(tasks)
	if err != nil {
		return nil, fmt.Errorf("building task graph: %w", err)
	}

	it := models.Intent{
		Mode:           models.ModeBackend,
		TaskType:       "batch",
		Complexity:     models.ComplexityComplex,
		Confidence:     1.0,
		EnableParallel: true,
	}
	request := fmt.Sprintf("taskfile batch (%d tasks)", len(tasks))

	outcome, err := o.runBatch(ctx, request, it, dag, tasks)
	if err != nil {
		return nil, err
	}
	return outcome.Batch, nil
}

func (o *Orchestrator) processSingle(ctx context.Context, request string, it models.Intent) (*Outcome, error) {
	o.emitPhase(PhaseRouting)
	exec, err := o.router.Route(it.Mode)
	if err != nil {
		return nil, fmt.Errorf("routing request: %w", err)
	}

	task := &models.SubTask{
		ID:        uuid.New().String()[:8],
		Prompt:    request,
		Backend:   it.BackendHint,
		Status:    models.TaskStatusPending,
		CreatedAt: time.Now(),
	}

	now := time.Now()
	task.Status = models.TaskStatusRunning
	task.StartedAt = &now
	o.emit(Event{Type: EventTaskStarted, TaskID: task.ID, Prompt: task.Prompt, Timestamp: now})

	taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()
	result := exec.Execute(taskCtx, task)

	done := time.Now()
	task.CompletedAt = &done
	if result.Success {
		task.Status = models.TaskStatusSucceeded
		o.emit(Event{Type: EventTaskCompleted, TaskID: task.ID, Duration: result.Duration, Timestamp: done})
	} else {
		task.Status = models.TaskStatusFailed
		o.emit(Event{Type: EventTaskFailed, TaskID: task.ID, Err: result.Error, Duration: result.Duration, Timestamp: done})
	}

	o.emitPhase(PhaseAggregating)
	o.recordSingle(task.ID, request, it, result)
	o.finish(result.Duration)

	return &Outcome{Intent: it, Single: result, Tasks: []*models.SubTask{task}}, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, request string, it models.Intent, dag *graph.DAG, tasks []*models.SubTask) (*Outcome, error) {
	exec, err := o.router.Route(models.ModeBackend)
	if err != nil {
		return nil, fmt.Errorf("routing batch: %w", err)
	}

	o.emitPhase(PhaseScheduling)
	batch := o.sched.Run(ctx, dag, exec)

	o.emitPhase(PhaseAggregating)
	o.recordBatch(request, it, batch, tasks)
	o.finish(batch.Duration)

	return &Outcome{Intent: it, Batch: batch, Tasks: tasks}, nil
}

// onSchedulerEvent bridges scheduler notifications onto the event stream.
func (o *Orchestrator) onSchedulerEvent(kind scheduler.EventKind, task *models.SubTask, result *models.ExecutionResult) {
	e := Event{Timestamp: time.Now()}
	switch kind {
	case scheduler.EventTaskStarted:
		e.Type = EventTaskStarted
	case scheduler.EventTaskSucceeded:
		e.Type = EventTaskCompleted
	case scheduler.EventTaskFailed:
		e.Type = EventTaskFailed
	case scheduler.EventLevelDone:
		e.Type = EventLevelDone
	default:
		return
	}
	if task != nil {
		e.TaskID = task.ID
		e.Prompt = task.Prompt
	}
	if result != nil {
		e.Err = result.Error
		e.Duration = result.Duration
	}
	o.emit(e)
}

func (o *Orchestrator) recordSingle(runID, request string, it models.Intent, result *models.ExecutionResult) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordSingle(runID, request, it, result); err != nil {
		o.emit(Event{Type: EventPhase, Phase: PhaseAggregating, Message: fmt.Sprintf("history write failed: %v", err), Timestamp: time.Now()})
	}
}

func (o *Orchestrator) recordBatch(request string, it models.Intent, batch *models.BatchResult, tasks []*models.SubTask) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordBatch(request, it, batch, tasks); err != nil {
		o.emit(Event{Type: EventPhase, Phase: PhaseAggregating, Message: fmt.Sprintf("history write failed: %v", err), Timestamp: time.Now()})
	}
}

func (o *Orchestrator) finish(d time.Duration) {
	o.emitPhase(PhaseDone)
	o.emit(Event{Type: EventRunDone, Duration: d, Timestamp: time.Now()})
}

func (o *Orchestrator) emitPhase(p Phase) {
	o.emit(Event{Type: EventPhase, Phase: p, Timestamp: time.Now()})
}

// emit sends an event without blocking: a full channel drops the event.
func (o *Orchestrator) emit(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	select {
	case o.events <- e:
	default:
	}
}
