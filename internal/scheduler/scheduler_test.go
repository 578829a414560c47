package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ShayCichocki/loom/internal/graph"
	"github.com/ShayCichocki/loom/pkg/models"
)

// fakeExecutor is a deterministic Executor for tests. It sleeps for delay
// (or per-task delays), fails the task IDs listed in fail, and converts
// context expiry into a timeout result the way the real executors do.
type fakeExecutor struct {
	delay  time.Duration
	delays map[string]time.Duration
	fail   map[string]bool

	mu            sync.Mutex
	calls         []string
	current       int32
	maxConcurrent int32
}

func (f *fakeExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	f.mu.Lock()
	f.calls = append(f.calls, task.ID)
	f.mu.Unlock()

	cur := atomic.AddInt32(&f.current, 1)
	for {
		max := atomic.LoadInt32(&f.maxConcurrent)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxConcurrent, max, cur) {
			break
		}
	}
	defer atomic.AddInt32(&f.current, -1)

	delay := f.delay
	if d, ok := f.delays[task.ID]; ok {
		delay = d
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return &models.ExecutionResult{
			TaskID:      task.ID,
			Success:     false,
			Error:       models.NewExecutionError(models.ErrKindTimeout, "execution timed out"),
			CompletedAt: time.Now(),
		}
	}

	if f.fail[task.ID] {
		return &models.ExecutionResult{
			TaskID:      task.ID,
			Success:     false,
			Error:       models.NewExecutionError(models.ErrKindAllTiersExhausted, "forced failure"),
			CompletedAt: time.Now(),
		}
	}
	return &models.ExecutionResult{
		TaskID:      task.ID,
		Output:      "done " + task.ID,
		Success:     true,
		CompletedAt: time.Now(),
	}
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func subtask(id string, deps ...string) *models.SubTask {
	return &models.SubTask{
		ID:        id,
		Prompt:    "prompt " + id,
		DependsOn: deps,
		Status:    models.TaskStatusPending,
	}
}

func mustDAG(t *testing.T, tasks ...*models.SubTask) *graph.DAG {
	t.Helper()
	dag, err := graph.BuildExplicit(tasks)
	if err != nil {
		t.Fatalf("BuildExplicit failed: %v", err)
	}
	return dag
}

func TestRun_AllSucceed(t *testing.T) {
	dag := mustDAG(t, subtask("a"), subtask("b"), subtask("c"))
	exec := &fakeExecutor{}
	batch := New().Run(context.Background(), dag, exec)

	if batch.BatchID == "" {
		t.Error("BatchID should be set")
	}
	if batch.Total != 3 || batch.Succeeded != 3 || batch.Failed != 0 {
		t.Errorf("Counts = total %d succeeded %d failed %d, want 3/3/0",
			batch.Total, batch.Succeeded, batch.Failed)
	}
	if batch.Partial {
		t.Error("Partial = true, want false")
	}
	if len(batch.Results) != 3 {
		t.Errorf("Results len = %d, want 3", len(batch.Results))
	}
}

func TestRun_WorkerPoolBounded(t *testing.T) {
	tasks := []*models.SubTask{
		subtask("a"), subtask("b"), subtask("c"),
		subtask("d"), subtask("e"), subtask("f"),
	}
	dag := mustDAG(t, tasks...)
	exec := &fakeExecutor{delay: 20 * time.Millisecond}

	New(WithMaxWorkers(2)).Run(context.Background(), dag, exec)

	if max := atomic.LoadInt32(&exec.maxConcurrent); max > 2 {
		t.Errorf("Max concurrency = %d, want <= 2", max)
	}
	if exec.callCount() != 6 {
		t.Errorf("Executor calls = %d, want 6", exec.callCount())
	}
}

func TestRun_FailureIsolation(t *testing.T) {
	dag := mustDAG(t, subtask("a"), subtask("b"), subtask("c"))
	exec := &fakeExecutor{fail: map[string]bool{"b": true}}
	batch := New().Run(context.Background(), dag, exec)

	if batch.Succeeded != 2 || batch.Failed != 1 {
		t.Errorf("Counts = %d succeeded %d failed, want 2/1", batch.Succeeded, batch.Failed)
	}
	if !batch.Partial {
		t.Error("Partial = false, want true")
	}
	for _, task := range dag.Tasks() {
		if !task.Status.Terminal() {
			t.Errorf("Task %s status = %q, want terminal", task.ID, task.Status)
		}
	}
}

func TestRun_DependencyFailedShortCircuit(t *testing.T) {
	dag := mustDAG(t,
		subtask("a"),
		subtask("b", "a"),
		subtask("c", "b"),
	)
	exec := &fakeExecutor{fail: map[string]bool{"a": true}}
	batch := New().Run(context.Background(), dag, exec)

	if exec.callCount() != 1 {
		t.Errorf("Executor calls = %d, want 1 (only the root)", exec.callCount())
	}
	for _, id := range []string{"b", "c"} {
		result := batch.ResultFor(id)
		if result == nil {
			t.Fatalf("No result for %s", id)
		}
		if result.Success {
			t.Errorf("Task %s succeeded, want failed", id)
		}
		if result.Error == nil || result.Error.Kind != models.ErrKindDependencyFailed {
			t.Errorf("Task %s error = %v, want kind %q", id, result.Error, models.ErrKindDependencyFailed)
		}
	}
	if batch.Failed != 3 {
		t.Errorf("Failed = %d, want 3", batch.Failed)
	}
}

func TestRun_DependencyOrdering(t *testing.T) {
	a := subtask("a")
	b := subtask("b", "a")
	dag := mustDAG(t, a, b)
	exec := &fakeExecutor{delay: 5 * time.Millisecond}
	New().Run(context.Background(), dag, exec)

	if a.CompletedAt == nil || b.StartedAt == nil {
		t.Fatal("Timestamps not recorded")
	}
	if b.StartedAt.Before(*a.CompletedAt) {
		t.Errorf("b started %v before a completed %v", b.StartedAt, a.CompletedAt)
	}
	if len(exec.calls) != 2 || exec.calls[0] != "a" || exec.calls[1] != "b" {
		t.Errorf("Call order = %v, want [a b]", exec.calls)
	}
}

func TestRun_Timeout(t *testing.T) {
	dag := mustDAG(t, subtask("slow"))
	exec := &fakeExecutor{delay: 5 * time.Second}

	start := time.Now()
	batch := New(WithTaskTimeout(50 * time.Millisecond)).Run(context.Background(), dag, exec)
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("Run took %v, timeout did not bound it", elapsed)
	}
	result := batch.ResultFor("slow")
	if result == nil || result.Success {
		t.Fatal("Expected a failed result for the slow task")
	}
	if result.Error.Kind != models.ErrKindTimeout {
		t.Errorf("Error kind = %q, want %q", result.Error.Kind, models.ErrKindTimeout)
	}
}

func TestRun_PerTaskTimeoutOverride(t *testing.T) {
	fast := subtask("fast")
	fast.Timeout = 30 * time.Millisecond
	dag := mustDAG(t, fast)
	exec := &fakeExecutor{delay: 5 * time.Second}

	batch := New(WithTaskTimeout(time.Minute)).Run(context.Background(), dag, exec)

	result := batch.ResultFor("fast")
	if result == nil || result.Error == nil || result.Error.Kind != models.ErrKindTimeout {
		t.Errorf("Expected timeout from per-task override, got %+v", result)
	}
}

func TestRun_BatchCancelled(t *testing.T) {
	dag := mustDAG(t, subtask("a"), subtask("b"))
	exec := &fakeExecutor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	batch := New().Run(ctx, dag, exec)

	if exec.callCount() != 0 {
		t.Errorf("Executor calls = %d, want 0", exec.callCount())
	}
	if batch.Failed != 2 {
		t.Errorf("Failed = %d, want 2", batch.Failed)
	}
	for _, result := range batch.Results {
		if result.Error == nil || result.Error.Kind != models.ErrKindBatchCancelled {
			t.Errorf("Result %s error = %v, want kind %q", result.TaskID, result.Error, models.ErrKindBatchCancelled)
		}
	}
}

func TestRun_ResultsInCompletionOrder(t *testing.T) {
	dag := mustDAG(t, subtask("slow"), subtask("quick"))
	exec := &fakeExecutor{delays: map[string]time.Duration{
		"slow":  150 * time.Millisecond,
		"quick": 10 * time.Millisecond,
	}}
	batch := New().Run(context.Background(), dag, exec)

	if len(batch.Results) != 2 {
		t.Fatalf("Results len = %d, want 2", len(batch.Results))
	}
	if batch.Results[0].TaskID != "quick" {
		t.Errorf("Results[0] = %s, want quick (completion order)", batch.Results[0].TaskID)
	}
}

func TestRun_NotifyEvents(t *testing.T) {
	dag := mustDAG(t, subtask("a"), subtask("b", "a"))
	exec := &fakeExecutor{fail: map[string]bool{"b": true}}

	var mu sync.Mutex
	counts := make(map[EventKind]int)
	notify := func(kind EventKind, task *models.SubTask, result *models.ExecutionResult) {
		mu.Lock()
		counts[kind]++
		mu.Unlock()
	}

	New(WithNotify(notify)).Run(context.Background(), dag, exec)

	mu.Lock()
	defer mu.Unlock()
	if counts[EventTaskStarted] != 2 {
		t.Errorf("task_started count = %d, want 2", counts[EventTaskStarted])
	}
	if counts[EventTaskSucceeded] != 1 {
		t.Errorf("task_succeeded count = %d, want 1", counts[EventTaskSucceeded])
	}
	if counts[EventTaskFailed] != 1 {
		t.Errorf("task_failed count = %d, want 1", counts[EventTaskFailed])
	}
	if counts[EventLevelDone] != 2 {
		t.Errorf("level_done count = %d, want 2", counts[EventLevelDone])
	}
}

// nilExecutor returns no result at all; the scheduler must synthesize a
// failure instead of crashing.
type nilExecutor struct{}

func (nilExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	return nil
}

func TestRun_NilResultSynthesized(t *testing.T) {
	dag := mustDAG(t, subtask("a"))
	batch := New().Run(context.Background(), dag, nilExecutor{})

	result := batch.ResultFor("a")
	if result == nil {
		t.Fatal("Expected a synthesized result")
	}
	if result.Success {
		t.Error("Synthesized result should be a failure")
	}
	if result.Error == nil || result.Error.Kind != models.ErrKindAllTiersExhausted {
		t.Errorf("Error = %v, want kind %q", result.Error, models.ErrKindAllTiersExhausted)
	}
}
