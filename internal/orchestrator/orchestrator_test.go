package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/pkg/models"
)

type stubBackend struct {
	id     string
	output string

	mu    sync.Mutex
	calls []string
}

func (b *stubBackend) ID() string { return b.id }

func (b *stubBackend) Invoke(ctx context.Context, req backend.Request) (*backend.Response, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req.Prompt)
	b.mu.Unlock()
	return &backend.Response{Output: b.output, Model: "stub-model"}, nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *stubBackend) {
	t.Helper()
	stub := &stubBackend{id: "stub", output: "done"}
	reg := backend.NewRegistry()
	reg.Register(stub)
	base := []Option{WithFallbackBackend("")}
	o := New(RequiredConfig{Backends: reg}, append(base, opts...)...)
	t.Cleanup(o.Close)
	return o, stub
}

func TestProcessSingleTask(t *testing.T) {
	o, stub := newTestOrchestrator(t)

	outcome, err := o.Process(context.Background(), "explain how DNS resolution works")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Single == nil {
		t.Fatal("Expected single result, got nil")
	}
	if outcome.Batch != nil {
		t.Error("Expected no batch result on the single path")
	}
	if !outcome.Single.Success {
		t.Errorf("Expected success, got error %v", outcome.Single.Error)
	}
	if outcome.Single.Output != "done" {
		t.Errorf("Expected output %q, got %q", "done", outcome.Single.Output)
	}
	if stub.callCount() != 1 {
		t.Errorf("Expected 1 backend call, got %d", stub.callCount())
	}
	if len(outcome.Tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(outcome.Tasks))
	}
}

func TestProcessBatchPath(t *testing.T) {
	o, stub := newTestOrchestrator(t)

	request := "analyze the auth module, then analyze the billing module, then analyze the search module"
	outcome, err := o.Process(context.Background(), request)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Batch == nil {
		t.Fatalf("Expected batch result, intent was %+v", outcome.Intent)
	}
	if outcome.Single != nil {
		t.Error("Expected no single result on the batch path")
	}
	if outcome.Batch.Total < 2 {
		t.Errorf("Expected at least 2 subtasks, got %d", outcome.Batch.Total)
	}
	if outcome.Batch.Failed != 0 {
		t.Errorf("Expected no failures, got %d", outcome.Batch.Failed)
	}
	if stub.callCount() != outcome.Batch.Total {
		t.Errorf("Expected %d backend calls, got %d", outcome.Batch.Total, stub.callCount())
	}
	if len(outcome.Tasks) != outcome.Batch.Total {
		t.Errorf("Expected %d tasks, got %d", outcome.Batch.Total, len(outcome.Tasks))
	}
}

func TestProcessCommandRoutesLocally(t *testing.T) {
	o, stub := newTestOrchestrator(t)

	outcome, err := o.Process(context.Background(), "/help")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Single == nil {
		t.Fatal("Expected single result for a command")
	}
	if !outcome.Single.Success {
		t.Errorf("Expected success, got error %v", outcome.Single.Error)
	}
	if stub.callCount() != 0 {
		t.Errorf("Expected /help to be served locally, backend saw %d calls", stub.callCount())
	}
}

func TestProcessBatchExplicit(t *testing.T) {
	o, stub := newTestOrchestrator(t)

	tasks := []*models.SubTask{
		{ID: "a", Prompt: "first step", Status: models.TaskStatusPending, CreatedAt: time.Now()},
		{ID: "b", Prompt: "second step", DependsOn: []string{"a"}, Status: models.TaskStatusPending, CreatedAt: time.Now()},
	}
	batch, err := o.ProcessBatch(context.Background(), tasks)
	if err != nil {
		t.Fatalf("ProcessBatch failed: %v", err)
	}
	if batch.Total != 2 {
		t.Errorf("Expected 2 tasks, got %d", batch.Total)
	}
	if batch.Succeeded != 2 {
		t.Errorf("Expected 2 successes, got %d succeeded / %d failed", batch.Succeeded, batch.Failed)
	}
	if stub.callCount() != 2 {
		t.Errorf("Expected 2 backend calls, got %d", stub.callCount())
	}
}

func TestProcessBatchCycleRejected(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	tasks := []*models.SubTask{
		{ID: "a", Prompt: "first", DependsOn: []string{"b"}, Status: models.TaskStatusPending, CreatedAt: time.Now()},
		{ID: "b", Prompt: "second", DependsOn: []string{"a"}, Status: models.TaskStatusPending, CreatedAt: time.Now()},
	}
	if _, err := o.ProcessBatch(context.Background(), tasks); err == nil {
		t.Fatal("Expected cycle error, got nil")
	}
}

func TestProcessEmitsEvents(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	if _, err := o.Process(context.Background(), "explain the release notes"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	o.Close()

	var types []EventType
	for e := range o.Events() {
		types = append(types, e.Type)
		if e.Type == EventClassified && e.Err != nil {
			t.Errorf("Expected no error on a confident classification, got %v", e.Err)
		}
	}
	if len(types) == 0 {
		t.Fatal("Expected events, got none")
	}
	want := []EventType{EventClassified, EventTaskStarted, EventRunDone}
	for _, w := range want {
		found := false
		for _, got := range types {
			if got == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected event %q in stream %v", w, types)
		}
	}
}

func TestProcessDefaultedClassificationSurfaced(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	outcome, err := o.Process(context.Background(), "qwertyuiop zxcvbnm")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !outcome.Intent.Defaulted {
		t.Fatalf("Expected a defaulted classification, got %+v", outcome.Intent)
	}
	o.Close()

	var classified *Event
	for e := range o.Events() {
		if e.Type == EventClassified {
			ev := e
			classified = &ev
		}
	}
	if classified == nil {
		t.Fatal("Expected a classified event")
	}
	if classified.Err == nil || classified.Err.Kind != models.ErrKindClassificationDefaulted {
		t.Errorf("Expected classification_defaulted on the classified event, got %v", classified.Err)
	}
}

func TestProcessSingleBackendHint(t *testing.T) {
	stub := &stubBackend{id: "stub", output: "done"}
	ollama := &stubBackend{id: "ollama", output: "local"}
	reg := backend.NewRegistry()
	reg.Register(stub)
	reg.Register(ollama)
	o := New(RequiredConfig{Backends: reg}, WithFallbackBackend(""))
	t.Cleanup(o.Close)

	outcome, err := o.Process(context.Background(), "use ollama to explain goroutine scheduling")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Single == nil {
		t.Fatal("Expected single result")
	}
	if outcome.Single.Backend != "ollama" {
		t.Errorf("Expected backend hint to route to ollama, got %q", outcome.Single.Backend)
	}
	if ollama.callCount() != 1 || stub.callCount() != 0 {
		t.Errorf("Expected ollama to serve the call, got ollama=%d stub=%d", ollama.callCount(), stub.callCount())
	}
}

func TestEmitAfterCloseDropsEvent(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	o.Close()
	o.emit(Event{Type: EventRunDone, Timestamp: time.Now()})
	o.Close()
}

func TestOutcomeTaskStatuses(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	outcome, err := o.Process(context.Background(), "explain context cancellation")
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	for _, task := range outcome.Tasks {
		if !task.Status.Terminal() {
			t.Errorf("Task %s left in non-terminal status %q", task.ID, task.Status)
		}
		if strings.TrimSpace(task.Prompt) == "" {
			t.Errorf("Task %s has an empty prompt", task.ID)
		}
	}
}
