package executor

import (
	"context"
	"testing"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/pkg/models"
)

func newTestRouter() *Router {
	reg := backend.NewRegistry()
	reg.Register(&fakeBackend{id: "anthropic"})
	return NewRouter(RouterConfig{Backends: reg})
}

func TestRouter_AllModesBound(t *testing.T) {
	router := newTestRouter()
	for _, mode := range []models.Mode{
		models.ModeBackend,
		models.ModeCommand,
		models.ModeTemplate,
		models.ModeSkill,
		models.ModeAgent,
	} {
		exec, err := router.Route(mode)
		if err != nil {
			t.Errorf("Route(%s) failed: %v", mode, err)
			continue
		}
		if exec == nil {
			t.Errorf("Route(%s) returned nil executor", mode)
		}
	}
}

func TestRouter_UnknownMode(t *testing.T) {
	router := newTestRouter()
	if _, err := router.Route(models.Mode("teleport")); err == nil {
		t.Fatal("Expected error for unbound mode")
	}
}

func TestRouter_AgentModeUsesPersonaSkill(t *testing.T) {
	router := newTestRouter()
	exec, err := router.Route(models.ModeAgent)
	if err != nil {
		t.Fatal(err)
	}

	result := exec.Execute(context.Background(), newTask("act as an architect and sketch the system"))
	if !result.Success {
		t.Fatalf("Expected success, got: %v", result.Error)
	}
}

func TestRouter_BindOverride(t *testing.T) {
	router := newTestRouter()
	custom := NewCommandExecutor(backend.NewRegistry())
	router.Bind(models.ModeAgent, custom)

	exec, err := router.Route(models.ModeAgent)
	if err != nil {
		t.Fatal(err)
	}
	if exec.Name() != "command" {
		t.Errorf("Expected rebound executor, got %s", exec.Name())
	}
}
