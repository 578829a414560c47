package executor

import (
	"fmt"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/internal/skill"
	"github.com/ShayCichocki/loom/pkg/models"
)

// Router maps intent modes to executor strategies. The mapping is built
// once at construction and is read-only afterward, so a Router is safe for
// concurrent use.
type Router struct {
	byMode map[models.Mode]Executor
}

// RouterConfig wires the executors a Router dispatches to.
type RouterConfig struct {
	// Backends is the backend registry shared by all strategies.
	Backends *backend.Registry
	// Skills is the skill registry for skill and agent modes.
	Skills *skill.Registry
	// Tracker optionally records token usage from backend calls.
	Tracker *backend.TokenTracker
	// FallbackBackend names the second backend the backend strategy tries
	// when the task's own backend fails; empty disables the retry.
	FallbackBackend string
}

// NewRouter builds a Router with the standard mode bindings: command,
// skill, and template each get their own strategy, agent mode runs through
// the persona skill, and everything else is a direct backend call.
func NewRouter(cfg RouterConfig) *Router {
	skills := cfg.Skills
	if skills == nil {
		skills = skill.Builtin()
	}

	var backendOpts []BackendOption
	if cfg.Tracker != nil {
		backendOpts = append(backendOpts, WithTokenTracker(cfg.Tracker))
	}
	backendOpts = append(backendOpts, WithFallbackBackend(cfg.FallbackBackend))

	r := &Router{byMode: make(map[models.Mode]Executor)}
	r.byMode[models.ModeBackend] = NewBackendExecutor(cfg.Backends, backendOpts...)
	r.byMode[models.ModeCommand] = NewCommandExecutor(cfg.Backends)
	r.byMode[models.ModeTemplate] = NewTemplateExecutor(cfg.Backends)
	r.byMode[models.ModeSkill] = NewSkillExecutor(skills, cfg.Backends, "")
	// Persona requests are skills as far as execution goes; the persona
	// skill supplies the framing when the prompt names no skill.
	r.byMode[models.ModeAgent] = NewSkillExecutor(skills, cfg.Backends, "persona")
	return r
}

// Bind replaces the executor for a mode. Call before first use; the
// mapping is not synchronized.
func (r *Router) Bind(mode models.Mode, e Executor) {
	r.byMode[mode] = e
}

// Route returns the executor for a mode.
func (r *Router) Route(mode models.Mode) (Executor, error) {
	e, ok := r.byMode[mode]
	if !ok {
		return nil, fmt.Errorf("no executor bound for mode %q", mode)
	}
	return e, nil
}
