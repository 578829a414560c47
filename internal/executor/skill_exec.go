package executor

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/internal/intent"
	"github.com/ShayCichocki/loom/internal/skill"
	"github.com/ShayCichocki/loom/pkg/models"
)

// SkillExecutor runs tasks through a named prompt skill. Explicit
// invocations ("use skill summarize: ...") name the skill in the prompt;
// persona-style requests fall back to the executor's default skill. The
// preferred tier sends the rendered skill prompt to the skill's backend;
// the degraded tier returns the rendered prompt itself, so the caller still
// gets the fully expanded instruction when no backend can serve it.
type SkillExecutor struct {
	skills       *skill.Registry
	registry     *backend.Registry
	defaultSkill string
}

// NewSkillExecutor creates a SkillExecutor. defaultSkill names the skill
// used when the prompt carries no explicit invocation (the agent-mode
// persona skill, typically).
func NewSkillExecutor(skills *skill.Registry, registry *backend.Registry, defaultSkill string) *SkillExecutor {
	return &SkillExecutor{
		skills:       skills,
		registry:     registry,
		defaultSkill: defaultSkill,
	}
}

// Name identifies the strategy.
func (e *SkillExecutor) Name() string { return "skill" }

// Execute resolves and runs the skill for the task prompt.
func (e *SkillExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	return runTiers(ctx, task, e.preferred, e.degraded)
}

func (e *SkillExecutor) preferred(ctx context.Context, task *models.SubTask) (*tierOutput, error) {
	s, rendered, err := e.resolve(task.Prompt)
	if err != nil {
		return nil, err
	}

	backendID := task.Backend
	if backendID == "" {
		backendID = s.Backend
	}
	b, err := e.registry.Resolve(backendID)
	if err != nil {
		return nil, err
	}

	model := task.Model
	if model == "" {
		model = s.Model
	}
	resp, err := b.Invoke(ctx, backend.Request{Prompt: rendered, Model: model})
	if err != nil {
		return nil, err
	}
	return &tierOutput{output: resp.Output, backend: b.ID(), model: resp.Model}, nil
}

// degraded returns the rendered skill prompt. Rendering is pure templating,
// so the output is deterministic for a given skill and task.
func (e *SkillExecutor) degraded(task *models.SubTask) (*tierOutput, error) {
	_, rendered, err := e.resolve(task.Prompt)
	if err != nil {
		return nil, err
	}
	return &tierOutput{output: rendered}, nil
}

// resolve finds the skill for a prompt and renders it around the task body.
func (e *SkillExecutor) resolve(prompt string) (*skill.Skill, string, error) {
	name, body, ok := intent.SkillInvocation(prompt)
	if !ok {
		name, body = e.defaultSkill, prompt
	}
	if name == "" {
		return nil, "", fmt.Errorf("no skill named in prompt and no default skill configured")
	}

	s, found := e.skills.Get(name)
	if !found {
		return nil, "", fmt.Errorf("unknown skill %q", name)
	}
	rendered, err := s.Render(body)
	if err != nil {
		return nil, "", err
	}
	return s, rendered, nil
}
