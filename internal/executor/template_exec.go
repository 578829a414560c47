package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/pkg/models"
)

// templateSystem frames the preferred-tier backend call.
const templateSystem = "The user provides a template with {{placeholder}} slots. " +
	"Fill every slot with appropriate content based on the surrounding text " +
	"and return only the completed document."

// slotPattern matches {{placeholder}} slots, tolerating inner whitespace.
var slotPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// TemplateExecutor fills in boilerplate templates. The preferred tier asks
// a backend to complete the slots; the degraded tier is a pure local
// rendering that marks each slot with its own name, keeping the document
// structurally complete without inventing content.
type TemplateExecutor struct {
	registry *backend.Registry
}

// NewTemplateExecutor creates a TemplateExecutor over the given registry.
func NewTemplateExecutor(registry *backend.Registry) *TemplateExecutor {
	return &TemplateExecutor{registry: registry}
}

// Name identifies the strategy.
func (e *TemplateExecutor) Name() string { return "template" }

// Execute renders the template in the task prompt.
func (e *TemplateExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	return runTiers(ctx, task, e.preferred, e.degraded)
}

func (e *TemplateExecutor) preferred(ctx context.Context, task *models.SubTask) (*tierOutput, error) {
	b, err := e.registry.Resolve(task.Backend)
	if err != nil {
		return nil, err
	}
	resp, err := b.Invoke(ctx, backend.Request{
		Prompt: task.Prompt,
		System: templateSystem,
		Model:  task.Model,
	})
	if err != nil {
		return nil, err
	}
	return &tierOutput{output: resp.Output, backend: b.ID(), model: resp.Model}, nil
}

// degraded renders the template locally, replacing each {{slot}} with
// <slot> so unresolved fields stay visible. Deterministic by construction.
func (e *TemplateExecutor) degraded(task *models.SubTask) (*tierOutput, error) {
	if !slotPattern.MatchString(task.Prompt) {
		return nil, fmt.Errorf("prompt contains no template slots")
	}
	out := slotPattern.ReplaceAllStringFunc(task.Prompt, func(m string) string {
		name := strings.TrimSpace(slotPattern.FindStringSubmatch(m)[1])
		if name == "" {
			return "<slot>"
		}
		return "<" + name + ">"
	})
	return &tierOutput{output: out}, nil
}
