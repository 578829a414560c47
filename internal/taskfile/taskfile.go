// Package taskfile parses YAML batch descriptors into subtasks. A taskfile
// declares its dependencies explicitly, so no edges are inferred from the
// prompt text when a batch comes from a file.
package taskfile

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/loom/pkg/models"
)

// File is the top-level taskfile document.
type File struct {
	// Version is the schema version; currently always 1.
	Version int `yaml:"version"`
	// Defaults apply to every task that does not override them.
	Defaults Defaults `yaml:"defaults"`
	// Tasks are the batch entries.
	Tasks []Entry `yaml:"tasks"`
}

// Defaults are file-wide task settings.
type Defaults struct {
	// Backend names the backend for tasks without their own.
	Backend string `yaml:"backend"`
	// Model overrides the backend default model.
	Model string `yaml:"model"`
	// Timeout is the per-task timeout (Go duration string).
	Timeout time.Duration `yaml:"timeout"`
}

// Entry is one task descriptor.
type Entry struct {
	// ID is the unique task identifier within the file.
	ID string `yaml:"id"`
	// Prompt is the free-text task body.
	Prompt string `yaml:"prompt"`
	// DependsOn lists prerequisite task IDs, comma-separated.
	DependsOn string `yaml:"depends_on"`
	// Backend optionally names the backend for this task.
	Backend string `yaml:"backend"`
	// Model optionally overrides the backend default model.
	Model string `yaml:"model"`
	// Timeout optionally overrides the per-task timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Load reads and parses a taskfile from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taskfile: %w", err)
	}
	return Parse(data)
}

// Parse parses taskfile bytes and validates the entries.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taskfile: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	if len(f.Tasks) == 0 {
		return fmt.Errorf("taskfile declares no tasks")
	}

	seen := make(map[string]bool, len(f.Tasks))
	for i, e := range f.Tasks {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return fmt.Errorf("task %d has no id", i+1)
		}
		if strings.TrimSpace(e.Prompt) == "" {
			return fmt.Errorf("task %s has no prompt", id)
		}
		if seen[id] {
			return fmt.Errorf("duplicate task id %s", id)
		}
		seen[id] = true
	}

	for _, e := range f.Tasks {
		for _, dep := range splitDeps(e.DependsOn) {
			if !seen[dep] {
				return fmt.Errorf("task %s depends on unknown task %s", e.ID, dep)
			}
			if dep == strings.TrimSpace(e.ID) {
				return fmt.Errorf("task %s depends on itself", e.ID)
			}
		}
	}
	return nil
}

// SubTasks converts the file entries into subtasks, applying file defaults
// to entries that do not set their own backend, model or timeout.
func (f *File) SubTasks() []*models.SubTask {
	now := time.Now()
	tasks := make([]*models.SubTask, 0, len(f.Tasks))
	for _, e := range f.Tasks {
		backend := e.Backend
		if backend == "" {
			backend = f.Defaults.Backend
		}
		model := e.Model
		if model == "" {
			model = f.Defaults.Model
		}
		timeout := e.Timeout
		if timeout == 0 {
			timeout = f.Defaults.Timeout
		}

		tasks = append(tasks, &models.SubTask{
			ID:        strings.TrimSpace(e.ID),
			Prompt:    strings.TrimSpace(e.Prompt),
			DependsOn: splitDeps(e.DependsOn),
			Status:    models.TaskStatusPending,
			Backend:   backend,
			Model:     model,
			Timeout:   timeout,
			CreatedAt: now,
		})
	}
	return tasks
}

// splitDeps parses a comma-separated dependency list, dropping empty items.
func splitDeps(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var deps []string
	for _, part := range strings.Split(s, ",") {
		if dep := strings.TrimSpace(part); dep != "" {
			deps = append(deps, dep)
		}
	}
	return deps
}
