package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

// Registry holds the known skills keyed by lowercased name.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]*Skill
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]*Skill)}
}

// Builtin returns a registry pre-loaded with the built-in skills.
func Builtin() *Registry {
	r := NewRegistry()
	for _, s := range builtinSkills() {
		// Built-ins are static and validated by their tests.
		_ = r.Add(s)
	}
	return r
}

// Add registers a skill. A later skill with the same name replaces the
// earlier one, so user-provided files override built-ins.
func (r *Registry) Add(s *Skill) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[strings.ToLower(strings.TrimSpace(s.Name))] = s
	return nil
}

// Get returns the skill registered under name. Lookup is case-insensitive.
func (r *Registry) Get(name string) (*Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names returns the registered skill names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered skills sorted by name.
func (r *Registry) All() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	all := make([]*Skill, 0, len(names))
	for _, name := range names {
		all = append(all, r.skills[name])
	}
	return all
}

// Len returns the number of registered skills.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.skills)
}

// LoadDir loads every .yaml/.yml file in dir into the registry, one skill
// per file. A missing directory is not an error; the registry keeps
// whatever it already holds.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading skills directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var s Skill
		if err := yaml.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if err := r.Add(&s); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	return nil
}

// builtinSkills are the defaults available without any skills directory.
func builtinSkills() []*Skill {
	return []*Skill{
		{
			Name:        "summarize",
			Description: "Condense material to its key points",
			Template:    "Summarize the following concisely, keeping the key points:\n\n{{.Prompt}}",
		},
		{
			Name:        "review",
			Description: "Review code or text for correctness and risk",
			Template:    "Review the following for correctness, clarity and risk. List concrete findings:\n\n{{.Prompt}}",
		},
		{
			Name:        "explain",
			Description: "Explain something step by step",
			Template:    "Explain the following step by step for someone new to the topic:\n\n{{.Prompt}}",
		},
		{
			Name:        "persona",
			Description: "Adopt the persona described in the task",
			Template:    "Adopt the persona described in the task below and answer fully in character.\n\n{{.Prompt}}",
		},
	}
}
