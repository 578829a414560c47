// Package skill provides the registry of named prompt skills: reusable
// prompt templates bound to a backend and model. Skills are loaded from
// YAML files in a skills directory, with built-in defaults shipped in code
// for when the directory is absent.
package skill

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Skill is one named prompt template.
type Skill struct {
	// Name is the registry key (e.g. "summarize").
	Name string `yaml:"name"`
	// Description is a one-line summary shown by the CLI.
	Description string `yaml:"description"`
	// Backend optionally pins the skill to a backend id.
	Backend string `yaml:"backend"`
	// Model optionally overrides the backend's default model.
	Model string `yaml:"model"`
	// Template wraps the task prompt; {{.Prompt}} marks the slot.
	Template string `yaml:"template"`
}

// Validate checks the fields a skill cannot work without.
func (s *Skill) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("skill has no name")
	}
	if strings.TrimSpace(s.Template) == "" {
		return fmt.Errorf("skill %s has no template", s.Name)
	}
	return nil
}

// Render expands the skill template around the task prompt. A template
// without a {{.Prompt}} slot gets the prompt appended so the task text is
// never lost. Rendering is deterministic: same skill and prompt, same output.
func (s *Skill) Render(prompt string) (string, error) {
	tmpl, err := template.New(s.Name).Parse(s.Template)
	if err != nil {
		return "", fmt.Errorf("parse skill %s template: %w", s.Name, err)
	}

	var buf bytes.Buffer
	data := struct{ Prompt string }{Prompt: prompt}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render skill %s: %w", s.Name, err)
	}

	out := buf.String()
	if !strings.Contains(s.Template, ".Prompt") {
		out = out + "\n\n" + prompt
	}
	return out, nil
}
