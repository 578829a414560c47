package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/pkg/models"
)

// Command is one structured slash command. Preferred execution sends the
// command's system prompt plus the arguments to a backend; commands with a
// Local handler can also answer on the degraded tier without any backend.
type Command struct {
	// Name is the command word after the slash.
	Name string
	// Description is a one-line summary shown by /help.
	Description string
	// System is the system prompt framing the backend call.
	System string
	// Local optionally answers the command offline. Local handlers must be
	// deterministic: same arguments, same output.
	Local func(args string) (string, error)
}

// CommandExecutor handles requests of the form "/name arguments".
type CommandExecutor struct {
	registry *backend.Registry
	commands map[string]*Command
}

// NewCommandExecutor creates a CommandExecutor with the built-in command
// set. Additional commands can be registered before first use.
func NewCommandExecutor(registry *backend.Registry) *CommandExecutor {
	e := &CommandExecutor{
		registry: registry,
		commands: make(map[string]*Command),
	}
	for _, c := range builtinCommands() {
		e.Register(c)
	}
	return e
}

// Register adds a command, replacing any earlier one with the same name.
// Registration is not synchronized; register before executing.
func (e *CommandExecutor) Register(c *Command) {
	e.commands[strings.ToLower(c.Name)] = c
}

// Commands returns the registered commands sorted by name.
func (e *CommandExecutor) Commands() []*Command {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Command, 0, len(names))
	for _, name := range names {
		out = append(out, e.commands[name])
	}
	return out
}

// Name identifies the strategy.
func (e *CommandExecutor) Name() string { return "command" }

// Execute parses and runs the slash command in the task prompt.
func (e *CommandExecutor) Execute(ctx context.Context, task *models.SubTask) *models.ExecutionResult {
	return runTiers(ctx, task, e.preferred, e.degraded)
}

func (e *CommandExecutor) preferred(ctx context.Context, task *models.SubTask) (*tierOutput, error) {
	cmd, args, err := e.parse(task.Prompt)
	if err != nil {
		return nil, err
	}
	if cmd.System == "" {
		// Backend-less commands (like /help) go straight to the local tier.
		return nil, fmt.Errorf("command /%s has no backend path", cmd.Name)
	}

	b, err := e.registry.Resolve(task.Backend)
	if err != nil {
		return nil, err
	}
	resp, err := b.Invoke(ctx, backend.Request{
		Prompt: args,
		System: cmd.System,
		Model:  task.Model,
	})
	if err != nil {
		return nil, err
	}
	return &tierOutput{output: resp.Output, backend: b.ID(), model: resp.Model}, nil
}

func (e *CommandExecutor) degraded(task *models.SubTask) (*tierOutput, error) {
	cmd, args, err := e.parse(task.Prompt)
	if err != nil {
		return nil, err
	}
	if cmd.Local == nil {
		return nil, fmt.Errorf("command /%s has no local fallback", cmd.Name)
	}
	out, err := cmd.Local(args)
	if err != nil {
		return nil, err
	}
	return &tierOutput{output: out}, nil
}

// parse splits "/name arguments" into the registered command and its
// argument text.
func (e *CommandExecutor) parse(prompt string) (*Command, string, error) {
	trimmed := strings.TrimSpace(prompt)
	if !strings.HasPrefix(trimmed, "/") {
		return nil, "", fmt.Errorf("not a command: %q", prompt)
	}

	rest := trimmed[1:]
	name := rest
	args := ""
	if idx := strings.IndexAny(rest, " \t\n"); idx >= 0 {
		name = rest[:idx]
		args = strings.TrimSpace(rest[idx:])
	}
	if name == "" {
		return nil, "", fmt.Errorf("empty command name")
	}

	cmd, ok := e.commands[strings.ToLower(name)]
	if !ok {
		return nil, "", fmt.Errorf("unknown command /%s", name)
	}
	return cmd, args, nil
}

// builtinCommands are the commands available without any registration.
func builtinCommands() []*Command {
	var help *Command
	help = &Command{
		Name:        "help",
		Description: "List available commands",
	}

	commands := []*Command{
		help,
		{
			Name:        "explain",
			Description: "Explain the given code or concept",
			System:      "Explain the following clearly and step by step. Prefer concrete examples over abstractions.",
		},
		{
			Name:        "review",
			Description: "Review the given code or text",
			System:      "Review the following for correctness, clarity and risk. List concrete findings with severity.",
		},
		{
			Name:        "summarize",
			Description: "Summarize the given text",
			System:      "Summarize the following concisely, keeping the key points and dropping filler.",
		},
		{
			Name:        "translate",
			Description: "Translate the given text",
			System:      "Translate the following text. If no target language is named, translate between Chinese and English.",
		},
	}

	help.Local = func(args string) (string, error) {
		var b strings.Builder
		b.WriteString("Available commands:\n")
		for _, c := range commands {
			fmt.Fprintf(&b, "  /%s - %s\n", c.Name, c.Description)
		}
		return b.String(), nil
	}
	return commands
}
