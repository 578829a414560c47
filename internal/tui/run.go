package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/loom/internal/orchestrator"
)

// Run drives one request through the orchestrator with live progress
// rendering. It blocks until the run finishes and the user exits, then
// returns the outcome. The orchestrator's event channel is consumed
// entirely by the TUI; don't read it elsewhere while Run is active.
func Run(ctx context.Context, o *orchestrator.Orchestrator, request string) (*orchestrator.Outcome, error) {
	app := NewApp(request)
	program := tea.NewProgram(app)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for e := range o.Events() {
			program.Send(EventMsg{Event: e})
		}
	}()

	done := make(chan DoneMsg, 1)
	go func() {
		outcome, err := o.Process(runCtx, request)
		msg := DoneMsg{Outcome: outcome, Err: err}
		done <- msg
		program.Send(msg)
	}()

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("running progress ui: %w", err)
	}

	// Quitting mid-run cancels any in-flight work.
	cancel()
	result := <-done
	if result.Err != nil {
		return nil, result.Err
	}

	if app, ok := final.(*App); ok {
		if out := app.Output(); out != "" {
			fmt.Println(out)
		}
	}
	return result.Outcome, nil
}
