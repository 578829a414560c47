package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/config"
	"github.com/ShayCichocki/loom/internal/orchestrator"
	"github.com/ShayCichocki/loom/internal/tui"
)

var (
	runHeadless  bool
	runBackend   string
	runWorkers   int
	runTimeout   time.Duration
	runNoHistory bool
)

var runCmd = &cobra.Command{
	Use:   "run <request>",
	Short: "Run a request through the orchestrator",
	Long: `Run a natural-language request.

The request is classified and routed: slash commands, skill invocations,
and template fills each take their own path, and everything else goes to
a model backend. Requests that enumerate independent work are decomposed
into a task graph and executed in parallel.

Examples:
  loom run "explain the raft consensus algorithm"
  loom run "/review func add(a, b int) int { return a + b }"
  loom run "analyze the auth module, analyze the billing module"
  loom run --backend ollama "summarize this design doc"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRequest,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without TUI (plain log output)")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "Backend to use (overrides the configured default)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Max parallel tasks (overrides config)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-task timeout (overrides config)")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip recording this run to history")
}

func runRequest(cmd *cobra.Command, args []string) error {
	request := strings.Join(args, " ")
	verbose := os.Getenv("LOOM_DEBUG") != ""

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runBackend != "" {
		cfg.Backends.Default = runBackend
	}
	if runWorkers > 0 {
		cfg.Defaults.MaxWorkers = runWorkers
	}
	if runTimeout > 0 {
		cfg.Defaults.TaskTimeout = runTimeout
	}

	if verbose {
		fmt.Printf("[DEBUG] Request: %s\n", request)
		fmt.Printf("[DEBUG] Default backend: %s\n", cfg.Backends.Default)
		fmt.Printf("[DEBUG] Max workers: %d\n", cfg.Defaults.MaxWorkers)
		fmt.Printf("[DEBUG] Task timeout: %s\n", cfg.Defaults.TaskTimeout)
	}

	orch, tracker, db, err := buildOrchestrator(cfg, !runNoHistory)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	defer orch.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, shutting down...")
		cancel()
	}()

	if runHeadless {
		return runHeadlessMode(ctx, orch, request, verbose)
	}

	outcome, err := tui.Run(ctx, orch, request)
	if err != nil {
		return err
	}
	if verbose && tracker.Calls() > 0 {
		in, out := tracker.Total()
		fmt.Printf("[DEBUG] Backend calls: %d, tokens in/out: %d/%d\n", tracker.Calls(), in, out)
	}
	return exitForOutcome(outcome)
}

// runHeadlessMode runs without the TUI, printing events as log lines and
// the final output to stdout.
func runHeadlessMode(ctx context.Context, orch *orchestrator.Orchestrator, request string, verbose bool) error {
	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		for e := range orch.Events() {
			printEvent(e, verbose)
		}
	}()

	outcome, err := orch.Process(ctx, request)
	orch.Close()
	<-logDone
	if err != nil {
		return err
	}

	fmt.Println()
	printOutcome(outcome)
	return exitForOutcome(outcome)
}

func printEvent(e orchestrator.Event, verbose bool) {
	ts := e.Timestamp.Format("15:04:05")
	switch e.Type {
	case orchestrator.EventPhase:
		if verbose {
			fmt.Fprintf(os.Stderr, "%s phase: %s\n", ts, e.Phase)
		}
		if e.Message != "" {
			fmt.Fprintf(os.Stderr, "%s %s\n", ts, e.Message)
		}
	case orchestrator.EventClassified:
		if e.Intent != nil {
			note := ""
			if e.Err != nil {
				note = " [defaulted]"
			}
			fmt.Fprintf(os.Stderr, "%s classified %s/%s (confidence %.2f)%s\n",
				ts, e.Intent.Mode, e.Intent.TaskType, e.Intent.Confidence, note)
		}
	case orchestrator.EventDecomposed:
		fmt.Fprintf(os.Stderr, "%s decomposed into %d tasks\n", ts, e.TaskCount)
	case orchestrator.EventTaskStarted:
		fmt.Fprintf(os.Stderr, "%s task %s started\n", ts, e.TaskID)
	case orchestrator.EventTaskCompleted:
		fmt.Fprintf(os.Stderr, "%s task %s done (%s)\n", ts, e.TaskID, e.Duration.Round(time.Millisecond))
	case orchestrator.EventTaskFailed:
		kind := ""
		if e.Err != nil {
			kind = string(e.Err.Kind)
		}
		fmt.Fprintf(os.Stderr, "%s task %s failed: %s\n", ts, e.TaskID, kind)
	case orchestrator.EventRunDone:
		fmt.Fprintf(os.Stderr, "%s run finished in %s\n", ts, e.Duration.Round(time.Millisecond))
	}
}

// printOutcome writes the run's text output to stdout.
func printOutcome(o *orchestrator.Outcome) {
	if o == nil {
		return
	}
	if o.Single != nil {
		if o.Single.Success {
			fmt.Println(o.Single.Output)
		} else if o.Single.Error != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", o.Single.Error.Message)
		}
		return
	}
	if o.Batch == nil {
		return
	}
	for _, task := range o.Tasks {
		r := o.Batch.ResultFor(task.ID)
		if r == nil {
			continue
		}
		fmt.Printf("── %s ──\n", task.ID)
		if r.Success {
			fmt.Println(r.Output)
		} else if r.Error != nil {
			fmt.Printf("error: %s\n", r.Error.Message)
		}
	}
	fmt.Fprintf(os.Stderr, "%d/%d tasks succeeded in %s\n",
		o.Batch.Succeeded, o.Batch.Total, o.Batch.Duration.Round(time.Millisecond))
}

// exitForOutcome maps a failed run to a command error so the process
// exits non-zero.
func exitForOutcome(o *orchestrator.Outcome) error {
	switch {
	case o == nil:
		return nil
	case o.Single != nil && !o.Single.Success:
		return fmt.Errorf("request failed: %s", o.Single.Error.Message)
	case o.Batch != nil && o.Batch.Succeeded == 0 && o.Batch.Total > 0:
		return fmt.Errorf("all %d tasks failed", o.Batch.Total)
	default:
		return nil
	}
}
