package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/config"
	"github.com/ShayCichocki/loom/internal/taskfile"
)

var (
	batchWorkers   int
	batchTimeout   time.Duration
	batchNoHistory bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <taskfile>",
	Short: "Run a YAML taskfile as a batch",
	Long: `Run an explicit batch of tasks from a YAML taskfile.

Declared dependencies are authoritative: tasks wait for the tasks they
name in depends_on and nothing else. Independent tasks run in parallel
up to the worker bound.

Taskfile format:
  version: 1
  defaults:
    backend: ollama
    timeout: 2m
  tasks:
    - id: fetch
      prompt: summarize the changelog
    - id: draft
      prompt: draft release notes from the summary
      depends_on: fetch`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Max parallel tasks (overrides config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "Per-task timeout (overrides config)")
	batchCmd.Flags().BoolVar(&batchNoHistory, "no-history", false, "Skip recording this run to history")
}

func runBatch(cmd *cobra.Command, args []string) error {
	verbose := os.Getenv("LOOM_DEBUG") != ""

	file, err := taskfile.Load(args[0])
	if err != nil {
		return fmt.Errorf("load taskfile: %w", err)
	}
	tasks := file.SubTasks()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if batchWorkers > 0 {
		cfg.Defaults.MaxWorkers = batchWorkers
	}
	if batchTimeout > 0 {
		cfg.Defaults.TaskTimeout = batchTimeout
	}

	orch, _, db, err := buildOrchestrator(cfg, !batchNoHistory)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

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

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		for e := range orch.Events() {
			printEvent(e, verbose)
		}
	}()

	batch, err := orch.ProcessBatch(ctx, tasks)
	orch.Close()
	<-logDone
	if err != nil {
		return err
	}

	fmt.Println()
	for _, task := range tasks {
		r := batch.ResultFor(task.ID)
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
		batch.Succeeded, batch.Total, batch.Duration.Round(time.Millisecond))

	if batch.Succeeded == 0 && batch.Total > 0 {
		return fmt.Errorf("all %d tasks failed", batch.Total)
	}
	return nil
}
