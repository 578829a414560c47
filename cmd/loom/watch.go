package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/config"
	"github.com/ShayCichocki/loom/internal/taskfile"
)

var watchWorkers int

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and run taskfiles dropped into it",
	Long: `Watch a spool directory for taskfiles.

Whenever a .yaml or .yml file appears in the directory (or an existing
one is rewritten), it is loaded as a taskfile and executed as a batch.
Files are processed one batch at a time, in arrival order.

Useful for driving runs from other tools: write a taskfile into the
spool directory and loom picks it up.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 0, "Max parallel tasks per batch (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	verbose := os.Getenv("LOOM_DEBUG") != ""
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if watchWorkers > 0 {
		cfg.Defaults.MaxWorkers = watchWorkers
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
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

	fmt.Printf("Watching %s for taskfiles (ctrl+c to stop)\n", dir)

	// Debounce per path: editors and atomic writers fire several events
	// for one file landing.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			ext := strings.ToLower(filepath.Ext(event.Name))
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < time.Second {
					continue
				}
				delete(pending, path)
				if err := runWatchedFile(ctx, cfg, path, verbose); err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(path), err)
				}
			}
		}
	}
}

// runWatchedFile executes one spooled taskfile as a batch.
func runWatchedFile(ctx context.Context, cfg *config.Config, path string, verbose bool) error {
	fmt.Printf("Running %s\n", filepath.Base(path))

	file, err := taskfile.Load(path)
	if err != nil {
		return fmt.Errorf("load taskfile: %w", err)
	}

	orch, _, db, err := buildOrchestrator(cfg, true)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		for e := range orch.Events() {
			printEvent(e, verbose)
		}
	}()

	batch, err := orch.ProcessBatch(ctx, file.SubTasks())
	orch.Close()
	<-logDone
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d/%d tasks succeeded in %s\n",
		filepath.Base(path), batch.Succeeded, batch.Total, batch.Duration.Round(time.Millisecond))
	return nil
}
