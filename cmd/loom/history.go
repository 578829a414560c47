package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/state"
)

var (
	historyLimit    int
	historyPurgeAge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		for _, run := range runs {
			status := color.GreenString("✓")
			if run.Failed > 0 {
				status = color.RedString("✗")
				if run.Partial {
					status = color.YellowString("~")
				}
			}
			fmt.Printf("%s %s  %s  %d/%d  %s  %s\n",
				status,
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04"),
				run.Succeeded, run.Total,
				run.Duration.Round(time.Millisecond),
				truncateRequest(run.Request, 60))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("run %s not found", args[0])
		}

		fmt.Printf("Run:      %s\n", run.ID)
		fmt.Printf("Request:  %s\n", run.Request)
		fmt.Printf("Kind:     %s (%s/%s)\n", run.Kind, run.Mode, run.TaskType)
		fmt.Printf("Started:  %s\n", run.StartedAt.Format(time.RFC3339))
		fmt.Printf("Duration: %s\n", run.Duration.Round(time.Millisecond))
		fmt.Printf("Tasks:    %d total, %d succeeded, %d failed\n", run.Total, run.Succeeded, run.Failed)

		records, err := db.ListTaskRecords(run.ID)
		if err != nil {
			return fmt.Errorf("list task records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		fmt.Println()
		for _, rec := range records {
			status := color.GreenString("✓")
			detail := fmt.Sprintf("%s/%s tier=%s", rec.Backend, rec.Model, rec.Tier)
			if !rec.Success {
				status = color.RedString("✗")
				detail = fmt.Sprintf("%s: %s", rec.ErrorKind, rec.ErrorMessage)
			}
			fmt.Printf("%s %s  %s  %s\n",
				status, rec.TaskID, rec.Duration.Round(time.Millisecond), detail)
		}
		return nil
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.PurgeOldRuns(historyPurgeAge)
		if err != nil {
			return fmt.Errorf("purge runs: %w", err)
		}
		fmt.Printf("Deleted %d runs older than %s\n", n, historyPurgeAge)
		return nil
	},
}

func openHistory() (*state.DB, error) {
	db, err := state.OpenGlobal()
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return db, nil
}

func truncateRequest(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Max runs to list")
	historyPurgeCmd.Flags().DurationVar(&historyPurgeAge, "older-than", 30*24*time.Hour, "Delete runs older than this")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}
