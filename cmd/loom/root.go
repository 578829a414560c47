package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "Multi-backend task orchestrator",
	Long: `Loom routes natural-language requests across model backends.

A request is classified, optionally decomposed into independent subtasks,
and executed with bounded parallelism. Every execution path has a local
degraded fallback, so a run degrades instead of dying when a backend is
unreachable.

Core capabilities:
- Classifies requests into command, skill, template, agent, or backend mode
- Decomposes enumerated requests into a dependency-aware task graph
- Schedules independent tasks in parallel with failure isolation
- Falls back to a local backend when the preferred one fails
- Records run history for later inspection`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
