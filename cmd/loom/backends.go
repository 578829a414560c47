package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/internal/config"
)

var probeTimeout time.Duration

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Manage model backends",
}

var backendsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		defaultID := reg.DefaultID()
		for _, b := range reg.All() {
			marker := " "
			if b.ID() == defaultID {
				marker = color.GreenString("*")
			}
			fmt.Printf("%s %s\n", marker, b.ID())
		}
		return nil
	},
}

var backendsProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check which backends are reachable",
	Long: `Send a tiny prompt to every configured backend and report which
ones answer. Useful before a long batch run to know whether the
fallback backend is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		reg, err := buildRegistry(cfg)
		if err != nil {
			return err
		}

		for _, b := range reg.All() {
			probeBackend(b)
		}
		return nil
	},
}

func probeBackend(b backend.Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	start := time.Now()
	resp, err := b.Invoke(ctx, backend.Request{Prompt: "ping", MaxTokens: 8})
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		printStatus("✗", fmt.Sprintf("%s: %v", b.ID(), err), color.FgRed)
		return
	}
	printStatus("✓", fmt.Sprintf("%s: ok (%s, model %s)", b.ID(), elapsed, resp.Model), color.FgGreen)
}

func printStatus(symbol, message string, c color.Attribute) {
	fmt.Printf("%s %s\n", color.New(c).Sprint(symbol), message)
}

func init() {
	backendsProbeCmd.Flags().DurationVar(&probeTimeout, "timeout", 15*time.Second, "Per-backend probe timeout")
	backendsCmd.AddCommand(backendsListCmd)
	backendsCmd.AddCommand(backendsProbeCmd)
}
