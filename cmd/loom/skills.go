package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/config"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List available skills",
	Long: `List the skills a request can invoke with "use skill <name>".

Built-in skills ship with loom; user skills are YAML files loaded from
the directory named by skills.dir in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		skills, err := buildSkills(cfg)
		if err != nil {
			return err
		}

		for _, s := range skills.All() {
			name := color.CyanString("%-12s", s.Name)
			line := fmt.Sprintf("%s %s", name, s.Description)
			if s.Backend != "" {
				line += color.New(color.Faint).Sprintf(" [%s]", s.Backend)
			}
			fmt.Println(line)
		}
		return nil
	},
}
