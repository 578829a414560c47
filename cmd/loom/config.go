package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/loom/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Loom configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/loom/config.yaml
Project-specific overrides can be placed in .loom.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("backends.default: %s\n", cfg.Backends.Default)
	fmt.Printf("backends.anthropic.api_key: %s\n", maskKey(cfg.Backends.Anthropic.APIKey))
	fmt.Printf("backends.anthropic.model: %s\n", cfg.Backends.Anthropic.Model)
	fmt.Printf("backends.anthropic.use_bedrock: %t\n", cfg.Backends.Anthropic.UseBedrock)
	fmt.Printf("backends.openai.api_key: %s\n", maskKey(cfg.Backends.OpenAI.APIKey))
	fmt.Printf("backends.openai.model: %s\n", cfg.Backends.OpenAI.Model)
	fmt.Printf("backends.gemini.api_key: %s\n", maskKey(cfg.Backends.Gemini.APIKey))
	fmt.Printf("backends.gemini.model: %s\n", cfg.Backends.Gemini.Model)
	fmt.Printf("backends.ollama.host: %s\n", cfg.Backends.Ollama.Host)
	fmt.Printf("backends.ollama.model: %s\n", cfg.Backends.Ollama.Model)
	fmt.Printf("defaults.max_workers: %d\n", cfg.Defaults.MaxWorkers)
	fmt.Printf("defaults.task_timeout: %s\n", cfg.Defaults.TaskTimeout)
	fmt.Printf("defaults.fallback_backend: %s\n", cfg.Defaults.FallbackBackend)
	fmt.Printf("skills.dir: %s\n", cfg.Skills.Dir)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "****"
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue returns the value for a dotted config key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "backends.default":
		return cfg.Backends.Default, nil
	case "backends.anthropic.api_key":
		return maskKey(cfg.Backends.Anthropic.APIKey), nil
	case "backends.anthropic.model":
		return cfg.Backends.Anthropic.Model, nil
	case "backends.anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Backends.Anthropic.UseBedrock), nil
	case "backends.openai.api_key":
		return maskKey(cfg.Backends.OpenAI.APIKey), nil
	case "backends.openai.model":
		return cfg.Backends.OpenAI.Model, nil
	case "backends.openai.base_url":
		return cfg.Backends.OpenAI.BaseURL, nil
	case "backends.gemini.api_key":
		return maskKey(cfg.Backends.Gemini.APIKey), nil
	case "backends.gemini.model":
		return cfg.Backends.Gemini.Model, nil
	case "backends.ollama.host":
		return cfg.Backends.Ollama.Host, nil
	case "backends.ollama.model":
		return cfg.Backends.Ollama.Model, nil
	case "defaults.max_workers":
		return strconv.Itoa(cfg.Defaults.MaxWorkers), nil
	case "defaults.task_timeout":
		return cfg.Defaults.TaskTimeout.String(), nil
	case "defaults.fallback_backend":
		return cfg.Defaults.FallbackBackend, nil
	case "skills.dir":
		return cfg.Skills.Dir, nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// setConfigValue sets a dotted config key on the config struct.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "backends.default":
		cfg.Backends.Default = value
	case "backends.anthropic.api_key":
		cfg.Backends.Anthropic.APIKey = value
	case "backends.anthropic.model":
		cfg.Backends.Anthropic.Model = value
	case "backends.anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q for %s", value, key)
		}
		cfg.Backends.Anthropic.UseBedrock = b
	case "backends.openai.api_key":
		cfg.Backends.OpenAI.APIKey = value
	case "backends.openai.model":
		cfg.Backends.OpenAI.Model = value
	case "backends.openai.base_url":
		cfg.Backends.OpenAI.BaseURL = value
	case "backends.gemini.api_key":
		cfg.Backends.Gemini.APIKey = value
	case "backends.gemini.model":
		cfg.Backends.Gemini.Model = value
	case "backends.ollama.host":
		cfg.Backends.Ollama.Host = value
	case "backends.ollama.model":
		cfg.Backends.Ollama.Model = value
	case "defaults.max_workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid worker count %q for %s", value, key)
		}
		cfg.Defaults.MaxWorkers = n
	case "defaults.task_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q for %s", value, key)
		}
		cfg.Defaults.TaskTimeout = d
	case "defaults.fallback_backend":
		cfg.Defaults.FallbackBackend = value
	case "skills.dir":
		cfg.Skills.Dir = value
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q for %s", value, key)
		}
		cfg.TUI.RefreshRate = d
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
