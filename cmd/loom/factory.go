package main

import (
	"fmt"
	"os"

	"github.com/ShayCichocki/loom/internal/backend"
	"github.com/ShayCichocki/loom/internal/config"
	"github.com/ShayCichocki/loom/internal/orchestrator"
	"github.com/ShayCichocki/loom/internal/skill"
	"github.com/ShayCichocki/loom/internal/state"
)

// buildRegistry constructs the backend registry from configuration. Only
// backends with usable credentials are registered; ollama is always
// registered because it needs none.
func buildRegistry(cfg *config.Config) (*backend.Registry, error) {
	reg := backend.NewRegistry()

	if cfg.Backends.Anthropic.APIKey != "" || cfg.Backends.Anthropic.UseBedrock || os.Getenv("ANTHROPIC_API_KEY") != "" {
		b, err := backend.NewAnthropic(backend.AnthropicConfig{
			Model:      cfg.Backends.Anthropic.Model,
			APIKey:     cfg.Backends.Anthropic.APIKey,
			UseBedrock: cfg.Backends.Anthropic.UseBedrock,
			AWSRegion:  cfg.Backends.Anthropic.AWSRegion,
			AWSProfile: cfg.Backends.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic backend: %w", err)
		}
		reg.Register(b)
	}

	if cfg.Backends.OpenAI.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
		b, err := backend.NewOpenAI(backend.OpenAIConfig{
			Model:   cfg.Backends.OpenAI.Model,
			APIKey:  cfg.Backends.OpenAI.APIKey,
			BaseURL: cfg.Backends.OpenAI.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai backend: %w", err)
		}
		reg.Register(b)
	}

	if cfg.Backends.Gemini.APIKey != "" || os.Getenv("GEMINI_API_KEY") != "" {
		b, err := backend.NewGemini(backend.GeminiConfig{
			Model:  cfg.Backends.Gemini.Model,
			APIKey: cfg.Backends.Gemini.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini backend: %w", err)
		}
		reg.Register(b)
	}

	b, err := backend.NewOllama(backend.OllamaConfig{
		Model: cfg.Backends.Ollama.Model,
		Host:  cfg.Backends.Ollama.Host,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama backend: %w", err)
	}
	reg.Register(b)

	if cfg.Backends.Default != "" {
		if err := reg.SetDefault(cfg.Backends.Default); err != nil {
			return nil, fmt.Errorf("set default backend: %w", err)
		}
	}
	return reg, nil
}

// buildSkills loads the skill registry: built-ins plus any user skill
// directory from configuration.
func buildSkills(cfg *config.Config) (*skill.Registry, error) {
	skills := skill.Builtin()
	if cfg.Skills.Dir != "" {
		if err := skills.LoadDir(cfg.Skills.Dir); err != nil {
			return nil, fmt.Errorf("load skills from %s: %w", cfg.Skills.Dir, err)
		}
	}
	return skills, nil
}

// buildOrchestrator assembles an orchestrator from configuration. The
// returned DB is nil when history is disabled; the caller closes it.
func buildOrchestrator(cfg *config.Config, withHistory bool) (*orchestrator.Orchestrator, *backend.TokenTracker, *state.DB, error) {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	skills, err := buildSkills(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	tracker := backend.NewTokenTracker()
	opts := []orchestrator.Option{
		orchestrator.WithMaxWorkers(cfg.Defaults.MaxWorkers),
		orchestrator.WithTaskTimeout(cfg.Defaults.TaskTimeout),
		orchestrator.WithFallbackBackend(cfg.Defaults.FallbackBackend),
		orchestrator.WithSkills(skills),
		orchestrator.WithTokenTracker(tracker),
	}

	var db *state.DB
	if withHistory {
		db, err = state.OpenGlobal()
		if err != nil {
			// History is optional; a run proceeds without it.
			fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", err)
			db = nil
		} else if err := db.Migrate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: history migration failed: %v\n", err)
			db.Close()
			db = nil
		}
		if db != nil {
			opts = append(opts, orchestrator.WithHistory(db))
		}
	}

	return orchestrator.New(orchestrator.RequiredConfig{Backends: reg}, opts...), tracker, db, nil
}
