// Package config handles configuration loading and management for loom.
// It supports XDG config paths, project-level overrides, and environment
// variables. Configuration is loaded once at startup; changing it requires
// restarting the process.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for loom.
type Config struct {
	Backends BackendsConfig `mapstructure:"backends"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Skills   SkillsConfig   `mapstructure:"skills"`
	TUI      TUIConfig      `mapstructure:"tui"`
}

// BackendsConfig holds per-backend settings and the default selection.
type BackendsConfig struct {
	// Default names the backend used when a request carries no hint.
	Default   string          `mapstructure:"default"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// OpenAIConfig holds OpenAI API settings. BaseURL points the client at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OllamaConfig holds local Ollama settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// DefaultsConfig holds orchestration defaults.
type DefaultsConfig struct {
	// MaxWorkers bounds concurrent task execution within a batch.
	MaxWorkers int `mapstructure:"max_workers"`
	// TaskTimeout bounds a single executor call.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// FallbackBackend names a second backend tried when a direct call's
	// own backend fails; empty disables the retry.
	FallbackBackend string `mapstructure:"fallback_backend"`
}

// SkillsConfig holds skill registry settings.
type SkillsConfig struct {
	// Dir is the directory of skill YAML files, one skill per file.
	// Empty means built-in skills only.
	Dir string `mapstructure:"dir"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
//  1. Environment variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, ...)
//  2. Project config (.loom.yaml in current directory or parent)
//  3. User config (~/.config/loom/config.yaml)
//  4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("backends.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("backends.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("backends.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("backends.ollama.host", "OLLAMA_HOST")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.expandKeys()

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.expandKeys()

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))

	v.Set("backends.default", cfg.Backends.Default)
	v.Set("backends.anthropic.api_key", cfg.Backends.Anthropic.APIKey)
	v.Set("backends.anthropic.model", cfg.Backends.Anthropic.Model)
	v.Set("backends.anthropic.use_bedrock", cfg.Backends.Anthropic.UseBedrock)
	v.Set("backends.anthropic.aws_region", cfg.Backends.Anthropic.AWSRegion)
	v.Set("backends.anthropic.aws_profile", cfg.Backends.Anthropic.AWSProfile)
	v.Set("backends.openai.api_key", cfg.Backends.OpenAI.APIKey)
	v.Set("backends.openai.model", cfg.Backends.OpenAI.Model)
	v.Set("backends.openai.base_url", cfg.Backends.OpenAI.BaseURL)
	v.Set("backends.gemini.api_key", cfg.Backends.Gemini.APIKey)
	v.Set("backends.gemini.model", cfg.Backends.Gemini.Model)
	v.Set("backends.ollama.host", cfg.Backends.Ollama.Host)
	v.Set("backends.ollama.model", cfg.Backends.Ollama.Model)
	v.Set("defaults.max_workers", cfg.Defaults.MaxWorkers)
	v.Set("defaults.task_timeout", cfg.Defaults.TaskTimeout.String())
	v.Set("defaults.fallback_backend", cfg.Defaults.FallbackBackend)
	v.Set("skills.dir", cfg.Skills.Dir)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it
// exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backends.default", "anthropic")
	v.SetDefault("backends.anthropic.api_key", "")
	v.SetDefault("backends.anthropic.model", "")
	v.SetDefault("backends.openai.api_key", "")
	v.SetDefault("backends.openai.model", "")
	v.SetDefault("backends.openai.base_url", "")
	v.SetDefault("backends.gemini.api_key", "")
	v.SetDefault("backends.gemini.model", "")
	v.SetDefault("backends.ollama.host", "")
	v.SetDefault("backends.ollama.model", "")

	v.SetDefault("defaults.max_workers", 3)
	v.SetDefault("defaults.task_timeout", "5m")
	v.SetDefault("defaults.fallback_backend", "ollama")

	v.SetDefault("skills.dir", "")
	v.SetDefault("tui.refresh_rate", "100ms")
}

// expandKeys expands ${VAR} references in credential fields.
func (c *Config) expandKeys() {
	c.Backends.Anthropic.APIKey = os.ExpandEnv(c.Backends.Anthropic.APIKey)
	c.Backends.OpenAI.APIKey = os.ExpandEnv(c.Backends.OpenAI.APIKey)
	c.Backends.Gemini.APIKey = os.ExpandEnv(c.Backends.Gemini.APIKey)
}

// getUserConfigDir returns the XDG config directory for loom.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "loom")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "loom")
	}
	return filepath.Join(home, ".config", "loom")
}

// findProjectConfig searches for .loom.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".loom.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			Default: "anthropic",
		},
		Defaults: DefaultsConfig{
			MaxWorkers:      3,
			TaskTimeout:     5 * time.Minute,
			FallbackBackend: "ollama",
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
	}
}
