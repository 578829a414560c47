package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backends.Default != "anthropic" {
		t.Errorf("Expected anthropic default backend, got %s", cfg.Backends.Default)
	}
	if cfg.Defaults.MaxWorkers != 3 {
		t.Errorf("Expected 3 max workers, got %d", cfg.Defaults.MaxWorkers)
	}
	if cfg.Defaults.TaskTimeout != 5*time.Minute {
		t.Errorf("Expected 5m task timeout, got %s", cfg.Defaults.TaskTimeout)
	}
	if cfg.Defaults.FallbackBackend != "ollama" {
		t.Errorf("Expected ollama fallback backend, got %s", cfg.Defaults.FallbackBackend)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
backends:
  default: openai
  openai:
    api_key: sk-test
    model: gpt-4o
  ollama:
    host: http://localhost:11434
defaults:
  max_workers: 5
  task_timeout: 90s
tui:
  refresh_rate: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Backends.Default != "openai" {
		t.Errorf("Expected openai default, got %s", cfg.Backends.Default)
	}
	if cfg.Backends.OpenAI.APIKey != "sk-test" {
		t.Errorf("Expected api key from file, got %q", cfg.Backends.OpenAI.APIKey)
	}
	if cfg.Defaults.MaxWorkers != 5 {
		t.Errorf("Expected 5 max workers, got %d", cfg.Defaults.MaxWorkers)
	}
	if cfg.Defaults.TaskTimeout != 90*time.Second {
		t.Errorf("Expected 90s timeout, got %s", cfg.Defaults.TaskTimeout)
	}
	if cfg.TUI.RefreshRate != 250*time.Millisecond {
		t.Errorf("Expected 250ms refresh, got %s", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPath_DefaultsFillGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("backends:\n  default: gemini\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backends.Default != "gemini" {
		t.Errorf("Expected gemini, got %s", cfg.Backends.Default)
	}
	if cfg.Defaults.MaxWorkers != 3 {
		t.Errorf("Expected default max workers, got %d", cfg.Defaults.MaxWorkers)
	}
	if cfg.Defaults.TaskTimeout != 5*time.Minute {
		t.Errorf("Expected default timeout, got %s", cfg.Defaults.TaskTimeout)
	}
}

func TestLoadFromPath_ExpandsEnvInKeys(t *testing.T) {
	t.Setenv("LOOM_TEST_KEY", "expanded-secret")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "backends:\n  anthropic:\n    api_key: ${LOOM_TEST_KEY}\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Backends.Anthropic.APIKey != "expanded-secret" {
		t.Errorf("Expected env expansion, got %q", cfg.Backends.Anthropic.APIKey)
	}
}

func TestLoad_UserConfigFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	loomDir := filepath.Join(dir, "loom")
	if err := os.MkdirAll(loomDir, 0700); err != nil {
		t.Fatal(err)
	}
	content := "defaults:\n  max_workers: 7\n"
	if err := os.WriteFile(filepath.Join(loomDir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Defaults.MaxWorkers != 7 {
		t.Errorf("Expected 7 max workers from user config, got %d", cfg.Defaults.MaxWorkers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Backends.Default = "ollama"
	cfg.Defaults.MaxWorkers = 9

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFromPath(GetUserConfigPath())
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Backends.Default != "ollama" {
		t.Errorf("Expected ollama after round-trip, got %s", loaded.Backends.Default)
	}
	if loaded.Defaults.MaxWorkers != 9 {
		t.Errorf("Expected 9 workers after round-trip, got %d", loaded.Defaults.MaxWorkers)
	}
}
