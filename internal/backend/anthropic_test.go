package backend

import (
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewAnthropic_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewAnthropic(AnthropicConfig{})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("Expected error to name the env var, got: %v", err)
	}
}

func TestNewAnthropic_Defaults(t *testing.T) {
	a, err := NewAnthropic(AnthropicConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}
	if a.ID() != "anthropic" {
		t.Errorf("Expected anthropic, got %s", a.ID())
	}
	if a.model != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Expected default model, got %s", a.model)
	}
}

func TestNewAnthropic_KeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	if _, err := NewAnthropic(AnthropicConfig{}); err != nil {
		t.Fatalf("Expected env key to satisfy construction, got: %v", err)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("Expected Bedrock inference profile, got %s", got)
	}
}

func TestTranslateModelForBedrock_PassThrough(t *testing.T) {
	custom := anthropic.Model("us.anthropic.custom-model-v1:0")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("Expected unknown model unchanged, got %s", got)
	}
}
