package backend

import (
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewOpenAI_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewOpenAI(OpenAIConfig{})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("Expected error to name the env var, got: %v", err)
	}
}

func TestNewOpenAI_Defaults(t *testing.T) {
	o, err := NewOpenAI(OpenAIConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if o.ID() != "openai" {
		t.Errorf("Expected openai, got %s", o.ID())
	}
	if o.model != openai.GPT4o {
		t.Errorf("Expected default model %s, got %s", openai.GPT4o, o.model)
	}
}

func TestNewOpenAI_CompatibleEndpoint(t *testing.T) {
	o, err := NewOpenAI(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "deepseek-chat",
		BaseURL: "https://api.deepseek.com/v1",
	})
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if o.model != "deepseek-chat" {
		t.Errorf("Expected configured model, got %s", o.model)
	}
}
