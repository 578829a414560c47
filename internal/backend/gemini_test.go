package backend

import (
	"strings"
	"testing"
)

func TestNewGemini_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := NewGemini(GeminiConfig{})
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected error to name the env var, got: %v", err)
	}
}
