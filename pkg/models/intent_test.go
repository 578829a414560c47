package models

import "testing"

func TestMode_Valid(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want bool
	}{
		{"command is valid", ModeCommand, true},
		{"agent is valid", ModeAgent, true},
		{"template is valid", ModeTemplate, true},
		{"skill is valid", ModeSkill, true},
		{"backend is valid", ModeBackend, true},
		{"empty string is invalid", Mode(""), false},
		{"unknown mode is invalid", Mode("shell"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Valid(); got != tt.want {
				t.Errorf("Mode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestComplexity_Valid(t *testing.T) {
	tests := []struct {
		name       string
		complexity Complexity
		want       bool
	}{
		{"simple is valid", ComplexitySimple, true},
		{"moderate is valid", ComplexityModerate, true},
		{"complex is valid", ComplexityComplex, true},
		{"empty string is invalid", Complexity(""), false},
		{"unknown complexity is invalid", Complexity("hard"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.complexity.Valid(); got != tt.want {
				t.Errorf("Complexity(%q).Valid() = %v, want %v", tt.complexity, got, tt.want)
			}
		})
	}
}

func TestDefaultIntent(t *testing.T) {
	intent := DefaultIntent()

	if intent.Mode != ModeBackend {
		t.Errorf("DefaultIntent().Mode = %q, want %q", intent.Mode, ModeBackend)
	}
	if intent.Complexity != ComplexitySimple {
		t.Errorf("DefaultIntent().Complexity = %q, want %q", intent.Complexity, ComplexitySimple)
	}
	if intent.Confidence > 0.3 {
		t.Errorf("DefaultIntent().Confidence = %v, want <= 0.3", intent.Confidence)
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		t.Errorf("DefaultIntent().Confidence = %v, want in [0,1]", intent.Confidence)
	}
	if intent.EnableParallel {
		t.Error("DefaultIntent().EnableParallel should be false")
	}
	if !intent.Defaulted {
		t.Error("DefaultIntent().Defaulted should be true")
	}
	if !intent.Mode.Valid() || !intent.Complexity.Valid() {
		t.Error("DefaultIntent() should carry valid enum values")
	}
}
