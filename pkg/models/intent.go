package models

// Mode selects which executor family handles a request.
type Mode string

const (
	// ModeCommand routes to structured command execution.
	ModeCommand Mode = "command"
	// ModeAgent routes to a persona skill invocation.
	ModeAgent Mode = "agent"
	// ModeTemplate routes to template rendering.
	ModeTemplate Mode = "template"
	// ModeSkill routes to a named skill invocation.
	ModeSkill Mode = "skill"
	// ModeBackend routes to a direct backend call.
	ModeBackend Mode = "backend"
)

// Valid returns true if the mode is a known value.
func (m Mode) Valid() bool {
	switch m {
	case ModeCommand, ModeAgent, ModeTemplate, ModeSkill, ModeBackend:
		return true
	default:
		return false
	}
}

// Complexity grades how much work a request implies.
type Complexity string

const (
	// ComplexitySimple is a short, single-clause request.
	ComplexitySimple Complexity = "simple"
	// ComplexityModerate is a multi-clause or longer request.
	ComplexityModerate Complexity = "moderate"
	// ComplexityComplex is a request with enumerated independent sub-work.
	ComplexityComplex Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		return true
	default:
		return false
	}
}

// Intent is the immutable classification of a request.
type Intent struct {
	// Mode governs which executor family handles the request.
	Mode Mode `json:"mode"`
	// TaskType is a free-form category label (e.g. "development").
	TaskType string `json:"task_type"`
	// Complexity is the graded size of the request.
	Complexity Complexity `json:"complexity"`
	// Confidence is the classifier's certainty in [0,1].
	Confidence float64 `json:"confidence"`
	// BackendHint optionally suggests a backend identifier.
	BackendHint string `json:"backend_hint,omitempty"`
	// EnableParallel is true when the request contains independent sub-work.
	EnableParallel bool `json:"enable_parallel"`
	// Defaulted is true when classification fell back to the conservative
	// default instead of matching a strategy.
	Defaulted bool `json:"defaulted,omitempty"`
}

// DefaultIntent returns the conservative fallback classification.
// The analyzer returns this for empty or unclassifiable input so callers
// always have a usable routing decision.
func DefaultIntent() Intent {
	return Intent{
		Mode:           ModeBackend,
		TaskType:       "general",
		Complexity:     ComplexitySimple,
		Confidence:     0.3,
		EnableParallel: false,
		Defaulted:      true,
	}
}
