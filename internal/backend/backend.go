// Package backend provides the model backend clients consumed by executors:
// a common request/response surface, a registry keyed by backend id, and
// retry handling for transient API failures.
package backend

import (
	"context"
	"time"
)

// Request is a single prompt sent to a backend.
type Request struct {
	// Prompt is the instruction to run.
	Prompt string
	// System optionally sets the system prompt.
	System string
	// Model optionally overrides the backend's default model.
	Model string
	// MaxTokens optionally caps the response length.
	MaxTokens int
}

// Response is a backend's answer to a Request.
type Response struct {
	// Output is the generated text.
	Output string
	// Model names the model that served the request.
	Model string
	// InputTokens is the prompt token count reported by the backend.
	InputTokens int64
	// OutputTokens is the completion token count reported by the backend.
	OutputTokens int64
	// Duration is the wall-clock time of the call.
	Duration time.Duration
}

// Backend is one model provider. Implementations must be safe for concurrent
// use. Timeouts are the caller's responsibility, applied through ctx.
type Backend interface {
	// ID returns the registry identifier (e.g. "anthropic").
	ID() string
	// Invoke sends one prompt and returns the generated response.
	Invoke(ctx context.Context, req Request) (*Response, error)
}

// Prober is implemented by backends that can report reachability with a
// cheap call. Backends whose only precondition is configuration (an API key)
// do not implement it; construction already validated them.
type Prober interface {
	Probe(ctx context.Context) error
}
