package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	olla "github.com/ollama/ollama/api"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaConfig contains configuration for the Ollama backend.
type OllamaConfig struct {
	// Model is the default local model (e.g. "llama3.2").
	Model string
	// Host is the Ollama server URL. If empty, uses OLLAMA_HOST or the
	// local default.
	Host string
}

// Ollama invokes a local Ollama server.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates the Ollama backend. No connection is made until the
// first request; per-request deadlines come from the caller's context, so
// the HTTP client carries no timeout of its own.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	host := cfg.Host
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &Ollama{
		client: olla.NewClient(parsed, http.DefaultClient),
		model:  model,
	}, nil
}

// ID returns the registry identifier.
func (o *Ollama) ID() string {
	return "ollama"
}

// Invoke sends one prompt as a non-streaming generate request.
func (o *Ollama) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := o.model
	if req.Model != "" {
		model = req.Model
	}

	stream := false
	genReq := &olla.GenerateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: &stream,
	}

	var final olla.GenerateResponse
	started := time.Now()
	err := o.client.Generate(ctx, genReq, func(resp olla.GenerateResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		return nil, classifyOllamaErr(err)
	}

	return &Response{
		Output:       final.Response,
		Model:        final.Model,
		InputTokens:  int64(final.PromptEvalCount),
		OutputTokens: int64(final.EvalCount),
		Duration:     time.Since(started),
	}, nil
}

// Probe reports whether the local server is reachable.
func (o *Ollama) Probe(ctx context.Context) error {
	return o.client.Heartbeat(ctx)
}

func classifyOllamaErr(err error) error {
	var apierr olla.StatusError
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, err)
	}
	return NewTransientError(err)
}
