package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig contains configuration for the Gemini backend.
type GeminiConfig struct {
	// Model is the default generative model (e.g. "gemini-2.0-flash").
	Model string
	// APIKey is the Gemini API key. If empty, uses GEMINI_API_KEY.
	APIKey string
}

// Gemini invokes the Gemini generative API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the Gemini backend.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{client: client, model: model}, nil
}

// ID returns the registry identifier.
func (g *Gemini) ID() string {
	return "gemini"
}

// Invoke sends one prompt and concatenates the text parts of the first
// candidate set.
func (g *Gemini) Invoke(ctx context.Context, req Request) (*Response, error) {
	name := g.model
	if req.Model != "" {
		name = req.Model
	}

	model := g.client.GenerativeModel(name)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	started := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, classifyGeminiErr(err)
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}

	result := &Response{
		Output:   out.String(),
		Model:    name,
		Duration: time.Since(started),
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

func classifyGeminiErr(err error) error {
	var apierr *googleapi.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.Code, err)
	}
	return NewTransientError(err)
}
