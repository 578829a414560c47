package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig contains configuration for the OpenAI backend.
type OpenAIConfig struct {
	// Model is the default chat model (e.g. "gpt-4o").
	Model string
	// APIKey is the OpenAI API key. If empty, uses OPENAI_API_KEY.
	APIKey string
	// BaseURL optionally points at an OpenAI-compatible endpoint.
	BaseURL string
}

// OpenAI invokes the chat completions API. A custom BaseURL makes it work
// against any OpenAI-compatible server.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the OpenAI backend.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// ID returns the registry identifier.
func (o *OpenAI) ID() string {
	return "openai"
}

// Invoke sends one prompt as a chat completion request.
func (o *OpenAI) Invoke(ctx context.Context, req Request) (*Response, error) {
	model := o.model
	if req.Model != "" {
		model = req.Model
	}

	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	started := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewFatalError(fmt.Errorf("chat completion returned no choices"))
	}

	return &Response{
		Output:       resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
		Duration:     time.Since(started),
	}, nil
}

func classifyOpenAIErr(err error) error {
	var apierr *openai.APIError
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.HTTPStatusCode, err)
	}
	return NewTransientError(err)
}
