package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel = "meta-llama/llama-3.1-8b-instruct"
)

// OpenRouterProvider talks to an OpenAI-compatible chat completions API. baseURL is
// the API root; the client appends /chat/completions.
type OpenRouterProvider struct {
	model  string
	client *openai.Client
}

func NewOpenRouterProvider(apiKey, model, baseURL string, client *http.Client) *OpenRouterProvider {
	if model == "" {
		model = DefaultOpenRouterModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenRouterURL
	}
	if client == nil {
		client = &http.Client{Timeout: BatchTimeout}
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = client
	return &OpenRouterProvider{model: model, client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenRouterProvider) Name() string { return "openrouter" }

func (o *OpenRouterProvider) Analyze(ctx context.Context, headlines []string) ([]Scored, error) {
	if len(headlines) == 0 {
		return nil, ErrEmptyBatch
	}
	text, err := o.call(ctx, BuildBatchPrompt(headlines), 60*len(headlines)+64)
	if err != nil {
		return nil, err
	}
	return ParseBatchResponse(text, len(headlines)), nil
}

func (o *OpenRouterProvider) call(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API error: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty openrouter response")
	}
	return resp.Choices[0].Message.Content, nil
}
