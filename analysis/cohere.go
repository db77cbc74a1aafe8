package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

const DefaultCohereModel = "command-r"

// CohereProvider scores headlines with Cohere's chat endpoint.
type CohereProvider struct {
	client *cohereclient.Client
	model  string
}

func NewCohereProvider(apiKey, model string, httpClient *http.Client, opts ...option.RequestOption) *CohereProvider {
	if model == "" {
		model = DefaultCohereModel
	}
	opts = append([]option.RequestOption{
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	}, opts...)
	return &CohereProvider{client: cohereclient.NewClient(opts...), model: model}
}

func (c *CohereProvider) Name() string { return "cohere" }

func (c *CohereProvider) Analyze(ctx context.Context, headlines []string) ([]Scored, error) {
	if len(headlines) == 0 {
		return nil, ErrEmptyBatch
	}
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message: BuildBatchPrompt(headlines),
		Model:   cohere.String(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return nil, errors.New("cohere chat returned empty response")
	}
	return ParseBatchResponse(resp.Text, len(headlines)), nil
}
