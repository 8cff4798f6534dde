package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/delivops/release-notes-generator/internal/config"
	"github.com/delivops/release-notes-generator/internal/logging"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider generates summaries through the OpenAI chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI-backed provider. An empty model selects
// the default.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key not found in configuration")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	logging.Debug("initialized openai provider", "model", model)

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Validate lists the available models to confirm the API key works.
func (p *OpenAIProvider) Validate(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai authentication failed: %w", err)
	}
	logging.Info("openai connection successful", "model", p.model)
	return nil
}

// Summarize sends the prompts to OpenAI and returns the completion text.
func (p *OpenAIProvider) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: completionTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("openai returned an empty completion")
	}

	logging.Debug("generated summary using openai", "length", len(summary))
	return summary, nil
}
