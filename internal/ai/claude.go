package ai

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/delivops/release-notes-generator/internal/config"
	"github.com/delivops/release-notes-generator/internal/logging"
)

const defaultClaudeModel = string(anthropic.ModelClaude3Haiku20240307)

// Shared generation settings for both providers.
const (
	maxCompletionTokens   = 500
	completionTemperature = 0.3
)

// ClaudeProvider generates summaries through the Anthropic messages API.
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

var _ Provider = (*ClaudeProvider)(nil)

// NewClaudeProvider creates a Claude-backed provider. An empty model selects
// the default.
func NewClaudeProvider(apiKey, model string) (*ClaudeProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key not found in configuration")
	}
	if model == "" {
		model = defaultClaudeModel
	}

	logging.Debug("initialized claude provider", "model", model)

	return &ClaudeProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}, nil
}

// Name returns the provider identifier.
func (p *ClaudeProvider) Name() string {
	return config.ProviderClaude
}

// Validate sends a one-token probe message. The messages API has no cheap
// unauthenticated-safe listing call, so a minimal completion is the smallest
// request that exercises the credentials.
func (p *ClaudeProvider) Validate(ctx context.Context) error {
	_, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage("ping"),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic authentication failed: %w", err)
	}
	logging.Info("claude connection successful", "model", p.model)
	return nil
}

// Summarize sends the prompts to Claude and returns the response text. The
// system prompt rides in the request's System field.
func (p *ClaudeProvider) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	temperature := float32(completionTemperature)
	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		System:      systemPrompt,
		MaxTokens:   maxCompletionTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude completion failed: %w", err)
	}

	summary := strings.TrimSpace(resp.GetFirstContentText())
	if summary == "" {
		return "", fmt.Errorf("claude returned an empty completion")
	}

	logging.Debug("generated summary using claude", "length", len(summary))
	return summary, nil
}
