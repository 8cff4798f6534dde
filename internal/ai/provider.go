// Package ai defines the pluggable summarization capability and its provider
// factory. Provider selection is a configuration-time binding: the rest of
// the application only ever sees the Provider interface.
package ai

import (
	"context"
	"fmt"

	"github.com/delivops/release-notes-generator/internal/config"
)

// Provider is the summarization capability backing the release notes
// pipeline. Both supported backends honour the same contract.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "claude").
	Name() string

	// Validate performs a lightweight authenticated call to confirm the
	// provider credentials are usable.
	Validate(ctx context.Context) error

	// Summarize sends the system and user prompts to the provider and
	// returns the generated text.
	Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewProvider creates the AI provider selected by the configuration.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.AI.OpenAIAPIKey, cfg.AI.Model)
	case config.ProviderClaude:
		return NewClaudeProvider(cfg.AI.AnthropicAPIKey, cfg.AI.Model)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %q, supported providers: %s, %s",
			cfg.AI.Provider, config.ProviderOpenAI, config.ProviderClaude)
	}
}
