// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AI provider identifiers accepted in the AI_PROVIDER environment variable.
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub GitHubConfig
	Slack  SlackConfig
	AI     AIConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token string
}

// SlackConfig holds Slack specific configuration.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// AIConfig holds AI provider configuration. Provider selects which backend
// summarizes pull requests; the API key matching the provider must be set.
type AIConfig struct {
	Provider        string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	Model           string
}

// APIKey returns the API key matching the selected provider.
func (c AIConfig) APIKey() string {
	if c.Provider == ProviderClaude {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("slack.bot_token", "SLACK_BOT_TOKEN")
	v.BindEnv("slack.channel", "SLACK_CHANNEL")
	v.BindEnv("ai.provider", "AI_PROVIDER")
	v.BindEnv("ai.openai_api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.anthropic_api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("ai.model", "AI_MODEL")

	v.SetDefault("ai.provider", ProviderOpenAI)

	// Create config structure
	config := &Config{
		GitHub: GitHubConfig{
			Token: v.GetString("github.token"),
		},
		Slack: SlackConfig{
			BotToken: v.GetString("slack.bot_token"),
			Channel:  v.GetString("slack.channel"),
		},
		AI: AIConfig{
			Provider:        strings.ToLower(v.GetString("ai.provider")),
			OpenAIAPIKey:    v.GetString("ai.openai_api_key"),
			AnthropicAPIKey: v.GetString("ai.anthropic_api_key"),
			Model:           v.GetString("ai.model"),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures that all required configuration values are provided.
func validateConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.Slack.BotToken == "" {
		missingVars = append(missingVars, "SLACK_BOT_TOKEN")
	}
	if config.Slack.Channel == "" {
		missingVars = append(missingVars, "SLACK_CHANNEL")
	}

	switch config.AI.Provider {
	case ProviderOpenAI:
		if config.AI.OpenAIAPIKey == "" {
			missingVars = append(missingVars, "OPENAI_API_KEY")
		}
	case ProviderClaude:
		if config.AI.AnthropicAPIKey == "" {
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	default:
		return fmt.Errorf("unsupported ai provider: %q, supported providers: %s, %s",
			config.AI.Provider, ProviderOpenAI, ProviderClaude)
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
