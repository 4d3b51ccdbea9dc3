// Package providers wires provider configuration onto concrete chat
// backends.
package providers

import (
	"planai/providers/contracts"
	"planai/providers/mock"
	"planai/providers/ollama"
	"planai/providers/openai"
	tokenscontracts "planai/tokens/contracts"
)

// ProviderConfig selects and configures the chat backend.
type ProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	ApiKey      string   `mapstructure:"api_key"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	ApiVersion  string   `mapstructure:"api_version"`
	Temperature *float32 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

// NewActionProvider maps the configured provider name onto an
// implementation. OpenAI and Azure without an API key fall back to the
// offline mock so the CLI stays usable without credentials.
func NewActionProvider(cfg *ProviderConfig, tokens tokenscontracts.ITokenTracker) contracts.ActionProvider {
	switch cfg.Provider {
	case "openai", "azure":
		if cfg.ApiKey == "" {
			return mock.NewMockActionProvider()
		}
		return openai.NewOpenAIActionProvider(&openai.Config{
			Provider:    cfg.Provider,
			ApiKey:      cfg.ApiKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			ApiVersion:  cfg.ApiVersion,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Tokens:      tokens,
		})
	case "ollama":
		return ollama.NewOllamaActionProvider(&ollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Tokens:      tokens,
		})
	default:
		return mock.NewMockActionProvider()
	}
}
