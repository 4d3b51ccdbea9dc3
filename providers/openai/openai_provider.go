// Package openai backs the action provider with the OpenAI chat API,
// covering both the public endpoint and Azure deployments.
package openai

import (
	"context"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"planai/embed_data"
	"planai/errdefs"
	"planai/models"
	"planai/providers/contracts"
	tokenscontracts "planai/tokens/contracts"
	"planai/utils"
)

// Config carries everything needed to reach an OpenAI-compatible chat
// endpoint. Azure is selected by setting ApiVersion and an Azure BaseURL.
type Config struct {
	Provider    string // "openai" or "azure"
	ApiKey      string
	BaseURL     string
	Model       string
	ApiVersion  string
	Temperature *float32
	MaxTokens   int
	Tokens      tokenscontracts.ITokenTracker
}

type openAIProvider struct {
	client *openai.Client
	config *Config
}

// NewOpenAIActionProvider builds an ActionProvider over go-openai.
func NewOpenAIActionProvider(config *Config) contracts.ActionProvider {
	var clientConfig openai.ClientConfig
	if config.Provider == "azure" {
		clientConfig = openai.DefaultAzureConfig(config.ApiKey, config.BaseURL)
		if config.ApiVersion != "" {
			clientConfig.APIVersion = config.ApiVersion
		}
	} else {
		clientConfig = openai.DefaultConfig(config.ApiKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
	}

	return &openAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

func (p *openAIProvider) Name() string {
	if p.config.Provider == "azure" {
		return "azure"
	}
	return "openai"
}

func (p *openAIProvider) GenerateActions(ctx context.Context, query string) ([]models.Action, error) {
	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: embed_data.ActionPlanPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	}
	if p.config.Temperature != nil {
		req.Temperature = *p.config.Temperature
	}
	if p.config.MaxTokens > 0 {
		req.MaxTokens = p.config.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "chat completion request failed", Cause: err}
	}

	if p.config.Tokens != nil && resp.Usage.TotalTokens > 0 {
		p.config.Tokens.UsedTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}

	if len(resp.Choices) == 0 {
		log.Printf("warning: %s returned no choices", p.Name())
		return []models.Action{utils.InfoAction("the model returned an empty response")}, nil
	}

	return utils.ParseActions(resp.Choices[0].Message.Content), nil
}
