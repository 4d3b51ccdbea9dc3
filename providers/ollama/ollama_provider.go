// Package ollama talks to a local Ollama server over its /api/chat
// endpoint, non-streaming, and turns the reply into actions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"planai/embed_data"
	"planai/errdefs"
	"planai/models"
	"planai/providers/contracts"
	tokenscontracts "planai/tokens/contracts"
	"planai/utils"
)

const defaultBaseURL = "http://localhost:11434/api"

// Config holds the connection settings for an Ollama server.
type Config struct {
	BaseURL     string
	Model       string
	Temperature *float32
	Tokens      tokenscontracts.ITokenTracker
}

type ollamaProvider struct {
	config *Config
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature *float32 `json:"temperature,omitempty"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

// NewOllamaActionProvider builds an ActionProvider over a local Ollama server.
func NewOllamaActionProvider(config *Config) contracts.ActionProvider {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	return &ollamaProvider{config: config, client: &http.Client{}}
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) GenerateActions(ctx context.Context, query string) ([]models.Action, error) {
	reqBody := chatRequest{
		Model: p.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: embed_data.ActionPlanPrompt},
			{Role: "user", Content: query},
		},
		Stream: false,
	}
	if p.config.Temperature != nil {
		reqBody.Options = &chatOptions{Temperature: p.config.Temperature}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "marshalling request body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", p.config.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "creating request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "sending request", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "reading response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatResponse
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = fmt.Sprintf("%s: %s", msg, apiErr.Error)
		}
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: msg}
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &errdefs.ProviderError{Provider: p.Name(), Msg: "unmarshalling response", Cause: err}
	}

	if p.config.Tokens != nil && response.PromptEvalCount > 0 {
		p.config.Tokens.UsedTokens(response.PromptEvalCount, response.EvalCount)
	}

	return utils.ParseActions(response.Message.Content), nil
}
