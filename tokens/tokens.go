// Package tokens accumulates per-session LLM token usage and estimates
// cost for the models we know about.
package tokens

import (
	"fmt"

	"planai/constants/lipgloss"
	"planai/tokens/contracts"
)

type modelPricing struct {
	inputCostPerMillion  float64
	outputCostPerMillion float64
}

// Known pricing per million tokens. Unknown models cost zero, which keeps
// the display honest for local providers like ollama.
var pricing = map[string]modelPricing{
	"gpt-4o":                 {inputCostPerMillion: 2.50, outputCostPerMillion: 10.00},
	"gpt-4o-mini":            {inputCostPerMillion: 0.15, outputCostPerMillion: 0.60},
	"gpt-4":                  {inputCostPerMillion: 30.00, outputCostPerMillion: 60.00},
	"text-embedding-3-small": {inputCostPerMillion: 0.02},
	"text-embedding-3-large": {inputCostPerMillion: 0.13},
}

type tokenTracker struct {
	usedToken       int
	usedInputToken  int
	usedOutputToken int
}

// NewTokenTracker creates a session token tracker.
func NewTokenTracker() contracts.ITokenTracker {
	return &tokenTracker{}
}

// UsedTokens accumulates the token count for the session.
func (tm *tokenTracker) UsedTokens(inputToken int, outputToken int) {
	tm.usedInputToken += inputToken
	tm.usedOutputToken += outputToken
	tm.usedToken += inputToken + outputToken
}

func (tm *tokenTracker) CalculateCost(providerName string, modelName string, inputToken int, outputToken int) float64 {
	p, ok := pricing[modelName]
	if !ok {
		return 0
	}
	return float64(inputToken)/1e6*p.inputCostPerMillion + float64(outputToken)/1e6*p.outputCostPerMillion
}

func (tm *tokenTracker) DisplayTokens(providerName string, modelName string) {
	cost := tm.CalculateCost(providerName, modelName, tm.usedInputToken, tm.usedOutputToken)
	tokenInfo := fmt.Sprintf("Token Used: %d - Cost: %.6f $ - Model: %s", tm.usedToken, cost, modelName)
	fmt.Println(lipgloss.BoxStyle.Render(tokenInfo))
}

func (tm *tokenTracker) GetCurrentTokenUsage() (total int, input int, output int) {
	return tm.usedToken, tm.usedInputToken, tm.usedOutputToken
}

func (tm *tokenTracker) ClearToken() {
	tm.usedToken = 0
	tm.usedInputToken = 0
	tm.usedOutputToken = 0
}
