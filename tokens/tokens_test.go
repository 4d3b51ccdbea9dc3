package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenTracker_Accumulates(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.UsedTokens(100, 40)
	tracker.UsedTokens(50, 10)

	total, input, output := tracker.GetCurrentTokenUsage()
	assert.Equal(t, 200, total)
	assert.Equal(t, 150, input)
	assert.Equal(t, 50, output)

	tracker.ClearToken()
	total, input, output = tracker.GetCurrentTokenUsage()
	assert.Zero(t, total)
	assert.Zero(t, input)
	assert.Zero(t, output)
}

func TestCalculateCost(t *testing.T) {
	tracker := NewTokenTracker()

	cost := tracker.CalculateCost("openai", "gpt-4o", 1_000_000, 1_000_000)
	assert.InDelta(t, 12.50, cost, 1e-9)

	// Unknown models cost nothing
	assert.Zero(t, tracker.CalculateCost("ollama", "llama3", 1_000_000, 0))
}
