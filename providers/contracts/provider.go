package contracts

import (
	"context"

	"planai/models"
)

// ActionProvider is the LLM boundary: it turns a natural-language query
// into a structured list of actions. Implementations must return a
// ProviderError on transport or service failure; an empty or unparseable
// model response degrades to a single synthetic info action instead.
type ActionProvider interface {
	GenerateActions(ctx context.Context, query string) ([]models.Action, error)
	Name() string
}
