package search

import (
	"context"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/zeebo/xxh3"

	"planai/errdefs"
	"planai/search/contracts"
	tokenscontracts "planai/tokens/contracts"
)

const embeddingBatchSize = 100

// OpenAIEmbedder computes embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	tokens tokenscontracts.ITokenTracker
}

// EmbedderConfig mirrors the provider configuration for the embedding
// endpoint; Azure is selected the same way as for chat.
type EmbedderConfig struct {
	Provider   string
	ApiKey     string
	BaseURL    string
	Model      string
	ApiVersion string
	Tokens     tokenscontracts.ITokenTracker
}

func NewOpenAIEmbedder(config *EmbedderConfig) *OpenAIEmbedder {
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

	model := openai.EmbeddingModel(config.Model)
	if config.Model == "" {
		model = openai.SmallEmbedding3
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		tokens: config.Tokens,
	}
}

func (e *OpenAIEmbedder) EmbedChunks(ctx context.Context, chunks []contracts.Chunk) ([]contracts.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	out := make([]contracts.Chunk, 0, len(chunks))
	for start := 0; start < len(chunks); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		inputs := make([]string, len(batch))
		for i, chunk := range batch {
			inputs[i] = chunk.Content
		}

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: inputs,
		})
		if err != nil {
			return nil, &errdefs.ProviderError{Provider: "openai", Msg: "embedding request failed", Cause: err}
		}
		if e.tokens != nil && resp.Usage.PromptTokens > 0 {
			e.tokens.UsedTokens(resp.Usage.PromptTokens, 0)
		}

		for i, chunk := range batch {
			if i < len(resp.Data) {
				chunk.Embedding = resp.Data[i].Embedding
			}
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errdefs.Validation("query must not be empty")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: e.model,
		Input: []string{query},
	})
	if err != nil {
		return nil, &errdefs.ProviderError{Provider: "openai", Msg: "query embedding request failed", Cause: err}
	}
	if e.tokens != nil && resp.Usage.PromptTokens > 0 {
		e.tokens.UsedTokens(resp.Usage.PromptTokens, 0)
	}
	if len(resp.Data) == 0 {
		return nil, &errdefs.ProviderError{Provider: "openai", Msg: "embedding response carried no data"}
	}
	return resp.Data[0].Embedding, nil
}

const hashEmbeddingDim = 256

// HashEmbedder is the offline fallback: a normalized bag-of-words vector
// where each token is bucketed by its hash. Deterministic, no network,
// good enough for lexical-overlap retrieval when no API key is set.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

func (e *HashEmbedder) EmbedChunks(_ context.Context, chunks []contracts.Chunk) ([]contracts.Chunk, error) {
	out := make([]contracts.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		chunk.Embedding = hashEmbedding(chunk.Content)
		out = append(out, chunk)
	}
	return out, nil
}

func (e *HashEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errdefs.Validation("query must not be empty")
	}
	return hashEmbedding(query), nil
}

func hashEmbedding(text string) []float32 {
	vec := make([]float32, hashEmbeddingDim)
	for _, token := range tokenize(text) {
		bucket := xxh3.HashString(token) % hashEmbeddingDim
		vec[bucket]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r == '_')
	})
}
