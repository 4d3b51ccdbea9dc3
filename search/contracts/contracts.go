// Package contracts defines the seams of the semantic search pipeline.
package contracts

import "context"

// ChunkMetadata locates a chunk inside its source file.
type ChunkMetadata struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Type      string `json:"type"` // function, class, text_chunk, file
	Name      string `json:"name"`
}

// Chunk is one indexable unit of code plus its embedding once computed.
type Chunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}

// Result is one search hit; higher relevance is better.
type Result struct {
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
	Relevance float64       `json:"relevance"`
}

// Chunker splits source files into logical chunks.
type Chunker interface {
	ChunkFile(path string) ([]Chunk, error)
	ChunkContent(content, path string) []Chunk
}

// Embedder turns chunks and queries into vectors.
type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []Chunk) ([]Chunk, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// VectorStore persists embedded chunks and answers similarity queries.
type VectorStore interface {
	Add(chunks []Chunk) error
	Search(embedding []float32, topK int) ([]Result, error)
	Delete(ids []string) error
	DeleteFile(path string) error
	Clear() error
	Count() int
}
