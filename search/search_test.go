package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planai/search/contracts"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	indexDir := filepath.Join(t.TempDir(), "index")
	store := NewJSONVectorStore(filepath.Join(indexDir, "index.json"))
	service, err := NewService(NewCodeChunker(), NewHashEmbedder(), store, indexDir)
	require.NoError(t, err)
	return service, indexDir
}

func TestChunkContent_PythonStructural(t *testing.T) {
	content := `import os

@decorator
def decorated():
    pass

class Greeter:
    def hello(self):
        return "hi"

def standalone():
    return 42
`
	chunks := NewCodeChunker().ChunkContent(content, "sample.py")
	require.Len(t, chunks, 3)

	byName := map[string]contracts.Chunk{}
	for _, chunk := range chunks {
		byName[chunk.Metadata.Name] = chunk
	}

	assert.Equal(t, "function", byName["decorated"].Metadata.Type)
	assert.Equal(t, "class", byName["Greeter"].Metadata.Type)
	assert.Equal(t, "function", byName["standalone"].Metadata.Type)

	// IDs encode path and line span
	greeter := byName["Greeter"]
	assert.Equal(t, fmt.Sprintf("sample.py:%d:%d", greeter.Metadata.StartLine, greeter.Metadata.EndLine), greeter.ID)
	assert.Contains(t, greeter.Content, "def hello")

	// The decorated chunk keeps its decorator
	assert.Contains(t, byName["decorated"].Content, "@decorator")
}

func TestChunkContent_PythonWithoutDefinitionsFallsBack(t *testing.T) {
	chunks := NewCodeChunker().ChunkContent("X = 1\nY = 2\n", "flat.py")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "text_chunk", chunks[0].Metadata.Type)
}

func TestChunkContent_LineWindowsOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 200; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}

	chunks := NewCodeChunker().ChunkContent(sb.String(), "big.txt")
	require.GreaterOrEqual(t, len(chunks), 3)

	first, second := chunks[0], chunks[1]
	assert.Equal(t, 1, first.Metadata.StartLine)
	assert.Equal(t, 90, first.Metadata.EndLine)
	// Next window starts inside the previous one
	assert.Equal(t, 71, second.Metadata.StartLine)
	assert.Equal(t, "chunk_1", first.Metadata.Name)
	assert.Equal(t, "chunk_2", second.Metadata.Name)
}

func TestChunkContent_EmptyContent(t *testing.T) {
	assert.Empty(t, NewCodeChunker().ChunkContent("   \n  ", "empty.py"))
}

func TestHashEmbedder(t *testing.T) {
	embedder := NewHashEmbedder()

	a, err := embedder.EmbedQuery(context.Background(), "parse the config file")
	require.NoError(t, err)
	b, err := embedder.EmbedQuery(context.Background(), "parse the config file")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Normalized to unit length
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-3)

	chunks, err := embedder.EmbedChunks(context.Background(), []contracts.Chunk{
		{ID: "x", Content: "def parse_config():\n    pass"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, chunks[0].Embedding)
}

func TestJSONVectorStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	store := NewJSONVectorStore(path)

	chunks := []contracts.Chunk{
		{ID: "a.py:1:5", Content: "alpha", Embedding: []float32{1, 0, 0}, Metadata: contracts.ChunkMetadata{FilePath: "a.py"}},
		{ID: "a.py:6:9", Content: "beta", Embedding: []float32{0, 1, 0}, Metadata: contracts.ChunkMetadata{FilePath: "a.py"}},
		{ID: "b.py:1:3", Content: "gamma", Embedding: []float32{0, 0, 1}, Metadata: contracts.ChunkMetadata{FilePath: "b.py"}},
	}
	require.NoError(t, store.Add(chunks))
	assert.Equal(t, 3, store.Count())

	// Closest match first, capped at topK
	results, err := store.Search([]float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha", results[0].Content)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)

	// Same-ID add replaces instead of duplicating
	require.NoError(t, store.Add([]contracts.Chunk{
		{ID: "a.py:1:5", Content: "alpha v2", Embedding: []float32{1, 0, 0}, Metadata: contracts.ChunkMetadata{FilePath: "a.py"}},
	}))
	assert.Equal(t, 3, store.Count())

	// DeleteFile drops every chunk of that file
	require.NoError(t, store.DeleteFile("a.py"))
	assert.Equal(t, 1, store.Count())

	// Persistence survives a reload
	reloaded := NewJSONVectorStore(path)
	assert.Equal(t, 1, reloaded.Count())

	require.NoError(t, store.Clear())
	assert.Equal(t, 0, store.Count())
}

func TestService_IndexFileAndSearch(t *testing.T) {
	service, _ := newTestService(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "greetings.py")
	require.NoError(t, os.WriteFile(path, []byte("def greet_user(name):\n    return \"hello \" + name\n\ndef farewell(name):\n    return \"bye \" + name\n"), 0o644))

	result := service.IndexFile(context.Background(), path)
	require.True(t, result.Success, result.Err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.ChunksCreated)

	response, err := service.Search(context.Background(), "greet user hello name", 5)
	require.NoError(t, err)
	require.NotEmpty(t, response.Results)
	assert.Equal(t, path, response.Results[0].Metadata.FilePath)
	assert.Contains(t, response.Results[0].Content, "hello")
}

func TestService_UnchangedFileIsSkipped(t *testing.T) {
	service, _ := newTestService(t)
	path := filepath.Join(t.TempDir(), "stable.py")
	require.NoError(t, os.WriteFile(path, []byte("def stable():\n    pass\n"), 0o644))

	first := service.IndexFile(context.Background(), path)
	require.True(t, first.Success, first.Err)
	assert.False(t, first.Skipped)

	second := service.IndexFile(context.Background(), path)
	require.True(t, second.Success)
	assert.True(t, second.Skipped)

	// A content change re-indexes
	require.NoError(t, os.WriteFile(path, []byte("def stable():\n    return 1\n"), 0o644))
	third := service.IndexFile(context.Background(), path)
	require.True(t, third.Success, third.Err)
	assert.False(t, third.Skipped)
}

func TestService_IndexDirectory(t *testing.T) {
	service, _ := newTestService(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("def a():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# Notes\nsome text\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.bin"), []byte("binary"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "__pycache__"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "__pycache__", "a.py"), []byte("cached"), 0o644))

	stats, err := service.IndexDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 2, stats.IndexedFiles)
	assert.Empty(t, stats.Errors)
	assert.GreaterOrEqual(t, stats.TotalChunks, 2)
}

func TestService_IndexDirectory_HonorsIgnoreFile(t *testing.T) {
	service, _ := newTestService(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".planai-ignore"), []byte("generated/\nsecret.py\n# comment\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.py"), []byte("def keep():\n    pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.py"), []byte("def secret():\n    pass\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "generated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generated", "gen.py"), []byte("def gen():\n    pass\n"), 0o644))

	stats, err := service.IndexDirectory(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 1, stats.IndexedFiles)
	assert.Empty(t, stats.Errors)
}

func TestService_SearchValidation(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Search(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	assert.True(t, shouldIgnore("project/__pycache__/mod.py"))
	assert.True(t, shouldIgnore("project/.git/config"))
	assert.True(t, shouldIgnore("venv/lib/site.py"))
	assert.True(t, shouldIgnore("mod.pyc"))
	assert.False(t, shouldIgnore("project/app/main.py"))
	assert.False(t, shouldIgnore("./src/main.py"))
}
