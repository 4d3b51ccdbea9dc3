// Package search implements semantic code search: structural chunking,
// embedding, a local vector index and the service tying them together.
package search

import (
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"planai/errdefs"
	"planai/search/contracts"
)

const (
	defaultChunkSize = 90
	defaultOverlap   = 20
)

// CodeChunker splits Python files along function and class boundaries and
// falls back to fixed-size line windows with overlap for everything else.
type CodeChunker struct {
	chunkSize int
	overlap   int
}

func NewCodeChunker() *CodeChunker {
	return &CodeChunker{chunkSize: defaultChunkSize, overlap: defaultOverlap}
}

func (c *CodeChunker) ChunkFile(path string) ([]contracts.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdefs.Operation("read", path, err)
	}
	return c.ChunkContent(string(data), path), nil
}

func (c *CodeChunker) ChunkContent(content, path string) []contracts.Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if strings.HasSuffix(path, ".py") {
		if chunks := c.chunkPython(content, path); len(chunks) > 0 {
			return chunks
		}
	}
	return c.chunkByLines(content, path)
}

// chunkPython emits one chunk per top-level function or class definition.
// Files without any such definitions fall through to line chunking.
func (c *CodeChunker) chunkPython(content, path string) []contracts.Chunk {
	source := []byte(content)
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, source)
	if tree == nil || tree.RootNode().HasError() {
		return nil
	}

	var chunks []contracts.Chunk
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)

		var kind string
		target := node
		switch node.Type() {
		case "function_definition":
			kind = "function"
		case "class_definition":
			kind = "class"
		case "decorated_definition":
			def := node.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			target = node
			if def.Type() == "class_definition" {
				kind = "class"
			} else {
				kind = "function"
			}
			node = def
		default:
			continue
		}

		name := "anonymous"
		if n := node.ChildByFieldName("name"); n != nil {
			name = n.Content(source)
		}

		startLine := int(target.StartPoint().Row) + 1
		endLine := int(target.EndPoint().Row) + 1
		chunks = append(chunks, newChunk(target.Content(source), contracts.ChunkMetadata{
			FilePath:  path,
			StartLine: startLine,
			EndLine:   endLine,
			Type:      kind,
			Name:      name,
		}))
	}
	return chunks
}

// chunkByLines cuts the content into windows of chunkSize lines, stepping
// by chunkSize minus overlap so neighboring chunks share context.
func (c *CodeChunker) chunkByLines(content, path string) []contracts.Chunk {
	lines := strings.Split(content, "\n")

	step := c.chunkSize - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []contracts.Chunk
	for i := 0; i < len(lines); i += step {
		end := i + c.chunkSize
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.Join(lines[i:end], "\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		chunks = append(chunks, newChunk(body, contracts.ChunkMetadata{
			FilePath:  path,
			StartLine: i + 1,
			EndLine:   end,
			Type:      "text_chunk",
			Name:      fmt.Sprintf("chunk_%d", len(chunks)+1),
		}))
		if end == len(lines) {
			break
		}
	}
	return chunks
}

func newChunk(content string, meta contracts.ChunkMetadata) contracts.Chunk {
	return contracts.Chunk{
		ID:       fmt.Sprintf("%s:%d:%d", meta.FilePath, meta.StartLine, meta.EndLine),
		Content:  content,
		Metadata: meta,
	}
}
