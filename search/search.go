package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/xxh3"

	"planai/errdefs"
	"planai/fileops"
	"planai/search/contracts"
	"planai/utils"
)

// DefaultIndexDir holds the vector index and the file snapshots.
const DefaultIndexDir = ".planai/search_index"

var defaultPatterns = []string{"*.py", "*.js", "*.go", "*.html", "*.css", "*.md"}

// Response is the outcome of one search call.
type Response struct {
	Query        string             `json:"query"`
	Results      []contracts.Result `json:"results"`
	TotalResults int                `json:"total_results"`
}

// IndexFileResult reports indexing of a single file.
type IndexFileResult struct {
	FilePath      string `json:"file_path"`
	ChunksCreated int    `json:"chunks_created"`
	Success       bool   `json:"success"`
	Skipped       bool   `json:"skipped"`
	Err           string `json:"error,omitempty"`
}

// IndexError pairs a file with its indexing failure.
type IndexError struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

// IndexStats summarizes a directory indexing run.
type IndexStats struct {
	TotalFiles   int          `json:"total_files"`
	IndexedFiles int          `json:"indexed_files"`
	SkippedFiles int          `json:"skipped_files"`
	TotalChunks  int          `json:"total_chunks"`
	Errors       []IndexError `json:"errors"`
}

// Service runs the chunk, embed, store pipeline. File content hashes are
// snapshotted so unchanged files are skipped on re-index.
type Service struct {
	chunker  contracts.Chunker
	embedder contracts.Embedder
	store    contracts.VectorStore

	snapshotPath string
	snapshots    map[string]string
}

func NewService(chunker contracts.Chunker, embedder contracts.Embedder, store contracts.VectorStore, indexDir string) (*Service, error) {
	if indexDir == "" {
		indexDir = DefaultIndexDir
	}
	s := &Service{
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
		snapshotPath: filepath.Join(indexDir, "snapshots.json"),
		snapshots:    map[string]string{},
	}
	if err := s.loadSnapshots(); err != nil {
		return nil, err
	}
	return s, nil
}

// Search embeds the query and returns the topK most similar chunks.
func (s *Service) Search(ctx context.Context, query string, topK int) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errdefs.Validation("search query must not be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := s.store.Search(embedding, topK)
	if err != nil {
		return nil, err
	}
	return &Response{Query: query, Results: results, TotalResults: len(results)}, nil
}

// IndexFile chunks, embeds and stores one file. A file whose content
// hash matches the snapshot is skipped without touching the store.
func (s *Service) IndexFile(ctx context.Context, path string) *IndexFileResult {
	result := &IndexFileResult{FilePath: path}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		result.Err = fmt.Sprintf("not a file or doesn't exist: %s", path)
		return result
	}
	if shouldIgnore(path) {
		result.Err = fmt.Sprintf("file ignored: %s", path)
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	hash := fmt.Sprintf("%016x", xxh3.Hash(data))
	if s.snapshots[path] == hash {
		result.Success = true
		result.Skipped = true
		return result
	}

	chunks := s.chunker.ChunkContent(string(data), path)
	if len(chunks) == 0 {
		result.Err = fmt.Sprintf("no chunks created from file: %s", path)
		return result
	}

	embedded, err := s.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	if err := s.store.DeleteFile(path); err != nil {
		result.Err = err.Error()
		return result
	}
	if err := s.store.Add(embedded); err != nil {
		result.Err = err.Error()
		return result
	}

	s.snapshots[path] = hash
	if err := s.saveSnapshots(); err != nil {
		result.Err = err.Error()
		return result
	}

	result.ChunksCreated = len(chunks)
	result.Success = true
	return result
}

// IndexDirectory indexes every file under directory matching patterns
// (shell globs against the base name; defaults cover common source types).
// Paths matching the directory's .planai-ignore file are skipped.
func (s *Service) IndexDirectory(ctx context.Context, directory string, patterns []string) (*IndexStats, error) {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	ignorePatterns, err := utils.GetIgnorePatterns(directory)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(directory, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if path != directory && (shouldIgnore(path) || utils.IsDirIgnored(rel, ignorePatterns)) {
				return fs.SkipDir
			}
			return nil
		}
		if utils.IsIgnored(rel, ignorePatterns) {
			return nil
		}
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, errdefs.Operation("read", directory, err)
	}

	stats := &IndexStats{TotalFiles: len(files)}
	for _, path := range files {
		result := s.IndexFile(ctx, path)
		switch {
		case result.Success && result.Skipped:
			stats.SkippedFiles++
		case result.Success:
			stats.IndexedFiles++
			stats.TotalChunks += result.ChunksCreated
		default:
			stats.Errors = append(stats.Errors, IndexError{File: path, Err: result.Err})
		}
	}
	return stats, nil
}

// RebuildIndex drops the store and the snapshots, then indexes the
// current directory from scratch.
func (s *Service) RebuildIndex(ctx context.Context) (*IndexStats, error) {
	if err := s.store.Clear(); err != nil {
		return nil, err
	}
	s.snapshots = map[string]string{}
	if err := s.saveSnapshots(); err != nil {
		return nil, err
	}
	return s.IndexDirectory(ctx, ".", nil)
}

func (s *Service) loadSnapshots() error {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errdefs.Operation("read", s.snapshotPath, err)
	}
	return json.Unmarshal(data, &s.snapshots)
}

func (s *Service) saveSnapshots() error {
	data, err := json.Marshal(s.snapshots)
	if err != nil {
		return errdefs.Operation("write", s.snapshotPath, err)
	}
	return fileops.WriteAtomic(s.snapshotPath, data)
}

var ignoredDirs = map[string]bool{
	"__pycache__": true, ".git": true, ".pytest_cache": true, ".mypy_cache": true,
	".tox": true, ".eggs": true, ".venv": true, "venv": true, "node_modules": true,
}

var ignoredExts = map[string]bool{".pyc": true, ".pyo": true, ".pyd": true}

// shouldIgnore skips hidden paths, virtualenvs and caches.
func shouldIgnore(path string) bool {
	if ignoredExts[filepath.Ext(path)] {
		return true
	}
	for i, part := range strings.Split(filepath.ToSlash(path), "/") {
		if i == 0 && part == "." {
			continue
		}
		if ignoredDirs[part] || (strings.HasPrefix(part, ".") && part != "." && part != "..") {
			return true
		}
	}
	return false
}
