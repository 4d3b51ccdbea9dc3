package search

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"sync"

	"planai/errdefs"
	"planai/fileops"
	"planai/search/contracts"
)

// JSONVectorStore keeps embedded chunks in one JSON file and answers
// queries by brute-force cosine similarity. Fine for repository-sized
// indexes; the store boundary is an interface so a server-backed store
// can replace it without touching the service.
type JSONVectorStore struct {
	path string

	mu     sync.Mutex
	loaded bool
	chunks []contracts.Chunk
}

func NewJSONVectorStore(path string) *JSONVectorStore {
	return &JSONVectorStore{path: path}
}

func (s *JSONVectorStore) load() error {
	if s.loaded {
		return nil
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errdefs.Operation("read", s.path, err)
	}
	if err := json.Unmarshal(data, &s.chunks); err != nil {
		return errdefs.Operation("read", s.path, err)
	}
	return nil
}

func (s *JSONVectorStore) persist() error {
	data, err := json.Marshal(s.chunks)
	if err != nil {
		return errdefs.Operation("write", s.path, err)
	}
	return fileops.WriteAtomic(s.path, data)
}

// Add inserts chunks, replacing any existing chunk with the same ID.
func (s *JSONVectorStore) Add(chunks []contracts.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	incoming := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		incoming[chunk.ID] = struct{}{}
	}

	kept := s.chunks[:0]
	for _, existing := range s.chunks {
		if _, replaced := incoming[existing.ID]; !replaced {
			kept = append(kept, existing)
		}
	}
	s.chunks = append(kept, chunks...)
	return s.persist()
}

func (s *JSONVectorStore) Search(embedding []float32, topK int) ([]contracts.Result, error) {
	if len(embedding) == 0 || topK <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}

	results := make([]contracts.Result, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		score := cosineSimilarity(embedding, chunk.Embedding)
		if math.IsNaN(score) {
			continue
		}
		results = append(results, contracts.Result{
			Content:   chunk.Content,
			Metadata:  chunk.Metadata,
			Relevance: score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *JSONVectorStore) Delete(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if _, gone := drop[chunk.ID]; !gone {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	return s.persist()
}

// DeleteFile removes every chunk that came from path, so a re-index
// never leaves stale chunks from a shrunk file behind.
func (s *JSONVectorStore) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	kept := s.chunks[:0]
	changed := false
	for _, chunk := range s.chunks {
		if chunk.Metadata.FilePath == path {
			changed = true
			continue
		}
		kept = append(kept, chunk)
	}
	if !changed {
		return nil
	}
	s.chunks = kept
	return s.persist()
}

func (s *JSONVectorStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.chunks = nil
	return s.persist()
}

func (s *JSONVectorStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return 0
	}
	return len(s.chunks)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
