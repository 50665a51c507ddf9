package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/sparse"
	"github.com/poliscope/poliscope/pkg/types"
)

// MemoryStore is a brute-force in-memory backend implementing both
// VectorStore and KeywordStore. Index replaces the whole content set;
// searches are read-only and safe for concurrent use.
type MemoryStore struct {
	embedder embedder.Client

	mu      sync.RWMutex
	chunks  map[string]*types.Chunk
	vectors map[string][]float32
	keyword *sparse.BM25Index
}

var _ VectorStore = (*MemoryStore)(nil)
var _ KeywordStore = keywordView{}

// keywordView adapts SearchKeyword to the KeywordStore interface, which
// shares the method name Search with VectorStore.
type keywordView struct {
	s *MemoryStore
}

func (v keywordView) Search(ctx context.Context, query string, filters types.Filters, topK int) ([]Result, error) {
	return v.s.SearchKeyword(ctx, query, filters, topK)
}

// KeywordStore exposes the store's keyword side under the KeywordStore
// interface.
func (s *MemoryStore) KeywordStore() KeywordStore {
	return keywordView{s: s}
}

// NewMemoryStore creates an empty in-memory store. The embedder is used
// once per Index call to embed chunk content.
func NewMemoryStore(embedderClient embedder.Client) *MemoryStore {
	return &MemoryStore{
		embedder: embedderClient,
		chunks:   make(map[string]*types.Chunk),
		vectors:  make(map[string][]float32),
	}
}

// Index embeds and indexes the given chunks, replacing any previous
// content.
func (s *MemoryStore) Index(ctx context.Context, chunks []types.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		texts[i] = c.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]sparse.Document, len(chunks))
	chunkMap := make(map[string]*types.Chunk, len(chunks))
	vectorMap := make(map[string][]float32, len(chunks))
	for i := range chunks {
		c := chunks[i]
		chunkMap[c.ID] = &c
		vectorMap[c.ID] = vectors[i]
		docs[i] = sparse.Document{ID: c.ID, Content: c.Content}
	}

	s.mu.Lock()
	s.chunks = chunkMap
	s.vectors = vectorMap
	s.keyword = sparse.NewBM25Index(docs, nil, 0, 0)
	s.mu.Unlock()
	return nil
}

// Search implements VectorStore by brute-force cosine scan.
func (s *MemoryStore) Search(ctx context.Context, vector []float32, topK int, filters types.Filters) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = types.DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Result, 0, len(s.vectors))
	for id, vec := range s.vectors {
		chunk := s.chunks[id]
		if chunk == nil || !matchesFilters(chunk, filters) {
			continue
		}
		score := embedder.Cosine(vector, vec)
		if score <= 0 {
			continue
		}
		results = append(results, Result{ChunkID: id, Score: score})
	}
	sortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchKeyword implements KeywordStore.
func (s *MemoryStore) SearchKeyword(ctx context.Context, query string, filters types.Filters, topK int) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = types.DefaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.keyword == nil {
		return nil, nil
	}
	// Over-fetch so filtering does not starve the result set.
	hits := s.keyword.Search(query, topK*3)
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		chunk := s.chunks[hit.ID]
		if chunk == nil || !matchesFilters(chunk, filters) {
			continue
		}
		results = append(results, Result{ChunkID: hit.ID, Score: hit.Score})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// Get returns the chunk by ID, or nil when absent.
func (s *MemoryStore) Get(ctx context.Context, chunkID string) (*types.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chunks[chunkID], nil
}

// Size returns the number of indexed chunks.
func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}
