package store

import (
	"context"
	"testing"

	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/types"
)

func indexedStore(t *testing.T) (*MemoryStore, embedder.Client) {
	t.Helper()
	mock := embedder.NewMockClient(32)
	s := NewMemoryStore(mock)
	chunks := []types.Chunk{
		{ID: "c1", PolicyID: "p1", Content: "startup subsidy for biomedical companies",
			StructuredFields: map[string]string{"policy_type": "funding-support"}},
		{ID: "c2", PolicyID: "p1", Content: "tax relief conditions for manufacturing",
			StructuredFields: map[string]string{"policy_type": "tax-relief"}},
		{ID: "c3", PolicyID: "p2", Content: "subsidy amounts for startup companies"},
	}
	if err := s.Index(context.Background(), chunks); err != nil {
		t.Fatal(err)
	}
	return s, mock
}

func TestMemoryStoreVectorSearch(t *testing.T) {
	t.Parallel()

	s, mock := indexedStore(t)
	ctx := context.Background()

	vec, _ := mock.EmbedSingle(ctx, "startup subsidy")
	results, err := s.Search(ctx, vec, 10, types.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected vector hits")
	}
	top := results[0].ChunkID
	if top != "c1" && top != "c3" {
		t.Errorf("expected a subsidy chunk first, got %s", top)
	}
}

func TestMemoryStoreKeywordSearch(t *testing.T) {
	t.Parallel()

	s, _ := indexedStore(t)
	results, err := s.KeywordStore().Search(context.Background(), "tax relief", types.Filters{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ChunkID != "c2" {
		t.Errorf("expected c2 first, got %v", results)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	t.Parallel()

	s, mock := indexedStore(t)
	ctx := context.Background()

	vec, _ := mock.EmbedSingle(ctx, "subsidy")
	results, err := s.Search(ctx, vec, 10, types.Filters{PolicyTypes: []string{"funding-support"}})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		// c2 carries a conflicting policy_type; c3 has none and passes.
		if r.ChunkID == "c2" {
			t.Error("filter should exclude c2")
		}
	}
}

func TestMemoryStoreGet(t *testing.T) {
	t.Parallel()

	s, _ := indexedStore(t)
	ctx := context.Background()

	chunk, err := s.Get(ctx, "c1")
	if err != nil || chunk == nil || chunk.PolicyID != "p1" {
		t.Fatalf("Get(c1) = %+v, %v", chunk, err)
	}
	missing, err := s.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Get(nope) = %+v, %v", missing, err)
	}
}

func TestMemoryStoreContextCancellation(t *testing.T) {
	t.Parallel()

	s, _ := indexedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SearchKeyword(ctx, "subsidy", types.Filters{}, 5); err == nil {
		t.Error("cancelled context should fail")
	}
}
