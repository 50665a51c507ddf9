package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestChunkValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		chunk   Chunk
		wantErr error
	}{
		{
			name:  "valid chunk",
			chunk: Chunk{ID: "c-1", PolicyID: "p-1", Content: "text", Level: LevelSentence},
		},
		{
			name:    "missing id",
			chunk:   Chunk{PolicyID: "p-1", Content: "text"},
			wantErr: ErrEmptyChunkID,
		},
		{
			name:    "missing policy id",
			chunk:   Chunk{ID: "c-1", Content: "text"},
			wantErr: ErrEmptyPolicyID,
		},
		{
			name:    "missing content",
			chunk:   Chunk{ID: "c-1", PolicyID: "p-1"},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.chunk.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkValidateForIndex(t *testing.T) {
	t.Parallel()

	chunk := Chunk{ID: "c-1", PolicyID: "p-1", Content: "text", Level: ChunkLevel("paragraph")}
	if err := chunk.ValidateForIndex(); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("ValidateForIndex() = %v, want %v", err, ErrInvalidLevel)
	}

	chunk.Level = LevelSection
	if err := chunk.ValidateForIndex(); err != nil {
		t.Errorf("ValidateForIndex() = %v, want nil", err)
	}
}

func TestDedupCandidates(t *testing.T) {
	t.Parallel()

	in := []RetrievalCandidate{
		{ChunkID: "a", Score: 0.4, SourceTags: []string{SourceDense}},
		{ChunkID: "b", Score: 0.9, SourceTags: []string{SourceKeyword}},
		{ChunkID: "a", Score: 0.7, SourceTags: []string{SourceHierarchical}},
		{ChunkID: "a", Score: 0.2, SourceTags: []string{SourceDense}},
	}

	out := DedupCandidates(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique candidates, got %d", len(out))
	}
	if out[0].ChunkID != "b" {
		t.Errorf("expected b first, got %s", out[0].ChunkID)
	}

	var a RetrievalCandidate
	for _, c := range out {
		if c.ChunkID == "a" {
			a = c
		}
	}
	if a.Score != 0.7 {
		t.Errorf("expected max score 0.7 for a, got %f", a.Score)
	}
	if len(a.SourceTags) != 2 {
		t.Errorf("expected union of 2 source tags, got %v", a.SourceTags)
	}
}

func TestSortCandidatesTieBreak(t *testing.T) {
	t.Parallel()

	in := []RetrievalCandidate{
		{ChunkID: "z", Score: 0.5},
		{ChunkID: "a", Score: 0.5},
		{ChunkID: "m", Score: 0.5},
	}
	SortCandidates(in)

	want := []string{"a", "m", "z"}
	for i, id := range want {
		if in[i].ChunkID != id {
			t.Errorf("position %d: got %s, want %s", i, in[i].ChunkID, id)
		}
	}
}

func TestRerankRequestValidate(t *testing.T) {
	t.Parallel()

	req := RerankRequest{Query: "q", TopK: 10}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	req = RerankRequest{TopK: 10}
	if err := req.Validate(); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Validate() = %v, want %v", err, ErrEmptyQuery)
	}

	req = RerankRequest{Query: "q"}
	if err := req.Validate(); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("Validate() = %v, want %v", err, ErrInvalidTopK)
	}
}

func TestFiltersIsZero(t *testing.T) {
	t.Parallel()

	if !(Filters{}).IsZero() {
		t.Error("empty Filters should be zero")
	}
	if (Filters{ExcludeHighBarrier: true}).IsZero() {
		t.Error("Filters with a flag set should not be zero")
	}
	if (Filters{Industries: []string{"biotech"}}).IsZero() {
		t.Error("Filters with industries should not be zero")
	}
}

func TestTypedErrorsIs(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("search failed: %w", NewExternalServiceError("vector_store", errors.New("timeout")))
	if !errors.Is(wrapped, &ExternalServiceError{}) {
		t.Error("expected errors.Is to match ExternalServiceError through wrapping")
	}
	if errors.Is(wrapped, &ValidationError{}) {
		t.Error("ExternalServiceError should not match ValidationError")
	}

	p := NewParseError("unparseable ranking", "garbage output")
	if !errors.Is(p, &ParseError{}) {
		t.Error("expected errors.Is to match ParseError")
	}
	if p.Raw != "garbage output" {
		t.Errorf("Raw = %q", p.Raw)
	}
}
