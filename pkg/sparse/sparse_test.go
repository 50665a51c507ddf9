package sparse

import (
	"testing"
)

func testDocs() []Document {
	return []Document{
		{ID: "d1", Content: "Startup funding subsidies for biomedical research companies"},
		{ID: "d2", Content: "Application conditions for high-tech enterprise certification"},
		{ID: "d3", Content: "Tax relief for small manufacturing enterprises"},
		{ID: "d4", Content: "Biomedical innovation grants and funding amounts for startups"},
	}
}

func TestDefaultTokenizer(t *testing.T) {
	t.Parallel()

	tok := DefaultTokenizer{}

	tokens := tok.Tokenize("Startup funding, for the biomedical sector!")
	want := []string{"startup", "funding", "biomedical", "sector"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestDefaultTokenizerCJK(t *testing.T) {
	t.Parallel()

	tok := DefaultTokenizer{}

	tokens := tok.Tokenize("创业补贴")
	// Overlapping bigrams over a 4-rune run.
	want := []string{"创业", "业补", "补贴"}
	if len(tokens) != len(want) {
		t.Fatalf("got %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, tokens[i], want[i])
		}
	}

	mixed := tok.Tokenize("申请500万元补贴")
	if len(mixed) == 0 {
		t.Fatal("mixed CJK/numeric text should produce tokens")
	}
	var sawNumber bool
	for _, token := range mixed {
		if token == "500" {
			sawNumber = true
		}
	}
	if !sawNumber {
		t.Errorf("expected numeric token in %v", mixed)
	}
}

func TestBM25Search(t *testing.T) {
	t.Parallel()

	idx := NewBM25Index(testDocs(), nil, 0, 0)
	if idx.Size() != 4 {
		t.Fatalf("Size() = %d, want 4", idx.Size())
	}

	hits := idx.Search("biomedical funding startup", 10)
	if len(hits) == 0 {
		t.Fatal("expected hits")
	}
	if hits[0].ID != "d4" && hits[0].ID != "d1" {
		t.Errorf("expected a biomedical funding doc first, got %s", hits[0].ID)
	}
	if hits[0].Score != 1.0 {
		t.Errorf("top hit should normalize to 1.0, got %f", hits[0].Score)
	}
	for _, h := range hits {
		if h.Score < 0 || h.Score > 1 {
			t.Errorf("score out of range: %+v", h)
		}
	}
}

func TestBM25SearchTruncates(t *testing.T) {
	t.Parallel()

	idx := NewBM25Index(testDocs(), nil, 0, 0)
	hits := idx.Search("enterprises funding", 1)
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
}

func TestBM25EmptyCases(t *testing.T) {
	t.Parallel()

	empty := NewBM25Index(nil, nil, 0, 0)
	if hits := empty.Search("anything", 10); hits != nil {
		t.Errorf("empty index should return nil, got %v", hits)
	}

	idx := NewBM25Index(testDocs(), nil, 0, 0)
	if hits := idx.Search("", 10); hits != nil {
		t.Errorf("empty query should return nil, got %v", hits)
	}
	if hits := idx.Search("zzzunknownterm", 10); len(hits) != 0 {
		t.Errorf("unmatched query should return no hits, got %v", hits)
	}
}

func TestTFIDFSearch(t *testing.T) {
	t.Parallel()

	idx := NewTFIDFIndex(testDocs(), nil)
	hits := idx.Search("tax relief manufacturing", 10)
	if len(hits) == 0 {
		t.Fatal("expected hits")
	}
	if hits[0].ID != "d3" {
		t.Errorf("expected d3 first, got %s", hits[0].ID)
	}
	if hits[0].Score != 1.0 {
		t.Errorf("top hit should normalize to 1.0, got %f", hits[0].Score)
	}
}

func TestTFIDFEmptyCases(t *testing.T) {
	t.Parallel()

	idx := NewTFIDFIndex(testDocs(), nil)
	if hits := idx.Search("", 10); hits != nil {
		t.Errorf("empty query should return nil, got %v", hits)
	}
	if hits := idx.Search("completely absent vocabulary", 0); hits != nil {
		t.Errorf("topK=0 should return nil, got %v", hits)
	}
}
