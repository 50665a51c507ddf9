package embedder

import (
	"context"
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	vec := Normalize([]float32{3, 4})
	if math.Abs(float64(vec[0])-0.6) > 1e-6 || math.Abs(float64(vec[1])-0.8) > 1e-6 {
		t.Errorf("Normalize() = %v", vec)
	}

	zero := Normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector should pass through, got %v", zero)
	}
}

func TestCosine(t *testing.T) {
	t.Parallel()

	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("identical vectors: %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-6 {
		t.Errorf("orthogonal vectors: %f", got)
	}
	if got := Cosine([]float32{1}, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths should be 0, got %f", got)
	}
}

func TestMockClientDeterminism(t *testing.T) {
	t.Parallel()

	m := NewMockClient(32)
	ctx := context.Background()

	a, err := m.EmbedSingle(ctx, "startup subsidy")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := m.EmbedSingle(ctx, "startup subsidy")
	if Cosine(a, b) < 0.999 {
		t.Error("identical texts should embed identically")
	}

	// Shared tokens should correlate more than disjoint ones.
	related, _ := m.EmbedSingle(ctx, "startup funding")
	unrelated, _ := m.EmbedSingle(ctx, "quarterly tax review")
	if Cosine(a, related) <= Cosine(a, unrelated) {
		t.Error("expected token overlap to increase similarity")
	}

	batch, err := m.Embed(ctx, []string{"one", "two"})
	if err != nil || len(batch) != 2 {
		t.Fatalf("Embed() = %v, %v", batch, err)
	}
	for _, v := range batch {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		if math.Abs(sum-1.0) > 1e-4 {
			t.Errorf("embedding not unit length: %f", sum)
		}
	}
}

func TestMockClientExpandQuery(t *testing.T) {
	t.Parallel()

	m := NewMockClient(16)
	m.Expansions = map[string][]string{"funding": {"subsidy", "grant", "allowance"}}

	got, err := m.ExpandQuery(context.Background(), "funding", 2)
	if err != nil || len(got) != 2 {
		t.Fatalf("ExpandQuery() = %v, %v", got, err)
	}
}
