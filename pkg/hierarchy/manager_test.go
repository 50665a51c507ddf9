package hierarchy

import (
	"testing"

	"github.com/poliscope/poliscope/pkg/types"
)

func builtManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(Config{}, nil, nil)
	m.BuildIndex(flatChunks())
	return m
}

func TestManagerSearch(t *testing.T) {
	t.Parallel()

	m := builtManager(t)
	results := m.Search("startup subsidy application", 10, nil)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score out of range: %+v", r)
		}
		if len(r.SourceTags) != 1 || r.SourceTags[0] != types.SourceHierarchical {
			t.Errorf("expected hierarchical source tag, got %v", r.SourceTags)
		}
	}

	// Dedup invariant: each chunk ID at most once.
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.ChunkID] {
			t.Errorf("duplicate chunk id %s", r.ChunkID)
		}
		seen[r.ChunkID] = true
	}
}

func TestManagerSearchEmptyIndex(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{}, nil, nil)
	if results := m.Search("anything", 10, nil); results != nil {
		t.Errorf("unbuilt manager should return nil, got %v", results)
	}
	if m.Ready() {
		t.Error("unbuilt manager should not be ready")
	}

	m.BuildIndex(nil)
	if results := m.Search("anything", 10, nil); len(results) != 0 {
		t.Errorf("empty corpus should return empty results, got %v", results)
	}
}

func TestManagerLevelWeightsShiftRanking(t *testing.T) {
	t.Parallel()

	m := builtManager(t)

	policyHeavy := m.Search("subsidy", 10, map[types.ChunkLevel]float64{
		types.LevelPolicy:   1.0,
		types.LevelSection:  0.1,
		types.LevelSentence: 0.1,
	})
	sentenceHeavy := m.Search("subsidy", 10, map[types.ChunkLevel]float64{
		types.LevelPolicy:   0.1,
		types.LevelSection:  0.1,
		types.LevelSentence: 1.0,
	})
	if len(policyHeavy) == 0 || len(sentenceHeavy) == 0 {
		t.Fatal("expected results under both weightings")
	}
	if policyHeavy[0].Metadata["level"] != string(types.LevelPolicy) {
		t.Errorf("policy-heavy weighting put %v first", policyHeavy[0].Metadata["level"])
	}
	if sentenceHeavy[0].Metadata["level"] != string(types.LevelSentence) {
		t.Errorf("sentence-heavy weighting put %v first", sentenceHeavy[0].Metadata["level"])
	}
}

func TestLevelWeightsForIntent(t *testing.T) {
	t.Parallel()

	m := NewManager(Config{}, nil, nil)

	eligibility := m.LevelWeightsForIntent(types.IntentCheckEligibility)
	if eligibility[types.LevelSection] != 1.0 || eligibility[types.LevelPolicy] != 0.7 {
		t.Errorf("unexpected eligibility weights: %v", eligibility)
	}

	funding := m.LevelWeightsForIntent(types.IntentGetFunding)
	if funding[types.LevelPolicy] != 1.0 || funding[types.LevelSentence] != 0.6 {
		t.Errorf("unexpected funding weights: %v", funding)
	}

	def := m.LevelWeightsForIntent(types.IntentFindPolicy)
	if def[types.LevelPolicy] != 1.0 || def[types.LevelSection] != 0.8 || def[types.LevelSentence] != 0.6 {
		t.Errorf("unexpected default weights: %v", def)
	}
}

func TestGetHierarchyContext(t *testing.T) {
	t.Parallel()

	m := builtManager(t)

	ctx := m.GetHierarchyContext("p1-c1")
	if ctx == nil {
		t.Fatal("expected context for p1-c1")
	}
	if ctx.Parent == nil || ctx.Parent.Level != types.LevelSection {
		t.Fatalf("expected section parent, got %+v", ctx.Parent)
	}
	if len(ctx.Siblings) != 1 || ctx.Siblings[0].ID != "p1-c3" {
		t.Errorf("expected sibling p1-c3, got %+v", ctx.Siblings)
	}

	sectionCtx := m.GetHierarchyContext(ctx.Parent.ID)
	if sectionCtx == nil || len(sectionCtx.Children) != 2 {
		t.Fatalf("expected 2 children under section, got %+v", sectionCtx)
	}
	if sectionCtx.Parent == nil || sectionCtx.Parent.Level != types.LevelPolicy {
		t.Errorf("section parent should be policy level, got %+v", sectionCtx.Parent)
	}

	if got := m.GetHierarchyContext("missing"); got != nil {
		t.Errorf("unknown chunk should return nil, got %+v", got)
	}
}

func TestManagerRestore(t *testing.T) {
	t.Parallel()

	m := builtManager(t)
	exported := m.Export()
	if exported == nil {
		t.Fatal("expected exported hierarchy")
	}

	restored := NewManager(Config{}, nil, nil)
	restored.Restore(&Hierarchy{Chunks: exported.Chunks, ParentOf: exported.ParentOf})
	if !restored.Ready() {
		t.Fatal("restored manager should be ready")
	}

	a := m.Search("startup subsidy", 5, nil)
	b := restored.Search("startup subsidy", 5, nil)
	if len(a) != len(b) {
		t.Fatalf("restored search differs: %d vs %d results", len(a), len(b))
	}
	for i := range a {
		if a[i].ChunkID != b[i].ChunkID {
			t.Errorf("result %d differs: %s vs %s", i, a[i].ChunkID, b[i].ChunkID)
		}
	}
}

func TestConfigZeroWeightPreserved(t *testing.T) {
	t.Parallel()

	cfg := Config{BM25Weight: 1.0, TFIDFWeight: 0}
	cfg.applyDefaults()
	if cfg.BM25Weight != 1.0 || cfg.TFIDFWeight != 0 {
		t.Errorf("configured merge weights changed: %+v", cfg)
	}

	var unset Config
	unset.applyDefaults()
	if unset.BM25Weight != DefaultBM25Weight || unset.TFIDFWeight != DefaultTFIDFWeight {
		t.Errorf("zero-value config did not get defaults: %+v", unset)
	}
}
