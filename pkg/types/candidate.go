package types

import (
	"slices"
	"sort"
)

// Source tags attached to candidates by the stage that produced them.
const (
	SourceDense        = "dense"
	SourceKeyword      = "keyword"
	SourceHierarchical = "hierarchical"
	SourceHybrid       = "hybrid"
	SourceEnhanced     = "keyword_enhanced"
)

// RetrievalCandidate is a scored search hit. Candidates are created per
// search call, mutated only during fusion and reranking, and discarded
// after response assembly.
type RetrievalCandidate struct {
	ChunkID    string         `json:"chunk_id"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	PolicyID   string         `json:"policy_id,omitempty"`
	SourceTags []string       `json:"source_tags,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AddSourceTag appends tag unless already present.
func (c *RetrievalCandidate) AddSourceTag(tag string) {
	if !slices.Contains(c.SourceTags, tag) {
		c.SourceTags = append(c.SourceTags, tag)
	}
}

// SortCandidates orders candidates by descending score, breaking ties
// by ascending chunk ID so repeated sorts are deterministic.
func SortCandidates(candidates []RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ChunkID < candidates[j].ChunkID
	})
}

// DedupCandidates merges duplicates by chunk ID: the surviving entry keeps
// the maximum score and the union of source tags. The result is sorted with
// SortCandidates.
func DedupCandidates(candidates []RetrievalCandidate) []RetrievalCandidate {
	byID := make(map[string]int, len(candidates))
	merged := make([]RetrievalCandidate, 0, len(candidates))
	for _, c := range candidates {
		idx, seen := byID[c.ChunkID]
		if !seen {
			byID[c.ChunkID] = len(merged)
			merged = append(merged, c)
			continue
		}
		if c.Score > merged[idx].Score {
			merged[idx].Score = c.Score
		}
		for _, tag := range c.SourceTags {
			merged[idx].AddSourceTag(tag)
		}
	}
	SortCandidates(merged)
	return merged
}
