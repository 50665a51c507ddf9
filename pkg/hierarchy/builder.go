package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// Builder limits. Oversized sentence chunks are split with overlap,
// preferring to cut at a sentence boundary inside the overlap window.
const (
	DefaultSummaryLength = 500
	DefaultMaxChunkSize  = 800
	DefaultChunkOverlap  = 100

	defaultSectionLabel = "general"
)

// BuilderConfig tunes hierarchy construction.
type BuilderConfig struct {
	SummaryLength int
	MaxChunkSize  int
	ChunkOverlap  int
}

func (c *BuilderConfig) applyDefaults() {
	if c.SummaryLength <= 0 {
		c.SummaryLength = DefaultSummaryLength
	}
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.ChunkOverlap <= 0 || c.ChunkOverlap >= c.MaxChunkSize {
		c.ChunkOverlap = DefaultChunkOverlap
	}
}

// Hierarchy is the built three-level chunk set with its edges.
type Hierarchy struct {
	Chunks     []types.Chunk                      `json:"chunks"`
	ParentOf   map[string]string                  `json:"parent_of"`
	ChildrenOf map[string][]string                `json:"children_of"`
	ByLevel    map[types.ChunkLevel][]types.Chunk `json:"-"`
}

func newHierarchy() *Hierarchy {
	return &Hierarchy{
		ParentOf:   make(map[string]string),
		ChildrenOf: make(map[string][]string),
		ByLevel:    make(map[types.ChunkLevel][]types.Chunk),
	}
}

func (h *Hierarchy) add(chunk types.Chunk) {
	h.Chunks = append(h.Chunks, chunk)
	h.ByLevel[chunk.Level] = append(h.ByLevel[chunk.Level], chunk)
	if chunk.ParentID != "" {
		h.ParentOf[chunk.ID] = chunk.ParentID
		h.ChildrenOf[chunk.ParentID] = append(h.ChildrenOf[chunk.ParentID], chunk.ID)
	}
}

// rebuildViews recomputes ByLevel and edge maps from Chunks. Used when a
// Hierarchy is deserialized from a checkpoint.
func (h *Hierarchy) rebuildViews() {
	h.ByLevel = make(map[types.ChunkLevel][]types.Chunk)
	h.ChildrenOf = make(map[string][]string)
	if h.ParentOf == nil {
		h.ParentOf = make(map[string]string)
	}
	for _, chunk := range h.Chunks {
		h.ByLevel[chunk.Level] = append(h.ByLevel[chunk.Level], chunk)
		if chunk.ParentID != "" {
			h.ParentOf[chunk.ID] = chunk.ParentID
			h.ChildrenOf[chunk.ParentID] = append(h.ChildrenOf[chunk.ParentID], chunk.ID)
		}
	}
}

// BuildHierarchy derives the three-level hierarchy from flat
// sentence-level chunks. Input chunks missing required fields are
// skipped rather than failing the whole build.
func BuildHierarchy(flat []types.Chunk, cfg BuilderConfig) *Hierarchy {
	cfg.applyDefaults()
	h := newHierarchy()

	// Group by policy, preserving first-appearance order.
	var policyOrder []string
	byPolicy := make(map[string][]types.Chunk)
	for _, chunk := range flat {
		if chunk.Validate() != nil {
			continue
		}
		if _, seen := byPolicy[chunk.PolicyID]; !seen {
			policyOrder = append(policyOrder, chunk.PolicyID)
		}
		byPolicy[chunk.PolicyID] = append(byPolicy[chunk.PolicyID], chunk)
	}

	for _, policyID := range policyOrder {
		members := byPolicy[policyID]

		var contents []string
		keywords := unionKeywords(members)
		for _, m := range members {
			contents = append(contents, m.Content)
		}
		fullText := strings.Join(contents, "\n")

		policyChunk := types.Chunk{
			ID:       policyChunkID(policyID),
			PolicyID: policyID,
			Content:  extractiveSummary(fullText, cfg.SummaryLength),
			Level:    types.LevelPolicy,
			Keywords: keywords,
		}
		h.add(policyChunk)

		// Group into sections by label.
		var sectionOrder []string
		bySection := make(map[string][]types.Chunk)
		for _, m := range members {
			label := m.SectionLabel
			if label == "" {
				label = defaultSectionLabel
			}
			if _, seen := bySection[label]; !seen {
				sectionOrder = append(sectionOrder, label)
			}
			bySection[label] = append(bySection[label], m)
		}

		for _, label := range sectionOrder {
			sectionMembers := bySection[label]
			var parts []string
			for _, m := range sectionMembers {
				parts = append(parts, m.Content)
			}
			content := strings.Join(parts, "\n")

			sectionChunk := types.Chunk{
				ID:              sectionChunkID(policyID, label),
				PolicyID:        policyID,
				Content:         content,
				Level:           types.LevelSection,
				SectionLabel:    label,
				Keywords:        unionKeywords(sectionMembers),
				ImportanceScore: sectionImportance(content, unionKeywords(sectionMembers)),
				ParentID:        policyChunk.ID,
			}
			h.add(sectionChunk)

			for _, m := range sectionMembers {
				for _, sentence := range toSentenceChunks(m, sectionChunk.ID, cfg) {
					h.add(sentence)
				}
			}
		}
	}

	return h
}

func policyChunkID(policyID string) string {
	return policyID + "::policy"
}

func sectionChunkID(policyID, label string) string {
	return fmt.Sprintf("%s::section::%s", policyID, label)
}

// toSentenceChunks normalizes one ingestion chunk to sentence level,
// splitting it when it exceeds the configured max size.
func toSentenceChunks(chunk types.Chunk, parentID string, cfg BuilderConfig) []types.Chunk {
	chunk.Level = types.LevelSentence
	chunk.ParentID = parentID

	runes := []rune(chunk.Content)
	if len(runes) <= cfg.MaxChunkSize {
		return []types.Chunk{chunk}
	}

	var out []types.Chunk
	step := cfg.MaxChunkSize - cfg.ChunkOverlap
	for start, part := 0, 0; start < len(runes); start, part = start+step, part+1 {
		end := start + cfg.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		} else {
			// Prefer a sentence boundary inside the trailing overlap window.
			if cut := lastBoundary(runes[end-cfg.ChunkOverlap : end]); cut >= 0 {
				end = end - cfg.ChunkOverlap + cut + 1
			}
		}

		sub := chunk
		sub.ID = fmt.Sprintf("%s::part%d", chunk.ID, part)
		sub.Content = string(runes[start:end])
		out = append(out, sub)

		if end == len(runes) {
			break
		}
	}
	return out
}

// Sentence boundary runes for mixed Latin/CJK policy text.
func isBoundary(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '.', '!', '?', ';', '\n':
		return true
	}
	return false
}

func lastBoundary(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if isBoundary(runes[i]) {
			return i
		}
	}
	return -1
}

// extractiveSummary returns the first maxLen runes of text, extended
// sentence by sentence so it never cuts mid-sentence unless the first
// sentence alone exceeds maxLen.
func extractiveSummary(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	var b strings.Builder
	var taken int
	start := 0
	for i, r := range runes {
		if !isBoundary(r) {
			continue
		}
		sentence := runes[start : i+1]
		if taken > 0 && taken+len(sentence) > maxLen {
			break
		}
		b.WriteString(string(sentence))
		taken += len(sentence)
		start = i + 1
		if taken >= maxLen {
			break
		}
	}
	if taken == 0 {
		return string(runes[:maxLen])
	}
	return strings.TrimSpace(b.String())
}

// sectionImportance blends a length score with keyword density. Longer
// sections matter more up to a point; keyword-rich sections matter more
// at any length.
func sectionImportance(content string, keywords []string) float64 {
	runes := []rune(content)
	if len(runes) == 0 {
		return 0
	}
	lengthScore := float64(len(runes)) / 1000.0
	if lengthScore > 1.0 {
		lengthScore = 1.0
	}

	var occurrences int
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		occurrences += strings.Count(content, kw)
	}
	// Occurrences per 100 runes, capped.
	density := float64(occurrences) * 100.0 / float64(len(runes))
	if density > 1.0 {
		density = 1.0
	}

	return 0.6*lengthScore + 0.4*density
}

func unionKeywords(chunks []types.Chunk) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range chunks {
		for _, kw := range c.Keywords {
			if kw != "" && !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	sort.Strings(out)
	return out
}
