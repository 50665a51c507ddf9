package retriever

import (
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// Intent keyword sets rewarded by the fusion intent boost.
var intentBoostTerms = map[types.IntentType][]string{
	types.IntentFindPolicy:       {"policy", "support", "政策", "扶持"},
	types.IntentCheckEligibility: {"condition", "eligib", "requirement", "object", "条件", "资格", "对象"},
	types.IntentGetRequirements:  {"material", "process", "procedure", "document", "材料", "流程", "手续"},
	types.IntentGetFunding:       {"subsidy", "funding", "grant", "amount", "万元", "补贴", "资助", "金额"},
}

// channelWeights returns the vector/keyword split for the query
// complexity: harder queries lean more on literal keyword evidence.
func channelWeights(complexity types.Complexity) (vector, keyword float64) {
	switch complexity {
	case types.ComplexityComplex:
		return 0.5, 0.5
	case types.ComplexityModerate:
		return 0.6, 0.4
	default:
		return 0.7, 0.3
	}
}

// Fuse combines the dense and keyword channels with weighted Reciprocal
// Rank Fusion. The final score blends the normalized RRF score with the
// candidate's best original score and an intent keyword boost.
func (r *Retriever) Fuse(dense, keyword []types.RetrievalCandidate, understanding types.QueryUnderstanding) []types.RetrievalCandidate {
	if len(dense) == 0 && len(keyword) == 0 {
		return nil
	}
	vectorWeight, keywordWeight := channelWeights(understanding.Complexity)

	type fusedEntry struct {
		candidate types.RetrievalCandidate
		rrf       float64
		original  float64
	}
	entries := make(map[string]*fusedEntry)

	absorb := func(list []types.RetrievalCandidate, channelWeight float64) {
		for rank, candidate := range list {
			entry, ok := entries[candidate.ChunkID]
			if !ok {
				entry = &fusedEntry{candidate: candidate}
				entries[candidate.ChunkID] = entry
			} else {
				if entry.candidate.Content == "" {
					entry.candidate.Content = candidate.Content
				}
				if entry.candidate.PolicyID == "" {
					entry.candidate.PolicyID = candidate.PolicyID
				}
				for _, tag := range candidate.SourceTags {
					entry.candidate.AddSourceTag(tag)
				}
			}
			entry.rrf += channelWeight / float64(rank+r.config.RRFK)
			if candidate.Score > entry.original {
				entry.original = candidate.Score
			}
		}
	}
	absorb(dense, vectorWeight)
	absorb(keyword, keywordWeight)

	var maxRRF float64
	for _, entry := range entries {
		if entry.rrf > maxRRF {
			maxRRF = entry.rrf
		}
	}

	boostTerms := intentBoostTerms[understanding.PrimaryIntent.Type]
	out := make([]types.RetrievalCandidate, 0, len(entries))
	for _, entry := range entries {
		rrfNorm := 0.0
		if maxRRF > 0 {
			rrfNorm = entry.rrf / maxRRF
		}
		boost := intentBoost(entry.candidate.Content, boostTerms, r.config.IntentBoostCap)

		candidate := entry.candidate
		candidate.Score = clampUnit(r.config.RRFWeight*rrfNorm +
			r.config.OriginalWeight*entry.original +
			r.config.IntentWeight*boost)
		out = append(out, candidate)
	}
	types.SortCandidates(out)
	return out
}

// intentBoost rewards content containing the intent's keyword set, 0.1
// per distinct term up to the cap.
func intentBoost(content string, terms []string, limit float64) float64 {
	if content == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	var boost float64
	for _, term := range terms {
		if strings.Contains(lower, term) {
			boost += 0.1
		}
	}
	if boost > limit {
		boost = limit
	}
	return boost
}
