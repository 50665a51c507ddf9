package rerank

import (
	"context"
	"regexp"
	"strings"

	"github.com/poliscope/poliscope/pkg/sparse"
	"github.com/poliscope/poliscope/pkg/types"
)

// Lexical heuristic multipliers.
const (
	exactMatchFactor     = 1.5
	overlapFactor        = 1.2
	densityFactor        = 1.3
	densityThreshold     = 0.01
	structuredFactor     = 1.4
	titleMatchFactor     = 1.6
	shortContentPenalty  = 0.8
	longContentPenalty   = 0.9
	shortContentRunes    = 50
	longContentRunes     = 1000
	titleWindowRunes     = 30
	defaultSectionFactor = 1.1
)

// structuredPattern spots numbered clauses and bracketed enumeration,
// both the Latin and the CJK conventions.
var structuredPattern = regexp.MustCompile(`(?m)(^\s*\d+[.、)]|^\s*[(（][一二三四五六七八九十\d]+[)）]|^\s*第[一二三四五六七八九十\d]+[条款章])`)

// sectionFactors boosts sections that usually answer applicant questions.
var sectionFactors = map[string]float64{
	"申请条件":                   1.5,
	"application conditions": 1.5,
	"eligibility":            1.5,
	"资助标准":                   1.3,
	"funding standard":       1.3,
	"support standard":       1.3,
	"申报材料":                   1.2,
	"materials":              1.2,
	"申报流程":                   1.15,
	"procedure":              1.15,
}

// RuleBased scores candidates with cheap lexical heuristics: exact or
// partial query overlap, keyword density, structural markers, section
// labels, and content length. The final score blends the heuristic
// with the candidate's pre-rerank score.
type RuleBased struct {
	config    Config
	tokenizer sparse.Tokenizer
}

// NewRuleBased builds the heuristic reranker.
func NewRuleBased(config Config) *RuleBased {
	config.applyDefaults()
	return &RuleBased{config: config, tokenizer: sparse.DefaultTokenizer{}}
}

// Method implements Reranker.
func (r *RuleBased) Method() types.RerankMethod { return types.RerankRuleBased }

// Rerank implements Reranker. It never fails.
func (r *RuleBased) Rerank(_ context.Context, req types.RerankRequest) types.RerankResult {
	queryTokens := r.tokenizer.Tokenize(req.Query)
	queryLower := strings.ToLower(strings.TrimSpace(req.Query))

	candidates := make([]types.RetrievalCandidate, len(req.Candidates))
	copy(candidates, req.Candidates)
	// The rule term starts from a 1.0 base so the heuristics stand on
	// their own; the original score enters the blend exactly once.
	// Ordering is settled on the unclamped blend, then scores are
	// clamped back into [0, 1].
	for i := range candidates {
		orig := originalScore(&candidates[i])
		rule := r.multiplier(queryLower, queryTokens, &candidates[i])
		candidates[i].Score = r.config.RuleOriginalWeight*orig + r.config.RuleScoreWeight*rule
	}
	types.SortCandidates(candidates)
	for i := range candidates {
		candidates[i].Score = clampUnit(candidates[i].Score)
	}

	return types.RerankResult{
		Candidates: truncate(candidates, req.TopK),
		Method:     types.RerankRuleBased,
		Success:    true,
	}
}

func (r *RuleBased) multiplier(queryLower string, queryTokens []string, c *types.RetrievalCandidate) float64 {
	content := strings.ToLower(c.Content)
	runes := []rune(content)
	mult := 1.0

	if queryLower != "" && strings.Contains(content, queryLower) {
		mult *= exactMatchFactor
	}

	if len(queryTokens) > 0 {
		matched := 0
		occurrences := 0
		for _, tok := range queryTokens {
			if n := strings.Count(content, tok); n > 0 {
				matched++
				occurrences += n
			}
		}
		ratio := float64(matched) / float64(len(queryTokens))
		mult *= 1 + ratio*overlapFactor

		if len(runes) > 0 {
			density := float64(occurrences) / float64(len(runes))
			if density > densityThreshold {
				mult *= densityFactor
			}
		}

		title := content
		if len(runes) > titleWindowRunes {
			title = string(runes[:titleWindowRunes])
		}
		for _, tok := range queryTokens {
			if strings.Contains(title, tok) {
				mult *= titleMatchFactor
				break
			}
		}
	}

	if structuredPattern.MatchString(c.Content) {
		mult *= structuredFactor
	}

	if label := sectionLabel(c); label != "" {
		if factor, ok := sectionFactors[label]; ok {
			mult *= factor
		} else {
			mult *= defaultSectionFactor
		}
	}

	switch {
	case len(runes) < shortContentRunes:
		mult *= shortContentPenalty
	case len(runes) > longContentRunes:
		mult *= longContentPenalty
	}
	return mult
}

func sectionLabel(c *types.RetrievalCandidate) string {
	if c.Metadata == nil {
		return ""
	}
	if label, ok := c.Metadata["section_label"].(string); ok {
		return strings.ToLower(strings.TrimSpace(label))
	}
	return ""
}
