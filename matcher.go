package poliscope

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// defaultMatchLimit is the policy count returned when topK is zero.
const defaultMatchLimit = 5

// chunkDecayWeights discount a policy's matching chunks by rank, so one
// policy with several good chunks outranks one lucky hit without letting
// chunk count dominate.
var chunkDecayWeights = []float64{1.0, 0.8, 0.6, 0.4, 0.2}

var amountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?\s*(?:万元|亿元|million|万))`)

// benefitPatterns capture support-content phrasings: granted subsidies,
// capped amounts, proportional funding, and preferential treatment.
var benefitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`给予.{1,50}(?:补贴|资助|奖励|支持)`),
	regexp.MustCompile(`最高.{1,30}万元`),
	regexp.MustCompile(`按照.{1,50}比例`),
	regexp.MustCompile(`享受.{1,50}优惠`),
}

// policyTypeRules classify a policy by content keywords when the chunks
// carry no structured policy_type field. Order matters: the first rule
// with a keyword hit wins.
var policyTypeRules = []struct {
	label    string
	keywords []string
}{
	{"资金支持", []string{"补贴", "资助", "奖励", "专项资金", "subsidy", "grant"}},
	{"税收优惠", []string{"税收", "减税", "免税", "tax"}},
	{"人才政策", []string{"人才", "专家", "引进", "talent"}},
	{"创新支持", []string{"创新", "研发", "专利", "innovation"}},
	{"产业扶持", []string{"产业", "制造", "转型", "industrial"}},
}

// MatchPolicies implements PolicyMatcher. It runs a full advanced
// search, groups the hits by policy, and scores each policy by its
// decay-weighted chunk scores.
func (c *Client) MatchPolicies(ctx context.Context, queryText string, topK int) ([]types.PolicyMatch, error) {
	if topK <= 0 {
		topK = defaultMatchLimit
	}

	resp, err := c.Search(ctx, SearchRequest{
		Query:    queryText,
		TopK:     types.MaxTopK,
		Strategy: types.StrategyFullAdvanced,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, types.NewValidationError(resp.Error)
	}

	grouped := make(map[string][]types.RetrievalCandidate)
	var order []string
	for _, candidate := range resp.Results {
		if candidate.PolicyID == "" {
			continue
		}
		if _, seen := grouped[candidate.PolicyID]; !seen {
			order = append(order, candidate.PolicyID)
		}
		grouped[candidate.PolicyID] = append(grouped[candidate.PolicyID], candidate)
	}

	matches := make([]types.PolicyMatch, 0, len(order))
	for _, policyID := range order {
		chunks := grouped[policyID]
		var score float64
		for i, chunk := range chunks {
			if i >= len(chunkDecayWeights) {
				break
			}
			score += chunkDecayWeights[i] * chunk.Score
		}
		matches = append(matches, types.PolicyMatch{
			PolicyID:       policyID,
			Title:          c.policyTitle(policyID),
			Score:          score,
			MatchedChunks:  chunks,
			KeyInformation: c.extractKeyInformation(ctx, chunks),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].PolicyID < matches[j].PolicyID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// policyTitle derives a display title from the policy-level summary
// chunk, falling back to the policy ID.
func (c *Client) policyTitle(policyID string) string {
	hctx := c.hierarchy.GetHierarchyContext(policyID + "::policy")
	if hctx == nil || hctx.Chunk == nil {
		return policyID
	}
	return firstLine(hctx.Chunk.Content, 60)
}

// extractKeyInformation pulls applicant-relevant snippets out of the
// matched chunks: the policy type, support content, monetary amounts,
// and eligibility conditions. The policy type comes from the stored
// chunk's structured fields when indexing supplied one, with a
// keyword-based fallback over the matched content.
func (c *Client) extractKeyInformation(ctx context.Context, chunks []types.RetrievalCandidate) map[string]string {
	info := make(map[string]string)
	for _, chunk := range chunks {
		if _, ok := info["policy_type"]; !ok {
			if stored, err := c.store.Get(ctx, chunk.ChunkID); err == nil && stored != nil {
				if pt := stored.StructuredFields["policy_type"]; pt != "" {
					info["policy_type"] = pt
				}
			}
		}
		if _, ok := info["amount"]; !ok {
			if m := amountPattern.FindString(chunk.Content); m != "" {
				info["amount"] = m
			}
		}
		label, _ := chunk.Metadata["section_label"].(string)
		if _, ok := info["benefits"]; !ok {
			if b := extractBenefits(chunk.Content, label); b != "" {
				info["benefits"] = b
			}
		}
		if _, ok := info["conditions"]; !ok {
			if isConditionsLabel(label) {
				info["conditions"] = firstLine(chunk.Content, 120)
			}
		}
	}
	if _, ok := info["policy_type"]; !ok {
		for _, chunk := range chunks {
			if pt := inferPolicyType(chunk.Content); pt != "" {
				info["policy_type"] = pt
				break
			}
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}

// extractBenefits collects support-content phrases, falling back to the
// leading line of a funding-standard section.
func extractBenefits(content, label string) string {
	var phrases []string
	for _, pattern := range benefitPatterns {
		phrases = append(phrases, pattern.FindAllString(content, -1)...)
		if len(phrases) >= 3 {
			phrases = phrases[:3]
			break
		}
	}
	if len(phrases) > 0 {
		return strings.Join(phrases, "；")
	}
	if isBenefitsLabel(label) {
		return firstLine(content, 120)
	}
	return ""
}

func inferPolicyType(content string) string {
	lower := strings.ToLower(content)
	for _, rule := range policyTypeRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.label
			}
		}
	}
	return ""
}

func isConditionsLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "申请条件", "application conditions", "eligibility":
		return true
	}
	return false
}

func isBenefitsLabel(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "资助标准", "funding standard", "support standard":
		return true
	}
	return false
}

// firstLine returns content up to the first line break or sentence end,
// capped at limit runes.
func firstLine(content string, limit int) string {
	content = strings.TrimSpace(content)
	if i := strings.IndexAny(content, "\n。.!?"); i > 0 {
		content = content[:i]
	}
	runes := []rune(content)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return content
}
