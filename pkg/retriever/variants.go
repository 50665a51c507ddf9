package retriever

import (
	"context"
	"sort"
	"strings"

	"github.com/poliscope/poliscope/pkg/embedder"
	"github.com/poliscope/poliscope/pkg/types"
)

// Intent-specific variant templates appended after the normalized query.
var intentTemplates = map[types.IntentType][]string{
	types.IntentCheckEligibility: {"application conditions", "service object", "申请条件 服务对象"},
	types.IntentGetRequirements:  {"application materials", "application process", "申请材料 办理流程"},
	types.IntentGetFunding:       {"subsidy amount", "funding support standard", "补贴金额 扶持标准"},
	types.IntentFindPolicy:       {"support policy", "扶持政策"},
}

// Synonym dictionaries for query expansion, applied when the embedder
// does not offer similarity expansion.
var expansionSynonyms = map[string][]string{
	"startup":       {"newly founded company", "初创企业"},
	"funding":       {"subsidy", "financial support"},
	"subsidy":       {"grant", "补贴"},
	"biomedical":    {"biotech", "生物医药"},
	"ai":            {"artificial intelligence", "人工智能"},
	"manufacturing": {"industrial", "制造业"},
	"tax":           {"tax incentive", "税收优惠"},
	"创业":            {"初创企业", "startup"},
	"补贴":            {"资助", "扶持资金"},
}

// GenerateQueryVariants builds the search variant list: the normalized
// query first, then intent templates, one template per detected
// industry and scale, and finally similarity expansions, deduplicated
// preserving order and capped.
func (r *Retriever) GenerateQueryVariants(ctx context.Context, understanding types.QueryUnderstanding) []string {
	base := understanding.NormalizedQuery
	if base == "" {
		base = understanding.OriginalQuery
	}

	var variants []string
	variants = append(variants, base)

	for _, template := range intentTemplates[understanding.PrimaryIntent.Type] {
		variants = append(variants, base+" "+template)
	}
	for _, industry := range understanding.Entities.Industries {
		variants = append(variants, industry+" support policy")
	}
	for _, scale := range understanding.Entities.Scales {
		variants = append(variants, scale+" enterprise policy")
	}
	variants = append(variants, r.expandQuery(ctx, base)...)

	return dedupPreservingOrder(variants, r.config.VariantCap)
}

// expandQuery asks the embedder for similarity expansions when it
// supports them, falling back to the synonym dictionaries.
func (r *Retriever) expandQuery(ctx context.Context, query string) []string {
	if expander, ok := r.embedder.(embedder.QueryExpander); ok {
		expansions, err := expander.ExpandQuery(ctx, query, r.config.MaxExpansions)
		if err == nil && len(expansions) > 0 {
			return expansions
		}
		if err != nil {
			r.logger.Debug("query expansion failed, using synonyms", "error", err)
		}
	}

	lower := strings.ToLower(query)
	terms := make([]string, 0, len(expansionSynonyms))
	for term := range expansionSynonyms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	var out []string
	for _, term := range terms {
		if !strings.Contains(lower, term) {
			continue
		}
		for _, syn := range expansionSynonyms[term] {
			out = append(out, strings.Replace(lower, term, syn, 1))
			if len(out) >= r.config.MaxExpansions {
				return out
			}
		}
	}
	return out
}

func dedupPreservingOrder(values []string, limit int) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
