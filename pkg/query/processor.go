package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// Engine is the query understanding rule engine. The zero value is not
// usable; construct with NewEngine.
type Engine struct{}

// NewEngine creates a query understanding engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Understand runs the full pipeline: normalization, intent
// classification, entity extraction, filter construction, and
// complexity assessment.
func (e *Engine) Understand(query string) (types.QueryUnderstanding, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return types.QueryUnderstanding{}, types.NewValidationError("query cannot be empty")
	}

	normalized := e.Normalize(trimmed)
	primary, secondary := e.Classify(normalized)
	entities := e.ExtractEntities(normalized)
	filters := e.BuildFilters(entities, primary.Type)
	complexity := e.AssessComplexity(normalized, entities, len(secondary))

	return types.QueryUnderstanding{
		OriginalQuery:    query,
		NormalizedQuery:  normalized,
		PrimaryIntent:    primary,
		SecondaryIntents: secondary,
		Entities:         entities,
		Filters:          filters,
		Complexity:       complexity,
	}, nil
}

// Normalize canonicalizes colloquial phrasing and collapses whitespace.
func (e *Engine) Normalize(query string) string {
	out := query
	for _, r := range normalization {
		out = r.pattern.ReplaceAllString(out, r.repl)
	}
	return strings.TrimSpace(out)
}

// Classify accumulates rule weights per intent. The highest-scoring
// intent becomes primary with confidence min(score, 1.0); every other
// intent above the cutoff becomes secondary. When nothing matches the
// default is find_policy at 0.5.
func (e *Engine) Classify(query string) (types.Intent, []types.Intent) {
	scores := make(map[types.IntentType]float64)
	keywords := make(map[types.IntentType][]string)
	for _, rule := range intentRules {
		match := rule.pattern.FindString(query)
		if match == "" {
			continue
		}
		scores[rule.intent] += rule.weight
		keywords[rule.intent] = append(keywords[rule.intent], match)
	}

	if len(scores) == 0 {
		return types.Intent{Type: types.IntentFindPolicy, Confidence: defaultIntentConfidence}, nil
	}

	ordered := make([]types.Intent, 0, len(scores))
	for intent, score := range scores {
		ordered = append(ordered, types.Intent{
			Type:            intent,
			Confidence:      min(score, 1.0),
			MatchedKeywords: keywords[intent],
		})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Type < ordered[j].Type
	})

	primary := ordered[0]
	var secondary []types.Intent
	for _, intent := range ordered[1:] {
		if intent.Confidence > secondaryIntentCutoff {
			secondary = append(secondary, intent)
		}
	}
	return primary, secondary
}

// ExtractEntities looks up the category dictionaries and the amount
// pattern, deduplicating matches.
func (e *Engine) ExtractEntities(query string) types.Entities {
	return types.Entities{
		Industries:  matchCategories(query, industryPatterns),
		Scales:      matchCategories(query, scalePatterns),
		PolicyTypes: matchCategories(query, policyTypePatterns),
		Amounts:     dedupStrings(amountPattern.FindAllString(query, -1)),
	}
}

// BuildFilters derives the smart filter set from extracted entities.
// Startup scale turns on the startup-friendly preference and excludes
// high-barrier policies; a funding intent without an explicit policy
// type defaults to funding-support.
func (e *Engine) BuildFilters(entities types.Entities, primaryIntent types.IntentType) types.Filters {
	filters := types.Filters{
		Industries:  append([]string(nil), entities.Industries...),
		Scales:      append([]string(nil), entities.Scales...),
		PolicyTypes: append([]string(nil), entities.PolicyTypes...),
	}
	for _, scale := range entities.Scales {
		if scale == "startup" {
			filters.PreferStartupFriendly = true
			filters.ExcludeHighBarrier = true
		}
	}
	if primaryIntent == types.IntentGetFunding && len(filters.PolicyTypes) == 0 {
		filters.PolicyTypes = []string{"funding-support"}
	}
	return filters
}

// AssessComplexity scores length, entity count, secondary intents, and
// linguistic markers: >=4 complex, >=2 moderate, else simple.
func (e *Engine) AssessComplexity(query string, entities types.Entities, secondaryIntents int) types.Complexity {
	var score int
	if len([]rune(query)) > 50 {
		score++
	}
	switch n := entities.Count(); {
	case n > 3:
		score += 2
	case n > 1:
		score++
	}
	score += secondaryIntents
	for _, marker := range complexityMarkers {
		if marker.MatchString(query) {
			score++
		}
	}

	switch {
	case score >= 4:
		return types.ComplexityComplex
	case score >= 2:
		return types.ComplexityModerate
	default:
		return types.ComplexitySimple
	}
}

func matchCategories(query string, patterns map[string]*regexp.Regexp) []string {
	var out []string
	for category, pattern := range patterns {
		if pattern.MatchString(query) {
			out = append(out, category)
		}
	}
	sort.Strings(out)
	return out
}

func dedupStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
