package retriever

import (
	"regexp"
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// Startup scale filtering patterns. Strong patterns disqualify a
// candidate outright; borderline patterns only penalize it.
var (
	startupHardExcludes = []*regexp.Regexp{
		regexp.MustCompile(`(成立|注册).{0,6}(三年以上|3年以上|满三年|满3年)`),
		regexp.MustCompile(`(?i)registered (for )?(more than|over) (three|3) years`),
		regexp.MustCompile(`上市公司|(?i)listed compan`),
		regexp.MustCompile(`(年?营业?收入|年产值).{0,8}(千万|亿)|(?i)revenue .{0,20}tens of millions`),
	}
	startupSoftPenalties = []*regexp.Regexp{
		regexp.MustCompile(`大型企业|规模以上企业|(?i)large enterprise`),
		regexp.MustCompile(`(成立|注册).{0,6}(两年以上|2年以上)|(?i)registered (for )?(more than|over) (two|2) years`),
	}
	startupFriendly = regexp.MustCompile(`初创|创业企业|新成立|小微企业|孵化|(?i)start-?up|newly (founded|registered)|incubat`)
)

// Startup filter multipliers.
const (
	softPenaltyFactor    = 0.7
	friendlyBoostFactor  = 1.2
	industryBoostFactor  = 1.15
	industryBoostCeiling = 1.3
)

// Industry surface terms matched against candidate content.
var industrySurfaceTerms = map[string][]string{
	"biomedical":    {"biomedical", "biotech", "pharma", "生物医药", "医药"},
	"ai":            {"artificial intelligence", "ai ", "人工智能"},
	"software":      {"software", "internet", "软件", "互联网"},
	"manufacturing": {"manufactur", "制造", "工业"},
	"new_energy":    {"new energy", "solar", "新能源", "光伏"},
	"agriculture":   {"agricultur", "农业"},
}

// PostFilter applies scale- and industry-aware adjustments: startup
// queries hard-exclude high-barrier candidates, penalize borderline
// ones, and boost startup-friendly language; detected industries boost
// matching candidates cumulatively up to a ceiling.
func (r *Retriever) PostFilter(candidates []types.RetrievalCandidate, entities types.Entities) []types.RetrievalCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	isStartup := false
	for _, scale := range entities.Scales {
		if scale == "startup" {
			isStartup = true
		}
	}

	out := make([]types.RetrievalCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if isStartup && matchesAny(candidate.Content, startupHardExcludes) {
			continue
		}

		multiplier := 1.0
		if isStartup {
			if matchesAny(candidate.Content, startupSoftPenalties) {
				multiplier *= softPenaltyFactor
			}
			if startupFriendly.MatchString(candidate.Content) {
				multiplier *= friendlyBoostFactor
			}
		}
		multiplier *= industryMultiplier(candidate.Content, entities.Industries)

		candidate.Score = clampUnit(candidate.Score * multiplier)
		out = append(out, candidate)
	}
	types.SortCandidates(out)
	return out
}

func matchesAny(content string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(content) {
			return true
		}
	}
	return false
}

// industryMultiplier boosts per matched industry, capped at the ceiling.
func industryMultiplier(content string, industries []string) float64 {
	if content == "" || len(industries) == 0 {
		return 1.0
	}
	lower := strings.ToLower(content)
	multiplier := 1.0
	for _, industry := range industries {
		for _, term := range industrySurfaceTerms[industry] {
			if strings.Contains(lower, term) {
				multiplier *= industryBoostFactor
				break
			}
		}
		if multiplier >= industryBoostCeiling {
			return industryBoostCeiling
		}
	}
	return multiplier
}
