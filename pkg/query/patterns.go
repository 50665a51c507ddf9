package query

import (
	"regexp"

	"github.com/poliscope/poliscope/pkg/types"
)

// Default confidence when no rule matches.
const (
	defaultIntentConfidence = 0.5
	secondaryIntentCutoff   = 0.3
)

// normalization canonicalizes colloquial phrasing before any rule runs.
// Replacements apply in order.
var normalization = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`(?i)^(please\s+)?(tell me|i want to know|i'd like to know|could you tell me)\s*`), ""},
	{regexp.MustCompile(`(?i)\b(help me find|help me)\b`), "find"},
	{regexp.MustCompile(`我想知道|请问|帮我查一下|帮我看看|麻烦问下`), ""},
	{regexp.MustCompile(`有没有什么|有木有`), "有什么"},
	{regexp.MustCompile(`能拿到|能领到`), "能申请"},
	{regexp.MustCompile(`\s+`), " "},
}

type intentRule struct {
	intent  types.IntentType
	pattern *regexp.Regexp
	weight  float64
}

// Weighted intent rules. Each matching rule contributes its weight; the
// matched text is recorded as a keyword.
var intentRules = []intentRule{
	{types.IntentFindPolicy, regexp.MustCompile(`(?i)what (policies|programs|support)|which polic|find .*polic|available (subsid|polic)`), 0.8},
	{types.IntentFindPolicy, regexp.MustCompile(`有什么政策|哪些政策|查.*政策|政策.*有哪些|适合.*政策`), 0.8},
	{types.IntentFindPolicy, regexp.MustCompile(`(?i)recommend|suitable for|推荐`), 0.5},

	{types.IntentCheckEligibility, regexp.MustCompile(`(?i)eligib|qualif|am i able|can (i|we) apply|do (i|we) meet`), 0.9},
	{types.IntentCheckEligibility, regexp.MustCompile(`能不能申请|可以申请|能申请|是否符合|符不符合|申请资格|资格`), 0.9},
	{types.IntentCheckEligibility, regexp.MustCompile(`(?i)\bconditions?\b|条件`), 0.4},

	{types.IntentGetRequirements, regexp.MustCompile(`(?i)how (do i|to) apply|application (process|procedure|materials|documents)|what (materials|documents)`), 0.9},
	{types.IntentGetRequirements, regexp.MustCompile(`怎么申请|如何申请|申请流程|申请材料|办理流程|需要什么材料|手续`), 0.9},

	{types.IntentGetFunding, regexp.MustCompile(`(?i)how much|funding amount|subsidy amount|grant size|\bamount\b`), 0.9},
	{types.IntentGetFunding, regexp.MustCompile(`多少钱|补贴多少|资助金额|补贴金额|额度|万元`), 0.9},
	{types.IntentGetFunding, regexp.MustCompile(`(?i)funding|subsid|grant|补贴|资助|资金`), 0.5},
}

// Entity dictionaries: canonical value -> surface patterns.
var industryPatterns = map[string]*regexp.Regexp{
	"biomedical":    regexp.MustCompile(`(?i)biomedic|biotech|pharma|life science|生物医药|医药|生物技术`),
	"ai":            regexp.MustCompile(`(?i)\bai\b|artificial intelligence|machine learning|人工智能|智能化`),
	"software":      regexp.MustCompile(`(?i)software|saas|internet|软件|互联网`),
	"manufacturing": regexp.MustCompile(`(?i)manufactur|hardware|制造|智能制造|工业`),
	"new_energy":    regexp.MustCompile(`(?i)new energy|solar|battery|新能源|光伏|储能`),
	"agriculture":   regexp.MustCompile(`(?i)agricultur|farming|农业|种植`),
}

var scalePatterns = map[string]*regexp.Regexp{
	"startup": regexp.MustCompile(`(?i)start-?up|newly (founded|registered)|early-stage|初创|创业|新注册`),
	"small":   regexp.MustCompile(`(?i)small (business|enterprise|company)|micro[- ]enterprise|小微|小型企业`),
	"medium":  regexp.MustCompile(`(?i)medium[- ](sized )?(business|enterprise)|中型企业`),
	"large":   regexp.MustCompile(`(?i)large (enterprise|company)|corporation|大型企业|集团`),
}

var policyTypePatterns = map[string]*regexp.Regexp{
	"funding-support": regexp.MustCompile(`(?i)funding|subsid|grant|financial support|资金扶持|补贴|资助`),
	"tax-relief":      regexp.MustCompile(`(?i)tax (relief|break|reduction|incentive)|税收优惠|减税|免税`),
	"talent":          regexp.MustCompile(`(?i)talent|recruitment support|人才|引进`),
	"certification":   regexp.MustCompile(`(?i)certification|accreditation|资质|认定`),
	"innovation":      regexp.MustCompile(`(?i)innovation|r&d|research and development|创新|研发`),
}

// amountPattern extracts monetary amounts like "500万元" or "2 million yuan".
var amountPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:万元|亿元|万|元|(?i:million|thousand)(?:\s*(?i:yuan|rmb|dollars?))?|(?i:yuan|rmb))`)

// Linguistic markers that indicate a more involved question.
var complexityMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcurrently\b|目前`),
	regexp.MustCompile(`(?i)\bspecifically\b|具体`),
	regexp.MustCompile(`(?i)\bhow\b|如何|怎么`),
	regexp.MustCompile(`(?i)\bboth\b|and also|同时|而且|并且`),
}
