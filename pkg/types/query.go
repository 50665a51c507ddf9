package types

// IntentType classifies what the user is asking for.
type IntentType string

const (
	// IntentFindPolicy looks for policies relevant to a topic. This is
	// the default intent when nothing else matches.
	IntentFindPolicy IntentType = "find_policy"
	// IntentCheckEligibility asks whether the caller qualifies.
	IntentCheckEligibility IntentType = "check_eligibility"
	// IntentGetRequirements asks for application materials and procedure.
	IntentGetRequirements IntentType = "get_requirements"
	// IntentGetFunding asks about subsidy and funding amounts.
	IntentGetFunding IntentType = "get_funding"
)

// Intent is one classified intent with its accumulated confidence.
type Intent struct {
	Type            IntentType `json:"type"`
	Confidence      float64    `json:"confidence"`
	MatchedKeywords []string   `json:"matched_keywords,omitempty"`
}

// Entities holds the dictionary and pattern matches extracted from a query.
type Entities struct {
	Industries  []string `json:"industries,omitempty"`
	Scales      []string `json:"scales,omitempty"`
	PolicyTypes []string `json:"policy_types,omitempty"`
	Amounts     []string `json:"amounts,omitempty"`
}

// Count returns the total number of extracted entity values.
func (e Entities) Count() int {
	return len(e.Industries) + len(e.Scales) + len(e.PolicyTypes) + len(e.Amounts)
}

// Filters is the typed filter set applied during retrieval. Zero values
// mean "no constraint". Explicit caller filters override inferred ones
// field by field.
type Filters struct {
	Industries  []string `json:"industries,omitempty"`
	Scales      []string `json:"scales,omitempty"`
	PolicyTypes []string `json:"policy_types,omitempty"`
	Region      string   `json:"region,omitempty"`

	PreferStartupFriendly bool `json:"prefer_startup_friendly,omitempty"`
	ExcludeHighBarrier    bool `json:"exclude_high_barrier,omitempty"`
}

// IsZero reports whether no filter field is set.
func (f Filters) IsZero() bool {
	return len(f.Industries) == 0 && len(f.Scales) == 0 &&
		len(f.PolicyTypes) == 0 && f.Region == "" &&
		!f.PreferStartupFriendly && !f.ExcludeHighBarrier
}

// Complexity rates how demanding a query is to answer. It drives the
// vector/keyword fusion split and reranker auto-selection.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// QueryUnderstanding is the structured reading of a raw query. It is
// immutable once produced.
type QueryUnderstanding struct {
	OriginalQuery    string     `json:"original_query"`
	NormalizedQuery  string     `json:"normalized_query"`
	PrimaryIntent    Intent     `json:"primary_intent"`
	SecondaryIntents []Intent   `json:"secondary_intents,omitempty"`
	Entities         Entities   `json:"entities"`
	Filters          Filters    `json:"filters"`
	Complexity       Complexity `json:"complexity"`
}
