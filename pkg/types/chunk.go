package types

import (
	"errors"
)

// Validation errors
var (
	ErrEmptyChunkID  = errors.New("chunk_id cannot be empty")
	ErrEmptyPolicyID = errors.New("policy_id cannot be empty")
	ErrEmptyContent  = errors.New("content cannot be empty")
	ErrEmptyQuery    = errors.New("query cannot be empty")
	ErrInvalidLevel  = errors.New("level must be policy, section, or sentence")
	ErrInvalidTopK   = errors.New("top_k must be positive")
)

// ChunkLevel identifies the hierarchy level a chunk belongs to.
type ChunkLevel string

const (
	// LevelPolicy is the document level: one synthesized chunk per policy.
	LevelPolicy ChunkLevel = "policy"
	// LevelSection groups sentence chunks sharing a section label.
	LevelSection ChunkLevel = "section"
	// LevelSentence is the original fine-grained chunk level.
	LevelSentence ChunkLevel = "sentence"
)

// Valid reports whether l is one of the three known levels.
func (l ChunkLevel) Valid() bool {
	switch l {
	case LevelPolicy, LevelSection, LevelSentence:
		return true
	}
	return false
}

// Chunk is a unit of indexed content at one hierarchy level.
//
// Upstream ingestion supplies sentence-level chunks with PolicyID,
// SectionLabel, and Keywords populated; the hierarchy builder synthesizes
// the policy and section levels and fills ParentID.
type Chunk struct {
	ID           string     `json:"chunk_id" mapstructure:"chunk_id"`
	PolicyID     string     `json:"policy_id" mapstructure:"policy_id"`
	Content      string     `json:"content" mapstructure:"content"`
	Level        ChunkLevel `json:"level" mapstructure:"level"`
	SectionLabel string     `json:"section_label,omitempty" mapstructure:"section_label"`
	Keywords     []string   `json:"keywords,omitempty" mapstructure:"keywords"`

	// StructuredFields carries fields extracted upstream (policy type,
	// issuing agency, amounts) used by filtering.
	StructuredFields map[string]string `json:"structured_fields,omitempty" mapstructure:"structured_fields"`

	// ImportanceScore is assigned during hierarchy construction for
	// section-level chunks; zero elsewhere.
	ImportanceScore float64 `json:"importance_score,omitempty" mapstructure:"importance_score"`

	// ParentID links to the chunk one level up. Empty for policy-level
	// chunks. Ingestion may pre-populate it as a hint; the hierarchy
	// builder is authoritative.
	ParentID string `json:"parent_id,omitempty" mapstructure:"parent_id"`
}

// Validate checks if the Chunk has all required fields set.
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrEmptyChunkID
	}
	if c.PolicyID == "" {
		return ErrEmptyPolicyID
	}
	if c.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// ValidateForIndex additionally requires a known hierarchy level.
func (c *Chunk) ValidateForIndex() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.Level.Valid() {
		return ErrInvalidLevel
	}
	return nil
}

// HierarchyContext is the result of a parent/children/siblings lookup.
type HierarchyContext struct {
	Chunk    *Chunk   `json:"chunk"`
	Parent   *Chunk   `json:"parent,omitempty"`
	Children []*Chunk `json:"children,omitempty"`
	Siblings []*Chunk `json:"siblings,omitempty"`
}
