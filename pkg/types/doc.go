// Package types defines the core data types for the poliscope retrieval engine.
//
// This package contains the fundamental types used throughout poliscope:
//   - Chunk: A unit of indexed content at one hierarchy level (policy/section/sentence)
//   - RetrievalCandidate: A scored search hit flowing through fusion and reranking
//   - QueryUnderstanding: Structured intent, entities, filters, and complexity for a query
//   - RerankRequest/RerankResult: Inputs and outputs of the reranking engine
//   - Response: The orchestrator's final answer with statistics
//
// # Hierarchy Levels
//
// Chunks exist at three levels:
//   - LevelPolicy: One synthesized chunk per policy document
//   - LevelSection: Chunks grouped by section label within a policy
//   - LevelSentence: The original fine-grained chunks
//
// Every non-policy chunk has exactly one parent at the next-higher level
// sharing the same PolicyID.
//
// # Validation
//
// Types provide Validate() methods for input validation:
//
//	chunk := &types.Chunk{ID: "c-1", PolicyID: "p-1", Content: "..."}
//	if err := chunk.Validate(); err != nil {
//	    // Handle validation error
//	}
//
// All types are designed to be JSON-serializable with appropriate struct tags.
package types
