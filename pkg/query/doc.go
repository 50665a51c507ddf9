// Package query turns free-text questions into structured intent,
// entities, filters, and a complexity rating.
//
// The engine is a pure rule system: weighted regex rules for intent
// classification, dictionary lookups plus amount patterns for entity
// extraction, and a small scoring function for complexity. It performs
// no I/O and is fully testable from query strings alone.
package query
