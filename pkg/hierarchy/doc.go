// Package hierarchy derives a three-level chunk hierarchy from flat
// ingestion chunks and serves weighted multi-level searches over it.
//
// BuildHierarchy synthesizes one policy-level chunk per document and one
// section-level chunk per section label, keeps the original chunks at
// sentence level (splitting oversized ones), and records parent/child
// edges between the levels. The Manager builds one BM25 and one TF-IDF
// index per level and publishes the whole snapshot atomically, so
// concurrent readers never observe a partial index.
package hierarchy
