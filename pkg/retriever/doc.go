// Package retriever implements hybrid dense+keyword retrieval.
//
// For each query variant it issues one dense-vector search and one
// keyword search, concurrently under a bounded worker pool, then fuses
// the two channels with weighted Reciprocal Rank Fusion and applies
// scale- and industry-aware post-filtering. A failed channel degrades
// the result set; it never aborts the request.
package retriever
