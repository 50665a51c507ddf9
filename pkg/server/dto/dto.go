// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"

	"github.com/poliscope/poliscope/pkg/types"
)

// MaxQueryLength bounds incoming query text.
const MaxQueryLength = 2000

// ErrQueryTooLong is returned for queries beyond MaxQueryLength.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// MatchQuery is the body of POST /api/v1/match.
type MatchQuery struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate performs validation on MatchQuery
func (q *MatchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return errors.New("query cannot be empty")
	}
	if len(q.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// IndexRequest is the body of POST /api/v1/index/chunks.
type IndexRequest struct {
	Chunks []types.Chunk `json:"chunks" binding:"required"`
}

// Validate performs validation on IndexRequest
func (r *IndexRequest) Validate() error {
	if len(r.Chunks) == 0 {
		return errors.New("chunks cannot be empty")
	}
	return nil
}

// MatchResponse is the body returned by POST /api/v1/match.
type MatchResponse struct {
	Query   string              `json:"query"`
	Matches []types.PolicyMatch `json:"matches"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
