package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poliscope/poliscope"
	"github.com/poliscope/poliscope/pkg/server/dto"
)

// SearchHandler handles retrieval requests
type SearchHandler struct {
	engine poliscope.Poliscope
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine poliscope.Poliscope) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req poliscope.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "query field is required and cannot be empty"})
		return
	}
	if len(req.Query) > dto.MaxQueryLength {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: dto.ErrQueryTooLong.Error()})
		return
	}

	resp, err := h.engine.Search(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "search_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MatchPolicies handles POST /api/v1/match
func (h *SearchHandler) MatchPolicies(c *gin.Context) {
	var req dto.MatchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	matches, err := h.engine.MatchPolicies(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "match_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.MatchResponse{Query: req.Query, Matches: matches})
}
