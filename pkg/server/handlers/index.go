package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poliscope/poliscope"
	"github.com/poliscope/poliscope/pkg/server/dto"
)

// IndexHandler handles index lifecycle requests
type IndexHandler struct {
	engine poliscope.Poliscope
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(engine poliscope.Poliscope) *IndexHandler {
	return &IndexHandler{engine: engine}
}

// IndexChunks handles POST /api/v1/index/chunks
func (h *IndexHandler) IndexChunks(c *gin.Context) {
	var req dto.IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.engine.IndexChunks(c.Request.Context(), req.Chunks); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "index_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": len(req.Chunks)})
}

// SaveSnapshot handles POST /api/v1/index/snapshot
func (h *IndexHandler) SaveSnapshot(c *gin.Context) {
	if err := h.engine.SaveSnapshot(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "snapshot_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// RestoreLatest handles POST /api/v1/index/restore
func (h *IndexHandler) RestoreLatest(c *gin.Context) {
	if err := h.engine.RestoreLatest(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "restore_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}
