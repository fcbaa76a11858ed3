package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pool-attendance-backend/internal/store"
)

type scanRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// RecordScan applies one scan to the ledger. The same endpoint handles
// check-in, check-out and re-entry; the ledger decides which from the
// student's last record today.
func (h *Handler) RecordScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.RecordScan(c.Request.Context(), req.StudentID)
	if errors.Is(err, store.ErrStudentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
