package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/storage"
)

// AdminHandler serves the call-ledger statistics endpoints.
type AdminHandler struct {
	calls  storage.AnalysisCallRepository
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(calls storage.AnalysisCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		calls:  calls,
		logger: logger,
	}
}

// Stats returns total call counts and a per-provider breakdown.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.calls.Count(ctx)
	if err != nil {
		h.logger.Error("counting analysis calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	byProvider, err := h.calls.StatsByProvider(ctx)
	if err != nil {
		h.logger.Error("querying provider stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"providers": byProvider,
	})
}

// Calls returns the most recent analysis calls.
// Route: GET /api/v1/admin/calls?limit=20
func (h *AdminHandler) Calls(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	calls, err := h.calls.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing recent calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
