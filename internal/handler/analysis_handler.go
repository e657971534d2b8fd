// Package handler contains HTTP request handlers.
// In Gin, a handler is any function with signature func(*gin.Context),
// grouped here by resource rather than wrapped in controller classes.
package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/model"
	"github.com/nexusdash/analyst-service/internal/service"
)

// AnalysisHandler handles report generation requests.
type AnalysisHandler struct {
	analysis *service.AnalysisService
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysis *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		logger:   logger,
	}
}

// analysisResponse is the wire shape of a completed analysis: the report
// plus the per-metric validation rows behind its confidence score.
type analysisResponse struct {
	Report     *model.Report            `json:"report"`
	Validation []model.ValidationResult `json:"validation,omitempty"`
}

// Analyze generates a financial report for a company or ticker.
// Route: POST /api/v1/analysis
//
// The pipeline never fails a well-formed request: provider errors and
// missing credentials degrade to the demo report with the cause set on it,
// so the only non-200 responses here are for malformed input.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req model.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query is required",
		})
		return
	}

	if req.Provider != "" && !model.ValidProvider(string(req.Provider)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown provider: " + string(req.Provider),
		})
		return
	}

	outcome := h.analysis.Analyze(c.Request.Context(), req)

	h.logger.Info("analysis completed",
		zap.String("query", req.Query),
		zap.String("ticker", outcome.Report.Ticker),
		zap.Bool("is_mock", outcome.Report.IsMock),
	)

	c.JSON(http.StatusOK, analysisResponse{
		Report:     outcome.Report,
		Validation: outcome.Validation,
	})
}

// Providers lists the supported provider identifiers.
// Route: GET /api/v1/providers
func (h *AnalysisHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": model.AllProviders,
	})
}
