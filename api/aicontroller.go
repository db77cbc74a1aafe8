package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"situationmonitor/types"
)

// RegisterAIRoutes registers headline analysis.
func RegisterAIRoutes(r *gin.Engine, h *handlers) {
	r.POST("/ai", h.handleAnalyze)
}

// AnalyzeRequest represents the request to score headlines
type AnalyzeRequest struct {
	Headlines []string `json:"headlines"`
}

// AnalyzeResponse carries one result per submitted headline, in order.
type AnalyzeResponse struct {
	Success bool                   `json:"success"`
	Results []types.AnalysisResult `json:"results"`
}

func (h *handlers) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if len(req.Headlines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "headlines must be a non-empty array"})
		return
	}
	if h.deps.Analyzer == nil {
		unavailable(c, "AI analysis")
		return
	}

	results, err := h.deps.Analyzer.Analyze(c.Request.Context(), req.Headlines)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, AnalyzeResponse{Success: true, Results: results})
}
