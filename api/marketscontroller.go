package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterMarketRoutes registers the market and dataset snapshot endpoints.
func RegisterMarketRoutes(r *gin.Engine, h *handlers) {
	r.GET("/markets", h.handleMarkets)
	r.GET("/data", h.handleData)
}

func (h *handlers) handleMarkets(c *gin.Context) {
	if h.deps.Markets == nil {
		unavailable(c, "markets")
		return
	}
	snap, err := h.deps.Markets.Snapshot(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "market data unavailable"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) handleData(c *gin.Context) {
	if h.deps.Data == nil {
		unavailable(c, "datasets")
		return
	}
	snap, err := h.deps.Data.Snapshot(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "dataset snapshot unavailable"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
