package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"situationmonitor/scheduler"
)

// RegisterHealthRoutes registers liveness and scheduler status.
func RegisterHealthRoutes(r *gin.Engine, h *handlers) {
	r.GET("/api/health", h.handleHealth)
	r.GET("/api/scheduler", h.handleSchedulerStatus)
}

func (h *handlers) handleHealth(c *gin.Context) {
	state := scheduler.StateIdle
	if h.deps.Scheduler != nil {
		state = h.deps.Scheduler.Status().State
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"scheduler":   state,
		"lastUpdated": h.deps.Store.LastUpdated(),
	})
}

func (h *handlers) handleSchedulerStatus(c *gin.Context) {
	if h.deps.Scheduler == nil {
		unavailable(c, "scheduler")
		return
	}
	c.JSON(http.StatusOK, h.deps.Scheduler.Status())
}
