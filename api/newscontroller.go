package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"situationmonitor/types"
)

// RegisterNewsRoutes registers the cached news endpoints.
func RegisterNewsRoutes(r *gin.Engine, h *handlers) {
	r.GET("/news", h.handleGetNews)
	r.POST("/news", h.handleRefreshNews)
}

// NewsResponse is the body of GET /news.
type NewsResponse struct {
	Category    string           `json:"category"`
	Items       []types.NewsItem `json:"items"`
	LastUpdated int64            `json:"lastUpdated"`
	Count       int              `json:"count"`
}

// RefreshResponse is the body of POST /news.
type RefreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleGetNews serves one category, or every category when none is given. With
// refresh=true a scrape runs first.
func (h *handlers) handleGetNews(c *gin.Context) {
	raw := c.Query("category")
	var category types.Category
	if raw != "" {
		parsed, err := types.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error() + ": " + raw})
			return
		}
		category = parsed.Storage()
	}

	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		if err := h.refresh(c.Request.Context()); err != nil {
			h.deps.Logger.Warn("refresh before read failed", zap.Error(err))
		}
	}

	store := h.deps.Store
	if category == "" {
		items := store.GetAll()
		c.JSON(http.StatusOK, NewsResponse{
			Category:    "all",
			Items:       items,
			LastUpdated: store.LastUpdated(),
			Count:       len(items),
		})
		return
	}

	entry := store.Get(category)
	c.JSON(http.StatusOK, NewsResponse{
		Category:    string(category),
		Items:       entry.Items,
		LastUpdated: entry.LastUpdated,
		Count:       len(entry.Items),
	})
}

func (h *handlers) handleRefreshNews(c *gin.Context) {
	if h.deps.Refresher == nil {
		unavailable(c, "refresh")
		return
	}
	if err := h.refresh(c.Request.Context()); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, RefreshResponse{Success: false, Message: "refresh failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, RefreshResponse{Success: true, Message: "news cache refreshed"})
}

// refresh detaches from the request so a disconnecting client does not abort the
// cycle other readers are waiting on.
func (h *handlers) refresh(ctx context.Context) error {
	if h.deps.Refresher == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.deps.RefreshTimeout)
	defer cancel()
	return h.deps.Refresher.RefreshNow(ctx)
}
