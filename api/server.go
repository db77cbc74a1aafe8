package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"situationmonitor/analysis"
	"situationmonitor/cache"
	"situationmonitor/scheduler"
	"situationmonitor/types"
)

// Refresher runs an out-of-band scrape cycle.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

// SchedulerStatus reports the background scheduler's state.
type SchedulerStatus interface {
	Status() scheduler.Status
}

type MarketsSource interface {
	Snapshot(ctx context.Context) (types.MarketsSnapshot, error)
}

type DataSource interface {
	Snapshot(ctx context.Context) (types.DataSnapshot, error)
}

// Deps are the components the router serves. Store is required; a nil optional
// dependency makes its routes answer 503.
type Deps struct {
	Store     *cache.Store
	Refresher Refresher
	Scheduler SchedulerStatus
	Markets   MarketsSource
	Data      DataSource
	Analyzer  analysis.Analyzer
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger

	// RefreshTimeout bounds a request-triggered scrape.
	RefreshTimeout time.Duration
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RefreshTimeout <= 0 {
		deps.RefreshTimeout = 2 * time.Minute
	}

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(deps.Logger))

	h := &handlers{deps: deps}
	RegisterNewsRoutes(r, h)
	RegisterMarketRoutes(r, h)
	RegisterAIRoutes(r, h)
	RegisterHealthRoutes(r, h)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

type handlers struct {
	deps Deps
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			log.Error("HTTP request with errors", fields...)
			return
		}
		if strings.HasPrefix(path, "/api/health") || path == "/metrics" {
			log.Debug("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": what + " is not configured"})
}
