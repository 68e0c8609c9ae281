package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DannyMang/theta/internal/app"
	"github.com/DannyMang/theta/internal/infrastructure/fetch"
	"github.com/DannyMang/theta/internal/infrastructure/logging"
	"github.com/DannyMang/theta/internal/infrastructure/resilience"
	"github.com/DannyMang/theta/internal/infrastructure/tracing"
)

const (
	serviceName = "Theta Browser Service"
	version     = "0.3.0"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	app    *app.Context
	logger *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(appCtx *app.Context) *Handlers {
	return &Handlers{
		app:    appCtx,
		logger: appCtx.Logger.Named("http"),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	tabs := r.Group("/tabs")
	tabs.GET("", h.ListTabs)
	tabs.POST("", h.CreateTab)
	tabs.GET("/active", h.GetActiveTab)
	tabs.GET("/:id", h.GetTab)
	tabs.DELETE("/:id", h.CloseTab)
	tabs.POST("/:id/activate", h.ActivateTab)
	tabs.POST("/:id/navigate", h.NavigateTab)
	tabs.PUT("/:id/title", h.UpdateTitle)
	tabs.PUT("/:id/loading", h.SetLoading)
	tabs.PUT("/:id/favicon", h.SetFavicon)

	content := r.Group("/content")
	content.POST("/extract", h.ExtractHTML)
	content.POST("/fetch", h.ExtractURL)
	content.POST("/page", h.AnalyzePage)

	r.POST("/logs", h.StreamLogs)

	r.GET("/metrics", gin.WrapH(h.app.Metrics.Handler()))
	r.GET("/metrics/json", h.MetricsJSON)

	r.GET("/stream", h.app.Hub.HandleConnection)
}

// Root reports the service identity
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"tabs":           h.app.Tabs.Stats(),
		"stream_clients": h.app.Hub.Clients(),
		"uptime_seconds": time.Since(h.app.StartedAt).Seconds(),
	})
}

// MetricsJSON returns the metrics snapshot for the shell's status view
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now(),
		"backend":   h.app.Metrics.Snapshot(),
		"tabs":      h.app.Tabs.Stats(),
	})
}

// fetchStatus maps a fetch failure to an HTTP status
func fetchStatus(err error) int {
	switch {
	case errors.Is(err, fetch.ErrBlockedHost):
		return http.StatusForbidden
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *Handlers) fetchFailed(c *gin.Context, url string, err error) {
	h.logger.Warn("fetch failed",
		zap.String("url", url),
		zap.String("trace_id", tracing.GetTraceID(c.Request.Context()).String()),
		zap.Error(err),
	)
	c.Error(err)
	c.JSON(fetchStatus(err), gin.H{"error": err.Error(), "url": url})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
