package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShellLogEntry is one log line forwarded by the desktop shell
type ShellLogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ShellLogRequest is a batch of shell log entries
type ShellLogRequest struct {
	Source  string          `json:"source" binding:"required"`
	Entries []ShellLogEntry `json:"entries"`
}

// StreamLogs writes shell log entries into the service log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req ShellLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid log request format"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no log entries provided"})
		return
	}

	logger := h.app.Logger.Named("shell")
	for _, entry := range req.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+3)
		fields = append(fields,
			zap.String("shell_log_id", entry.ID),
			zap.String("source", req.Source),
			zap.String("shell_timestamp", entry.Timestamp),
		)
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug", "verbose":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}
