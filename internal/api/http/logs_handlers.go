package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxLogBatch   = 500
	maxLogMessage = 4096
)

// UILogEntry is one log line forwarded by the editor UI
type UILogEntry struct {
	ID        string                 `json:"id"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context"`
	Timestamp string                 `json:"timestamp"`
}

// UILogBatch is the body of POST /logs
type UILogBatch struct {
	Entries []UILogEntry `json:"entries"`
}

var uiLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"verbose": zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// StreamLogs writes a batch of editor UI log entries to the server log.
// Entries with an unknown level are counted as rejected.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req UILogBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid log batch")
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, "no log entries provided")
		return
	}
	if len(req.Entries) > maxLogBatch {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("at most %d entries per batch", maxLogBatch),
			"kind":  "TooLarge",
		})
		return
	}

	logger := h.logger.Named("ui")
	accepted := 0
	for _, entry := range req.Entries {
		level, ok := uiLevels[entry.Level]
		if !ok {
			continue
		}
		msg := entry.Message
		if len(msg) > maxLogMessage {
			msg = msg[:maxLogMessage]
		}
		if ce := logger.Check(level, msg); ce != nil {
			ce.Write(uiFields(entry)...)
		}
		accepted++
	}

	c.JSON(http.StatusOK, gin.H{
		"received": len(req.Entries),
		"accepted": accepted,
	})
}

func uiFields(entry UILogEntry) []zap.Field {
	fields := make([]zap.Field, 0, len(entry.Context)+2)
	fields = append(fields,
		zap.String("ui_log_id", entry.ID),
		zap.String("ui_timestamp", entry.Timestamp),
	)
	for key, value := range entry.Context {
		fields = append(fields, zap.Any(key, value))
	}
	return fields
}
