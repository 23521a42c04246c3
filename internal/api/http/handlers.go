package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/settings"
	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
)

// Version is reported by the root and health endpoints
var Version = "0.1.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	workspace *workspace.Workspace
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	started   time.Time
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(ws *workspace.Workspace, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		workspace: ws,
		metrics:   metrics,
		logger:    logger,
		started:   time.Now(),
	}
}

// Register mounts every REST route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Project tree
	r.GET("/project", h.GetProject)
	r.POST("/project/files", h.CreateFile)
	r.POST("/project/folders", h.CreateFolder)
	r.GET("/project/nodes/:id", h.GetNode)
	r.DELETE("/project/nodes/:id", h.DeleteNode)
	r.PATCH("/project/nodes/:id", h.RenameNode)
	r.PUT("/project/nodes/:id/content", h.UpdateContent)
	r.POST("/project/nodes/:id/toggle", h.ToggleFolder)
	r.POST("/project/nodes/:id/move", h.MoveNode)
	r.POST("/project/nodes/:id/duplicate", h.DuplicateFile)
	r.POST("/project/nodes/:id/reveal", h.RevealNode)
	r.POST("/project/upload", h.Upload)
	r.GET("/project/search", h.Search)
	r.GET("/project/export", h.Export)
	r.POST("/project/import", h.Import)
	r.POST("/project/templates/:name", h.ApplyTemplate)
	r.GET("/templates", h.ListTemplates)

	// Open files
	r.GET("/session", h.GetSession)
	r.POST("/session/open/:id", h.OpenFile)
	r.DELETE("/session/open/:id", h.CloseFile)
	r.PUT("/session/active/:id", h.SetActive)

	// Preferences and persistence
	r.GET("/settings", h.GetSettings)
	r.PUT("/settings", h.UpdateSettings)
	r.GET("/status", h.Status)
	r.POST("/save", h.Save)

	r.POST("/logs", h.StreamLogs)
	r.GET("/metrics/json", h.MetricsSummary)
}

// Root reports the service identity
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "codepad",
		"version": Version,
	})
}

// Health reports liveness plus model size and persistence state
func (h *Handlers) Health(c *gin.Context) {
	st := h.workspace.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": Version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"nodes":   st.Nodes,
		"saving":  st.Saving,
	})
}

// errorKindInvalidSettings labels settings validation failures
const errorKindInvalidSettings = "InvalidSettings"

// respondError maps a domain error to a status code and a {error, kind} body
func (h *Handlers) respondError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "kind": kind})
}

func errorStatus(err error) (int, string) {
	if errors.Is(err, settings.ErrInvalid) {
		return http.StatusUnprocessableEntity, errorKindInvalidSettings
	}

	kind := project.ErrorKind(err)
	switch kind {
	case "NotFound", "UnknownTemplate":
		return http.StatusNotFound, kind
	case "RootDeletionForbidden":
		return http.StatusForbidden, kind
	case "CycleDetected":
		return http.StatusConflict, kind
	case "InvalidParent", "NotAFile", "NotAFolder", "EmptyName", "BinaryContent", "DeserializationFailed":
		return http.StatusBadRequest, kind
	case "StoreWriteFailed":
		return http.StatusServiceUnavailable, kind
	}
	return http.StatusInternalServerError, kind
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "kind": "BadRequest"})
}
