package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSession returns the open files and the active one
func (h *Handlers) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Session())
}

// OpenFile opens a file in a tab
func (h *Handlers) OpenFile(c *gin.Context) {
	st, err := h.workspace.OpenFile(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// CloseFile closes a file's tab
func (h *Handlers) CloseFile(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.CloseFile(c.Param("id")))
}

// SetActive focuses a file, opening it if needed
func (h *Handlers) SetActive(c *gin.Context) {
	st, err := h.workspace.SetActive(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetSettings returns the editor preferences
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Settings())
}

// UpdateSettings overlays the request body on the current preferences
func (h *Handlers) UpdateSettings(c *gin.Context) {
	s := h.workspace.Settings()
	if err := c.ShouldBindJSON(&s); err != nil {
		badRequest(c, err.Error())
		return
	}

	updated, err := h.workspace.UpdateSettings(s)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Status reports persistence state
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Status())
}

// Save writes every slot now
func (h *Handlers) Save(c *gin.Context) {
	if err := h.workspace.Save(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.workspace.Status())
}

// MetricsSummary returns counters as JSON for the editor's status bar
func (h *Handlers) MetricsSummary(c *gin.Context) {
	out := gin.H{"status": h.workspace.Status()}
	if h.metrics != nil {
		out["metrics"] = h.metrics.GetSnapshot()
	}
	c.JSON(http.StatusOK, out)
}
