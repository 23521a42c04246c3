package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
)

type createFileRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
	Content  string `json:"content"`
}

type createFolderRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type moveRequest struct {
	ParentID string `json:"parentId"`
}

// parent resolves an omitted parentId to the root folder
func (h *Handlers) parent(id string) string {
	if id == "" {
		return h.workspace.RootID()
	}
	return id
}

// GetProject returns the whole project snapshot
func (h *Handlers) GetProject(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Snapshot())
}

// CreateFile adds a file
func (h *Handlers) CreateFile(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	node, err := h.workspace.CreateFile(h.parent(req.ParentID), req.Name, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// CreateFolder adds a folder
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	node, err := h.workspace.CreateFolder(h.parent(req.ParentID), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// GetNode returns one node with its subtree and path
func (h *Handlers) GetNode(c *gin.Context) {
	node, err := h.workspace.Node(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// DeleteNode removes a node and everything below it
func (h *Handlers) DeleteNode(c *gin.Context) {
	nodeID := c.Param("id")
	if err := h.workspace.Delete(nodeID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": nodeID})
}

// RenameNode changes a node's name
func (h *Handlers) RenameNode(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	node, err := h.workspace.Rename(c.Param("id"), req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// UpdateContent replaces a file's content
func (h *Handlers) UpdateContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	node, err := h.workspace.UpdateContent(c.Param("id"), req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// ToggleFolder expands or collapses a folder
func (h *Handlers) ToggleFolder(c *gin.Context) {
	node, err := h.workspace.Toggle(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// MoveNode reparents a node
func (h *Handlers) MoveNode(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	node, err := h.workspace.Move(c.Param("id"), h.parent(req.ParentID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// DuplicateFile copies a file next to itself
func (h *Handlers) DuplicateFile(c *gin.Context) {
	node, err := h.workspace.Duplicate(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// RevealNode expands the folders above a node
func (h *Handlers) RevealNode(c *gin.Context) {
	nodeID := c.Param("id")
	if err := h.workspace.Reveal(nodeID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revealed": nodeID})
}

// Upload imports a multipart file field as a text file
func (h *Handlers) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file field required")
		return
	}
	if header.Size > workspace.MaxImportFileSize {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file too large",
			"kind":  "TooLarge",
		})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, workspace.MaxImportFileSize))
	if err != nil {
		h.respondError(c, err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = header.Filename
	}
	node, err := h.workspace.ImportFile(h.parent(c.PostForm("parentId")), name, data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// Search matches nodes by glob pattern (?glob=) or name substring (?q=)
func (h *Handlers) Search(c *gin.Context) {
	if pattern := c.Query("glob"); pattern != "" {
		c.JSON(http.StatusOK, gin.H{"results": h.workspace.Glob(pattern)})
		return
	}
	if query := c.Query("q"); query != "" {
		c.JSON(http.StatusOK, gin.H{"results": h.workspace.Filter(query)})
		return
	}
	badRequest(c, "glob or q query parameter required")
}

// Export downloads the project as JSON
func (h *Handlers) Export(c *gin.Context) {
	data, err := h.workspace.Export()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="project.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// Import replaces the project with an exported snapshot
func (h *Handlers) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.workspace.Import(data); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.workspace.Snapshot())
}

// ApplyTemplate replaces the project with a starter template
func (h *Handlers) ApplyTemplate(c *gin.Context) {
	if err := h.workspace.ApplyTemplate(c.Param("name")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project": h.workspace.Snapshot(),
		"session": h.workspace.Session(),
	})
}

// ListTemplates lists the starter templates
func (h *Handlers) ListTemplates(c *gin.Context) {
	list := h.workspace.Templates()
	out := make([]gin.H, 0, len(list))
	for _, t := range list {
		out = append(out, gin.H{
			"name":        t.Name,
			"title":       t.Title,
			"description": t.Description,
			"files":       t.Files(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}
