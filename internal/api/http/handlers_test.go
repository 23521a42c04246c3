package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/codepad/internal/domain/project"
	"github.com/GriffinCanCode/codepad/internal/domain/templates"
	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/autosave"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

type testAPI struct {
	router *gin.Engine
	ws     *workspace.Workspace
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, err := templates.Load()
	require.NoError(t, err)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	ws, err := workspace.Open(context.Background(), workspace.Options{
		Store:     store.NewMemory(0),
		Autosave:  autosave.Options{Clock: clockwork.NewFakeClock()},
		Templates: reg,
		Metrics:   metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(context.Background()) })

	router := gin.New()
	NewHandlers(ws, metrics, nil).Register(router)
	return &testAPI{router: router, ws: ws}
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testAPI) pathID(t *testing.T, path string) string {
	t.Helper()
	res := a.ws.Glob(path)
	require.Len(t, res, 1)
	return res[0].ID
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(4), body["nodes"])
}

func TestCreateFileDefaultsToRoot(t *testing.T) {
	api := setupAPI(t)

	w := api.do("POST", "/project/files", gin.H{"name": "main.py", "content": "print()"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "main.py", body["name"])
	assert.Equal(t, "python", body["language"])
	assert.Equal(t, "main.py", body["path"])
	assert.Equal(t, api.ws.RootID(), body["parentId"])
}

func TestCreateFolderAndFileInside(t *testing.T) {
	api := setupAPI(t)

	w := api.do("POST", "/project/folders", gin.H{"name": "lib"})
	require.Equal(t, http.StatusCreated, w.Code)
	folderID := decode(t, w)["id"].(string)

	w = api.do("POST", "/project/files", gin.H{"parentId": folderID, "name": "a.ts"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "lib/a.ts", decode(t, w)["path"])
}

func TestErrorMapping(t *testing.T) {
	api := setupAPI(t)
	index := api.pathID(t, "src/index.js")
	src := api.pathID(t, "src")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantKind   string
	}{
		{"missing node", "GET", "/project/nodes/nope", nil, http.StatusNotFound, "NotFound"},
		{"blank name", "POST", "/project/files", gin.H{"name": "  "}, http.StatusBadRequest, "EmptyName"},
		{"file as parent", "POST", "/project/files", gin.H{"parentId": index, "name": "x"}, http.StatusBadRequest, "InvalidParent"},
		{"content of folder", "PUT", "/project/nodes/" + src + "/content", gin.H{"content": "x"}, http.StatusBadRequest, "NotAFile"},
		{"toggle file", "POST", "/project/nodes/" + index + "/toggle", nil, http.StatusBadRequest, "NotAFolder"},
		{"delete root", "DELETE", "/project/nodes/" + api.ws.RootID(), nil, http.StatusForbidden, "RootDeletionForbidden"},
		{"move into self", "POST", "/project/nodes/" + src + "/move", gin.H{"parentId": src}, http.StatusConflict, "CycleDetected"},
		{"unknown template", "POST", "/project/templates/cobol", nil, http.StatusNotFound, "UnknownTemplate"},
		{"bad import", "POST", "/project/import", []byte(`{"root":null}`), http.StatusBadRequest, "DeserializationFailed"},
		{"invalid settings", "PUT", "/settings", gin.H{"fontSize": 200}, http.StatusUnprocessableEntity, "InvalidSettings"},
		{"malformed json", "POST", "/project/files", []byte(`{`), http.StatusBadRequest, "BadRequest"},
		{"search without query", "GET", "/project/search", nil, http.StatusBadRequest, "BadRequest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantKind, decode(t, w)["kind"])
		})
	}
}

func TestNodeLifecycle(t *testing.T) {
	api := setupAPI(t)
	index := api.pathID(t, "src/index.js")

	w := api.do("PATCH", "/project/nodes/"+index, gin.H{"name": "app.ts"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "typescript", decode(t, w)["language"])

	w = api.do("PUT", "/project/nodes/"+index+"/content", gin.H{"content": "let x = 1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "let x = 1", decode(t, w)["content"])

	w = api.do("POST", "/project/nodes/"+index+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	dup := decode(t, w)
	assert.Equal(t, "app_copy.ts", dup["name"])

	w = api.do("POST", "/project/nodes/"+dup["id"].(string)+"/move", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "app_copy.ts", decode(t, w)["path"])

	w = api.do("POST", "/project/nodes/"+index+"/reveal", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("DELETE", "/project/nodes/"+index, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = api.do("GET", "/project/nodes/"+index, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionEndpoints(t *testing.T) {
	api := setupAPI(t)
	index := api.pathID(t, "src/index.js")
	readme := api.pathID(t, "README.md")

	w := api.do("POST", "/session/open/"+index, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do("PUT", "/session/active/"+readme, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, readme, body["activeFileId"])
	assert.Len(t, body["openFiles"], 2)

	w = api.do("DELETE", "/session/open/"+readme, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, index, decode(t, w)["activeFileId"])

	w = api.do("POST", "/session/open/"+api.pathID(t, "src"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsPartialUpdate(t *testing.T) {
	api := setupAPI(t)

	w := api.do("PUT", "/settings", gin.H{"fontSize": 20})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(20), body["fontSize"])
	assert.Equal(t, "on", body["wordWrap"])

	w = api.do("GET", "/settings", nil)
	assert.Equal(t, float64(20), decode(t, w)["fontSize"])
}

func TestSearch(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/project/search?glob=**/*.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	results := decode(t, w)["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "src/index.js", results[0].(map[string]interface{})["path"])

	w = api.do("GET", "/project/search?q=readme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/project/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "project.json")
	exported := w.Body.Bytes()

	other := setupAPI(t)
	w = other.do("POST", "/project/import", exported)
	require.Equal(t, http.StatusOK, w.Code)

	snap, err := project.DecodeSnapshot(exported)
	require.NoError(t, err)
	assert.Equal(t, snap.Root.ID, other.ws.RootID())
}

func TestApplyTemplateAndList(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["templates"])

	w = api.do("POST", "/project/templates/javascript", nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode(t, w)["session"].(map[string]interface{})
	assert.Equal(t, api.pathID(t, "src/main.js"), session["activeFileId"])
}

func upload(t *testing.T, api *testAPI, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/project/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func TestUpload(t *testing.T) {
	api := setupAPI(t)

	w := upload(t, api, "style.css", []byte("body { margin: 0; }\n"))
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "css", body["language"])
	assert.Equal(t, "style.css", body["path"])

	w = upload(t, api, "logo.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BinaryContent", decode(t, w)["kind"])
}

func TestSaveAndStatus(t *testing.T) {
	api := setupAPI(t)

	w := api.do("GET", "/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["saving"])

	w = api.do("POST", "/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["saving"])
	assert.NotNil(t, body["lastSaved"])

	w = api.do("GET", "/metrics/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	metrics := decode(t, w)["metrics"].(map[string]interface{})
	assert.Equal(t, float64(3), metrics["slotWrites"])
}

func TestStreamLogs(t *testing.T) {
	api := setupAPI(t)

	w := api.do("POST", "/logs", gin.H{"entries": []gin.H{
		{"id": "1", "level": "info", "message": "opened", "context": gin.H{"file": "a.js"}},
		{"id": "2", "level": "loud", "message": "ignored"},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(2), body["received"])
	assert.Equal(t, float64(1), body["accepted"])

	w = api.do("POST", "/logs", gin.H{"entries": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
