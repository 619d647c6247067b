package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/db"
	"github.com/codecell/codecell/internal/events/bus"
	"github.com/codecell/codecell/internal/project"
	"github.com/codecell/codecell/internal/runner"
	"github.com/codecell/codecell/internal/runtime"
	v1 "github.com/codecell/codecell/pkg/api/v1"
)

func newTestAPI(t *testing.T) (*gin.Engine, *runner.Supervisor) {
	t.Helper()

	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console"})
	require.NoError(t, err)

	memBus := bus.NewMemoryEventBus(log)
	t.Cleanup(memBus.Close)

	chains := runner.Toolchains{
		runner.LanguagePython: {Command: "sh", Extension: "sh"},
	}
	sup := runner.NewSupervisor(memBus, log, chains, t.TempDir())

	sqlDB, err := db.OpenSQLiteMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	store, err := project.NewStore(sqlDB)
	require.NoError(t, err)
	projects := project.NewManager(t.TempDir(), store, memBus, log)
	require.NoError(t, projects.Init())

	a := New(sup, runtime.NewDetector(), projects, nil, log)
	return a.Router(), sup
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPI_Health(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestAPI_SubmitExecution(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "echo hi\n",
		SessionID: "s1",
		Language:  "python",
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp["sessionId"])
	assert.Equal(t, "accepted", resp["status"])
}

func TestAPI_SubmitExecutionBadLanguage(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "x",
		SessionID: "s1",
		Language:  "cobol",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_SubmitExecutionMissingFields(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", map[string]string{
		"language": "python",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_SubmitExecutionBusySession(t *testing.T) {
	router, sup := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "exec sleep 60\n",
		SessionID: "busy",
		Language:  "python",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "echo hi\n",
		SessionID: "busy",
		Language:  "python",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	sup.Teardown("busy")
}

func TestAPI_SessionStatusAndStop(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/sessions/idle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state v1.StateChange
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.IsRunning)

	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/idle/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stop v1.StopResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stop))
	assert.False(t, stop.Stopped)
}

func TestAPI_StopRunningSession(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "exec sleep 60\n",
		SessionID: "s1",
		Language:  "python",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	// The process is tracked before submit returns.
	w = doJSON(t, router, http.MethodPost, "/api/v1/sessions/s1/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stop v1.StopResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stop))
	assert.True(t, stop.Stopped)
}

func TestAPI_TeardownSession(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/sessions/ghost", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPI_ListRuntimes(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/runtimes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var statuses []v1.RuntimeStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	assert.Len(t, statuses, 6)
	for _, s := range statuses {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Command)
		if !s.Available {
			assert.NotEmpty(t, s.InstallHint)
		}
	}
}

func TestAPI_ProjectLifecycle(t *testing.T) {
	router, _ := newTestAPI(t)

	created := time.Now().UTC().Format(time.RFC3339)
	w := doJSON(t, router, http.MethodPost, "/api/v1/projects", v1.Project{
		Name:      "demo",
		Template:  "python",
		CreatedAt: created,
		Files: []v1.ProjectFile{
			{Name: "main.py", Content: "print(1)\n", Language: "python"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var saved v1.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/projects/"+saved.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var loaded v1.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loaded))
	assert.Equal(t, "demo", loaded.Name)
	require.Len(t, loaded.Files, 1)
	assert.Equal(t, "print(1)\n", loaded.Files[0].Content)

	w = doJSON(t, router, http.MethodGet, "/api/v1/projects/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recents []v1.RecentProject
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recents))
	require.Len(t, recents, 1)
	assert.Equal(t, saved.ID, recents[0].ID)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/projects/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/projects/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_SubmitExecutionTraversalSessionID(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/executions", v1.ExecuteRequest{
		Code:      "echo hi\n",
		SessionID: "x/../../outside/evil",
		Language:  "python",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_DeleteProjectTraversalID(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodDelete, "/api/v1/projects/%2e%2e", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/projects/%2e%2e", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_RemoveRecentProject(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/projects", v1.Project{
		Name:     "demo",
		Template: "python",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var saved v1.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))

	w = doJSON(t, router, http.MethodDelete, "/api/v1/projects/recent/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/projects/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recents []v1.RecentProject
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recents))
	assert.Empty(t, recents)
}

func TestAPI_ExportAndImportProject(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/projects", v1.Project{
		Name:     "portable",
		Template: "python",
		Files: []v1.ProjectFile{
			{Name: "main.py", Content: "print(1)\n", Language: "python"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var saved v1.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))

	exportPath := filepath.Join(t.TempDir(), "portable.json")
	w = doJSON(t, router, http.MethodPost, "/api/v1/projects/"+saved.ID+"/export",
		v1.ProjectPathRequest{Path: exportPath})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/projects/import",
		v1.ProjectPathRequest{Path: exportPath})
	require.Equal(t, http.StatusOK, w.Code)
	var imported v1.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imported))
	assert.Equal(t, "portable", imported.Name)
	require.Len(t, imported.Files, 1)
	assert.Equal(t, "print(1)\n", imported.Files[0].Content)

	// Importing from a missing path is a client error.
	w = doJSON(t, router, http.MethodPost, "/api/v1/projects/import",
		v1.ProjectPathRequest{Path: filepath.Join(t.TempDir(), "missing.json")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetTemplate(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/templates", v1.CustomTemplate{
		Name: "starter",
		Base: "python",
		Files: []v1.ProjectFile{
			{Name: "main.py", Content: "pass\n", Language: "python"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, router, http.MethodGet, "/api/v1/templates/"+resp["id"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tpl v1.CustomTemplate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tpl))
	assert.Equal(t, "starter", tpl.Name)
	require.Len(t, tpl.Files, 1)

	w = doJSON(t, router, http.MethodGet, "/api/v1/templates/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_TemplateLifecycle(t *testing.T) {
	router, _ := newTestAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/templates", v1.CustomTemplate{
		Name: "starter",
		Base: "python",
		Files: []v1.ProjectFile{
			{Name: "main.py", Content: "pass\n", Language: "python"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	id := resp["id"]
	require.NotEmpty(t, id)

	w = doJSON(t, router, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var templates []v1.CustomTemplate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &templates))
	require.Len(t, templates, 1)
	assert.Equal(t, "starter", templates[0].Name)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/templates/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	templates = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &templates))
	assert.Empty(t, templates)
}
