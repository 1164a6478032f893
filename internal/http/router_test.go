package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/database/users"
	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/pr2"
	"github.com/pr2ps/levelimporter/internal/services"
)

type stubSearcher struct {
	results []pr2.SearchResult
	err     error
}

func (s *stubSearcher) Search(context.Context, pr2.SearchQuery) ([]pr2.SearchResult, error) {
	return s.results, s.err
}

func (s *stubSearcher) IsBusy() bool { return false }

type testServer struct {
	router     *gin.Engine
	service    *services.ImportService
	searcher   *stubSearcher
	dir        string
	mainPath   string
	levelsPath string
	ownerID    uint
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	ts := &testServer{
		dir:        dir,
		mainPath:   filepath.Join(dir, "main.sqlite"),
		levelsPath: filepath.Join(dir, "levels.sqlite"),
		searcher:   &stubSearcher{},
	}

	mainDB, err := database.Init(ts.mainPath, database.KindMain)
	require.NoError(t, err)
	user, err := users.NewRepository(mainDB.DB).CreateUser("jiggmin", "")
	require.NoError(t, err)
	ts.ownerID = user.ID
	require.NoError(t, mainDB.Close())

	levelsDB, err := database.Init(ts.levelsPath, database.KindLevels)
	require.NoError(t, err)
	require.NoError(t, levelsDB.Close())

	pipeline := importers.NewPipeline(importers.NewSourceResolver(nil, 0), importers.NewLevelConverter())
	ts.service = services.NewImportService(pipeline, ts.searcher, 0)
	t.Cleanup(ts.service.Close)

	ts.router = NewRouter(RouterConfig{ImportService: ts.service, Version: "test"})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) setup(t *testing.T) {
	t.Helper()
	w := ts.do(t, "POST", "/api/stores/main/attach", AttachStoreRequest{Path: ts.mainPath})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, "POST", "/api/stores/levels/attach", AttachStoreRequest{Path: ts.levelsPath})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, "POST", "/api/owner", SelectOwnerRequest{UserID: ts.ownerID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func (ts *testServer) levelFile(t *testing.T, name, title string) string {
	t.Helper()
	path := filepath.Join(ts.dir, name)
	content := url.Values{"title": {title}, "data": {"m4`0;0;1`5,5"}}.Encode()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "not attached", health.Checks["levels"])

	ts.setup(t)
	health = decode[HealthResponse](t, ts.do(t, "GET", "/health", nil))
	assert.Equal(t, "ok", health.Checks["main"])
	assert.Equal(t, "ok", health.Checks["levels"])
}

func TestAttachStore_Errors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"unknown kind", "/api/stores/backup/attach", AttachStoreRequest{Path: ts.mainPath}, http.StatusBadRequest},
		{"missing path", "/api/stores/main/attach", gin.H{}, http.StatusBadRequest},
		{"missing file", "/api/stores/main/attach", AttachStoreRequest{Path: filepath.Join(ts.dir, "nope.sqlite")}, http.StatusNotFound},
		{"wrong schema", "/api/stores/levels/attach", AttachStoreRequest{Path: ts.mainPath}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, "POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestUsers(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "GET", "/api/users?term=jigg", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	ts.setup(t)

	w = ts.do(t, "GET", "/api/users?term=jigg&mode=name", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Count int `json:"count"`
	}](t, w)
	assert.Equal(t, 1, resp.Count)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/users", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/users?term=abc&mode=id", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/users?term=abc&mode=email", nil).Code)

	w = ts.do(t, "GET", "/api/owner", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jiggmin", decode[importers.Owner](t, w).Username)

	w = ts.do(t, "POST", "/api/owner", SelectOwnerRequest{UserID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLevelSearch(t *testing.T) {
	ts := setupTestServer(t)
	ts.searcher.results = []pr2.SearchResult{{LevelID: 42, Version: 3, Title: "Newbieland", Author: "jiggmin"}}

	w := ts.do(t, "GET", "/api/levels/search?term=jiggmin&by=user&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Levels []pr2.SearchResult `json:"levels"`
		Page   int                `json:"page"`
	}](t, w)
	require.Len(t, resp.Levels, 1)
	assert.Equal(t, int64(42), resp.Levels[0].LevelID)
	assert.Equal(t, 2, resp.Page)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/levels/search?term=", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/levels/search?term=a&page=10", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, "GET", "/api/levels/search?term=a&page=x", nil).Code)

	ts.searcher.err = pr2.ErrSearchInProgress
	assert.Equal(t, http.StatusConflict, ts.do(t, "GET", "/api/levels/search?term=a", nil).Code)
}

func TestPipeline_Queue(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/pipeline/local", AddLocalRequest{Paths: []string{"a.txt"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "owner_required", decode[ErrorResponse](t, w).Code)

	ts.setup(t)

	w = ts.do(t, "POST", "/api/pipeline/local", AddLocalRequest{Paths: []string{"a.txt", "b.txt"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, "POST", "/api/pipeline/remote", gin.H{"level_id": 42, "version": "3"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, "POST", "/api/pipeline/remote", gin.H{"level_id": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "level id needs to be a positive number", decode[ErrorResponse](t, w).Error)

	w = ts.do(t, "POST", "/api/pipeline/search", AddSearchResultRequest{LevelID: 50, Version: 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, "GET", "/api/pipeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []PendingItemResponse `json:"items"`
		Count int                   `json:"count"`
	}](t, w)
	require.Equal(t, 4, list.Count)
	assert.Equal(t, "remote_id", list.Items[2].Kind)
	assert.Equal(t, "42 v3", list.Items[2].Ref)
	assert.Equal(t, "remote_search", list.Items[3].Kind)

	w = ts.do(t, "DELETE", "/api/pipeline", RemoveItemsRequest{Keys: []string{list.Items[0].Key, list.Items[3].Key}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, ts.service.Queue(), 2)
}

func TestPipeline_Run(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, "POST", "/api/pipeline/run", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)

	ts.setup(t)

	w = ts.do(t, "POST", "/api/pipeline/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_queue", decode[ErrorResponse](t, w).Code)

	good := ts.levelFile(t, "good.txt", "Good")
	w = ts.do(t, "POST", "/api/pipeline/local", AddLocalRequest{Paths: []string{good, filepath.Join(ts.dir, "missing.txt")}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = ts.do(t, "POST", "/api/pipeline/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var status services.RunStatus
	require.Eventually(t, func() bool {
		status = decode[services.RunStatus](t, ts.do(t, "GET", "/api/pipeline/run", nil))
		return !status.Running
	}, 5*time.Second, 10*time.Millisecond)

	require.NotNil(t, status.Result)
	assert.Equal(t, "Materialized 1 levels out of 2.", status.Result.Summary)
	assert.Len(t, status.Events, 3)

	// Only the failed item stays queued
	w = ts.do(t, "GET", "/api/pipeline", nil)
	assert.Equal(t, 1, decode[struct {
		Count int `json:"count"`
	}](t, w).Count)

	// Error events carry the key of the item that stayed queued
	events := decode[struct {
		Events []struct {
			Kind    string `json:"kind"`
			ItemKey string `json:"item_key"`
		} `json:"events"`
	}](t, ts.do(t, "GET", "/api/pipeline/run", nil)).Events
	require.Len(t, events, 3)
	var failedKeys []string
	for _, ev := range events {
		if ev.Kind == "error" {
			failedKeys = append(failedKeys, ev.ItemKey)
		}
	}
	assert.Equal(t, []string{ts.service.Queue()[0].Key()}, failedKeys)

	w = ts.do(t, "GET", "/api/pipeline/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	runs := decode[struct {
		Runs []struct {
			RunID    string `json:"run_id"`
			Imported int    `json:"imported"`
		} `json:"runs"`
	}](t, w)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, status.Result.RunID, runs.Runs[0].RunID)
	assert.Equal(t, 1, runs.Runs[0].Imported)
}
