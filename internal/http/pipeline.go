package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/importers"
	"github.com/pr2ps/levelimporter/internal/services"
)

// PipelineController manages the queue of pending levels and runs imports.
type PipelineController struct {
	service *services.ImportService
}

func NewPipelineController(service *services.ImportService) *PipelineController {
	return &PipelineController{service: service}
}

type PendingItemResponse struct {
	Key         string          `json:"key"`
	Kind        string          `json:"kind"`
	Ref         string          `json:"ref"`
	Description string          `json:"description"`
	Owner       importers.Owner `json:"owner"`
}

type AddLocalRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// AddRemoteRequest carries the id and version as typed by the operator, so
// that numbers and strings are both accepted.
type AddRemoteRequest struct {
	LevelID any `json:"level_id" binding:"required"`
	Version any `json:"version"`
}

type AddSearchResultRequest struct {
	LevelID int64 `json:"level_id" binding:"required"`
	Version int   `json:"version" binding:"required"`
}

type RemoveItemsRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
}

func toItemResponses(items []importers.PendingItem) []PendingItemResponse {
	out := make([]PendingItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, PendingItemResponse{
			Key:         it.Key(),
			Kind:        string(it.Source.Kind()),
			Ref:         it.Source.Ref(),
			Description: it.Source.String(),
			Owner:       it.Owner,
		})
	}
	return out
}

// List handles GET /api/pipeline
func (pc *PipelineController) List(c *gin.Context) {
	items := pc.service.Queue()
	c.JSON(http.StatusOK, gin.H{"items": toItemResponses(items), "count": len(items)})
}

// AddLocal handles POST /api/pipeline/local
func (pc *PipelineController) AddLocal(c *gin.Context) {
	var req AddLocalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "at least one path is required")
		return
	}

	added, err := pc.service.EnqueueLocal(req.Paths...)
	if err != nil {
		respondServiceError(c, err, "add local levels")
		return
	}
	pc.respondAdded(c, added)
}

// AddRemote handles POST /api/pipeline/remote
func (pc *PipelineController) AddRemote(c *gin.Context) {
	var req AddRemoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "level_id is required")
		return
	}

	src, err := importers.ParseRemoteByID(jsonScalar(req.LevelID), jsonScalar(req.Version))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	added, err := pc.service.Enqueue(src)
	if err != nil {
		respondServiceError(c, err, "add remote level")
		return
	}
	pc.respondAdded(c, added)
}

// AddSearchResult handles POST /api/pipeline/search
func (pc *PipelineController) AddSearchResult(c *gin.Context) {
	var req AddSearchResultRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LevelID <= 0 || req.Version <= 0 {
		respondBadRequest(c, "level_id and version need to be positive numbers")
		return
	}

	added, err := pc.service.EnqueueSearchResult(req.LevelID, req.Version)
	if err != nil {
		respondServiceError(c, err, "add search result")
		return
	}
	pc.respondAdded(c, added)
}

// Remove handles DELETE /api/pipeline
func (pc *PipelineController) Remove(c *gin.Context) {
	var req RemoveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "keys are required")
		return
	}

	removed, err := pc.service.Dequeue(req.Keys...)
	if err != nil {
		respondServiceError(c, err, "remove levels")
		return
	}
	respondSuccess(c, "Levels removed from the pipeline", gin.H{"removed": removed, "count": len(pc.service.Queue())})
}

// Run handles POST /api/pipeline/run
// The import continues after the request returns; poll GET /api/pipeline/run.
func (pc *PipelineController) Run(c *gin.Context) {
	if err := pc.service.StartRun(context.WithoutCancel(c.Request.Context())); err != nil {
		respondServiceError(c, err, "start import")
		return
	}
	respondAccepted(c, "Import started", nil)
}

// RunStatus handles GET /api/pipeline/run
func (pc *PipelineController) RunStatus(c *gin.Context) {
	c.JSON(http.StatusOK, pc.service.Status())
}

// History handles GET /api/pipeline/runs?limit=
func (pc *PipelineController) History(c *gin.Context) {
	limit, ok := parseQueryInt(c, "limit", 20)
	if !ok {
		return
	}

	runs, err := pc.service.RecentRuns(limit)
	if err != nil {
		respondServiceError(c, err, "list runs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (pc *PipelineController) respondAdded(c *gin.Context, added int) {
	c.JSON(http.StatusCreated, gin.H{"added": added, "count": len(pc.service.Queue())})
}

func jsonScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "invalid"
	}
}
