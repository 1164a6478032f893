package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/database"
	"github.com/pr2ps/levelimporter/internal/services"
)

// StoresController attaches the PR2PS databases the importer works against.
type StoresController struct {
	service *services.ImportService
}

func NewStoresController(service *services.ImportService) *StoresController {
	return &StoresController{service: service}
}

type AttachStoreRequest struct {
	Path string `json:"path" binding:"required"`
}

// List handles GET /api/stores
func (sc *StoresController) List(c *gin.Context) {
	c.JSON(http.StatusOK, sc.service.Stores())
}

// Attach handles POST /api/stores/:kind/attach
func (sc *StoresController) Attach(c *gin.Context) {
	kind, err := database.ParseKind(c.Param("kind"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var req AttachStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "path is required")
		return
	}

	path := strings.TrimSpace(req.Path)
	if err := sc.service.AttachStore(kind, path); err != nil {
		respondServiceError(c, err, "attach store")
		return
	}

	respondSuccess(c, "Database attached", gin.H{"kind": kind, "path": path})
}
