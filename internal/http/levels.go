package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/pr2"
	"github.com/pr2ps/levelimporter/internal/services"
)

// LevelSearchController proxies searches to the remote level server.
type LevelSearchController struct {
	service *services.ImportService
}

func NewLevelSearchController(service *services.ImportService) *LevelSearchController {
	return &LevelSearchController{service: service}
}

// Search handles GET /api/levels/search?term=&by=&sort_by=&order=&page=
func (lc *LevelSearchController) Search(c *gin.Context) {
	page, ok := parseQueryInt(c, "page", 1)
	if !ok {
		return
	}

	query := pr2.SearchQuery{
		Term:      c.Query("term"),
		By:        pr2.SearchBy(c.Query("by")),
		SortBy:    pr2.SortBy(c.Query("sort_by")),
		SortOrder: pr2.SortOrder(c.Query("order")),
		Page:      page,
	}
	if err := query.Validate(); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	results, err := lc.service.SearchLevels(c.Request.Context(), query)
	if err != nil {
		respondServiceError(c, err, "search levels")
		return
	}

	c.JSON(http.StatusOK, gin.H{"levels": results, "page": query.Page})
}
