package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/services"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	ImportService *services.ImportService
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.ImportService, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	storesController := NewStoresController(cfg.ImportService)
	api.GET("/stores", storesController.List)
	api.POST("/stores/:kind/attach", storesController.Attach)

	usersController := NewUsersController(cfg.ImportService)
	api.GET("/users", usersController.Find)
	api.GET("/owner", usersController.GetOwner)
	api.POST("/owner", usersController.SelectOwner)

	searchController := NewLevelSearchController(cfg.ImportService)
	api.GET("/levels/search", searchController.Search)

	pipelineController := NewPipelineController(cfg.ImportService)
	api.GET("/pipeline", pipelineController.List)
	api.POST("/pipeline/local", pipelineController.AddLocal)
	api.POST("/pipeline/remote", pipelineController.AddRemote)
	api.POST("/pipeline/search", pipelineController.AddSearchResult)
	api.DELETE("/pipeline", pipelineController.Remove)
	api.POST("/pipeline/run", pipelineController.Run)
	api.GET("/pipeline/run", pipelineController.RunStatus)
	api.GET("/pipeline/runs", pipelineController.History)

	return router
}
