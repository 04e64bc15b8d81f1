// Package ui serves the workbench over HTTP as a JSON API with chart and report pages
package ui

import (
	"log"
	"net/http"

	"featurelab/app"
	"featurelab/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Server represents the workbench web server
type Server struct {
	router    *gin.Engine
	workbench *app.WorkbenchService
	maxUpload int64
}

// NewServer creates the server and registers every route. maxUploadMB bounds the
// size of request bodies; 0 disables the bound.
func NewServer(workbench *app.WorkbenchService, maxUploadMB int) *Server {
	s := &Server{
		router:    gin.Default(),
		workbench: workbench,
		maxUpload: int64(maxUploadMB) << 20,
	}
	s.router.MaxMultipartMemory = s.maxUpload
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api", middleware.LimitBody(s.maxUpload))
	api.POST("/datasets", s.handleUpload)
	api.GET("/datasets", s.handleListSessions)

	ds := api.Group("/datasets/:id", middleware.RequireSession())
	{
		ds.GET("", s.handleGetSession)
		ds.DELETE("", s.handleDeleteSession)
		ds.PATCH("/selection", s.handleEditSelection)
		ds.PUT("/selection/weights", s.handleSetWeights)
		ds.POST("/process", s.handleProcess)
		ds.GET("/statistics", s.handleStatistics)
		ds.GET("/correlation", s.handleCorrelation)
		ds.GET("/scree", s.handleScree)
		ds.GET("/histogram", s.handleHistogram)
		ds.POST("/cluster", s.handleCluster)
		ds.POST("/plot", s.handlePlot)
		ds.GET("/download", s.handleDownload)
		ds.GET("/report", s.handleReport)
		ds.GET("/charts/:kind", s.handleChart)
	}

	api.GET("/runs", s.handleListRuns)
	api.GET("/runs/:id", s.handleGetRun)
}

// Handler exposes the router for embedding in an http.Server or tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on addr
func (s *Server) Start(addr string) error {
	log.Printf("Starting featurelab on http://%s", addr)
	return s.router.Run(addr)
}
