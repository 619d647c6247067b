// Package api exposes the HTTP surface: execution submission and control,
// runtime detection, project persistence, and the WebSocket upgrade.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codecell/codecell/internal/common/httpmw"
	"github.com/codecell/codecell/internal/common/logger"
	gatewayws "github.com/codecell/codecell/internal/gateway/websocket"
	"github.com/codecell/codecell/internal/project"
	"github.com/codecell/codecell/internal/runner"
	"github.com/codecell/codecell/internal/runtime"
)

const serverName = "codecell"

// API bundles the handlers' collaborators.
type API struct {
	supervisor *runner.Supervisor
	detector   *runtime.Detector
	projects   *project.Manager
	wsHandler  *gatewayws.Handler
	log        *logger.Logger
}

// New creates the API with its collaborators. wsHandler may be nil when the
// gateway is not mounted (tests).
func New(supervisor *runner.Supervisor, detector *runtime.Detector, projects *project.Manager, wsHandler *gatewayws.Handler, log *logger.Logger) *API {
	return &API{
		supervisor: supervisor,
		detector:   detector,
		projects:   projects,
		wsHandler:  wsHandler,
		log:        log,
	}
}

// Router builds the gin engine with all routes and middleware mounted.
func (a *API) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(httpmw.Recovery(a.log))
	router.Use(httpmw.RequestLogger(a.log, serverName))
	router.Use(httpmw.OtelTracing(serverName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serverName})
	})

	if a.wsHandler != nil {
		router.GET("/ws", a.wsHandler.HandleConnection)
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/executions", a.submitExecution)
		v1.GET("/sessions/:id", a.sessionStatus)
		v1.POST("/sessions/:id/stop", a.stopSession)
		v1.DELETE("/sessions/:id", a.teardownSession)

		v1.GET("/runtimes", a.listRuntimes)

		v1.POST("/projects", a.saveProject)
		v1.POST("/projects/import", a.importProject)
		v1.GET("/projects/recent", a.listRecentProjects)
		v1.DELETE("/projects/recent/:id", a.removeRecentProject)
		v1.GET("/projects/:id", a.getProject)
		v1.DELETE("/projects/:id", a.deleteProject)
		v1.POST("/projects/:id/export", a.exportProject)

		v1.GET("/templates", a.listTemplates)
		v1.POST("/templates", a.saveTemplate)
		v1.GET("/templates/:id", a.getTemplate)
		v1.DELETE("/templates/:id", a.deleteTemplate)
	}

	return router
}
