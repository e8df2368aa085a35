package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/database"
	"github.com/kumiai-dev/kumiai/pkg/events"
	"github.com/kumiai-dev/kumiai/pkg/queue"
	"github.com/kumiai-dev/kumiai/pkg/services"
	"github.com/kumiai-dev/kumiai/pkg/tools"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	db              *database.Client
	sessionService  *services.SessionService
	messageService  *services.MessageService
	projectService  *services.ProjectService
	activityService *services.ActivityService
	agents          *agents.AgentRepository
	skills          *agents.SkillRepository
	executor        *queue.Executor
	broadcaster     *events.Broadcaster
	toolServers     *tools.ServerSet
	logger          *slog.Logger
}

// Deps carries the server's collaborators.
type Deps struct {
	DB              *database.Client
	SessionService  *services.SessionService
	MessageService  *services.MessageService
	ProjectService  *services.ProjectService
	ActivityService *services.ActivityService
	Agents          *agents.AgentRepository
	Skills          *agents.SkillRepository
	Executor        *queue.Executor
	Broadcaster     *events.Broadcaster
	ToolServers     *tools.ServerSet
	Logger          *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(deps Deps) *Server {
	s := &Server{
		echo:            echo.New(),
		db:              deps.DB,
		sessionService:  deps.SessionService,
		messageService:  deps.MessageService,
		projectService:  deps.ProjectService,
		activityService: deps.ActivityService,
		agents:          deps.Agents,
		skills:          deps.Skills,
		executor:        deps.Executor,
		broadcaster:     deps.Broadcaster,
		toolServers:     deps.ToolServers,
		logger:          deps.Logger,
	}
	s.registerRoutes()
	return s
}

// securityHeaders sets baseline security response headers on every route.
func securityHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		h := c.Response().Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		return next(c)
	}
}

func (s *Server) registerRoutes() {
	s.echo.Use(securityHeaders)

	s.echo.GET("/health", s.healthHandler)

	// In-process tool servers, one mount per server name.
	s.echo.Any("/mcp/:server", s.toolServerHandler)

	api := s.echo.Group("/api/v1")

	api.POST("/sessions", s.createSessionHandler)
	api.GET("/sessions", s.listSessionsHandler)
	api.GET("/sessions/:id", s.getSessionHandler)
	api.DELETE("/sessions/:id", s.deleteSessionHandler)
	api.POST("/sessions/:id/enqueue", s.enqueueHandler)
	api.POST("/sessions/:id/query", s.queryHandler)
	api.GET("/sessions/:id/stream", s.streamHandler)
	api.POST("/sessions/:id/interrupt", s.interruptHandler)
	api.POST("/sessions/:id/recreate", s.recreateHandler)
	api.POST("/sessions/:id/start", s.startHandler)
	api.POST("/sessions/:id/complete", s.completeHandler)
	api.POST("/sessions/:id/resume", s.resumeHandler)
	api.PATCH("/sessions/:id/stage", s.updateStageHandler)
	api.GET("/sessions/:id/messages", s.listMessagesHandler)
	api.GET("/sessions/:id/activity", s.listActivityHandler)

	api.POST("/projects", s.createProjectHandler)
	api.GET("/projects", s.listProjectsHandler)
	api.GET("/projects/:id", s.getProjectHandler)
	api.PATCH("/projects/:id", s.updateProjectHandler)
	api.DELETE("/projects/:id", s.deleteProjectHandler)
	api.POST("/projects/:id/assign_pm", s.assignPMHandler)
	api.POST("/projects/:id/remove_pm", s.removePMHandler)

	api.GET("/agents", s.listAgentsHandler)
	api.GET("/agents/:id", s.getAgentHandler)
	api.PUT("/agents/:id", s.saveAgentHandler)
	api.DELETE("/agents/:id", s.deleteAgentHandler)

	api.GET("/skills", s.listSkillsHandler)
	api.GET("/skills/:id", s.getSkillHandler)
	api.PUT("/skills/:id", s.saveSkillHandler)
	api.DELETE("/skills/:id", s.deleteSkillHandler)
}

// Start runs the HTTP server. Blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// toolServerHandler proxies /mcp/:server to the in-process MCP tool server.
func (s *Server) toolServerHandler(c *echo.Context) error {
	name := c.Param("server")
	h, ok := s.toolServers.Handler(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown tool server")
	}
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}
