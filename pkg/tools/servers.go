package tools

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/agent"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverVersion = "1.0.0"

// SessionDirectory is the slice of the session service the tools need.
type SessionDirectory interface {
	GetSession(ctx context.Context, sessionID string) (*ent.Session, error)
	LatestPMSession(ctx context.Context, projectID string) (*ent.Session, error)
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (*ent.Session, error)
	TransitionStatus(ctx context.Context, sessionID, newStatus string) (*ent.Session, error)
}

// ProjectDirectory resolves projects for team listings.
type ProjectDirectory interface {
	GetProject(ctx context.Context, projectID string) (*ent.Project, error)
}

// Enqueuer delivers messages into session queues.
type Enqueuer interface {
	Enqueue(ctx context.Context, sessionID string, req models.EnqueueRequest) (int, error)
}

// ServerSet owns the in-process MCP tool servers and their HTTP handlers.
type ServerSet struct {
	sessions   SessionDirectory
	projects   ProjectDirectory
	enqueuer   Enqueuer
	agents     *agents.AgentRepository
	skills     *agents.SkillRepository
	dispatcher *Dispatcher
	reminders  *reminderSet
	logger     *slog.Logger

	handlers map[string]http.Handler
}

// NewServerSet builds the tool servers.
func NewServerSet(sessions SessionDirectory, projects ProjectDirectory, enqueuer Enqueuer, agentRepo *agents.AgentRepository, skillRepo *agents.SkillRepository, logger *slog.Logger) *ServerSet {
	s := &ServerSet{
		sessions:  sessions,
		projects:  projects,
		enqueuer:  enqueuer,
		agents:    agentRepo,
		skills:    skillRepo,
		reminders: newReminderSet(),
		logger:    logger,
	}
	s.dispatcher = NewDispatcher(s.resolveCaller, logger)
	s.handlers = map[string]http.Handler{
		agent.ServerCommonTools:    s.buildCommonServer(),
		agent.ServerPMManagement:   s.buildPMServer(),
		agent.ServerAgentAssistant: s.buildAgentEditingServer(),
		agent.ServerSkillAssistant: s.buildSkillEditingServer(),
	}
	return s
}

// Handler returns the HTTP handler for a named tool server.
func (s *ServerSet) Handler(name string) (http.Handler, bool) {
	h, ok := s.handlers[name]
	return h, ok
}

// Shutdown cancels pending reminders.
func (s *ServerSet) Shutdown() {
	s.reminders.shutdown()
}

// resolveCaller maps a session id to a call context.
func (s *ServerSet) resolveCaller(ctx context.Context, sessionID string) (CallContext, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return CallContext{}, err
	}
	cc := CallContext{
		SessionID:   sess.ID,
		SessionType: string(sess.SessionType),
		AgentID:     sess.AgentID,
	}
	if sess.ProjectID != nil {
		cc.ProjectID = *sess.ProjectID
	}
	return cc, nil
}

func (s *ServerSet) mount(srv *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(srv,
		server.WithHTTPContextFunc(HTTPContextFunc),
		server.WithStateLess(true),
	)
}

func (s *ServerSet) buildCommonServer() http.Handler {
	name := agent.ServerCommonTools
	srv := server.NewMCPServer(name, serverVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("contact_instance",
		mcp.WithDescription("Send a message to another session in your project. Delivery is asynchronous; the target wakes up and processes it."),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target session id")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message to deliver")),
	), s.dispatcher.Wrap(name, "contact_instance", s.contactInstance))

	srv.AddTool(mcp.NewTool("contact_pm",
		mcp.WithDescription("Send a message to your project's PM session."),
		mcp.WithString("message", mcp.Required(), mcp.Description("Message to deliver")),
	), s.dispatcher.Wrap(name, "contact_pm", s.contactPM))

	srv.AddTool(mcp.NewTool("get_session_info",
		mcp.WithDescription("Return your own session identity and context."),
	), s.dispatcher.Wrap(name, "get_session_info", s.getSessionInfo))

	srv.AddTool(mcp.NewTool("remind",
		mcp.WithDescription("Schedule a message back to yourself after a delay."),
		mcp.WithNumber("delay_seconds", mcp.Required(), mcp.Description(fmt.Sprintf("Delay in seconds, %d to %d", MinReminderDelay, MaxReminderDelay))),
		mcp.WithString("message", mcp.Required(), mcp.Description("Reminder text")),
	), s.dispatcher.Wrap(name, "remind", s.remind))

	srv.AddTool(mcp.NewTool("show_file",
		mcp.WithDescription("Display a file to the user in the UI."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the file to display")),
	), s.dispatcher.Wrap(name, "show_file", s.showFile))

	return s.mount(srv)
}

func (s *ServerSet) buildPMServer() http.Handler {
	name := agent.ServerPMManagement
	srv := server.NewMCPServer(name, serverVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("spawn_instance",
		mcp.WithDescription("Create a new specialist session in your project. Does not send a first message; follow up with contact_instance."),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent definition to run")),
		mcp.WithString("task_description", mcp.Required(), mcp.Description("What the specialist should do")),
	), s.dispatcher.Wrap(name, "spawn_instance", s.spawnInstance))

	srv.AddTool(mcp.NewTool("list_team_members",
		mcp.WithDescription("List your project's team members."),
	), s.dispatcher.Wrap(name, "list_team_members", s.listTeamMembers))

	srv.AddTool(mcp.NewTool("complete_instance",
		mcp.WithDescription("Mark a working session in your project as completed."),
		mcp.WithString("target_id", mcp.Required(), mcp.Description("Target session id")),
	), s.dispatcher.Wrap(name, "complete_instance", s.completeInstance))

	return s.mount(srv)
}
