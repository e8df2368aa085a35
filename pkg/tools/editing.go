package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kumiai-dev/kumiai/pkg/agent"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (s *ServerSet) buildAgentEditingServer() http.Handler {
	name := agent.ServerAgentAssistant
	srv := server.NewMCPServer(name, serverVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("list_agents",
		mcp.WithDescription("List all agent definitions."),
	), s.dispatcher.Wrap(name, "list_agents", s.listAgents))

	srv.AddTool(mcp.NewTool("get_agent",
		mcp.WithDescription("Read one agent definition, including its body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Agent id (directory name)")),
	), s.dispatcher.Wrap(name, "get_agent", s.getAgent))

	srv.AddTool(mcp.NewTool("save_agent",
		mcp.WithDescription("Create or update an agent definition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Agent id (directory name)")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("description", mcp.Description("Short description")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("skills", mcp.Description("Comma-separated skill ids")),
		mcp.WithString("allowed_tools", mcp.Description("Comma-separated base tool names")),
		mcp.WithString("allowed_mcps", mcp.Description("Comma-separated external tool server names")),
		mcp.WithString("icon_color", mcp.Description("Hex color, e.g. #3B82F6")),
		mcp.WithString("default_model", mcp.Description("Model override; omit for the default")),
		mcp.WithString("body", mcp.Description("Markdown personality prompt")),
	), s.dispatcher.Wrap(name, "save_agent", s.saveAgent))

	srv.AddTool(mcp.NewTool("delete_agent",
		mcp.WithDescription("Soft-delete an agent definition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Agent id (directory name)")),
	), s.dispatcher.Wrap(name, "delete_agent", s.deleteAgent))

	return s.mount(srv)
}

func (s *ServerSet) buildSkillEditingServer() http.Handler {
	name := agent.ServerSkillAssistant
	srv := server.NewMCPServer(name, serverVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List all skill definitions."),
	), s.dispatcher.Wrap(name, "list_skills", s.listSkills))

	srv.AddTool(mcp.NewTool("get_skill",
		mcp.WithDescription("Read one skill definition, including its body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Skill id (directory name)")),
	), s.dispatcher.Wrap(name, "get_skill", s.getSkill))

	srv.AddTool(mcp.NewTool("save_skill",
		mcp.WithDescription("Create or update a skill definition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Skill id (directory name)")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("description", mcp.Description("Short description")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("icon", mcp.Description("Icon name")),
		mcp.WithString("icon_color", mcp.Description("Hex color, e.g. #3B82F6")),
		mcp.WithString("body", mcp.Description("Markdown preview body")),
	), s.dispatcher.Wrap(name, "save_skill", s.saveSkill))

	srv.AddTool(mcp.NewTool("delete_skill",
		mcp.WithDescription("Soft-delete a skill definition."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Skill id (directory name)")),
	), s.dispatcher.Wrap(name, "delete_skill", s.deleteSkill))

	return s.mount(srv)
}

func (s *ServerSet) listAgents(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	all, err := s.agents.List()
	if err != nil {
		return "", err
	}
	return marshalJSON(all)
}

func (s *ServerSet) getAgent(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	a, err := s.agents.Get(stringArg(args, "id"))
	if err != nil {
		return "", err
	}
	return marshalJSON(a)
}

func (s *ServerSet) saveAgent(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	id := stringArg(args, "id")
	a := &agents.Agent{
		ID:           id,
		Name:         stringArg(args, "name"),
		Description:  stringArg(args, "description"),
		Tags:         agents.StringList(args["tags"]),
		Skills:       agents.StringList(args["skills"]),
		AllowedTools: agents.StringList(args["allowed_tools"]),
		AllowedMCPs:  agents.StringList(args["allowed_mcps"]),
		IconColor:    stringArg(args, "icon_color"),
		DefaultModel: stringArg(args, "default_model"),
		Body:         stringArg(args, "body"),
	}
	if err := s.agents.Save(a); err != nil {
		return "", err
	}
	return fmt.Sprintf("Agent %s saved", id), nil
}

func (s *ServerSet) deleteAgent(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	id := stringArg(args, "id")
	if err := s.agents.Delete(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Agent %s deleted", id), nil
}

func (s *ServerSet) listSkills(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	all, err := s.skills.List()
	if err != nil {
		return "", err
	}
	return marshalJSON(all)
}

func (s *ServerSet) getSkill(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	sk, err := s.skills.Get(stringArg(args, "id"))
	if err != nil {
		return "", err
	}
	return marshalJSON(sk)
}

func (s *ServerSet) saveSkill(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	id := stringArg(args, "id")
	sk := &agents.Skill{
		ID:          id,
		Name:        stringArg(args, "name"),
		Description: stringArg(args, "description"),
		Tags:        agents.StringList(args["tags"]),
		Icon:        stringArg(args, "icon"),
		IconColor:   stringArg(args, "icon_color"),
		Body:        stringArg(args, "body"),
	}
	if err := s.skills.Save(sk); err != nil {
		return "", err
	}
	return fmt.Sprintf("Skill %s saved", id), nil
}

func (s *ServerSet) deleteSkill(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	id := stringArg(args, "id")
	if err := s.skills.Delete(id); err != nil {
		return "", err
	}
	return fmt.Sprintf("Skill %s deleted", id), nil
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
