// Package agent assembles the runtime configuration for a session's LLM
// client: working directory, system prompt, tool allow-list, and tool-server
// bindings.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"github.com/kumiai-dev/kumiai/pkg/models"
	"github.com/kumiai-dev/kumiai/pkg/toolcfg"
)

// In-process tool server names.
const (
	ServerPMManagement   = "pm_management"
	ServerCommonTools    = "common_tools"
	ServerAgentAssistant = "agent_assistant"
	ServerSkillAssistant = "skill_assistant"
)

const (
	maxSkillPreviews      = 5
	skillPreviewMaxLength = 500
	fallbackModel         = "sonnet"
	promptSeparator       = "\n\n---\n\n"
)

var fileOpsTools = []string{"Read", "Write", "Edit", "Bash", "Glob", "Grep"}

// knownBaseTools is the set of base tool names the client understands.
// Unknown names in an agent's allowed_tools are dropped with a warning.
var knownBaseTools = map[string]struct{}{
	"Read": {}, "Write": {}, "Edit": {}, "MultiEdit": {}, "Bash": {},
	"Glob": {}, "Grep": {}, "WebFetch": {}, "WebSearch": {}, "Task": {},
	"TodoWrite": {}, "NotebookEdit": {},
}

// ProjectStore resolves project rows for working-directory and hook setup.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (*ent.Project, error)
}

// Builder assembles client configurations per session type.
type Builder struct {
	agents   *agents.AgentRepository
	skills   *agents.SkillRepository
	registry *toolcfg.Registry
	projects ProjectStore
	logger   *slog.Logger

	// toolServerBaseURL is where the in-process tool servers are mounted,
	// e.g. http://127.0.0.1:8080.
	toolServerBaseURL string
	scratchRoot       string
	defaultWorkingDir string
	userProfile       string
}

// NewBuilder wires a session builder.
func NewBuilder(agentRepo *agents.AgentRepository, skillRepo *agents.SkillRepository, registry *toolcfg.Registry, projects ProjectStore, toolServerBaseURL, scratchRoot, defaultWorkingDir, userProfile string, logger *slog.Logger) *Builder {
	return &Builder{
		agents:            agentRepo,
		skills:            skillRepo,
		registry:          registry,
		projects:          projects,
		logger:            logger,
		toolServerBaseURL: toolServerBaseURL,
		scratchRoot:       scratchRoot,
		defaultWorkingDir: defaultWorkingDir,
		userProfile:       userProfile,
	}
}

// Build produces the client configuration for a session. The resume token,
// when non-empty, reattaches the subprocess to its previous conversation.
func (b *Builder) Build(ctx context.Context, sess *ent.Session, resumeToken string) (claude.ClientConfig, error) {
	var proj *ent.Project
	if sess.ProjectID != nil && *sess.ProjectID != "" {
		p, err := b.projects.GetProject(ctx, *sess.ProjectID)
		if err != nil {
			return claude.ClientConfig{}, fmt.Errorf("failed to resolve project: %w", err)
		}
		proj = p
	}

	var agentDef *agents.Agent
	if sess.AgentID != "" {
		a, err := b.agents.Get(sess.AgentID)
		if err != nil {
			return claude.ClientConfig{}, fmt.Errorf("failed to resolve agent: %w", err)
		}
		agentDef = a
	}

	switch string(sess.SessionType) {
	case models.SessionTypePM:
		return b.buildPM(sess, proj, agentDef, resumeToken)
	case models.SessionTypeSpecialist:
		return b.buildSpecialist(sess, proj, agentDef, resumeToken)
	case models.SessionTypeAssistant:
		return b.buildAssistant(sess, proj, agentDef, resumeToken, assistantTemplate, nil)
	case models.SessionTypeAgentAssistant:
		return b.buildAssistant(sess, proj, agentDef, resumeToken, agentAssistantTemplate, []string{ServerAgentAssistant})
	case models.SessionTypeSkillAssistant:
		return b.buildAssistant(sess, proj, agentDef, resumeToken, skillAssistantTemplate, []string{ServerSkillAssistant})
	default:
		return claude.ClientConfig{}, fmt.Errorf("unknown session type %q", sess.SessionType)
	}
}

func (b *Builder) buildPM(sess *ent.Session, proj *ent.Project, agentDef *agents.Agent, resumeToken string) (claude.ClientConfig, error) {
	if proj == nil {
		return claude.ClientConfig{}, fmt.Errorf("pm session %s has no project", sess.ID)
	}

	servers := b.inProcServers(sess.ID, ServerPMManagement, ServerCommonTools)
	tools := b.composeAllowList(fileOpsTools, servers)

	prompt := b.assemblePrompt(agentDef, pmTemplate, tools, b.specialistsListing(), nil)

	// project_id on pm_management calls is pinned by the tool dispatcher,
	// keyed on the session identity in the server URLs.
	return claude.ClientConfig{
		Model:        b.modelFor(agentDef),
		WorkingDir:   proj.Path,
		SystemPrompt: prompt,
		AllowedTools: tools,
		ToolServers:  servers,
		ResumeToken:  resumeToken,
	}, nil
}

func (b *Builder) buildSpecialist(sess *ent.Session, proj *ent.Project, agentDef *agents.Agent, resumeToken string) (claude.ClientConfig, error) {
	if agentDef == nil {
		return claude.ClientConfig{}, fmt.Errorf("specialist session %s has no agent", sess.ID)
	}

	var scratch string
	if proj != nil {
		scratch = filepath.Join(proj.Path, ".sessions", sess.ID)
	} else {
		scratch = filepath.Join(b.scratchRoot, "sessions", sess.ID)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return claude.ClientConfig{}, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	servers := b.inProcServers(sess.ID, ServerCommonTools)
	for _, name := range agentDef.AllowedMCPs {
		sc, ok := b.registry.Get(name)
		if !ok {
			b.logger.Warn("agent references unknown tool server, skipping",
				"agent_id", agentDef.ID,
				"server", name)
			continue
		}
		servers[name] = sc
	}

	base := b.filterBaseTools(agentDef)
	tools := b.composeAllowList(base, servers)
	prompt := b.assemblePrompt(agentDef, specialistTemplate, tools, "", b.skillPreviews(agentDef))

	return claude.ClientConfig{
		Model:        b.modelFor(agentDef),
		WorkingDir:   scratch,
		SystemPrompt: prompt,
		AllowedTools: tools,
		ToolServers:  servers,
		ResumeToken:  resumeToken,
	}, nil
}

func (b *Builder) buildAssistant(sess *ent.Session, proj *ent.Project, agentDef *agents.Agent, resumeToken, template string, extraServers []string) (claude.ClientConfig, error) {
	cwd := b.defaultWorkingDir
	if proj != nil {
		cwd = proj.Path
	}

	names := append([]string{}, extraServers...)
	names = append(names, ServerCommonTools)
	servers := b.inProcServers(sess.ID, names...)
	tools := b.composeAllowList(fileOpsTools, servers)
	prompt := b.assemblePrompt(agentDef, template, tools, "", nil)

	return claude.ClientConfig{
		Model:        b.modelFor(agentDef),
		WorkingDir:   cwd,
		SystemPrompt: prompt,
		AllowedTools: tools,
		ToolServers:  servers,
		ResumeToken:  resumeToken,
	}, nil
}

// inProcServers binds the named in-process servers for a session. The
// session id travels in the URL so the server can attribute calls.
func (b *Builder) inProcServers(sessionID string, names ...string) map[string]claude.ToolServerConfig {
	servers := make(map[string]claude.ToolServerConfig, len(names))
	for _, name := range names {
		servers[name] = claude.ToolServerConfig{
			Type: "http",
			URL:  fmt.Sprintf("%s/mcp/%s?session=%s", b.toolServerBaseURL, name, sessionID),
		}
	}
	return servers
}

// filterBaseTools keeps only the base tools the client understands.
func (b *Builder) filterBaseTools(agentDef *agents.Agent) []string {
	if len(agentDef.AllowedTools) == 0 {
		return append([]string{}, fileOpsTools...)
	}
	var out []string
	for _, name := range agentDef.AllowedTools {
		if _, ok := knownBaseTools[name]; !ok {
			b.logger.Warn("dropping unknown base tool",
				"agent_id", agentDef.ID,
				"tool", name)
			continue
		}
		out = append(out, name)
	}
	return out
}

// composeAllowList is the union of base tools and mcp__<server> entries,
// without duplicates.
func (b *Builder) composeAllowList(base []string, servers map[string]claude.ToolServerConfig) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, t := range base {
		add(t)
	}
	serverNames := make([]string, 0, len(servers))
	for name := range servers {
		serverNames = append(serverNames, name)
	}
	sort.Strings(serverNames)
	for _, name := range serverNames {
		add("mcp__" + name)
	}
	return out
}

// assemblePrompt concatenates prompt parts with separators: agent body,
// substituted template, skill previews, user profile.
func (b *Builder) assemblePrompt(agentDef *agents.Agent, template string, tools []string, specialists string, skillPreviews []string) string {
	var parts []string
	if agentDef != nil && strings.TrimSpace(agentDef.Body) != "" {
		parts = append(parts, strings.TrimSpace(agentDef.Body))
	}

	t := strings.ReplaceAll(template, "{tools}", strings.Join(tools, ", "))
	t = strings.ReplaceAll(t, "{specialists}", specialists)
	parts = append(parts, t)

	if len(skillPreviews) > 0 {
		var sb strings.Builder
		sb.WriteString("# Available Skills\n")
		for _, preview := range skillPreviews {
			sb.WriteString("\n")
			sb.WriteString(preview)
			sb.WriteString("\n")
		}
		parts = append(parts, sb.String())
	}

	if b.userProfile != "" {
		parts = append(parts, b.userProfile)
	}
	return strings.Join(parts, promptSeparator)
}

// skillPreviews renders up to maxSkillPreviews of the agent's skills, each
// truncated to skillPreviewMaxLength bytes on a rune boundary.
func (b *Builder) skillPreviews(agentDef *agents.Agent) []string {
	var previews []string
	for _, skillID := range agentDef.Skills {
		if len(previews) >= maxSkillPreviews {
			break
		}
		skill, err := b.skills.Get(skillID)
		if err != nil {
			b.logger.Warn("agent references unknown skill, skipping",
				"agent_id", agentDef.ID,
				"skill", skillID)
			continue
		}
		body := truncateOnRune(strings.TrimSpace(skill.Body), skillPreviewMaxLength)
		previews = append(previews, fmt.Sprintf("## %s\n%s", skill.Name, body))
	}
	return previews
}

// truncateOnRune caps s at max bytes without splitting a UTF-8 sequence.
func truncateOnRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// specialistsListing renders the agent catalog for the PM template.
func (b *Builder) specialistsListing() string {
	all, err := b.agents.List()
	if err != nil || len(all) == 0 {
		return "(no specialist agents defined)"
	}
	var sb strings.Builder
	for _, a := range all {
		if a.Description != "" {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", a.Name, a.ID, a.Description)
		} else {
			fmt.Fprintf(&sb, "- %s (%s)\n", a.Name, a.ID)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) modelFor(agentDef *agents.Agent) string {
	if agentDef != nil && agentDef.DefaultModel != "" {
		return agentDef.DefaultModel
	}
	return fallbackModel
}
