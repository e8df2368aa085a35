package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/agents"
	"github.com/kumiai-dev/kumiai/pkg/toolcfg"
)

type fakeProjectStore struct {
	projects map[string]*ent.Project
}

func (f *fakeProjectStore) GetProject(_ context.Context, projectID string) (*ent.Project, error) {
	p, ok := f.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	return p, nil
}

type builderFixture struct {
	builder  *Builder
	agents   *agents.AgentRepository
	skills   *agents.SkillRepository
	projects *fakeProjectStore
	registry *toolcfg.Registry
}

func newBuilderFixture(t *testing.T) *builderFixture {
	agentRepo, err := agents.NewAgentRepository(t.TempDir())
	require.NoError(t, err)
	skillRepo, err := agents.NewSkillRepository(t.TempDir())
	require.NoError(t, err)

	registryPath := filepath.Join(t.TempDir(), "tool_servers.yaml")
	registryYAML := "github:\n  type: http\n  url: http://localhost:9999/mcp\n"
	require.NoError(t, os.WriteFile(registryPath, []byte(registryYAML), 0o644))
	registry, err := toolcfg.NewRegistry(registryPath, slog.Default())
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	projects := &fakeProjectStore{projects: map[string]*ent.Project{}}
	b := NewBuilder(agentRepo, skillRepo, registry, projects,
		"http://localhost:8080", t.TempDir(), t.TempDir(), "", slog.Default())

	return &builderFixture{builder: b, agents: agentRepo, skills: skillRepo, projects: projects, registry: registry}
}

func (f *builderFixture) addProject(t *testing.T, id string) *ent.Project {
	path := t.TempDir()
	p := &ent.Project{ID: id, Name: id, Path: path}
	f.projects.projects[id] = p
	return p
}

func strptr(s string) *string { return &s }

func TestBuilder_PM(t *testing.T) {
	f := newBuilderFixture(t)
	proj := f.addProject(t, "proj-1")
	require.NoError(t, f.agents.Save(&agents.Agent{ID: "coder", Name: "Coder", Description: "Writes code"}))

	sess := &ent.Session{ID: "sess-pm", SessionType: "pm", ProjectID: strptr("proj-1")}
	cfg, err := f.builder.Build(context.Background(), sess, "tok-1")
	require.NoError(t, err)

	assert.Equal(t, proj.Path, cfg.WorkingDir)
	assert.Equal(t, "tok-1", cfg.ResumeToken)
	assert.Equal(t, "sonnet", cfg.Model)

	// Both in-process servers bound, with session identity in the URL.
	require.Contains(t, cfg.ToolServers, ServerPMManagement)
	require.Contains(t, cfg.ToolServers, ServerCommonTools)
	assert.Equal(t, "http://localhost:8080/mcp/pm_management?session=sess-pm",
		cfg.ToolServers[ServerPMManagement].URL)

	assert.Contains(t, cfg.AllowedTools, "Read")
	assert.Contains(t, cfg.AllowedTools, "mcp__pm_management")
	assert.Contains(t, cfg.AllowedTools, "mcp__common_tools")

	// Prompt lists the available specialists.
	assert.Contains(t, cfg.SystemPrompt, "Coder (coder): Writes code")
}

func TestBuilder_PM_RequiresProject(t *testing.T) {
	f := newBuilderFixture(t)
	sess := &ent.Session{ID: "sess-pm", SessionType: "pm"}
	_, err := f.builder.Build(context.Background(), sess, "")
	assert.Error(t, err)
}

func TestBuilder_Specialist(t *testing.T) {
	f := newBuilderFixture(t)
	proj := f.addProject(t, "proj-1")

	require.NoError(t, f.skills.Save(&agents.Skill{
		ID:   "review",
		Name: "Code Review",
		Body: strings.Repeat("x", 600),
	}))
	require.NoError(t, f.agents.Save(&agents.Agent{
		ID:           "coder",
		Name:         "Coder",
		Body:         "You write careful Go.\n",
		Skills:       []string{"review", "missing-skill"},
		AllowedTools: []string{"Read", "Bash", "SuperTool"},
		AllowedMCPs:  []string{"github", "unknown-server"},
		DefaultModel: "opus",
	}))

	sess := &ent.Session{ID: "sess-spec", SessionType: "specialist", AgentID: "coder", ProjectID: strptr("proj-1")}
	cfg, err := f.builder.Build(context.Background(), sess, "")
	require.NoError(t, err)

	// Scratch directory is created under the project.
	wantScratch := filepath.Join(proj.Path, ".sessions", "sess-spec")
	assert.Equal(t, wantScratch, cfg.WorkingDir)
	info, statErr := os.Stat(wantScratch)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	assert.Equal(t, "opus", cfg.Model)

	// Unknown base tools are dropped; known ones kept.
	assert.Contains(t, cfg.AllowedTools, "Read")
	assert.Contains(t, cfg.AllowedTools, "Bash")
	assert.NotContains(t, cfg.AllowedTools, "SuperTool")

	// Known external server wired, unknown skipped.
	require.Contains(t, cfg.ToolServers, "github")
	assert.NotContains(t, cfg.ToolServers, "unknown-server")
	assert.Contains(t, cfg.AllowedTools, "mcp__github")

	// Prompt: agent body first, then skill preview truncated to 500 chars.
	assert.True(t, strings.HasPrefix(cfg.SystemPrompt, "You write careful Go."))
	assert.Contains(t, cfg.SystemPrompt, "## Code Review")
	assert.NotContains(t, cfg.SystemPrompt, strings.Repeat("x", 501))
	assert.Contains(t, cfg.SystemPrompt, strings.Repeat("x", 500))
}

func TestBuilder_SkillPreviewKeepsRunesIntact(t *testing.T) {
	f := newBuilderFixture(t)
	require.NoError(t, f.skills.Save(&agents.Skill{
		ID:   "kanji",
		Name: "Kanji",
		Body: strings.Repeat("日", 200),
	}))
	require.NoError(t, f.agents.Save(&agents.Agent{
		ID:     "writer",
		Name:   "Writer",
		Skills: []string{"kanji"},
	}))

	sess := &ent.Session{ID: "sess-w", SessionType: "specialist", AgentID: "writer"}
	cfg, err := f.builder.Build(context.Background(), sess, "")
	require.NoError(t, err)

	// 600 bytes of 3-byte runes; the 500-byte cap falls mid-rune and must be
	// pulled back to the previous boundary.
	assert.True(t, utf8.ValidString(cfg.SystemPrompt))
	assert.Contains(t, cfg.SystemPrompt, strings.Repeat("日", 166))
	assert.NotContains(t, cfg.SystemPrompt, strings.Repeat("日", 167))
}

func TestTruncateOnRune(t *testing.T) {
	assert.Equal(t, "abc", truncateOnRune("abc", 5))
	assert.Equal(t, "ab", truncateOnRune("abcd", 2))
	assert.Equal(t, "", truncateOnRune("日", 2))
	assert.Equal(t, "日", truncateOnRune("日本", 4))
}

func TestBuilder_Specialist_RequiresAgent(t *testing.T) {
	f := newBuilderFixture(t)
	sess := &ent.Session{ID: "sess-spec", SessionType: "specialist"}
	_, err := f.builder.Build(context.Background(), sess, "")
	assert.Error(t, err)
}

func TestBuilder_Assistants(t *testing.T) {
	f := newBuilderFixture(t)

	t.Run("plain assistant gets common tools only", func(t *testing.T) {
		sess := &ent.Session{ID: "sess-a", SessionType: "assistant"}
		cfg, err := f.builder.Build(context.Background(), sess, "")
		require.NoError(t, err)
		assert.Contains(t, cfg.ToolServers, ServerCommonTools)
		assert.NotContains(t, cfg.ToolServers, ServerAgentAssistant)
		assert.NotContains(t, cfg.ToolServers, ServerPMManagement)
	})

	t.Run("agent assistant gets the editing server", func(t *testing.T) {
		sess := &ent.Session{ID: "sess-aa", SessionType: "agent_assistant"}
		cfg, err := f.builder.Build(context.Background(), sess, "")
		require.NoError(t, err)
		assert.Contains(t, cfg.ToolServers, ServerAgentAssistant)
		assert.Contains(t, cfg.AllowedTools, "mcp__agent_assistant")
	})

	t.Run("skill assistant gets the editing server", func(t *testing.T) {
		sess := &ent.Session{ID: "sess-sa", SessionType: "skill_assistant"}
		cfg, err := f.builder.Build(context.Background(), sess, "")
		require.NoError(t, err)
		assert.Contains(t, cfg.ToolServers, ServerSkillAssistant)
	})

	t.Run("unknown session type is an error", func(t *testing.T) {
		sess := &ent.Session{ID: "sess-x", SessionType: "manager"}
		_, err := f.builder.Build(context.Background(), sess, "")
		assert.Error(t, err)
	})
}

func TestComposeAllowList(t *testing.T) {
	f := newBuilderFixture(t)
	servers := f.builder.inProcServers("s1", ServerCommonTools, ServerPMManagement)

	out := f.builder.composeAllowList([]string{"Read", "Read", "Bash"}, servers)
	assert.Equal(t, []string{"Read", "Bash", "mcp__common_tools", "mcp__pm_management"}, out)
}

func TestBuilder_UserProfileAppended(t *testing.T) {
	f := newBuilderFixture(t)
	f.builder.userProfile = "The user prefers short answers."

	sess := &ent.Session{ID: "sess-a", SessionType: "assistant"}
	cfg, err := f.builder.Build(context.Background(), sess, "")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cfg.SystemPrompt, "The user prefers short answers."))
}
