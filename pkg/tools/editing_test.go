package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/pkg/agents"
)

func TestAgentEditingTools(t *testing.T) {
	f := newToolsFixture(t)
	cc := CallContext{SessionID: "s1", SessionType: "agent_assistant"}
	ctx := context.Background()

	out, err := f.set.saveAgent(ctx, cc, map[string]interface{}{
		"id":            "researcher",
		"name":          "Researcher",
		"description":   "Finds things out",
		"skills":        "web-research, summarize",
		"allowed_tools": "Read,WebSearch",
		"default_model": "opus",
		"body":          "Always cite sources.\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Agent researcher saved", out)

	out, err = f.set.getAgent(ctx, cc, map[string]interface{}{"id": "researcher"})
	require.NoError(t, err)
	var got agents.Agent
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Researcher", got.Name)
	assert.Equal(t, []string{"web-research", "summarize"}, got.Skills)
	assert.Equal(t, []string{"Read", "WebSearch"}, got.AllowedTools)
	assert.Equal(t, "opus", got.DefaultModel)

	out, err = f.set.listAgents(ctx, cc, nil)
	require.NoError(t, err)
	var all []agents.Agent
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	require.Len(t, all, 1)

	out, err = f.set.deleteAgent(ctx, cc, map[string]interface{}{"id": "researcher"})
	require.NoError(t, err)
	assert.Equal(t, "Agent researcher deleted", out)

	_, err = f.set.getAgent(ctx, cc, map[string]interface{}{"id": "researcher"})
	assert.Error(t, err)
}

func TestSkillEditingTools(t *testing.T) {
	f := newToolsFixture(t)
	cc := CallContext{SessionID: "s1", SessionType: "skill_assistant"}
	ctx := context.Background()

	out, err := f.set.saveSkill(ctx, cc, map[string]interface{}{
		"id":   "review",
		"name": "Code Review",
		"tags": "quality, go",
		"body": "Check error handling first.\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Skill review saved", out)

	out, err = f.set.getSkill(ctx, cc, map[string]interface{}{"id": "review"})
	require.NoError(t, err)
	var got agents.Skill
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Code Review", got.Name)
	assert.Equal(t, []string{"quality", "go"}, got.Tags)

	out, err = f.set.deleteSkill(ctx, cc, map[string]interface{}{"id": "review"})
	require.NoError(t, err)
	assert.Equal(t, "Skill review deleted", out)

	_, err = f.set.getSkill(ctx, cc, map[string]interface{}{"id": "review"})
	assert.Error(t, err)
}

func TestSaveAgentValidation(t *testing.T) {
	f := newToolsFixture(t)
	cc := CallContext{SessionID: "s1"}

	_, err := f.set.saveAgent(context.Background(), cc, map[string]interface{}{"id": "x"})
	assert.Error(t, err)

	_, err = f.set.saveAgent(context.Background(), cc, map[string]interface{}{"id": "../evil", "name": "Evil"})
	assert.Error(t, err)
}
