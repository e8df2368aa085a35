package agents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgentRepo(t *testing.T) *AgentRepository {
	repo, err := NewAgentRepository(t.TempDir())
	require.NoError(t, err)
	return repo
}

func TestAgentRepository_SaveAndGet(t *testing.T) {
	repo := newTestAgentRepo(t)

	in := &Agent{
		ID:           "researcher",
		Name:         "Researcher",
		Description:  "Digs through sources",
		Tags:         []string{"analysis", "search"},
		Skills:       []string{"web-research"},
		AllowedTools: []string{"Read", "WebSearch"},
		AllowedMCPs:  []string{"github"},
		IconColor:    "#3B82F6",
		DefaultModel: "opus",
		Body:         "You are a meticulous researcher.\n",
	}
	require.NoError(t, repo.Save(in))

	got, err := repo.Get("researcher")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestAgentRepository_DefaultModelOmitted(t *testing.T) {
	repo := newTestAgentRepo(t)

	require.NoError(t, repo.Save(&Agent{ID: "basic", Name: "Basic", DefaultModel: "sonnet"}))

	raw, err := os.ReadFile(filepath.Join(repo.Root(), "basic", "CLAUDE.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "default_model")

	got, err := repo.Get("basic")
	require.NoError(t, err)
	assert.Empty(t, got.DefaultModel)
}

func TestAgentRepository_Get_Errors(t *testing.T) {
	repo := newTestAgentRepo(t)

	t.Run("missing agent", func(t *testing.T) {
		_, err := repo.Get("ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing name in frontmatter", func(t *testing.T) {
		dir := filepath.Join(repo.Root(), "noname")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		doc := "---\ndescription: no name here\n---\n\nbody\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "CLAUDE.md"), []byte(doc), 0o644))

		_, err := repo.Get("noname")
		assert.ErrorIs(t, err, ErrMissingName)
	})
}

func TestAgentRepository_List(t *testing.T) {
	repo := newTestAgentRepo(t)
	require.NoError(t, repo.Save(&Agent{ID: "a", Name: "A"}))
	require.NoError(t, repo.Save(&Agent{ID: "b", Name: "B"}))

	// A directory without a definition file is skipped, not an error.
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Root(), "empty"), 0o755))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	ids := []string{all[0].ID, all[1].ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestAgentRepository_Delete(t *testing.T) {
	repo := newTestAgentRepo(t)
	require.NoError(t, repo.Save(&Agent{ID: "doomed", Name: "Doomed"}))

	require.NoError(t, repo.Delete("doomed"))

	// Soft delete: content survives under a tombstone directory.
	_, err := os.Stat(filepath.Join(repo.Root(), "doomed.deleted", "CLAUDE.md"))
	assert.NoError(t, err)

	assert.False(t, repo.Exists("doomed"))
	_, err = repo.Get("doomed")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, all)

	t.Run("deleting again reports not found", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete("doomed"), ErrNotFound)
	})

	t.Run("recreate replaces an old tombstone", func(t *testing.T) {
		require.NoError(t, repo.Save(&Agent{ID: "doomed", Name: "Doomed Again"}))
		require.NoError(t, repo.Delete("doomed"))
		_, err := os.Stat(filepath.Join(repo.Root(), "doomed.deleted", "CLAUDE.md"))
		assert.NoError(t, err)
	})
}

func TestValidateEntryID(t *testing.T) {
	valid := []string{"agent", "my-agent", "agent_2"}
	for _, id := range valid {
		assert.NoError(t, validateEntryID(id), id)
	}

	invalid := []string{"", ".", ".hidden"}
	for _, id := range invalid {
		assert.ErrorIs(t, validateEntryID(id), ErrInvalidID, id)
	}

	traversal := []string{"../escape", "a/b", `a\b`, "a..b", "../../etc/passwd"}
	for _, id := range traversal {
		assert.ErrorIs(t, validateEntryID(id), ErrForbiddenPath, id)
	}
}

func TestSkillRepository_RoundTrip(t *testing.T) {
	repo, err := NewSkillRepository(t.TempDir())
	require.NoError(t, err)

	in := &Skill{
		ID:          "web-research",
		Name:        "Web Research",
		Description: "Finding and verifying sources",
		Tags:        []string{"search"},
		Icon:        "globe",
		IconColor:   "#10B981",
		Body:        "# Web Research\n\nAlways cite sources.\n",
	}
	require.NoError(t, repo.Save(in))

	got, err := repo.Get("web-research")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, repo.Delete("web-research"))
	_, err = repo.Get("web-research")
	assert.ErrorIs(t, err, ErrNotFound)
}
