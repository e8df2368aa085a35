package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/models"
	testdb "github.com/kumiai-dev/kumiai/test/database"
)

func TestProjectService_CreateProject(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewProjectService(client.Client)
	ctx := context.Background()

	t.Run("creates directory and PROJECT.md", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "workspace")
		proj, err := service.CreateProject(ctx, models.CreateProjectRequest{
			Name:          "Demo",
			Path:          path,
			Description:   "A demo project",
			TeamMemberIDs: []string{"coder", "tester"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Demo", proj.Name)
		assert.Equal(t, []string{"coder", "tester"}, proj.TeamMemberIds)
		assert.Nil(t, proj.PmSessionID)

		data, err := os.ReadFile(filepath.Join(path, "PROJECT.md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "# Demo")
		assert.Contains(t, string(data), "A demo project")
		assert.Contains(t, string(data), "- PM: (unassigned)")
		assert.Contains(t, string(data), "- coder")
	})

	t.Run("creates the pm session in the same transaction", func(t *testing.T) {
		proj, err := service.CreateProject(ctx, models.CreateProjectRequest{
			Name:      "WithPM",
			Path:      filepath.Join(t.TempDir(), "pm-workspace"),
			PMAgentID: "pm-agent",
		})
		require.NoError(t, err)
		require.NotNil(t, proj.PmAgentID)
		assert.Equal(t, "pm-agent", *proj.PmAgentID)
		require.NotNil(t, proj.PmSessionID)

		pm, err := client.Session.Get(ctx, *proj.PmSessionID)
		require.NoError(t, err)
		assert.Equal(t, session.SessionTypePm, pm.SessionType)
		require.NotNil(t, pm.ProjectID)
		assert.Equal(t, proj.ID, *pm.ProjectID)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := service.CreateProject(ctx, models.CreateProjectRequest{Path: t.TempDir()})
		assert.True(t, IsValidationError(err), "missing name")

		_, err = service.CreateProject(ctx, models.CreateProjectRequest{Name: "x"})
		assert.True(t, IsValidationError(err), "missing path")

		_, err = service.CreateProject(ctx, models.CreateProjectRequest{Name: "x", Path: "relative/path"})
		assert.True(t, IsValidationError(err), "relative path")
	})
}

func TestProjectService_UpdateAndDelete(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewProjectService(client.Client)
	ctx := context.Background()

	proj, err := service.CreateProject(ctx, models.CreateProjectRequest{
		Name: "Demo", Path: t.TempDir(),
	})
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		name := "Renamed"
		desc := "new description"
		members := []string{"coder"}
		got, err := service.UpdateProject(ctx, proj.ID, models.UpdateProjectRequest{
			Name:          &name,
			Description:   &desc,
			TeamMemberIDs: &members,
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "new description", got.Description)
		assert.Equal(t, []string{"coder"}, got.TeamMemberIds)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		empty := ""
		_, err := service.UpdateProject(ctx, proj.ID, models.UpdateProjectRequest{Name: &empty})
		assert.True(t, IsValidationError(err))
	})

	t.Run("soft delete hides the project", func(t *testing.T) {
		require.NoError(t, service.DeleteProject(ctx, proj.ID))

		_, err := service.GetProject(ctx, proj.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := service.ListProjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		err = service.DeleteProject(ctx, proj.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestProjectService_AssignAndRemovePM(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewProjectService(client.Client)
	sessions := NewSessionService(client.Client)
	ctx := context.Background()

	proj, err := service.CreateProject(ctx, models.CreateProjectRequest{
		Name: "Demo", Path: t.TempDir(),
	})
	require.NoError(t, err)

	t.Run("assign binds agent and session atomically", func(t *testing.T) {
		pm, err := service.AssignPM(ctx, proj.ID, "pm-agent")
		require.NoError(t, err)
		assert.Equal(t, session.SessionTypePm, pm.SessionType)
		assert.Equal(t, "pm-agent", pm.AgentID)

		got, err := service.GetProject(ctx, proj.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PmSessionID)
		assert.Equal(t, pm.ID, *got.PmSessionID)
		require.NotNil(t, got.PmAgentID)
		assert.Equal(t, "pm-agent", *got.PmAgentID)
	})

	t.Run("second assignment conflicts", func(t *testing.T) {
		_, err := service.AssignPM(ctx, proj.ID, "another-pm")
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("remove retires the pm session", func(t *testing.T) {
		got, err := service.GetProject(ctx, proj.ID)
		require.NoError(t, err)
		pmSessionID := *got.PmSessionID

		require.NoError(t, service.RemovePM(ctx, proj.ID))

		got, err = service.GetProject(ctx, proj.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PmSessionID)
		assert.Nil(t, got.PmAgentID)

		_, err = sessions.GetSession(ctx, pmSessionID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("remove without a pm", func(t *testing.T) {
		err := service.RemovePM(ctx, proj.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty agent id rejected", func(t *testing.T) {
		_, err := service.AssignPM(ctx, proj.ID, "")
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := service.AssignPM(ctx, "missing", "pm-agent")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
