package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/models"
	testdb "github.com/kumiai-dev/kumiai/test/database"
)

func stageOf(sess *ent.Session) string {
	stage, _ := sess.Context[models.KanbanStageKey].(string)
	return stage
}

func TestSessionService_CreateSession(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	ctx := context.Background()

	t.Run("defaults to an assistant session in backlog", func(t *testing.T) {
		sess, err := service.CreateSession(ctx, models.CreateSessionRequest{})
		require.NoError(t, err)
		assert.Equal(t, session.SessionTypeAssistant, sess.SessionType)
		assert.Equal(t, session.StatusInitializing, sess.Status)
		assert.Equal(t, models.KanbanBacklog, stageOf(sess))
		assert.NotEmpty(t, sess.ID)
	})

	t.Run("preserves caller context keys", func(t *testing.T) {
		sess, err := service.CreateSession(ctx, models.CreateSessionRequest{
			SessionType: models.SessionTypeAssistant,
			Context:     map[string]interface{}{"task_description": "triage"},
		})
		require.NoError(t, err)
		assert.Equal(t, "triage", sess.Context["task_description"])
		assert.Equal(t, models.KanbanBacklog, stageOf(sess))
	})

	t.Run("unknown session type rejected", func(t *testing.T) {
		_, err := service.CreateSession(ctx, models.CreateSessionRequest{SessionType: "manager"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("pm session requires a project", func(t *testing.T) {
		_, err := service.CreateSession(ctx, models.CreateSessionRequest{SessionType: models.SessionTypePM})
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown project rejected", func(t *testing.T) {
		_, err := service.CreateSession(ctx, models.CreateSessionRequest{
			SessionType: models.SessionTypeSpecialist,
			AgentID:     "coder",
			ProjectID:   "no-such-project",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessionService_GetAndList(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	projects := NewProjectService(client.Client)
	ctx := context.Background()

	proj, err := projects.CreateProject(ctx, models.CreateProjectRequest{
		Name: "demo", Path: t.TempDir(),
	})
	require.NoError(t, err)

	inProject, err := service.CreateSession(ctx, models.CreateSessionRequest{
		SessionType: models.SessionTypeSpecialist,
		AgentID:     "coder",
		ProjectID:   proj.ID,
	})
	require.NoError(t, err)
	standalone, err := service.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)

	t.Run("get by id", func(t *testing.T) {
		got, err := service.GetSession(ctx, inProject.ID)
		require.NoError(t, err)
		assert.Equal(t, inProject.ID, got.ID)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := service.GetSession(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("filter by project", func(t *testing.T) {
		got, err := service.ListSessions(ctx, models.SessionFilter{ProjectID: proj.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, inProject.ID, got[0].ID)
	})

	t.Run("filter by type", func(t *testing.T) {
		got, err := service.ListSessions(ctx, models.SessionFilter{SessionType: models.SessionTypeAssistant})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, standalone.ID, got[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		got, err := service.ListSessions(ctx, models.SessionFilter{Status: models.StatusInitializing})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestSessionService_LatestPMSession(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	projects := NewProjectService(client.Client)
	ctx := context.Background()

	proj, err := projects.CreateProject(ctx, models.CreateProjectRequest{
		Name: "demo", Path: t.TempDir(),
	})
	require.NoError(t, err)

	t.Run("no pm yet", func(t *testing.T) {
		_, err := service.LatestPMSession(ctx, proj.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("finds the pm session", func(t *testing.T) {
		pm, err := projects.AssignPM(ctx, proj.ID, "pm-agent")
		require.NoError(t, err)

		got, err := service.LatestPMSession(ctx, proj.ID)
		require.NoError(t, err)
		assert.Equal(t, pm.ID, got.ID)
	})
}

func TestSessionService_TransitionStatus(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	ctx := context.Background()

	newSession := func(t *testing.T) *ent.Session {
		sess, err := service.CreateSession(ctx, models.CreateSessionRequest{})
		require.NoError(t, err)
		return sess
	}

	t.Run("valid transitions update the kanban stage", func(t *testing.T) {
		sess := newSession(t)

		got, err := service.TransitionStatus(ctx, sess.ID, models.StatusIdle)
		require.NoError(t, err)
		assert.Equal(t, session.StatusIdle, got.Status)
		assert.Equal(t, models.KanbanWaiting, stageOf(got))

		got, err = service.TransitionStatus(ctx, sess.ID, models.StatusWorking)
		require.NoError(t, err)
		assert.Equal(t, models.KanbanActive, stageOf(got))

		got, err = service.TransitionStatus(ctx, sess.ID, models.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, models.KanbanDone, stageOf(got))
	})

	t.Run("invalid transition rejected", func(t *testing.T) {
		sess := newSession(t)
		_, err := service.TransitionStatus(ctx, sess.ID, models.StatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		sess := newSession(t)
		got, err := service.TransitionStatus(ctx, sess.ID, models.StatusInitializing)
		require.NoError(t, err)
		assert.Equal(t, session.StatusInitializing, got.Status)
	})

	t.Run("error message set and cleared", func(t *testing.T) {
		sess := newSession(t)
		_, err := service.TransitionStatus(ctx, sess.ID, models.StatusIdle)
		require.NoError(t, err)
		_, err = service.TransitionStatus(ctx, sess.ID, models.StatusWorking)
		require.NoError(t, err)

		got, err := service.SetStatusError(ctx, sess.ID, "subprocess died")
		require.NoError(t, err)
		assert.Equal(t, session.StatusError, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, "subprocess died", *got.ErrorMessage)
		assert.Equal(t, models.KanbanWaiting, stageOf(got))

		got, err = service.TransitionStatus(ctx, sess.ID, models.StatusIdle)
		require.NoError(t, err)
		assert.Nil(t, got.ErrorMessage)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := service.TransitionStatus(ctx, "missing", models.StatusIdle)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSessionService_UpdateKanbanStage(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	ctx := context.Background()

	sess, err := service.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)

	t.Run("moves the card without touching status", func(t *testing.T) {
		got, err := service.UpdateKanbanStage(ctx, sess.ID, models.KanbanActive)
		require.NoError(t, err)
		assert.Equal(t, models.KanbanActive, stageOf(got))
		assert.Equal(t, session.StatusInitializing, got.Status)
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		_, err := service.UpdateKanbanStage(ctx, sess.ID, "parking-lot")
		assert.True(t, IsValidationError(err))
	})
}

func TestSessionService_ResetForRecreate(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	ctx := context.Background()

	sess, err := service.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)
	_, err = service.TransitionStatus(ctx, sess.ID, models.StatusIdle)
	require.NoError(t, err)
	_, err = service.TransitionStatus(ctx, sess.ID, models.StatusWorking)
	require.NoError(t, err)
	require.NoError(t, service.SetExternalSessionID(ctx, sess.ID, "ext-1"))
	_, err = service.SetStatusError(ctx, sess.ID, "stream broke")
	require.NoError(t, err)

	got, err := service.ResetForRecreate(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusIdle, got.Status)
	assert.Nil(t, got.ExternalSessionID)
	assert.Nil(t, got.ErrorMessage)
	assert.Equal(t, models.KanbanWaiting, stageOf(got))
}

func TestSessionService_DeleteSession(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewSessionService(client.Client)
	ctx := context.Background()

	sess, err := service.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)
	require.NoError(t, service.DeleteSession(ctx, sess.ID))

	t.Run("tombstoned session is hidden", func(t *testing.T) {
		_, err := service.GetSession(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := service.ListSessions(ctx, models.SessionFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("still reachable when deleted rows are included", func(t *testing.T) {
		got, err := service.GetSessionIncludeDeleted(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusCancelled, got.Status)
		assert.NotNil(t, got.DeletedAt)
		assert.Equal(t, models.KanbanDone, stageOf(got))

		exists, err := service.SessionExists(ctx, sess.ID, false)
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = service.SessionExists(ctx, sess.ID, true)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("no transitions after deletion", func(t *testing.T) {
		_, err := service.TransitionStatus(ctx, sess.ID, models.StatusIdle)
		assert.True(t, errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition))
	})

	t.Run("deleting twice", func(t *testing.T) {
		err := service.DeleteSession(ctx, sess.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
