package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent/message"
	"github.com/kumiai-dev/kumiai/pkg/models"
	testdb "github.com/kumiai-dev/kumiai/test/database"
)

func TestMessageService(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewMessageService(client.Client)
	sessions := NewSessionService(client.Client)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)

	t.Run("create with attribution", func(t *testing.T) {
		msg, err := service.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID:      sess.ID,
			Role:           models.RoleUser,
			Content:        "please review",
			AgentName:      "Coder",
			FromInstanceID: "sess-other",
		})
		require.NoError(t, err)
		assert.Equal(t, message.RoleUser, msg.Role)
		assert.Equal(t, "please review", msg.Content)
		require.NotNil(t, msg.AgentName)
		assert.Equal(t, "Coder", *msg.AgentName)
		require.NotNil(t, msg.FromInstanceID)
		assert.Equal(t, "sess-other", *msg.FromInstanceID)
	})

	t.Run("list is oldest first", func(t *testing.T) {
		_, err := service.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sess.ID,
			Role:      models.RoleAssistant,
			Content:   "on it",
		})
		require.NoError(t, err)

		msgs, err := service.ListMessages(ctx, sess.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "please review", msgs[0].Content)
		assert.Equal(t, "on it", msgs[1].Content)

		count, err := service.CountMessages(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("delete all", func(t *testing.T) {
		deleted, err := service.DeleteAllMessages(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)

		msgs, err := service.ListMessages(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := service.CreateMessage(ctx, models.CreateMessageRequest{Role: models.RoleUser})
		assert.True(t, IsValidationError(err), "missing session_id")

		_, err = service.CreateMessage(ctx, models.CreateMessageRequest{SessionID: sess.ID})
		assert.True(t, IsValidationError(err), "missing role")

		_, err = service.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: "missing",
			Role:      models.RoleUser,
			Content:   "hi",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestActivityService(t *testing.T) {
	client := testdb.NewTestClient(t)
	service := NewActivityService(client.Client, testLogger())
	sessions := NewSessionService(client.Client)
	ctx := context.Background()

	sess, err := sessions.CreateSession(ctx, models.CreateSessionRequest{})
	require.NoError(t, err)

	service.LogEvent(ctx, sess.ID, "session_created", map[string]interface{}{"session_type": "assistant"})
	service.LogEvent(ctx, sess.ID, "message_enqueued", nil)
	service.LogEvent(ctx, "", "server_started", nil)

	t.Run("lists a session's events oldest first", func(t *testing.T) {
		rows, err := service.ListBySession(ctx, sess.ID, 0)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "session_created", rows[0].EventType)
		assert.Equal(t, "message_enqueued", rows[1].EventType)
		assert.Equal(t, "assistant", rows[0].EventData["session_type"])
	})

	t.Run("limit caps the result", func(t *testing.T) {
		rows, err := service.ListBySession(ctx, sess.ID, 1)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("logging never surfaces errors", func(t *testing.T) {
		service.LogEvent(ctx, "missing", "orphan_event", nil)
	})
}
