package tools

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func sessionContext(sid string) context.Context {
	r := httptest.NewRequest("POST", "/mcp/common_tools?session="+sid, nil)
	return HTTPContextFunc(context.Background(), r)
}

func TestDispatcher_ResolvesCallerAndRunsHandler(t *testing.T) {
	d := NewDispatcher(func(_ context.Context, sessionID string) (CallContext, error) {
		return CallContext{SessionID: sessionID, SessionType: "pm", ProjectID: "proj-1"}, nil
	}, slog.Default())

	var got CallContext
	h := d.Wrap("common_tools", "noop", func(_ context.Context, cc CallContext, _ map[string]interface{}) (string, error) {
		got = cc
		return "ok", nil
	})

	res, err := h(sessionContext("s1"), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", resultText(t, res))
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "proj-1", got.ProjectID)
}

func TestDispatcher_MissingSessionIdentity(t *testing.T) {
	d := NewDispatcher(func(context.Context, string) (CallContext, error) {
		t.Fatal("resolve should not be called")
		return CallContext{}, nil
	}, slog.Default())

	h := d.Wrap("common_tools", "noop", func(context.Context, CallContext, map[string]interface{}) (string, error) {
		return "ok", nil
	})

	res, err := h(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "✗ Error: missing session identity", resultText(t, res))
}

func TestDispatcher_UnknownSession(t *testing.T) {
	d := NewDispatcher(func(context.Context, string) (CallContext, error) {
		return CallContext{}, errors.New("no such session")
	}, slog.Default())

	h := d.Wrap("common_tools", "noop", func(context.Context, CallContext, map[string]interface{}) (string, error) {
		return "ok", nil
	})

	res, err := h(sessionContext("ghost"), callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "✗ Error: unknown calling session")
}

func TestDispatcher_PMProjectHook(t *testing.T) {
	d := NewDispatcher(func(_ context.Context, sessionID string) (CallContext, error) {
		return CallContext{SessionID: sessionID, SessionType: "pm", ProjectID: "proj-1"}, nil
	}, slog.Default())

	t.Run("pm_management calls get the caller's project_id", func(t *testing.T) {
		h := d.Wrap("pm_management", "spawn_instance", func(_ context.Context, _ CallContext, args map[string]interface{}) (string, error) {
			return args["project_id"].(string), nil
		})
		res, err := h(sessionContext("s1"), callRequest(map[string]interface{}{"project_id": "forged"}))
		require.NoError(t, err)
		assert.Equal(t, "proj-1", resultText(t, res))
	})

	t.Run("other servers are untouched", func(t *testing.T) {
		h := d.Wrap("common_tools", "remind", func(_ context.Context, _ CallContext, args map[string]interface{}) (string, error) {
			_, present := args["project_id"]
			if present {
				return "injected", nil
			}
			return "clean", nil
		})
		res, err := h(sessionContext("s1"), callRequest(map[string]interface{}{}))
		require.NoError(t, err)
		assert.Equal(t, "clean", resultText(t, res))
	})
}

func TestDispatcher_HandlerErrorRenderedAsText(t *testing.T) {
	d := NewDispatcher(func(_ context.Context, sessionID string) (CallContext, error) {
		return CallContext{SessionID: sessionID}, nil
	}, slog.Default())

	h := d.Wrap("common_tools", "remind", func(context.Context, CallContext, map[string]interface{}) (string, error) {
		return "", errors.New("delay_seconds must be an integer between 1 and 86400")
	})

	res, err := h(sessionContext("s1"), callRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "✗ Error: delay_seconds must be an integer between 1 and 86400", resultText(t, res))
}

func TestHTTPContextFunc(t *testing.T) {
	t.Run("session query param extracted", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/mcp/common_tools?session=abc", nil)
		ctx := HTTPContextFunc(context.Background(), r)
		assert.Equal(t, "abc", sessionIDFrom(ctx))
	})

	t.Run("absent param leaves context empty", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/mcp/common_tools", nil)
		ctx := HTTPContextFunc(context.Background(), r)
		assert.Empty(t, sessionIDFrom(ctx))
	})
}
