// Package tools exposes the in-process tool servers callable from inside an
// LLM session: inter-session messaging, PM project management, and agent and
// skill editing.
package tools

import (
	"context"
	"net/http"
)

// CallContext identifies the session behind a tool call. It is resolved
// from the request and passed explicitly; tools never guess their caller.
type CallContext struct {
	SessionID   string
	SessionType string
	AgentID     string
	ProjectID   string
}

type sessionIDKey struct{}

// HTTPContextFunc extracts the calling session id from the per-session tool
// server URL and stores it in the request context.
func HTTPContextFunc(ctx context.Context, r *http.Request) context.Context {
	if sid := r.URL.Query().Get("session"); sid != "" {
		return context.WithValue(ctx, sessionIDKey{}, sid)
	}
	return ctx
}

func sessionIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionIDKey{}).(string)
	return sid
}
