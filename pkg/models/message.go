package models

// Message roles.
const (
	RoleUser       = "user"
	RoleAssistant  = "assistant"
	RoleToolCall   = "tool_call"
	RoleToolResult = "tool_result"
	RoleSystem     = "system"
)

// CreateMessageRequest is the payload for persisting a message on a session.
type CreateMessageRequest struct {
	SessionID      string                 `json:"session_id"`
	Role           string                 `json:"role"`
	Content        string                 `json:"content"`
	ToolUseID      string                 `json:"tool_use_id,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	AgentID        string                 `json:"agent_id,omitempty"`
	AgentName      string                 `json:"agent_name,omitempty"`
	FromInstanceID string                 `json:"from_instance_id,omitempty"`
	ResponseID     string                 `json:"response_id,omitempty"`
}

// EnqueueRequest carries a message into a session's queue. Sender fields are
// set when another session (or a system task) is the author.
type EnqueueRequest struct {
	Content         string `json:"content"`
	SenderName      string `json:"sender_name,omitempty"`
	SenderSessionID string `json:"sender_session_id,omitempty"`
	SenderAgentID   string `json:"sender_agent_id,omitempty"`
	ResponseID      string `json:"response_id,omitempty"`
}
