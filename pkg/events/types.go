// Package events defines the domain events flowing from the session
// executor to SSE subscribers, the converter that produces them from raw
// client messages, and the per-session broadcast fabric.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// SSE event type names.
const (
	TypeMessageStart     = "message_start"
	TypeStreamDelta      = "stream_delta"
	TypeContentBlockStop = "content_block_stop"
	TypeToolUse          = "tool_use"
	TypeToolComplete     = "tool_complete"
	TypeMessageComplete  = "message_complete"
	TypeUserMessage      = "user_message"
	TypeError            = "error"
	TypePing             = "ping"
)

// Event is one domain event. The set of implementations is closed.
type Event interface {
	EventType() string
	payload() map[string]interface{}
}

// MessageStart opens an assistant turn.
type MessageStart struct{}

func (MessageStart) EventType() string               { return TypeMessageStart }
func (MessageStart) payload() map[string]interface{} { return map[string]interface{}{} }

// StreamDelta carries one chunk of streamed assistant text.
type StreamDelta struct {
	ContentIndex int
	Text         string
}

func (StreamDelta) EventType() string { return TypeStreamDelta }
func (e StreamDelta) payload() map[string]interface{} {
	return map[string]interface{}{
		"content":       e.Text,
		"content_index": e.ContentIndex,
	}
}

// ContentBlockStop closes one streamed content block.
type ContentBlockStop struct {
	ContentIndex int
}

func (ContentBlockStop) EventType() string { return TypeContentBlockStop }
func (e ContentBlockStop) payload() map[string]interface{} {
	return map[string]interface{}{"content_index": e.ContentIndex}
}

// ToolUse announces a tool invocation with its complete input.
type ToolUse struct {
	ToolUseID  string
	ToolName   string
	ToolInput  map[string]interface{}
	AgentID    string
	AgentName  string
	ResponseID string
}

func (ToolUse) EventType() string { return TypeToolUse }
func (e ToolUse) payload() map[string]interface{} {
	p := map[string]interface{}{
		"tool_use_id": e.ToolUseID,
		"tool_name":   e.ToolName,
		"tool_input":  e.ToolInput,
	}
	if e.AgentID != "" {
		p["agent_id"] = e.AgentID
	}
	if e.AgentName != "" {
		p["agent_name"] = e.AgentName
	}
	if e.ResponseID != "" {
		p["response_id"] = e.ResponseID
	}
	return p
}

// ToolComplete reports a tool result.
type ToolComplete struct {
	ToolUseID string
	Result    string
	IsError   bool
}

func (ToolComplete) EventType() string { return TypeToolComplete }
func (e ToolComplete) payload() map[string]interface{} {
	return map[string]interface{}{
		"tool_use_id": e.ToolUseID,
		"result":      e.Result,
		"is_error":    e.IsError,
	}
}

// MessageComplete closes an assistant turn.
type MessageComplete struct{}

func (MessageComplete) EventType() string               { return TypeMessageComplete }
func (MessageComplete) payload() map[string]interface{} { return map[string]interface{}{} }

// UserMessage mirrors an incoming user or inter-agent message to the UI.
type UserMessage struct {
	MessageID      string
	Content        string
	AgentID        string
	AgentName      string
	FromInstanceID string
	Timestamp      time.Time
}

func (UserMessage) EventType() string { return TypeUserMessage }
func (e UserMessage) payload() map[string]interface{} {
	p := map[string]interface{}{
		"message_id": e.MessageID,
		"content":    e.Content,
		"timestamp":  e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if e.AgentID != "" {
		p["agent_id"] = e.AgentID
	}
	if e.AgentName != "" {
		p["agent_name"] = e.AgentName
	}
	if e.FromInstanceID != "" {
		p["from_instance_id"] = e.FromInstanceID
	}
	return p
}

// Error reports a stream or execution failure.
type Error struct {
	Message   string
	ErrorType string
}

func (Error) EventType() string { return TypeError }
func (e Error) payload() map[string]interface{} {
	p := map[string]interface{}{"error": e.Message}
	if e.ErrorType != "" {
		p["error_type"] = e.ErrorType
	}
	return p
}

// Ping is the SSE keepalive.
type Ping struct{}

func (Ping) EventType() string { return TypePing }
func (Ping) payload() map[string]interface{} {
	return map[string]interface{}{"type": "keepalive"}
}

// EncodeFrame renders an event as an SSE frame. The JSON payload always
// carries the session id.
func EncodeFrame(sessionID string, ev Event) ([]byte, error) {
	p := ev.payload()
	p["session_id"] = sessionID
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.EventType(), data)), nil
}
