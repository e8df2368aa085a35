// Package claude drives an external LLM subprocess over its NDJSON stdio
// protocol: stream-json output on stdout, user messages and control requests
// written to stdin.
package claude

import "encoding/json"

// Message is a parsed line from the subprocess, normalized into one of the
// variants below. The event converter matches on the concrete type.
type Message interface {
	isMessage()
}

// Stream event inner types.
const (
	EventMessageStart      = "message_start"
	EventContentBlockStart = "content_block_start"
	EventContentBlockDelta = "content_block_delta"
	EventContentBlockStop  = "content_block_stop"
	EventMessageDelta      = "message_delta"
	EventMessageStop       = "message_stop"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Delta types and stop reasons.
const (
	DeltaText         = "text_delta"
	DeltaInputJSON    = "input_json_delta"
	StopReasonEndTurn = "end_turn"
	StopReasonToolUse = "tool_use"
)

// StreamEvent is a partial-message streaming event.
type StreamEvent struct {
	Type         string
	Index        int
	Delta        Delta
	ContentBlock *ContentBlock
	SessionID    string
}

// Delta carries incremental content or the turn's stop reason.
type Delta struct {
	Type       string `json:"type,omitempty"`
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// ContentBlock is one element of a message's content array.
type ContentBlock struct {
	Type string `json:"type"`

	// text blocks
	Text string `json:"text,omitempty"`

	// tool_use blocks
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// tool_result blocks
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// AssistantMessage is a complete assistant turn. Tool results arriving on
// the subprocess's user lines are folded in here as well so every block kind
// flows through one variant.
type AssistantMessage struct {
	Content   []ContentBlock
	Error     string
	SessionID string
}

// UserMessage is an echoed user line with no tool results.
type UserMessage struct {
	Content   []ContentBlock
	SessionID string
}

// SystemMessage is a lifecycle notice from the subprocess; subtype "init"
// carries the external session id.
type SystemMessage struct {
	Subtype   string
	SessionID string
	Raw       json.RawMessage
}

// ResultMessage terminates a turn at the subprocess level.
type ResultMessage struct {
	IsError   bool
	Errors    []string
	Result    string
	SessionID string
}

func (StreamEvent) isMessage()      {}
func (AssistantMessage) isMessage() {}
func (UserMessage) isMessage()      {}
func (SystemMessage) isMessage()    {}
func (ResultMessage) isMessage()    {}
