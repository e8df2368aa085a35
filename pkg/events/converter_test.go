package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/pkg/claude"
)

func TestConvert_StreamEvents(t *testing.T) {
	tests := []struct {
		name string
		in   claude.StreamEvent
		want []Event
	}{
		{
			name: "message_start",
			in:   claude.StreamEvent{Type: claude.EventMessageStart},
			want: []Event{MessageStart{}},
		},
		{
			name: "text delta",
			in: claude.StreamEvent{
				Type:  claude.EventContentBlockDelta,
				Index: 2,
				Delta: claude.Delta{Type: claude.DeltaText, Text: "hello"},
			},
			want: []Event{StreamDelta{ContentIndex: 2, Text: "hello"}},
		},
		{
			name: "empty text delta dropped",
			in: claude.StreamEvent{
				Type:  claude.EventContentBlockDelta,
				Delta: claude.Delta{Type: claude.DeltaText, Text: ""},
			},
			want: nil,
		},
		{
			name: "input_json delta dropped",
			in: claude.StreamEvent{
				Type:  claude.EventContentBlockDelta,
				Delta: claude.Delta{Type: claude.DeltaInputJSON, Text: `{"a":`},
			},
			want: nil,
		},
		{
			name: "content_block_stop",
			in:   claude.StreamEvent{Type: claude.EventContentBlockStop, Index: 1},
			want: []Event{ContentBlockStop{ContentIndex: 1}},
		},
		{
			name: "message_delta end_turn completes the message",
			in: claude.StreamEvent{
				Type:  claude.EventMessageDelta,
				Delta: claude.Delta{StopReason: claude.StopReasonEndTurn},
			},
			want: []Event{MessageComplete{}},
		},
		{
			name: "message_delta tool_use is not a completion",
			in: claude.StreamEvent{
				Type:  claude.EventMessageDelta,
				Delta: claude.Delta{StopReason: claude.StopReasonToolUse},
			},
			want: nil,
		},
		{
			name: "content_block_start produces nothing",
			in:   claude.StreamEvent{Type: claude.EventContentBlockStart},
			want: nil,
		},
		{
			name: "message_stop produces nothing",
			in:   claude.StreamEvent{Type: claude.EventMessageStop},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Convert(tt.in))
		})
	}
}

func TestConvert_AssistantMessage(t *testing.T) {
	t.Run("tool_use blocks become ToolUse events", func(t *testing.T) {
		msg := claude.AssistantMessage{
			Content: []claude.ContentBlock{
				{Type: claude.BlockText, Text: "already streamed"},
				{Type: claude.BlockToolUse, ID: "tu_1", Name: "contact_pm", Input: map[string]interface{}{"message": "hi"}},
			},
		}

		out := Convert(msg)
		require.Len(t, out, 1)
		tu, ok := out[0].(ToolUse)
		require.True(t, ok)
		assert.Equal(t, "tu_1", tu.ToolUseID)
		assert.Equal(t, "contact_pm", tu.ToolName)
		assert.Equal(t, map[string]interface{}{"message": "hi"}, tu.ToolInput)
	})

	t.Run("tool_result blocks become ToolComplete events", func(t *testing.T) {
		msg := claude.AssistantMessage{
			Content: []claude.ContentBlock{
				{Type: claude.BlockToolResult, ToolUseID: "tu_1", Content: json.RawMessage(`"done"`), IsError: false},
			},
		}

		out := Convert(msg)
		require.Len(t, out, 1)
		tc, ok := out[0].(ToolComplete)
		require.True(t, ok)
		assert.Equal(t, "tu_1", tc.ToolUseID)
		assert.Equal(t, "done", tc.Result)
		assert.False(t, tc.IsError)
	})

	t.Run("error field wins over content", func(t *testing.T) {
		msg := claude.AssistantMessage{
			Error:   "stream broke",
			Content: []claude.ContentBlock{{Type: claude.BlockText, Text: "partial"}},
		}

		out := Convert(msg)
		require.Len(t, out, 1)
		errEv, ok := out[0].(Error)
		require.True(t, ok)
		assert.Equal(t, "stream broke", errEv.Message)
		assert.Equal(t, "client_error", errEv.ErrorType)
	})

	t.Run("text-only message produces nothing", func(t *testing.T) {
		msg := claude.AssistantMessage{
			Content: []claude.ContentBlock{{Type: claude.BlockText, Text: "streamed already"}},
		}
		assert.Empty(t, Convert(msg))
	})
}

func TestConvert_IgnoredMessages(t *testing.T) {
	assert.Nil(t, Convert(claude.UserMessage{}))
	assert.Nil(t, Convert(claude.SystemMessage{Subtype: "init"}))
	assert.Nil(t, Convert(claude.ResultMessage{Result: "ok"}))
}

func TestFlattenToolResult(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"plain string", `"hello"`, "hello"},
		{"block array", `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`, "a\nb"},
		{"unparseable falls back to raw", `{"odd":true}`, `{"odd":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flattenToolResult(json.RawMessage(tt.raw)))
		})
	}
}
