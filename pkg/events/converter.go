package events

import (
	"encoding/json"
	"strings"

	"github.com/kumiai-dev/kumiai/pkg/claude"
)

// Convert maps one raw client message to zero or more domain events.
// Conversion is pure: no IO, no state. Text blocks inside a complete
// AssistantMessage are skipped because their content was already streamed;
// tool-use blocks are taken from the complete message because streaming
// deltas may carry partial tool input.
func Convert(msg claude.Message) []Event {
	switch m := msg.(type) {
	case claude.StreamEvent:
		return convertStreamEvent(m)

	case claude.AssistantMessage:
		if m.Error != "" {
			return []Event{Error{Message: m.Error, ErrorType: "client_error"}}
		}
		var out []Event
		for _, block := range m.Content {
			switch block.Type {
			case claude.BlockToolUse:
				out = append(out, ToolUse{
					ToolUseID: block.ID,
					ToolName:  block.Name,
					ToolInput: block.Input,
				})
			case claude.BlockToolResult:
				out = append(out, ToolComplete{
					ToolUseID: block.ToolUseID,
					Result:    flattenToolResult(block.Content),
					IsError:   block.IsError,
				})
			}
		}
		return out

	default:
		// UserMessage, SystemMessage, ResultMessage: nothing for the UI.
		return nil
	}
}

func convertStreamEvent(ev claude.StreamEvent) []Event {
	switch ev.Type {
	case claude.EventMessageStart:
		return []Event{MessageStart{}}

	case claude.EventContentBlockDelta:
		if ev.Delta.Type == claude.DeltaText && ev.Delta.Text != "" {
			return []Event{StreamDelta{ContentIndex: ev.Index, Text: ev.Delta.Text}}
		}
		return nil

	case claude.EventContentBlockStop:
		return []Event{ContentBlockStop{ContentIndex: ev.Index}}

	case claude.EventMessageDelta:
		if ev.Delta.StopReason == claude.StopReasonEndTurn {
			return []Event{MessageComplete{}}
		}
		// stop_reason tool_use: more turns coming.
		return nil

	default:
		// content_block_start and message_stop produce nothing.
		return nil
	}
}

// flattenToolResult renders a tool result's content as plain text. The wire
// value is either a string or an array of content blocks.
func flattenToolResult(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []claude.ContentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		parts := make([]string, 0, len(blocks))
		for _, b := range blocks {
			if b.Text != "" {
				parts = append(parts, b.Text)
			}
		}
		return strings.Join(parts, "\n")
	}
	return string(raw)
}
