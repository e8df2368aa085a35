package claude

import (
	"encoding/json"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(cfg ClientConfig) *Client {
	return NewClient(cfg, "claude", slog.Default())
}

func TestBuildArgs(t *testing.T) {
	t.Run("base flags always present", func(t *testing.T) {
		c := newTestClient(ClientConfig{})
		args, err := c.buildArgs()
		require.NoError(t, err)
		assert.Equal(t, []string{
			"--output-format", "stream-json",
			"--verbose",
			"--input-format", "stream-json",
			"--include-partial-messages",
			"--permission-mode", "bypassPermissions",
		}, args)
	})

	t.Run("optional flags", func(t *testing.T) {
		c := newTestClient(ClientConfig{
			Model:        "opus",
			SystemPrompt: "You are the PM.",
			AllowedTools: []string{"Read", "mcp__common_tools__contact_pm"},
			ResumeToken:  "ext-123",
			ToolServers: map[string]ToolServerConfig{
				"common_tools": {Type: "http", URL: "http://localhost:8080/mcp/common_tools?session=s1"},
			},
		})
		args, err := c.buildArgs()
		require.NoError(t, err)

		joined := map[string]string{}
		for i := 0; i+1 < len(args); i++ {
			joined[args[i]] = args[i+1]
		}
		assert.Equal(t, "opus", joined["--model"])
		assert.Equal(t, "You are the PM.", joined["--append-system-prompt"])
		assert.Equal(t, "Read,mcp__common_tools__contact_pm", joined["--allowedTools"])
		assert.Equal(t, "ext-123", joined["--resume"])

		var mcpConfig struct {
			McpServers map[string]ToolServerConfig `json:"mcpServers"`
		}
		require.NoError(t, json.Unmarshal([]byte(joined["--mcp-config"]), &mcpConfig))
		require.Contains(t, mcpConfig.McpServers, "common_tools")
		assert.Equal(t, "http://localhost:8080/mcp/common_tools?session=s1", mcpConfig.McpServers["common_tools"].URL)
	})
}

func TestParseWire(t *testing.T) {
	c := newTestClient(ClientConfig{})

	t.Run("stream_event", func(t *testing.T) {
		ev := wireEvent{
			Type:      "stream_event",
			SessionID: "ext-1",
			Event:     json.RawMessage(`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"hi"}}`),
		}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		se, ok := msg.(StreamEvent)
		require.True(t, ok)
		assert.Equal(t, EventContentBlockDelta, se.Type)
		assert.Equal(t, 1, se.Index)
		assert.Equal(t, "hi", se.Delta.Text)
		assert.Equal(t, "ext-1", se.SessionID)
	})

	t.Run("assistant message", func(t *testing.T) {
		ev := wireEvent{
			Type:    "assistant",
			Message: json.RawMessage(`{"content":[{"type":"tool_use","id":"tu1","name":"remind","input":{"delay_seconds":5}}]}`),
		}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		am, ok := msg.(AssistantMessage)
		require.True(t, ok)
		require.Len(t, am.Content, 1)
		assert.Equal(t, BlockToolUse, am.Content[0].Type)
		assert.Equal(t, "remind", am.Content[0].Name)
	})

	t.Run("user line with tool_result folds into AssistantMessage", func(t *testing.T) {
		ev := wireEvent{
			Type:    "user",
			Message: json.RawMessage(`{"content":[{"type":"tool_result","tool_use_id":"tu1","content":"ok"}]}`),
		}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		am, ok := msg.(AssistantMessage)
		require.True(t, ok)
		require.Len(t, am.Content, 1)
		assert.Equal(t, BlockToolResult, am.Content[0].Type)
	})

	t.Run("plain user line stays a UserMessage", func(t *testing.T) {
		ev := wireEvent{
			Type:    "user",
			Message: json.RawMessage(`{"content":[{"type":"text","text":"hello"}]}`),
		}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		_, ok = msg.(UserMessage)
		assert.True(t, ok)
	})

	t.Run("error result becomes AssistantMessage with error", func(t *testing.T) {
		ev := wireEvent{Type: "result", IsError: true, Errors: []string{"boom"}}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		am, ok := msg.(AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, "boom", am.Error)
	})

	t.Run("success result", func(t *testing.T) {
		ev := wireEvent{Type: "result", Result: "done"}
		msg, ok := c.parseWire(ev)
		require.True(t, ok)
		rm, ok := msg.(ResultMessage)
		require.True(t, ok)
		assert.Equal(t, "done", rm.Result)
	})

	t.Run("unknown type is dropped", func(t *testing.T) {
		_, ok := c.parseWire(wireEvent{Type: "telemetry"})
		assert.False(t, ok)
	})
}

func TestReadLoop_UnreadEventsDoNotBlockDisconnect(t *testing.T) {
	c := newTestClient(ClientConfig{})

	// Far more output than the event buffer holds, and no consumer.
	var sb strings.Builder
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"x"}]}}` + "\n"
	for i := 0; i < eventBufferSize+100; i++ {
		sb.WriteString(line)
	}

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())

	done := make(chan struct{})
	go func() {
		c.readLoop(strings.NewReader(sb.String()), cmd)
		close(done)
	}()

	// The loop fills the buffer and blocks on the next send.
	require.Eventually(t, func() bool {
		return len(c.events) == eventBufferSize
	}, 2*time.Second, 10*time.Millisecond)

	c.Disconnect()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not exit after disconnect")
	}
	assert.False(t, c.IsAlive())
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd\ne", lastLines("a\nb\nc\nd\ne\n", 3))
	assert.Equal(t, "a", lastLines("a", 3))
}
