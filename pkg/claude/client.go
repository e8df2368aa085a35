package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultConnectTimeout bounds how long Connect waits for the subprocess's
// init event.
const DefaultConnectTimeout = 30 * time.Second

const eventBufferSize = 256

// wireEvent is the raw NDJSON envelope emitted by the subprocess.
type wireEvent struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Result    string          `json:"result,omitempty"`
}

// stdinUserMessage is the JSON format for sending user messages to the
// subprocess's stdin.
type stdinUserMessage struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	Message   stdinMessageInner `json:"message"`
}

type stdinMessageInner struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

type controlRequest struct {
	Type      string              `json:"type"`
	RequestID string              `json:"request_id"`
	Request   controlRequestInner `json:"request"`
}

type controlRequestInner struct {
	Subtype string `json:"subtype"`
}

// Client owns one LLM subprocess: it launches the binary with stream-json
// stdio, parses its NDJSON output into Message variants, and accepts user
// messages and control requests on stdin.
type Client struct {
	cfg            ClientConfig
	binary         string
	logger         *slog.Logger
	connectTimeout time.Duration

	mu      sync.Mutex
	stdinMu sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	cancel  context.CancelFunc
	stderr  *bytes.Buffer

	events    chan Message
	ready     chan struct{}
	readyErr  error
	readyOnce sync.Once
	closing   chan struct{}
	closeOnce sync.Once
	exited    chan struct{}
	exitErr   error

	externalID string
}

// NewClient constructs a client; Connect must be called before use.
func NewClient(cfg ClientConfig, binary string, logger *slog.Logger) *Client {
	if binary == "" {
		binary = "claude"
	}
	return &Client{
		cfg:            cfg,
		binary:         binary,
		logger:         logger,
		connectTimeout: DefaultConnectTimeout,
		events:         make(chan Message, eventBufferSize),
		ready:          make(chan struct{}),
		closing:        make(chan struct{}),
		exited:         make(chan struct{}),
	}
}

func (c *Client) buildArgs() ([]string, error) {
	args := []string{
		"--output-format", "stream-json",
		"--verbose",
		"--input-format", "stream-json",
		"--include-partial-messages",
		"--permission-mode", "bypassPermissions",
	}
	if c.cfg.Model != "" {
		args = append(args, "--model", c.cfg.Model)
	}
	if c.cfg.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", c.cfg.SystemPrompt)
	}
	if len(c.cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(c.cfg.AllowedTools, ","))
	}
	if len(c.cfg.ToolServers) > 0 {
		mcpJSON, err := json.Marshal(map[string]interface{}{"mcpServers": c.cfg.ToolServers})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal tool servers: %w", err)
		}
		args = append(args, "--mcp-config", string(mcpJSON))
	}
	if c.cfg.ResumeToken != "" {
		args = append(args, "--resume", c.cfg.ResumeToken)
	}
	return args, nil
}

// Connect launches the subprocess and waits for its init event. It fails if
// the event does not arrive within the connect timeout, and returns a
// ResumeError when a stale resume token is the cause.
func (c *Client) Connect(ctx context.Context) error {
	args, err := c.buildArgs()
	if err != nil {
		return err
	}

	// Detach the process lifetime from the request context; the client is
	// torn down explicitly via Disconnect.
	cmdCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(cmdCtx, c.binary, args...)
	cmd.Dir = c.cfg.WorkingDir

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start %s: %w", c.binary, err)
	}

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdinPipe
	c.cancel = cancel
	c.stderr = stderr
	c.mu.Unlock()

	go c.readLoop(stdoutPipe, cmd)

	select {
	case <-c.ready:
		if c.readyErr != nil {
			c.teardown()
			return classifyConnectError(c.readyErr)
		}
		return nil
	case <-c.exited:
		return classifyConnectError(fmt.Errorf("subprocess exited before init: %v", c.exitErr))
	case <-time.After(c.connectTimeout):
		c.teardown()
		return fmt.Errorf("connect timed out after %s", c.connectTimeout)
	case <-ctx.Done():
		c.teardown()
		return ctx.Err()
	}
}

func (c *Client) signalReady(err error) {
	c.readyOnce.Do(func() {
		c.readyErr = err
		close(c.ready)
	})
}

// readLoop parses NDJSON lines from stdout until the process exits, then
// closes the event channel.
func (c *Client) readLoop(stdout io.Reader, cmd *exec.Cmd) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev wireEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			c.logger.Warn("failed to parse subprocess line", "error", err)
			continue
		}

		if ev.SessionID != "" && !ev.IsError {
			c.mu.Lock()
			c.externalID = ev.SessionID
			c.mu.Unlock()
		}

		if ev.Type == "system" && ev.Subtype == "init" {
			c.signalReady(nil)
		}
		if ev.Type == "result" && ev.IsError {
			detail := strings.Join(ev.Errors, "; ")
			if detail == "" {
				detail = ev.Result
			}
			c.signalReady(fmt.Errorf("subprocess reported error: %s", detail))
		}

		msg, ok := c.parseWire(ev)
		if !ok {
			continue
		}
		// Once teardown has started nothing drains events anymore; the
		// message is dropped so the loop can reach EOF and reap the process.
		select {
		case c.events <- msg:
		case <-c.closing:
		}
	}

	close(c.events)

	err := cmd.Wait()
	c.mu.Lock()
	if exitErr, ok := err.(*exec.ExitError); ok {
		tail := ""
		if c.stderr != nil {
			tail = lastLines(c.stderr.String(), 5)
		}
		c.exitErr = fmt.Errorf("subprocess exit code %d: %s", exitErr.ExitCode(), tail)
	} else if err != nil {
		c.exitErr = err
	}
	exitErr := c.exitErr
	c.stdin = nil
	c.mu.Unlock()

	close(c.exited)
	if exitErr != nil {
		c.signalReady(exitErr)
	} else {
		c.signalReady(fmt.Errorf("subprocess exited before init"))
	}
}

// parseWire normalizes a wire envelope into a Message variant. Result lines
// carrying an error and user lines carrying tool results are both folded
// into AssistantMessage so downstream conversion matches one shape.
func (c *Client) parseWire(ev wireEvent) (Message, bool) {
	switch ev.Type {
	case "stream_event":
		var inner struct {
			Type         string        `json:"type"`
			Index        int           `json:"index"`
			Delta        Delta         `json:"delta"`
			ContentBlock *ContentBlock `json:"content_block"`
		}
		if err := json.Unmarshal(ev.Event, &inner); err != nil {
			c.logger.Warn("failed to parse stream event", "error", err)
			return nil, false
		}
		return StreamEvent{
			Type:         inner.Type,
			Index:        inner.Index,
			Delta:        inner.Delta,
			ContentBlock: inner.ContentBlock,
			SessionID:    ev.SessionID,
		}, true

	case "assistant":
		blocks, err := parseContentBlocks(ev.Message)
		if err != nil {
			c.logger.Warn("failed to parse assistant message", "error", err)
			return nil, false
		}
		return AssistantMessage{Content: blocks, SessionID: ev.SessionID}, true

	case "user":
		blocks, err := parseContentBlocks(ev.Message)
		if err != nil {
			c.logger.Warn("failed to parse user message", "error", err)
			return nil, false
		}
		for _, b := range blocks {
			if b.Type == BlockToolResult {
				return AssistantMessage{Content: blocks, SessionID: ev.SessionID}, true
			}
		}
		return UserMessage{Content: blocks, SessionID: ev.SessionID}, true

	case "system":
		return SystemMessage{Subtype: ev.Subtype, SessionID: ev.SessionID, Raw: ev.Event}, true

	case "result":
		if ev.IsError {
			detail := strings.Join(ev.Errors, "; ")
			if detail == "" {
				detail = ev.Result
			}
			return AssistantMessage{Error: detail, SessionID: ev.SessionID}, true
		}
		return ResultMessage{Result: ev.Result, SessionID: ev.SessionID}, true

	default:
		c.logger.Debug("ignoring unknown subprocess event", "type", ev.Type)
		return nil, false
	}
}

func parseContentBlocks(raw json.RawMessage) ([]ContentBlock, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var msg struct {
		Content []ContentBlock `json:"content"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return msg.Content, nil
}

// Query writes a user message to the subprocess's stdin.
func (c *Client) Query(ctx context.Context, content string) error {
	if !c.IsAlive() {
		return fmt.Errorf("client is not connected")
	}
	c.mu.Lock()
	sid := c.externalID
	c.mu.Unlock()

	msg := stdinUserMessage{
		Type:      "user",
		SessionID: sid,
		Message: stdinMessageInner{
			Role:    "user",
			Content: []ContentBlock{{Type: BlockText, Text: content}},
		},
	}
	return c.writeStdin(msg)
}

// Interrupt asks the subprocess to abort the current turn. The subprocess is
// not reliable after an interrupt; callers evict the client afterwards.
func (c *Client) Interrupt(ctx context.Context) error {
	if !c.IsAlive() {
		return nil
	}
	req := controlRequest{
		Type:      "control_request",
		RequestID: uuid.New().String(),
		Request:   controlRequestInner{Subtype: "interrupt"},
	}
	return c.writeStdin(req)
}

func (c *Client) writeStdin(v interface{}) error {
	c.stdinMu.Lock()
	defer c.stdinMu.Unlock()

	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()
	if stdin == nil {
		return fmt.Errorf("stdin is closed")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal stdin message: %w", err)
	}
	data = append(data, '\n')
	if _, err := stdin.Write(data); err != nil {
		return fmt.Errorf("failed to write to stdin: %w", err)
	}
	return nil
}

// ReceiveMessages returns the channel of parsed subprocess messages. The
// channel is closed when the subprocess exits.
func (c *Client) ReceiveMessages() <-chan Message {
	return c.events
}

// IsAlive reports whether the subprocess is still running.
func (c *Client) IsAlive() bool {
	select {
	case <-c.exited:
		return false
	default:
		return true
	}
}

// ExternalSessionID returns the resume token reported by the subprocess, or
// empty if none was observed yet.
func (c *Client) ExternalSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.externalID
}

// Disconnect tears the subprocess down. Best effort: it never returns an
// error to the caller.
func (c *Client) Disconnect() {
	c.teardown()
	select {
	case <-c.exited:
	case <-time.After(5 * time.Second):
		c.logger.Warn("subprocess did not exit within 5s of disconnect")
	}
}

func (c *Client) teardown() {
	c.closeOnce.Do(func() { close(c.closing) })

	c.mu.Lock()
	stdin := c.stdin
	cancel := c.cancel
	c.mu.Unlock()

	if stdin != nil {
		_ = stdin.Close()
	}
	if cancel != nil {
		cancel()
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
