package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"github.com/kumiai-dev/kumiai/pkg/events"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// DefaultReceiveTimeout bounds how long a turn may go without any event
// from the client before the session is failed.
const DefaultReceiveTimeout = 10 * time.Minute

// QueuedMessage is one entry in a session's FIFO queue. The message row is
// persisted at enqueue time; MessageID references it.
type QueuedMessage struct {
	MessageID       string
	Content         string
	SenderName      string
	SenderSessionID string
	SenderAgentID   string
	ResponseID      string
	EnqueuedAt      time.Time
}

// sessionState is the executor's in-memory state for one session. None of
// it is persistent.
type sessionState struct {
	mu          sync.Mutex
	queue       []QueuedMessage
	processing  bool
	cancel      context.CancelFunc
	textBuffers map[int]string
}

// Executor owns the per-session queues and processor goroutines. Within a
// session processing is strictly FIFO and single-threaded; across sessions
// it is fully parallel.
type Executor struct {
	sessions    SessionStore
	messages    MessageStore
	clients     ClientProvider
	builder     ConfigBuilder
	broadcaster *events.Broadcaster
	activity    ActivityLogger
	logger      *slog.Logger

	receiveTimeout time.Duration

	mu      sync.Mutex
	states  map[string]*sessionState
	stopped bool
	wg      sync.WaitGroup
}

// NewExecutor wires an executor. activity may be nil.
func NewExecutor(sessions SessionStore, messages MessageStore, clients ClientProvider, builder ConfigBuilder, broadcaster *events.Broadcaster, activity ActivityLogger, logger *slog.Logger) *Executor {
	return &Executor{
		sessions:       sessions,
		messages:       messages,
		clients:        clients,
		builder:        builder,
		broadcaster:    broadcaster,
		activity:       activity,
		logger:         logger,
		receiveTimeout: DefaultReceiveTimeout,
		states:         make(map[string]*sessionState),
	}
}

// SetReceiveTimeout overrides the stream idle timeout. Intended for tests.
func (e *Executor) SetReceiveTimeout(d time.Duration) {
	e.receiveTimeout = d
}

func (e *Executor) state(sessionID string) *sessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[sessionID]
	if !ok {
		st = &sessionState{textBuffers: make(map[int]string)}
		e.states[sessionID] = st
	}
	return st
}

// Enqueue persists the message, appends it to the session's queue, and
// starts a processor if none is running. It never waits for execution; the
// returned count is the queue size after the append.
func (e *Executor) Enqueue(ctx context.Context, sessionID string, req models.EnqueueRequest) (int, error) {
	if req.Content == "" {
		return 0, fmt.Errorf("content must not be empty")
	}
	if _, err := e.sessions.GetSession(ctx, sessionID); err != nil {
		return 0, err
	}

	msg, err := e.messages.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID:      sessionID,
		Role:           models.RoleUser,
		Content:        req.Content,
		AgentName:      req.SenderName,
		AgentID:        req.SenderAgentID,
		FromInstanceID: req.SenderSessionID,
		ResponseID:     req.ResponseID,
	})
	if err != nil {
		return 0, err
	}

	qm := QueuedMessage{
		MessageID:       msg.ID,
		Content:         req.Content,
		SenderName:      req.SenderName,
		SenderSessionID: req.SenderSessionID,
		SenderAgentID:   req.SenderAgentID,
		ResponseID:      req.ResponseID,
		EnqueuedAt:      msg.CreatedAt,
	}

	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()

	st := e.state(sessionID)
	st.mu.Lock()
	st.queue = append(st.queue, qm)
	size := len(st.queue)
	start := false
	if !st.processing && !stopped {
		st.processing = true
		start = true
	}
	st.mu.Unlock()

	if start {
		e.wg.Add(1)
		go e.runProcessor(sessionID, st)
	}

	e.logActivity(sessionID, "message_enqueued", map[string]interface{}{
		"queue_size": size,
		"sender":     req.SenderName,
	})
	return size, nil
}

// QueueSize returns the number of pending messages for a session.
func (e *Executor) QueueSize(sessionID string) int {
	st := e.state(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.queue)
}

// runProcessor consumes the session's queue until it is empty or the
// processor is cancelled.
func (e *Executor) runProcessor(sessionID string, st *sessionState) {
	defer e.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	st.mu.Lock()
	st.cancel = cancel
	st.mu.Unlock()
	defer cancel()

	for {
		st.mu.Lock()
		if len(st.queue) == 0 || ctx.Err() != nil {
			st.processing = false
			st.cancel = nil
			st.mu.Unlock()
			return
		}
		qm := st.queue[0]
		st.queue = st.queue[1:]
		st.mu.Unlock()

		if !e.processOne(ctx, sessionID, st, qm) {
			st.mu.Lock()
			st.processing = false
			st.cancel = nil
			st.mu.Unlock()
			return
		}
	}
}

// processOne executes a single turn. It returns true when the loop should
// continue with the next queued message.
func (e *Executor) processOne(ctx context.Context, sessionID string, st *sessionState, qm QueuedMessage) bool {
	sess, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		e.logger.Warn("session vanished before processing", "session_id", sessionID, "error", err)
		return false
	}

	resumeToken := ""
	if sess.ExternalSessionID != nil {
		resumeToken = *sess.ExternalSessionID
	}

	client, err := e.clients.GetOrCreate(ctx, sessionID, resumeToken, func(token string) (claude.ClientConfig, error) {
		return e.builder.Build(ctx, sess, token)
	})
	if err != nil {
		e.failSession(ctx, sessionID, fmt.Sprintf("client connection failed: %v", err))
		return false
	}

	e.transitionToWorking(ctx, sess)

	e.broadcaster.Broadcast(sessionID, events.UserMessage{
		MessageID:      qm.MessageID,
		Content:        qm.Content,
		AgentID:        qm.SenderAgentID,
		AgentName:      qm.SenderName,
		FromInstanceID: qm.SenderSessionID,
		Timestamp:      qm.EnqueuedAt,
	})

	if err := client.Query(ctx, qm.Content); err != nil {
		e.failSession(ctx, sessionID, fmt.Sprintf("query failed: %v", err))
		return false
	}

	return e.consumeTurn(ctx, sessionID, st, client)
}

// consumeTurn drains client events for one turn. It returns true on clean
// end-of-turn and false on error, cancellation, or timeout.
func (e *Executor) consumeTurn(ctx context.Context, sessionID string, st *sessionState, client Client) bool {
	timer := time.NewTimer(e.receiveTimeout)
	defer timer.Stop()

	msgs := client.ReceiveMessages()
	for {
		select {
		case <-ctx.Done():
			return false

		case <-timer.C:
			e.failSession(ctx, sessionID, fmt.Sprintf("no response from client within %s", e.receiveTimeout))
			return false

		case raw, ok := <-msgs:
			if !ok {
				e.failSession(ctx, sessionID, "client stream closed unexpectedly")
				return false
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(e.receiveTimeout)

			for _, ev := range events.Convert(raw) {
				done, cont := e.handleEvent(ctx, sessionID, st, client, ev)
				if done {
					return cont
				}
			}
		}
	}
}

// handleEvent applies one domain event. done=true ends the turn; cont then
// says whether the processor loop should keep going.
func (e *Executor) handleEvent(ctx context.Context, sessionID string, st *sessionState, client Client, ev events.Event) (done, cont bool) {
	switch v := ev.(type) {
	case events.MessageStart:
		// A new turn always starts with empty buffers.
		st.mu.Lock()
		st.textBuffers = make(map[int]string)
		st.mu.Unlock()
		e.broadcaster.Broadcast(sessionID, v)
		return false, false

	case events.StreamDelta:
		st.mu.Lock()
		st.textBuffers[v.ContentIndex] += v.Text
		st.mu.Unlock()
		e.broadcaster.Broadcast(sessionID, v)
		return false, false

	case events.ContentBlockStop:
		e.flushBuffer(ctx, sessionID, st, v.ContentIndex)
		e.broadcaster.Broadcast(sessionID, v)
		return false, false

	case events.ToolUse:
		_, err := e.messages.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sessionID,
			Role:      models.RoleToolCall,
			Content:   v.ToolName,
			ToolUseID: v.ToolUseID,
			Metadata: map[string]interface{}{
				"tool_name":  v.ToolName,
				"tool_input": v.ToolInput,
			},
		})
		if err != nil {
			e.logger.Error("failed to persist tool call", "session_id", sessionID, "error", err)
		}
		e.broadcaster.Broadcast(sessionID, v)
		return false, false

	case events.ToolComplete:
		_, err := e.messages.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sessionID,
			Role:      models.RoleToolResult,
			Content:   v.Result,
			ToolUseID: v.ToolUseID,
			Metadata:  map[string]interface{}{"is_error": v.IsError},
		})
		if err != nil {
			e.logger.Error("failed to persist tool result", "session_id", sessionID, "error", err)
		}
		e.broadcaster.Broadcast(sessionID, v)
		return false, false

	case events.MessageComplete:
		e.flushAllBuffers(ctx, sessionID, st)
		if ext := client.ExternalSessionID(); ext != "" {
			if err := e.sessions.SetExternalSessionID(ctx, sessionID, ext); err != nil {
				e.logger.Warn("failed to record external session id", "session_id", sessionID, "error", err)
			}
			e.clients.RecordExternalID(sessionID, ext)
		}
		if _, err := e.sessions.TransitionStatus(ctx, sessionID, models.StatusIdle); err != nil {
			e.logger.Warn("failed to transition to idle", "session_id", sessionID, "error", err)
		}
		e.broadcaster.Broadcast(sessionID, v)
		return true, true

	case events.Error:
		e.failSession(ctx, sessionID, v.Message)
		return true, false

	default:
		e.broadcaster.Broadcast(sessionID, ev)
		return false, false
	}
}

// flushBuffer persists one content block's accumulated text as a single
// assistant message.
func (e *Executor) flushBuffer(ctx context.Context, sessionID string, st *sessionState, index int) {
	st.mu.Lock()
	text := st.textBuffers[index]
	delete(st.textBuffers, index)
	st.mu.Unlock()

	if text == "" {
		return
	}
	_, err := e.messages.CreateMessage(ctx, models.CreateMessageRequest{
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   text,
	})
	if err != nil {
		e.logger.Error("failed to persist assistant message", "session_id", sessionID, "error", err)
	}
}

// flushAllBuffers drains remaining buffers in index order.
func (e *Executor) flushAllBuffers(ctx context.Context, sessionID string, st *sessionState) {
	st.mu.Lock()
	indexes := make([]int, 0, len(st.textBuffers))
	for i := range st.textBuffers {
		indexes = append(indexes, i)
	}
	st.mu.Unlock()
	sort.Ints(indexes)
	for _, i := range indexes {
		e.flushBuffer(ctx, sessionID, st, i)
	}
}

// failSession records the error, notifies subscribers, and evicts the
// client so the next enqueue starts fresh. The queue is left intact.
func (e *Executor) failSession(ctx context.Context, sessionID, message string) {
	if _, err := e.sessions.SetStatusError(ctx, sessionID, message); err != nil {
		e.logger.Error("failed to set error status", "session_id", sessionID, "error", err)
	}
	e.broadcaster.Broadcast(sessionID, events.Error{Message: message, ErrorType: "execution_error"})
	e.clients.Remove(sessionID)
	e.logActivity(sessionID, "session_error", map[string]interface{}{"error": message})
}

func (e *Executor) transitionToWorking(ctx context.Context, sess *ent.Session) {
	status := string(sess.Status)
	if status != models.StatusInitializing && status != models.StatusIdle {
		return
	}
	if _, err := e.sessions.TransitionStatus(ctx, sess.ID, models.StatusWorking); err != nil {
		e.logger.Warn("failed to transition to working", "session_id", sess.ID, "error", err)
	}
}

// Interrupt aborts the running turn: the client is told to stop, pending
// queue items are discarded, the session moves to interrupted, and the
// client is evicted because the subprocess is unreliable after an interrupt.
func (e *Executor) Interrupt(ctx context.Context, sessionID string) (*ent.Session, error) {
	if _, err := e.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	if client, err := e.clients.Get(sessionID); err == nil {
		if err := client.Interrupt(ctx); err != nil {
			e.logger.Warn("client interrupt failed", "session_id", sessionID, "error", err)
		}
	}

	st := e.state(sessionID)
	st.mu.Lock()
	dropped := len(st.queue)
	st.queue = nil
	cancel := st.cancel
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	sess, err := e.sessions.TransitionStatus(ctx, sessionID, models.StatusInterrupted)
	if err != nil {
		return nil, err
	}

	e.clients.Remove(sessionID)
	e.logActivity(sessionID, "session_interrupted", map[string]interface{}{"dropped_messages": dropped})
	return sess, nil
}

// welcomeMessages seeds a first assistant message after recreate, keyed by
// session type. Types without an entry start empty.
var welcomeMessages = map[string]string{
	models.SessionTypeAssistant:      "Hi! I'm your assistant. How can I help?",
	models.SessionTypeAgentAssistant: "Hi! I can help you create or edit agent definitions. What would you like to change?",
	models.SessionTypeSkillAssistant: "Hi! I can help you create or edit skills. What would you like to change?",
}

// Recreate wipes the session's conversation: all messages are deleted, the
// resume token and error are cleared, the queue is drained, any running
// processor is cancelled, and the client is evicted. Safe to call even when
// the executor is stuck on this session.
func (e *Executor) Recreate(ctx context.Context, sessionID string) (*ent.Session, error) {
	sess, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	st := e.state(sessionID)
	st.mu.Lock()
	st.queue = nil
	st.textBuffers = make(map[int]string)
	cancel := st.cancel
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if _, err := e.messages.DeleteAllMessages(ctx, sessionID); err != nil {
		return nil, err
	}

	updated, err := e.sessions.ResetForRecreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	e.clients.Remove(sessionID)

	if welcome, ok := welcomeMessages[string(sess.SessionType)]; ok {
		_, err := e.messages.CreateMessage(ctx, models.CreateMessageRequest{
			SessionID: sessionID,
			Role:      models.RoleAssistant,
			Content:   welcome,
		})
		if err != nil {
			e.logger.Warn("failed to seed welcome message", "session_id", sessionID, "error", err)
		}
	}

	e.logActivity(sessionID, "session_recreated", nil)
	return updated, nil
}

// Delete drains the session's executor state and evicts its client before
// the store tombstones the row.
func (e *Executor) Delete(sessionID string) {
	st := e.state(sessionID)
	st.mu.Lock()
	st.queue = nil
	cancel := st.cancel
	st.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.clients.Remove(sessionID)

	e.mu.Lock()
	delete(e.states, sessionID)
	e.mu.Unlock()
}

// Shutdown stops accepting new processors, cancels running ones, and waits
// for them to exit.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	e.stopped = true
	states := make([]*sessionState, 0, len(e.states))
	for _, st := range e.states {
		states = append(states, st)
	}
	e.mu.Unlock()

	for _, st := range states {
		st.mu.Lock()
		cancel := st.cancel
		st.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}
	e.wg.Wait()
}

func (e *Executor) logActivity(sessionID, eventType string, data map[string]interface{}) {
	if e.activity == nil {
		return
	}
	e.activity.LogEvent(context.Background(), sessionID, eventType, data)
}
