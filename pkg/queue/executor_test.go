package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"github.com/kumiai-dev/kumiai/pkg/events"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ent.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*ent.Session)}
}

func (f *fakeSessionStore) add(id, sessionType, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &ent.Session{
		ID:          id,
		SessionType: session.SessionType(sessionType),
		Status:      session.Status(status),
	}
}

func (f *fakeSessionStore) status(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.sessions[id].Status)
}

func (f *fakeSessionStore) externalID(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessions[id].ExternalSessionID == nil {
		return ""
	}
	return *f.sessions[id].ExternalSessionID
}

func (f *fakeSessionStore) GetSession(_ context.Context, sessionID string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeSessionStore) TransitionStatus(_ context.Context, sessionID, newStatus string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if string(sess.Status) != newStatus && !models.IsValidTransition(string(sess.Status), newStatus) {
		return nil, fmt.Errorf("invalid transition %s -> %s", sess.Status, newStatus)
	}
	sess.Status = session.Status(newStatus)
	cp := *sess
	return &cp, nil
}

func (f *fakeSessionStore) SetStatusError(_ context.Context, sessionID, errorMessage string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	sess.Status = session.StatusError
	sess.ErrorMessage = &errorMessage
	cp := *sess
	return &cp, nil
}

func (f *fakeSessionStore) SetExternalSessionID(_ context.Context, sessionID, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID].ExternalSessionID = &externalID
	return nil
}

func (f *fakeSessionStore) ResetForRecreate(_ context.Context, sessionID string) (*ent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	sess.Status = session.StatusIdle
	sess.ExternalSessionID = nil
	sess.ErrorMessage = nil
	cp := *sess
	return &cp, nil
}

type persistedMessage struct {
	Role    string
	Content string
}

type fakeMessageStore struct {
	mu       sync.Mutex
	messages map[string][]persistedMessage
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[string][]persistedMessage)}
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, req models.CreateMessageRequest) (*ent.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[req.SessionID] = append(f.messages[req.SessionID], persistedMessage{Role: req.Role, Content: req.Content})
	return &ent.Message{ID: uuid.New().String(), CreatedAt: time.Now()}, nil
}

func (f *fakeMessageStore) DeleteAllMessages(_ context.Context, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.messages[sessionID])
	f.messages[sessionID] = nil
	return n, nil
}

func (f *fakeMessageStore) bySession(sessionID string) []persistedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]persistedMessage, len(f.messages[sessionID]))
	copy(out, f.messages[sessionID])
	return out
}

type fakeClient struct {
	mu       sync.Mutex
	events   chan claude.Message
	queries  []string
	external string
}

func newFakeClient(external string) *fakeClient {
	return &fakeClient{events: make(chan claude.Message, 64), external: external}
}

func (f *fakeClient) Query(_ context.Context, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, content)
	return nil
}

func (f *fakeClient) Interrupt(context.Context) error { return nil }

func (f *fakeClient) ReceiveMessages() <-chan claude.Message { return f.events }

func (f *fakeClient) ExternalSessionID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.external
}

func (f *fakeClient) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeProvider struct {
	mu      sync.Mutex
	client  *fakeClient
	removed int
}

func (f *fakeProvider) GetOrCreate(context.Context, string, string, claude.BuildFunc) (Client, error) {
	return f.client, nil
}

func (f *fakeProvider) Get(string) (Client, error) { return f.client, nil }

func (f *fakeProvider) Remove(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed++
}

func (f *fakeProvider) RecordExternalID(string, string) {}

func (f *fakeProvider) removeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removed
}

type fakeBuilder struct{}

func (fakeBuilder) Build(context.Context, *ent.Session, string) (claude.ClientConfig, error) {
	return claude.ClientConfig{}, nil
}

type executorFixture struct {
	executor *Executor
	sessions *fakeSessionStore
	messages *fakeMessageStore
	client   *fakeClient
	provider *fakeProvider
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()
	sessions := newFakeSessionStore()
	messages := newFakeMessageStore()
	client := newFakeClient("ext-abc")
	provider := &fakeProvider{client: client}

	e := NewExecutor(sessions, messages, provider, fakeBuilder{},
		events.NewBroadcaster(slog.Default()), nil, slog.Default())
	t.Cleanup(e.Shutdown)

	return &executorFixture{executor: e, sessions: sessions, messages: messages, client: client, provider: provider}
}

// endTurn is the minimal streaming script for one complete assistant turn.
func endTurn(text string) []claude.Message {
	return []claude.Message{
		claude.StreamEvent{Type: claude.EventMessageStart},
		claude.StreamEvent{Type: claude.EventContentBlockDelta, Index: 0, Delta: claude.Delta{Type: claude.DeltaText, Text: text}},
		claude.StreamEvent{Type: claude.EventContentBlockStop, Index: 0},
		claude.StreamEvent{Type: claude.EventMessageDelta, Delta: claude.Delta{StopReason: claude.StopReasonEndTurn}},
	}
}

func TestExecutor_SingleTurn(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	for _, m := range endTurn("Hello there") {
		f.client.events <- m
	}

	size, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusIdle && f.client.queryCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return f.sessions.externalID("s1") == "ext-abc"
	}, 2*time.Second, 10*time.Millisecond)

	msgs := f.messages.bySession("s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, persistedMessage{Role: models.RoleUser, Content: "hi"}, msgs[0])
	assert.Equal(t, persistedMessage{Role: models.RoleAssistant, Content: "Hello there"}, msgs[1])

	assert.Equal(t, 0, f.executor.QueueSize("s1"))
}

func TestExecutor_SplitDeltasFlushAsOneMessage(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	script := []claude.Message{
		claude.StreamEvent{Type: claude.EventMessageStart},
		claude.StreamEvent{Type: claude.EventContentBlockDelta, Index: 0, Delta: claude.Delta{Type: claude.DeltaText, Text: "Hel"}},
		claude.StreamEvent{Type: claude.EventContentBlockDelta, Index: 0, Delta: claude.Delta{Type: claude.DeltaText, Text: "lo"}},
		claude.StreamEvent{Type: claude.EventContentBlockStop, Index: 0},
		claude.StreamEvent{Type: claude.EventMessageDelta, Delta: claude.Delta{StopReason: claude.StopReasonEndTurn}},
	}
	for _, m := range script {
		f.client.events <- m
	}

	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.messages.bySession("s1")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	msgs := f.messages.bySession("s1")
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
}

func TestExecutor_ToolEventsPersisted(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	script := []claude.Message{
		claude.StreamEvent{Type: claude.EventMessageStart},
		claude.AssistantMessage{Content: []claude.ContentBlock{
			{Type: claude.BlockToolUse, ID: "tu1", Name: "remind", Input: map[string]interface{}{"delay_seconds": float64(5)}},
		}},
		claude.AssistantMessage{Content: []claude.ContentBlock{
			{Type: claude.BlockToolResult, ToolUseID: "tu1", Content: []byte(`"Reminder scheduled"`)},
		}},
		claude.StreamEvent{Type: claude.EventMessageDelta, Delta: claude.Delta{StopReason: claude.StopReasonEndTurn}},
	}
	for _, m := range script {
		f.client.events <- m
	}

	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "remind me"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusIdle && len(f.messages.bySession("s1")) == 3
	}, 2*time.Second, 10*time.Millisecond)

	msgs := f.messages.bySession("s1")
	assert.Equal(t, models.RoleToolCall, msgs[1].Role)
	assert.Equal(t, "remind", msgs[1].Content)
	assert.Equal(t, models.RoleToolResult, msgs[2].Role)
	assert.Equal(t, "Reminder scheduled", msgs[2].Content)
}

func TestExecutor_ErrorFailsSession(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	f.client.events <- claude.AssistantMessage{Error: "model exploded"}

	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusError
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, f.provider.removeCount(), 1)
}

func TestExecutor_ReceiveTimeoutFailsSession(t *testing.T) {
	f := newExecutorFixture(t)
	f.executor.SetReceiveTimeout(50 * time.Millisecond)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusError
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecutor_StreamClosedFailsSession(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	close(f.client.events)

	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "hi"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusError
	}, 2*time.Second, 10*time.Millisecond)
}

func TestExecutor_Interrupt(t *testing.T) {
	f := newExecutorFixture(t)
	f.executor.SetReceiveTimeout(5 * time.Second)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	// No events: the processor blocks mid-turn in working state.
	_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{Content: "first"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return f.sessions.status("s1") == models.StatusWorking
	}, 2*time.Second, 10*time.Millisecond)

	sess, err := f.executor.Interrupt(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterrupted, string(sess.Status))
	assert.Equal(t, 0, f.executor.QueueSize("s1"))
	assert.GreaterOrEqual(t, f.provider.removeCount(), 1)
}

func TestExecutor_InterruptIdleSessionRejected(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	_, err := f.executor.Interrupt(context.Background(), "s1")
	assert.Error(t, err)
}

func TestExecutor_Recreate(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusError)
	f.sessions.sessions["s1"].ExternalSessionID = strp("ext-old")

	_, err := f.messages.CreateMessage(context.Background(), models.CreateMessageRequest{
		SessionID: "s1", Role: models.RoleUser, Content: "old history",
	})
	require.NoError(t, err)

	sess, err := f.executor.Recreate(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, string(sess.Status))
	assert.Nil(t, sess.ExternalSessionID)

	// History wiped, welcome message seeded for assistant sessions.
	msgs := f.messages.bySession("s1")
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "assistant")
}

func TestExecutor_EnqueueValidation(t *testing.T) {
	f := newExecutorFixture(t)
	f.sessions.add("s1", models.SessionTypeAssistant, models.StatusIdle)

	t.Run("empty content", func(t *testing.T) {
		_, err := f.executor.Enqueue(context.Background(), "s1", models.EnqueueRequest{})
		assert.Error(t, err)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.executor.Enqueue(context.Background(), "ghost", models.EnqueueRequest{Content: "hi"})
		assert.Error(t, err)
	})
}

func strp(s string) *string { return &s }
