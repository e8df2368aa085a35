package claude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrClientNotFound is returned when no live client exists for a session
var ErrClientNotFound = errors.New("client not found")

// BuildFunc assembles a client configuration for a session. It is invoked
// with the resume token to use, which may be empty for a fresh start.
type BuildFunc func(resumeToken string) (ClientConfig, error)

// Manager holds one subprocess client per session plus the external session
// ids used as resume tokens across restarts.
type Manager struct {
	binary string
	logger *slog.Logger

	mu          sync.Mutex
	clients     map[string]*Client
	externalIDs map[string]string
	locks       map[string]*sync.Mutex
}

// NewManager creates a client manager launching the given binary.
func NewManager(binary string, logger *slog.Logger) *Manager {
	return &Manager{
		binary:      binary,
		logger:      logger,
		clients:     make(map[string]*Client),
		externalIDs: make(map[string]string),
		locks:       make(map[string]*sync.Mutex),
	}
}

// Get returns the live client for a session or ErrClientNotFound.
func (m *Manager) Get(sessionID string) (*Client, error) {
	m.mu.Lock()
	client, ok := m.clients[sessionID]
	m.mu.Unlock()
	if !ok || !client.IsAlive() {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// GetOrCreate returns the session's live client, creating and connecting one
// if needed. On a stale resume token the build is retried exactly once with
// a fresh session; any further failure is returned to the caller.
func (m *Manager) GetOrCreate(ctx context.Context, sessionID, resumeToken string, build BuildFunc) (*Client, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if client, err := m.Get(sessionID); err == nil {
		return client, nil
	}

	m.mu.Lock()
	if stored, ok := m.externalIDs[sessionID]; ok && stored != "" {
		resumeToken = stored
	}
	m.mu.Unlock()

	client, err := m.connect(ctx, resumeToken, build)
	if err != nil && resumeToken != "" && IsResumeFailure(err) {
		m.logger.Warn("resume failed, starting fresh session",
			"session_id", sessionID,
			"error", err)
		client, err = m.connect(ctx, "", build)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect client for session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	m.clients[sessionID] = client
	if ext := client.ExternalSessionID(); ext != "" {
		m.externalIDs[sessionID] = ext
	}
	m.mu.Unlock()
	return client, nil
}

func (m *Manager) connect(ctx context.Context, resumeToken string, build BuildFunc) (*Client, error) {
	cfg, err := build(resumeToken)
	if err != nil {
		return nil, fmt.Errorf("failed to build client config: %w", err)
	}
	client := NewClient(cfg, m.binary, m.logger)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// RecordExternalID stores the resume token observed for a session.
func (m *Manager) RecordExternalID(sessionID, externalID string) {
	if externalID == "" {
		return
	}
	m.mu.Lock()
	m.externalIDs[sessionID] = externalID
	m.mu.Unlock()
}

// ExternalID returns the stored resume token for a session, if any.
func (m *Manager) ExternalID(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.externalIDs[sessionID]
}

// Remove disconnects and forgets the session's client. Best effort; safe to
// call for sessions without a client.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	client := m.clients[sessionID]
	delete(m.clients, sessionID)
	delete(m.externalIDs, sessionID)
	delete(m.locks, sessionID)
	m.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
}

// Shutdown removes every client. Idempotent.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id)
	}
}

func (m *Manager) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[sessionID] = lock
	}
	return lock
}
