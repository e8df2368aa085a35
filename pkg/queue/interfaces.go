// Package queue implements the per-session executor: a FIFO message queue
// with one processor goroutine per session that drives the LLM client,
// persists the resulting messages, and broadcasts domain events.
package queue

import (
	"context"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/claude"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// SessionStore is the slice of the session service the executor needs.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*ent.Session, error)
	TransitionStatus(ctx context.Context, sessionID, newStatus string) (*ent.Session, error)
	SetStatusError(ctx context.Context, sessionID, errorMessage string) (*ent.Session, error)
	SetExternalSessionID(ctx context.Context, sessionID, externalID string) error
	ResetForRecreate(ctx context.Context, sessionID string) (*ent.Session, error)
}

// MessageStore is the slice of the message service the executor needs.
type MessageStore interface {
	CreateMessage(ctx context.Context, req models.CreateMessageRequest) (*ent.Message, error)
	DeleteAllMessages(ctx context.Context, sessionID string) (int, error)
}

// Client is the executor's view of one LLM subprocess client.
type Client interface {
	Query(ctx context.Context, content string) error
	Interrupt(ctx context.Context) error
	ReceiveMessages() <-chan claude.Message
	ExternalSessionID() string
}

// ClientProvider creates, looks up, and evicts clients per session.
type ClientProvider interface {
	GetOrCreate(ctx context.Context, sessionID, resumeToken string, build claude.BuildFunc) (Client, error)
	Get(sessionID string) (Client, error)
	Remove(sessionID string)
	RecordExternalID(sessionID, externalID string)
}

// ConfigBuilder assembles the client configuration for a session.
type ConfigBuilder interface {
	Build(ctx context.Context, sess *ent.Session, resumeToken string) (claude.ClientConfig, error)
}

// ActivityLogger records executor lifecycle events. Implementations must not
// fail loudly; logging is fire-and-forget.
type ActivityLogger interface {
	LogEvent(ctx context.Context, sessionID, eventType string, eventData map[string]interface{})
}

// managerProvider adapts the concrete client manager to ClientProvider.
type managerProvider struct {
	m *claude.Manager
}

// NewManagerProvider wraps a client manager for use by the executor.
func NewManagerProvider(m *claude.Manager) ClientProvider {
	return &managerProvider{m: m}
}

func (p *managerProvider) GetOrCreate(ctx context.Context, sessionID, resumeToken string, build claude.BuildFunc) (Client, error) {
	client, err := p.m.GetOrCreate(ctx, sessionID, resumeToken, build)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (p *managerProvider) Get(sessionID string) (Client, error) {
	client, err := p.m.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (p *managerProvider) Remove(sessionID string) {
	p.m.Remove(sessionID)
}

func (p *managerProvider) RecordExternalID(sessionID, externalID string) {
	p.m.RecordExternalID(sessionID, externalID)
}
