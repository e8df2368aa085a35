package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/message"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// MessageService persists and retrieves session messages. Ordering is by
// created_at; the sequence column is written as zero and never consulted.
type MessageService struct {
	client *ent.Client
}

// NewMessageService creates a new MessageService
func NewMessageService(client *ent.Client) *MessageService {
	return &MessageService{client: client}
}

// CreateMessage persists a message with optional sender attribution.
func (s *MessageService) CreateMessage(httpCtx context.Context, req models.CreateMessageRequest) (*ent.Message, error) {
	if req.SessionID == "" {
		return nil, NewValidationError("session_id", "required")
	}
	if req.Role == "" {
		return nil, NewValidationError("role", "required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := s.client.Session.Query().
		Where(session.IDEQ(req.SessionID), session.DeletedAtIsNil()).
		Exist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	builder := s.client.Message.Create().
		SetID(uuid.New().String()).
		SetSessionID(req.SessionID).
		SetRole(message.Role(req.Role)).
		SetContent(req.Content).
		SetSequence(0)

	if req.ToolUseID != "" {
		builder.SetToolUseID(req.ToolUseID)
	}
	if req.Metadata != nil {
		builder.SetMetadata(req.Metadata)
	}
	if req.AgentID != "" {
		builder.SetAgentID(req.AgentID)
	}
	if req.AgentName != "" {
		builder.SetAgentName(req.AgentName)
	}
	if req.FromInstanceID != "" {
		builder.SetFromInstanceID(req.FromInstanceID)
	}
	if req.ResponseID != "" {
		builder.SetResponseID(req.ResponseID)
	}

	msg, err := builder.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a session's messages oldest first.
func (s *MessageService) ListMessages(ctx context.Context, sessionID string) ([]*ent.Message, error) {
	messages, err := s.client.Message.Query().
		Where(message.SessionIDEQ(sessionID)).
		Order(ent.Asc(message.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the number of messages on a session.
func (s *MessageService) CountMessages(ctx context.Context, sessionID string) (int, error) {
	count, err := s.client.Message.Query().
		Where(message.SessionIDEQ(sessionID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// DeleteAllMessages removes every message on a session. Used by recreate.
func (s *MessageService) DeleteAllMessages(httpCtx context.Context, sessionID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deleted, err := s.client.Message.Delete().
		Where(message.SessionIDEQ(sessionID)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	return deleted, nil
}
