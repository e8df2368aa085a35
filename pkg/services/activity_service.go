package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/activitylog"
)

// ActivityService appends to and reads the activity log. The log is
// append-only: rows are never updated or deleted.
type ActivityService struct {
	client *ent.Client
	logger *slog.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(client *ent.Client, logger *slog.Logger) *ActivityService {
	return &ActivityService{client: client, logger: logger}
}

// LogEvent records an activity row. Failures are logged and swallowed so
// activity logging never blocks the calling operation.
func (s *ActivityService) LogEvent(httpCtx context.Context, sessionID, eventType string, eventData map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	builder := s.client.ActivityLog.Create().
		SetEventType(eventType)
	if sessionID != "" {
		builder.SetSessionID(sessionID)
	}
	if eventData != nil {
		builder.SetEventData(eventData)
	}

	if err := builder.Exec(ctx); err != nil {
		s.logger.Warn("failed to record activity event",
			"event_type", eventType,
			"session_id", sessionID,
			"error", err)
	}
}

// ListBySession returns a session's activity rows oldest first, capped at limit.
func (s *ActivityService) ListBySession(ctx context.Context, sessionID string, limit int) ([]*ent.ActivityLog, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.client.ActivityLog.Query().
		Where(activitylog.SessionIDEQ(sessionID)).
		Order(ent.Asc(activitylog.FieldCreatedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return rows, nil
}
