package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/project"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// SessionService manages session lifecycle and status transitions.
type SessionService struct {
	client *ent.Client
}

// NewSessionService creates a new SessionService
func NewSessionService(client *ent.Client) *SessionService {
	return &SessionService{client: client}
}

// CreateSession creates a new session in the initializing state with its
// kanban stage set to backlog.
func (s *SessionService) CreateSession(httpCtx context.Context, req models.CreateSessionRequest) (*ent.Session, error) {
	if req.SessionType == "" {
		req.SessionType = models.SessionTypeAssistant
	}
	if !models.IsValidSessionType(req.SessionType) {
		return nil, NewValidationError("session_type", "unknown session type")
	}
	if req.SessionType == models.SessionTypePM && req.ProjectID == "" {
		return nil, NewValidationError("project_id", "required for pm sessions")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if req.ProjectID != "" {
		exists, err := s.client.Project.Query().
			Where(project.IDEQ(req.ProjectID), project.DeletedAtIsNil()).
			Exist(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check project: %w", err)
		}
		if !exists {
			return nil, ErrNotFound
		}
	}

	sessionContext := map[string]interface{}{}
	for k, v := range req.Context {
		sessionContext[k] = v
	}
	sessionContext[models.KanbanStageKey] = models.KanbanStageFor(models.StatusInitializing)

	builder := s.client.Session.Create().
		SetID(uuid.New().String()).
		SetSessionType(session.SessionType(req.SessionType)).
		SetStatus(session.StatusInitializing).
		SetContext(sessionContext)

	if req.AgentID != "" {
		builder.SetAgentID(req.AgentID)
	}
	if req.ProjectID != "" {
		builder.SetProjectID(req.ProjectID)
	}

	created, err := builder.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

// GetSession retrieves a non-deleted session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*ent.Session, error) {
	sess, err := s.client.Session.Query().
		Where(session.IDEQ(sessionID), session.DeletedAtIsNil()).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// GetSessionIncludeDeleted retrieves a session regardless of its tombstone.
func (s *SessionService) GetSessionIncludeDeleted(ctx context.Context, sessionID string) (*ent.Session, error) {
	sess, err := s.client.Session.Get(ctx, sessionID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// SessionExists reports whether a session exists, optionally counting
// soft-deleted rows.
func (s *SessionService) SessionExists(ctx context.Context, sessionID string, includeDeleted bool) (bool, error) {
	q := s.client.Session.Query().Where(session.IDEQ(sessionID))
	if !includeDeleted {
		q = q.Where(session.DeletedAtIsNil())
	}
	exists, err := q.Exist(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists, nil
}

// ListSessions returns non-deleted sessions matching the filter, newest first.
func (s *SessionService) ListSessions(ctx context.Context, filter models.SessionFilter) ([]*ent.Session, error) {
	q := s.client.Session.Query()
	if !filter.IncludeDeleted {
		q = q.Where(session.DeletedAtIsNil())
	}
	if filter.ProjectID != "" {
		q = q.Where(session.ProjectIDEQ(filter.ProjectID))
	}
	if filter.SessionType != "" {
		q = q.Where(session.SessionTypeEQ(session.SessionType(filter.SessionType)))
	}
	if filter.Status != "" {
		q = q.Where(session.StatusEQ(session.Status(filter.Status)))
	}
	sessions, err := q.Order(ent.Desc(session.FieldCreatedAt)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// LatestPMSession returns the most recent non-deleted pm session for a project.
func (s *SessionService) LatestPMSession(ctx context.Context, projectID string) (*ent.Session, error) {
	sess, err := s.client.Session.Query().
		Where(
			session.ProjectIDEQ(projectID),
			session.SessionTypeEQ(session.SessionTypePm),
			session.DeletedAtIsNil(),
		).
		Order(ent.Desc(session.FieldCreatedAt)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query pm session: %w", err)
	}
	return sess, nil
}

// TransitionStatus moves a session to a new status, validating the move
// against the state machine and synchronizing the kanban stage. Error
// messages are cleared on any transition to idle or working.
func (s *SessionService) TransitionStatus(httpCtx context.Context, sessionID, newStatus string) (*ent.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current := string(sess.Status)
	if current == newStatus {
		return sess, nil
	}
	if !models.IsValidTransition(current, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, newStatus)
	}

	updated, err := s.applyStatus(ctx, sess, newStatus, "")
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatusError moves a session to the error state with a message. Allowed
// from any non-terminal state so stream failures are always recordable.
func (s *SessionService) SetStatusError(httpCtx context.Context, sessionID, errorMessage string) (*ent.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.applyStatus(ctx, sess, models.StatusError, errorMessage)
}

// applyStatus writes the status, kanban stage, and error message in one update.
func (s *SessionService) applyStatus(ctx context.Context, sess *ent.Session, newStatus, errorMessage string) (*ent.Session, error) {
	sessionContext := map[string]interface{}{}
	for k, v := range sess.Context {
		sessionContext[k] = v
	}
	sessionContext[models.KanbanStageKey] = models.KanbanStageFor(newStatus)

	upd := s.client.Session.UpdateOneID(sess.ID).
		SetStatus(session.Status(newStatus)).
		SetContext(sessionContext)

	switch {
	case errorMessage != "":
		upd.SetErrorMessage(errorMessage)
	case newStatus == models.StatusIdle || newStatus == models.StatusWorking:
		upd.ClearErrorMessage()
	}

	updated, err := upd.Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update session status: %w", err)
	}
	return updated, nil
}

// SetExternalSessionID records the resume token reported by the client.
func (s *SessionService) SetExternalSessionID(ctx context.Context, sessionID, externalID string) error {
	err := s.client.Session.UpdateOneID(sessionID).
		SetExternalSessionID(externalID).
		Exec(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to set external session id: %w", err)
	}
	return nil
}

// UpdateContext merges the given keys into the session context.
func (s *SessionService) UpdateContext(ctx context.Context, sessionID string, updates map[string]interface{}) (*ent.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sessionContext := map[string]interface{}{}
	for k, v := range sess.Context {
		sessionContext[k] = v
	}
	for k, v := range updates {
		sessionContext[k] = v
	}
	updated, err := s.client.Session.UpdateOneID(sessionID).
		SetContext(sessionContext).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update session context: %w", err)
	}
	return updated, nil
}

// UpdateKanbanStage writes the kanban stage directly. Used by the board UI to
// move cards without changing session status.
func (s *SessionService) UpdateKanbanStage(ctx context.Context, sessionID, stage string) (*ent.Session, error) {
	switch stage {
	case models.KanbanBacklog, models.KanbanWaiting, models.KanbanActive, models.KanbanDone:
	default:
		return nil, NewValidationError("stage", "unknown kanban stage")
	}
	return s.UpdateContext(ctx, sessionID, map[string]interface{}{
		models.KanbanStageKey: stage,
	})
}

// ResetForRecreate clears the session's conversation state: messages are
// expected to be deleted by the caller; this nulls the resume token, clears
// any error, and forces the session back to idle. Bypasses transition
// validation on purpose.
func (s *SessionService) ResetForRecreate(httpCtx context.Context, sessionID string) (*ent.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sessionContext := map[string]interface{}{}
	for k, v := range sess.Context {
		sessionContext[k] = v
	}
	sessionContext[models.KanbanStageKey] = models.KanbanWaiting

	updated, err := s.client.Session.UpdateOneID(sessionID).
		SetStatus(session.StatusIdle).
		SetContext(sessionContext).
		ClearExternalSessionID().
		ClearErrorMessage().
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}
	return updated, nil
}

// DeleteSession soft-deletes a session. The tombstone is final: no further
// status transitions are accepted afterwards.
func (s *SessionService) DeleteSession(httpCtx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	sessionContext := map[string]interface{}{}
	for k, v := range sess.Context {
		sessionContext[k] = v
	}
	sessionContext[models.KanbanStageKey] = models.KanbanDone

	err = s.client.Session.UpdateOneID(sessionID).
		SetStatus(session.StatusCancelled).
		SetContext(sessionContext).
		SetDeletedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
