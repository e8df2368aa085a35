package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

func (s *ServerSet) contactInstance(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	targetID := stringArg(args, "target_id")
	message := stringArg(args, "message")
	if targetID == "" {
		return "", fmt.Errorf("target_id is required")
	}
	if message == "" {
		return "", fmt.Errorf("message is required")
	}
	target, err := s.sessions.GetSession(ctx, targetID)
	if err != nil {
		return "", fmt.Errorf("target session %s not found", targetID)
	}
	if projectOf(target) != cc.ProjectID {
		return "", fmt.Errorf("target session %s belongs to a different project", targetID)
	}

	s.deliver(cc, targetID, message)
	return fmt.Sprintf("Message sent to %s", targetID), nil
}

func (s *ServerSet) contactPM(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	message := stringArg(args, "message")
	if message == "" {
		return "", fmt.Errorf("message is required")
	}
	if cc.ProjectID == "" {
		return "", fmt.Errorf("you are not part of a project")
	}
	pm, err := s.sessions.LatestPMSession(ctx, cc.ProjectID)
	if err != nil {
		return "", fmt.Errorf("no pm session found for this project")
	}

	s.deliver(cc, pm.ID, message)
	return fmt.Sprintf("Message sent to pm (%s)", pm.ID), nil
}

// deliver enqueues the message in the background. The target wakes up on its
// own; failures are logged, never surfaced to the sender.
func (s *ServerSet) deliver(cc CallContext, targetID, message string) {
	senderName := s.senderName(cc)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := s.enqueuer.Enqueue(ctx, targetID, models.EnqueueRequest{
			Content:         message,
			SenderName:      senderName,
			SenderSessionID: cc.SessionID,
			SenderAgentID:   cc.AgentID,
		})
		if err != nil {
			s.logger.Warn("failed to deliver inter-session message",
				"from", cc.SessionID,
				"to", targetID,
				"error", err)
		}
	}()
}

func (s *ServerSet) spawnInstance(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	if cc.SessionType != models.SessionTypePM {
		return "", fmt.Errorf("only the pm can spawn instances")
	}
	agentID := stringArg(args, "agent_id")
	taskDescription := stringArg(args, "task_description")
	if agentID == "" {
		return "", fmt.Errorf("agent_id is required")
	}
	if taskDescription == "" {
		return "", fmt.Errorf("task_description is required")
	}
	if !s.agents.Exists(agentID) {
		return "", fmt.Errorf("agent %q not found", agentID)
	}

	projectID := stringArg(args, "project_id")
	if projectID == "" {
		projectID = cc.ProjectID
	}

	created, err := s.sessions.CreateSession(ctx, models.CreateSessionRequest{
		AgentID:     agentID,
		SessionType: models.SessionTypeSpecialist,
		ProjectID:   projectID,
		Context: map[string]interface{}{
			"task_description": taskDescription,
			"spawned_by":       "pm",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create specialist session: %v", err)
	}
	return fmt.Sprintf("Spawned specialist session %s running agent %s. Send it a message with contact_instance to start it.", created.ID, agentID), nil
}

func (s *ServerSet) listTeamMembers(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	if cc.SessionType != models.SessionTypePM {
		return "", fmt.Errorf("only the pm can list team members")
	}
	projectID := stringArg(args, "project_id")
	if projectID == "" {
		projectID = cc.ProjectID
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("project not found")
	}
	if len(project.TeamMemberIds) == 0 {
		return "No team members assigned to this project.", nil
	}

	var sb strings.Builder
	for _, id := range project.TeamMemberIds {
		a, err := s.agents.Get(id)
		if err != nil {
			fmt.Fprintf(&sb, "- %s (definition missing)\n", id)
			continue
		}
		if a.Description != "" {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", a.Name, a.ID, a.Description)
		} else {
			fmt.Fprintf(&sb, "- %s (%s)\n", a.Name, a.ID)
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func (s *ServerSet) completeInstance(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	if cc.SessionType != models.SessionTypePM {
		return "", fmt.Errorf("only the pm can complete instances")
	}
	targetID := stringArg(args, "target_id")
	if targetID == "" {
		return "", fmt.Errorf("target_id is required")
	}
	target, err := s.sessions.GetSession(ctx, targetID)
	if err != nil {
		return "", fmt.Errorf("target session %s not found", targetID)
	}
	if projectOf(target) != cc.ProjectID {
		return "", fmt.Errorf("target session %s belongs to a different project", targetID)
	}
	if _, err := s.sessions.TransitionStatus(ctx, targetID, models.StatusCompleted); err != nil {
		return "", fmt.Errorf("cannot complete session: %v", err)
	}
	return fmt.Sprintf("Session %s marked completed", targetID), nil
}

func (s *ServerSet) getSessionInfo(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	sess, err := s.sessions.GetSession(ctx, cc.SessionID)
	if err != nil {
		return "", err
	}
	info := map[string]interface{}{
		"session_id":   sess.ID,
		"session_type": string(sess.SessionType),
		"status":       string(sess.Status),
		"context":      sess.Context,
	}
	if sess.AgentID != "" {
		info["agent_id"] = sess.AgentID
	}
	if sess.ProjectID != nil {
		info["project_id"] = *sess.ProjectID
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *ServerSet) remind(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	delay, ok := numberArg(args, "delay_seconds")
	if !ok || delay != float64(int(delay)) || int(delay) < MinReminderDelay || int(delay) > MaxReminderDelay {
		return "", fmt.Errorf("delay_seconds must be an integer between %d and %d", MinReminderDelay, MaxReminderDelay)
	}
	message := stringArg(args, "message")
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	sessionID := cc.SessionID
	s.reminders.schedule(time.Duration(int(delay))*time.Second, func() {
		rctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, err := s.enqueuer.Enqueue(rctx, sessionID, models.EnqueueRequest{
			Content:    message,
			SenderName: "System Reminder",
		})
		if err != nil {
			s.logger.Warn("failed to deliver reminder", "session_id", sessionID, "error", err)
		}
	})
	return fmt.Sprintf("Reminder scheduled in %d seconds", int(delay)), nil
}

// showFile returns an empty payload: the tool invocation itself is the
// display directive for the UI.
func (s *ServerSet) showFile(ctx context.Context, cc CallContext, args map[string]interface{}) (string, error) {
	if stringArg(args, "path") == "" {
		return "", fmt.Errorf("path is required")
	}
	return "", nil
}

// senderName attributes inter-session messages: "Pm" for pm sessions, the
// agent's display name otherwise.
func (s *ServerSet) senderName(cc CallContext) string {
	if cc.SessionType == models.SessionTypePM {
		return "Pm"
	}
	if cc.AgentID != "" {
		if a, err := s.agents.Get(cc.AgentID); err == nil {
			return a.Name
		}
	}
	if cc.SessionType == "" {
		return "Assistant"
	}
	return strings.ToUpper(cc.SessionType[:1]) + cc.SessionType[1:]
}

func projectOf(sess *ent.Session) string {
	if sess.ProjectID == nil {
		return ""
	}
	return *sess.ProjectID
}
