// Package models defines the shared domain vocabulary: session lifecycle
// states, the kanban projection, and request types exchanged between the
// API layer and the services.
package models

// Session types.
const (
	SessionTypePM             = "pm"
	SessionTypeSpecialist     = "specialist"
	SessionTypeAssistant      = "assistant"
	SessionTypeAgentAssistant = "agent_assistant"
	SessionTypeSkillAssistant = "skill_assistant"
)

// Session statuses.
const (
	StatusInitializing = "initializing"
	StatusIdle         = "idle"
	StatusWorking      = "working"
	StatusError        = "error"
	StatusInterrupted  = "interrupted"
	StatusCompleted    = "completed"
	StatusCancelled    = "cancelled"
)

// Kanban stages. The stage is a read-only projection of the session status;
// it lives under the reserved context key "kanban_stage".
const (
	KanbanBacklog = "backlog"
	KanbanWaiting = "waiting"
	KanbanActive  = "active"
	KanbanDone    = "done"

	KanbanStageKey = "kanban_stage"
)

// ValidSessionTypes enumerates the accepted session types.
var ValidSessionTypes = []string{
	SessionTypePM,
	SessionTypeSpecialist,
	SessionTypeAssistant,
	SessionTypeAgentAssistant,
	SessionTypeSkillAssistant,
}

// IsValidSessionType reports whether t is a known session type.
func IsValidSessionType(t string) bool {
	for _, v := range ValidSessionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// KanbanStageFor maps a session status to its kanban stage.
func KanbanStageFor(status string) string {
	switch status {
	case StatusInitializing:
		return KanbanBacklog
	case StatusWorking:
		return KanbanActive
	case StatusCompleted, StatusCancelled:
		return KanbanDone
	default:
		// idle, error, interrupted
		return KanbanWaiting
	}
}

// validTransitions encodes the session state machine. Recreate bypasses this
// table: it forcefully resets the session to idle.
var validTransitions = map[string][]string{
	StatusInitializing: {StatusWorking, StatusIdle},
	StatusIdle:         {StatusWorking, StatusCancelled},
	StatusWorking:      {StatusIdle, StatusError, StatusInterrupted, StatusCompleted},
	StatusError:        {StatusIdle, StatusWorking},
	StatusInterrupted:  {StatusIdle},
	StatusCompleted:    {StatusIdle},
	StatusCancelled:    {},
}

// IsValidTransition reports whether a session may move from one status to
// another.
func IsValidTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CreateSessionRequest is the payload for creating a session.
type CreateSessionRequest struct {
	AgentID     string                 `json:"agent_id,omitempty"`
	SessionType string                 `json:"session_type"`
	ProjectID   string                 `json:"project_id,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	ProjectID      string
	SessionType    string
	Status         string
	IncludeDeleted bool
}

// UpdateStageRequest writes the kanban stage directly into session context.
type UpdateStageRequest struct {
	Stage string `json:"stage"`
}
