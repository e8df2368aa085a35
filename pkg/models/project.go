package models

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Path          string   `json:"path"`
	PMAgentID     string   `json:"pm_agent_id,omitempty"`
	TeamMemberIDs []string `json:"team_member_ids,omitempty"`
}

// UpdateProjectRequest carries partial project updates. Nil fields are left
// untouched.
type UpdateProjectRequest struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	TeamMemberIDs *[]string `json:"team_member_ids,omitempty"`
}

// AssignPMRequest binds a PM agent to a project.
type AssignPMRequest struct {
	AgentID string `json:"agent_id"`
}
