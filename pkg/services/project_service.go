package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kumiai-dev/kumiai/ent"
	"github.com/kumiai-dev/kumiai/ent/project"
	"github.com/kumiai-dev/kumiai/ent/session"
	"github.com/kumiai-dev/kumiai/pkg/models"
)

// ProjectService manages projects and PM assignment. Project creation and PM
// assignment are all-or-nothing: the PM session and the project's pm fields
// are written in one transaction.
type ProjectService struct {
	client *ent.Client
}

// NewProjectService creates a new ProjectService
func NewProjectService(client *ent.Client) *ProjectService {
	return &ProjectService{client: client}
}

// CreateProject creates the project directory, writes PROJECT.md, and
// persists the project row. When a PM agent is given, a pm session is
// created in the same transaction and bound to the project. The directory is
// removed again if the database write fails.
func (s *ProjectService) CreateProject(httpCtx context.Context, req models.CreateProjectRequest) (*ent.Project, error) {
	if req.Name == "" {
		return nil, NewValidationError("name", "required")
	}
	if req.Path == "" {
		return nil, NewValidationError("path", "required")
	}
	if !filepath.IsAbs(req.Path) {
		return nil, NewValidationError("path", "must be absolute")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createdDir := false
	if _, err := os.Stat(req.Path); os.IsNotExist(err) {
		if err := os.MkdirAll(req.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create project directory: %w", err)
		}
		createdDir = true
	}

	cleanup := func() {
		if createdDir {
			_ = os.RemoveAll(req.Path)
		}
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	projectID := uuid.New().String()
	teamMembers := req.TeamMemberIDs
	if teamMembers == nil {
		teamMembers = []string{}
	}

	builder := tx.Project.Create().
		SetID(projectID).
		SetName(req.Name).
		SetPath(req.Path).
		SetTeamMemberIds(teamMembers)
	if req.Description != "" {
		builder.SetDescription(req.Description)
	}

	var pmSessionID string
	if req.PMAgentID != "" {
		pmSessionID = uuid.New().String()
		_, err := tx.Session.Create().
			SetID(pmSessionID).
			SetAgentID(req.PMAgentID).
			SetProjectID(projectID).
			SetSessionType(session.SessionTypePm).
			SetStatus(session.StatusInitializing).
			SetContext(map[string]interface{}{
				models.KanbanStageKey: models.KanbanBacklog,
			}).
			Save(ctx)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create pm session: %w", err)
		}
		builder.SetPmAgentID(req.PMAgentID).SetPmSessionID(pmSessionID)
	}

	created, err := builder.Save(ctx)
	if err != nil {
		cleanup()
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := writeProjectFile(req.Path, req.Name, req.Description, req.PMAgentID, teamMembers); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write PROJECT.md: %w", err)
	}

	if err := tx.Commit(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// GetProject retrieves a non-deleted project by ID.
func (s *ProjectService) GetProject(ctx context.Context, projectID string) (*ent.Project, error) {
	p, err := s.client.Project.Query().
		Where(project.IDEQ(projectID), project.DeletedAtIsNil()).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all non-deleted projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]*ent.Project, error) {
	projects, err := s.client.Project.Query().
		Where(project.DeletedAtIsNil()).
		Order(ent.Desc(project.FieldCreatedAt)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject applies partial updates to a project.
func (s *ProjectService) UpdateProject(httpCtx context.Context, projectID string, req models.UpdateProjectRequest) (*ent.Project, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	upd := s.client.Project.UpdateOneID(projectID)
	if req.Name != nil {
		if *req.Name == "" {
			return nil, NewValidationError("name", "must not be empty")
		}
		upd.SetName(*req.Name)
	}
	if req.Description != nil {
		upd.SetDescription(*req.Description)
	}
	if req.TeamMemberIDs != nil {
		upd.SetTeamMemberIds(*req.TeamMemberIDs)
	}

	updated, err := upd.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return updated, nil
}

// DeleteProject soft-deletes a project.
func (s *ProjectService) DeleteProject(httpCtx context.Context, projectID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	err := s.client.Project.UpdateOneID(projectID).
		SetDeletedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// AssignPM creates a pm session for the agent and binds it to the project.
// Both pm_agent_id and pm_session_id are set in one transaction so they are
// never observed half-assigned.
func (s *ProjectService) AssignPM(httpCtx context.Context, projectID, agentID string) (*ent.Session, error) {
	if agentID == "" {
		return nil, NewValidationError("agent_id", "required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.PmSessionID != nil {
		return nil, fmt.Errorf("%w: project already has a pm", ErrAlreadyExists)
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	pmSession, err := tx.Session.Create().
		SetID(uuid.New().String()).
		SetAgentID(agentID).
		SetProjectID(projectID).
		SetSessionType(session.SessionTypePm).
		SetStatus(session.StatusInitializing).
		SetContext(map[string]interface{}{
			models.KanbanStageKey: models.KanbanBacklog,
		}).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create pm session: %w", err)
	}

	err = tx.Project.UpdateOneID(projectID).
		SetPmAgentID(agentID).
		SetPmSessionID(pmSession.ID).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to bind pm to project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pmSession, nil
}

// RemovePM clears the project's PM binding and soft-deletes the pm session.
func (s *ProjectService) RemovePM(httpCtx context.Context, projectID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p.PmSessionID == nil {
		return ErrNotFound
	}
	pmSessionID := *p.PmSessionID

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.Session.UpdateOneID(pmSessionID).
		SetStatus(session.StatusCancelled).
		SetDeletedAt(time.Now()).
		Exec(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return fmt.Errorf("failed to retire pm session: %w", err)
	}

	err = tx.Project.UpdateOneID(projectID).
		ClearPmAgentID().
		ClearPmSessionID().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unbind pm: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// writeProjectFile materializes PROJECT.md at the project root.
func writeProjectFile(path, name, description, pmAgentID string, teamMemberIDs []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	if description != "" {
		fmt.Fprintf(&b, "%s\n\n", description)
	}
	b.WriteString("## Team\n\n")
	if pmAgentID != "" {
		fmt.Fprintf(&b, "- PM: %s\n", pmAgentID)
	} else {
		b.WriteString("- PM: (unassigned)\n")
	}
	if len(teamMemberIDs) > 0 {
		for _, id := range teamMemberIDs {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}
	b.WriteString("\n## Notes\n\nThis file is maintained by the PM agent. Keep it current with project goals, active work, and decisions.\n")

	return os.WriteFile(filepath.Join(path, "PROJECT.md"), []byte(b.String()), 0o644)
}
