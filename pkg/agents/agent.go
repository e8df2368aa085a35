package agents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	agentDefinitionFile = "CLAUDE.md"
	deletedSuffix       = ".deleted"
	defaultModel        = "sonnet"
)

var (
	// ErrNotFound is returned when no definition exists for an id
	ErrNotFound = errors.New("definition not found")

	// ErrMissingName is returned when a definition has no name field
	ErrMissingName = errors.New("definition missing required name")

	// ErrInvalidID is returned when an id is empty or hidden
	ErrInvalidID = errors.New("invalid definition id")

	// ErrForbiddenPath is returned when an id would escape the repository root
	ErrForbiddenPath = errors.New("path outside allowed directory")
)

// Agent is a file-backed agent definition. The body is the personality
// prompt handed to the session builder.
type Agent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	AllowedTools []string `json:"allowed_tools,omitempty"`
	AllowedMCPs  []string `json:"allowed_mcps,omitempty"`
	IconColor    string   `json:"icon_color,omitempty"`
	DefaultModel string   `json:"default_model,omitempty"`
	Body         string   `json:"body,omitempty"`
}

// AgentRepository reads and writes agent definitions under a root directory,
// one directory per agent with a CLAUDE.md inside.
type AgentRepository struct {
	root string
}

// NewAgentRepository creates a repository rooted at dir, creating it if
// needed.
func NewAgentRepository(dir string) (*AgentRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create agents directory: %w", err)
	}
	return &AgentRepository{root: dir}, nil
}

// Root returns the repository's base directory.
func (r *AgentRepository) Root() string {
	return r.root
}

// List returns all non-deleted agents, skipping unreadable entries.
func (r *AgentRepository) List() ([]*Agent, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read agents directory: %w", err)
	}
	var out []*Agent
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasSuffix(entry.Name(), deletedSuffix) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		agent, err := r.Get(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, agent)
	}
	return out, nil
}

// Get loads one agent definition by id.
func (r *AgentRepository) Get(id string) (*Agent, error) {
	dir, err := r.entryDir(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, agentDefinitionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read agent %s: %w", id, err)
	}

	meta, body, err := SplitFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, err)
	}
	name := StringValue(meta["name"])
	if name == "" {
		return nil, fmt.Errorf("agent %s: %w", id, ErrMissingName)
	}

	return &Agent{
		ID:           id,
		Name:         name,
		Description:  StringValue(meta["description"]),
		Tags:         StringList(meta["tags"]),
		Skills:       StringList(meta["skills"]),
		AllowedTools: StringList(meta["allowed_tools"]),
		AllowedMCPs:  StringList(meta["allowed_mcps"]),
		IconColor:    StringValue(meta["icon_color"]),
		DefaultModel: StringValue(meta["default_model"]),
		Body:         body,
	}, nil
}

// Exists reports whether a non-deleted agent directory exists for id.
func (r *AgentRepository) Exists(id string) bool {
	dir, err := r.entryDir(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, agentDefinitionFile))
	return err == nil
}

// Save writes the agent definition, creating its directory if needed. The
// default_model field is omitted when it is the default.
func (r *AgentRepository) Save(agent *Agent) error {
	if agent.Name == "" {
		return ErrMissingName
	}
	dir, err := r.entryDir(agent.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create agent directory: %w", err)
	}

	fields := []Field{{Key: "name", Value: agent.Name}}
	if agent.Description != "" {
		fields = append(fields, Field{Key: "description", Value: agent.Description})
	}
	if len(agent.Tags) > 0 {
		fields = append(fields, Field{Key: "tags", Value: agent.Tags})
	}
	if len(agent.Skills) > 0 {
		fields = append(fields, Field{Key: "skills", Value: agent.Skills})
	}
	if len(agent.AllowedTools) > 0 {
		fields = append(fields, Field{Key: "allowed_tools", Value: agent.AllowedTools})
	}
	if len(agent.AllowedMCPs) > 0 {
		fields = append(fields, Field{Key: "allowed_mcps", Value: agent.AllowedMCPs})
	}
	if agent.IconColor != "" {
		fields = append(fields, Field{Key: "icon_color", Value: agent.IconColor})
	}
	if agent.DefaultModel != "" && agent.DefaultModel != defaultModel {
		fields = append(fields, Field{Key: "default_model", Value: agent.DefaultModel})
	}

	doc, err := EncodeFrontmatter(fields, agent.Body)
	if err != nil {
		return fmt.Errorf("failed to encode agent %s: %w", agent.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, agentDefinitionFile), []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write agent %s: %w", agent.ID, err)
	}
	return nil
}

// Delete soft-deletes the agent by renaming its directory with a .deleted
// suffix. The content is left intact for manual recovery.
func (r *AgentRepository) Delete(id string) error {
	dir, err := r.entryDir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return ErrNotFound
	}
	target := dir + deletedSuffix
	if _, err := os.Stat(target); err == nil {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("failed to clear previous tombstone: %w", err)
		}
	}
	if err := os.Rename(dir, target); err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}
	return nil
}

func (r *AgentRepository) entryDir(id string) (string, error) {
	if err := validateEntryID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.root, id), nil
}

// validateEntryID rejects ids that could escape the repository root.
func validateEntryID(id string) error {
	if id == "" || strings.HasPrefix(id, ".") {
		return ErrInvalidID
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return ErrForbiddenPath
	}
	return nil
}
