package agents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const skillDefinitionFile = "SKILL.md"

// Skill is a file-backed skill definition. The body serves as a preview
// inserted into specialist prompts.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	IconColor   string   `json:"iconColor,omitempty"`
	Body        string   `json:"body,omitempty"`
}

// SkillRepository reads and writes skill definitions under a root directory,
// one directory per skill with a SKILL.md inside.
type SkillRepository struct {
	root string
}

// NewSkillRepository creates a repository rooted at dir, creating it if
// needed.
func NewSkillRepository(dir string) (*SkillRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create skills directory: %w", err)
	}
	return &SkillRepository{root: dir}, nil
}

// Root returns the repository's base directory.
func (r *SkillRepository) Root() string {
	return r.root
}

// List returns all non-deleted skills, skipping unreadable entries.
func (r *SkillRepository) List() ([]*Skill, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills directory: %w", err)
	}
	var out []*Skill
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasSuffix(entry.Name(), deletedSuffix) || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		skill, err := r.Get(entry.Name())
		if err != nil {
			continue
		}
		out = append(out, skill)
	}
	return out, nil
}

// Get loads one skill definition by id.
func (r *SkillRepository) Get(id string) (*Skill, error) {
	dir, err := r.entryDir(id)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, skillDefinitionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read skill %s: %w", id, err)
	}

	meta, body, err := SplitFrontmatter(string(raw))
	if err != nil {
		return nil, fmt.Errorf("skill %s: %w", id, err)
	}
	name := StringValue(meta["name"])
	if name == "" {
		return nil, fmt.Errorf("skill %s: %w", id, ErrMissingName)
	}

	return &Skill{
		ID:          id,
		Name:        name,
		Description: StringValue(meta["description"]),
		Tags:        StringList(meta["tags"]),
		Icon:        StringValue(meta["icon"]),
		IconColor:   StringValue(meta["iconColor"]),
		Body:        body,
	}, nil
}

// Exists reports whether a non-deleted skill directory exists for id.
func (r *SkillRepository) Exists(id string) bool {
	dir, err := r.entryDir(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, skillDefinitionFile))
	return err == nil
}

// Save writes the skill definition, creating its directory if needed.
func (r *SkillRepository) Save(skill *Skill) error {
	if skill.Name == "" {
		return ErrMissingName
	}
	dir, err := r.entryDir(skill.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	fields := []Field{{Key: "name", Value: skill.Name}}
	if skill.Description != "" {
		fields = append(fields, Field{Key: "description", Value: skill.Description})
	}
	if len(skill.Tags) > 0 {
		fields = append(fields, Field{Key: "tags", Value: skill.Tags})
	}
	if skill.Icon != "" {
		fields = append(fields, Field{Key: "icon", Value: skill.Icon})
	}
	if skill.IconColor != "" {
		fields = append(fields, Field{Key: "iconColor", Value: skill.IconColor})
	}

	doc, err := EncodeFrontmatter(fields, skill.Body)
	if err != nil {
		return fmt.Errorf("failed to encode skill %s: %w", skill.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, skillDefinitionFile), []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write skill %s: %w", skill.ID, err)
	}
	return nil
}

// Delete soft-deletes the skill by renaming its directory with a .deleted
// suffix.
func (r *SkillRepository) Delete(id string) error {
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
		return fmt.Errorf("failed to delete skill %s: %w", id, err)
	}
	return nil
}

func (r *SkillRepository) entryDir(id string) (string, error) {
	if err := validateEntryID(id); err != nil {
		return "", err
	}
	return filepath.Join(r.root, id), nil
}
