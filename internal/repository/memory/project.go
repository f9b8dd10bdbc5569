package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/domain/repositories"
)

// ProjectRepository is an in-memory project store used for development
// without a database and in tests. Projects are stored as deep copies
// so callers never share state with the store.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*form.Project
}

// NewProjectRepository creates an empty in-memory store.
func NewProjectRepository() repositories.ProjectRepository {
	return &ProjectRepository{projects: make(map[string]*form.Project)}
}

// copyProject round-trips through JSON so nested slices and maps are
// never aliased between the store and its callers.
func copyProject(p *form.Project) (*form.Project, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("copy project: %w", err)
	}
	var out form.Project
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("copy project: %w", err)
	}
	out.UserID = p.UserID
	return &out, nil
}

// Create persists a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *form.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.projects[project.ID]; exists {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("project '%s' already exists", project.Name),
			ResourceType: "project",
			ResourceID:   project.ID,
		}
	}

	stored, err := copyProject(project)
	if err != nil {
		return err
	}
	r.projects[project.ID] = stored
	return nil
}

// GetByID retrieves a project owned by userID.
func (r *ProjectRepository) GetByID(ctx context.Context, id, userID string) (*form.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.projects[id]
	if !ok || stored.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return copyProject(stored)
}

// List returns summaries of the user's projects, most recently updated first.
func (r *ProjectRepository) List(ctx context.Context, userID string) ([]form.ProjectSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := []form.ProjectSummary{}
	for _, p := range r.projects {
		if p.UserID != userID {
			continue
		}
		summaries = append(summaries, form.ProjectSummary{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Icon:        p.Icon,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Replace overwrites the stored aggregate with the given state.
func (r *ProjectRepository) Replace(ctx context.Context, project *form.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.projects[project.ID]
	if !ok || stored.UserID != project.UserID {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}

	project.UpdatedAt = time.Now()
	copied, err := copyProject(project)
	if err != nil {
		return err
	}
	r.projects[project.ID] = copied
	return nil
}

// Delete removes a project.
func (r *ProjectRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.projects[id]
	if !ok || stored.UserID != userID {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	delete(r.projects, id)
	return nil
}
