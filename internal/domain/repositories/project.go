package repositories

import (
	"context"

	"isma/internal/domain/models/form"
)

// ProjectRepository persists whole Project aggregates. The mutation
// pipeline reads a project, applies changes in memory, and writes it
// back with a single Replace; no partial-update API is assumed.
type ProjectRepository interface {
	// Create persists a new project. The caller assigns the ID.
	Create(ctx context.Context, project *form.Project) error

	// GetByID retrieves a project owned by userID.
	GetByID(ctx context.Context, id, userID string) (*form.Project, error)

	// List returns summaries of the user's projects, most recently
	// updated first.
	List(ctx context.Context, userID string) ([]form.ProjectSummary, error)

	// Replace overwrites the stored aggregate with the given state and
	// refreshes its updated_at timestamp.
	Replace(ctx context.Context, project *form.Project) error

	// Delete removes a project.
	Delete(ctx context.Context, id, userID string) error
}
