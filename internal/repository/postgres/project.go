package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/domain/repositories"
)

// PostgresProjectRepository stores each project as one row with the
// aggregate serialized to a JSONB document column. The mutation
// pipeline always replaces the whole document, so a single column
// avoids cross-table consistency concerns.
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// projectDocument is the JSONB payload. Identity and ownership columns
// stay relational so listing does not deserialize documents.
type projectDocument struct {
	Description         string                 `json:"description,omitempty"`
	Icon                string                 `json:"icon,omitempty"`
	FormData            form.FormData          `json:"formData"`
	Glossary            []form.GlossaryEntry   `json:"glossary,omitempty"`
	ProjectConstitution string                 `json:"projectConstitution,omitempty"`
	ChatHistory         []form.ChatTurn        `json:"chatHistory,omitempty"`
	AuditLog            []form.AuditEntry      `json:"auditLog,omitempty"`
	Versions            []form.Version         `json:"versions,omitempty"`
	RegionalSettings    *form.RegionalSettings `json:"regionalSettings,omitempty"`
	Branding            *form.Branding         `json:"branding,omitempty"`
}

func toDocument(p *form.Project) projectDocument {
	return projectDocument{
		Description:         p.Description,
		Icon:                p.Icon,
		FormData:            p.FormData,
		Glossary:            p.Glossary,
		ProjectConstitution: p.ProjectConstitution,
		ChatHistory:         p.ChatHistory,
		AuditLog:            p.AuditLog,
		Versions:            p.Versions,
		RegionalSettings:    p.RegionalSettings,
		Branding:            p.Branding,
	}
}

func (d *projectDocument) apply(p *form.Project) {
	p.Description = d.Description
	p.Icon = d.Icon
	p.FormData = d.FormData
	p.Glossary = d.Glossary
	p.ProjectConstitution = d.ProjectConstitution
	p.ChatHistory = d.ChatHistory
	p.AuditLog = d.AuditLog
	p.Versions = d.Versions
	p.RegionalSettings = d.RegionalSettings
	p.Branding = d.Branding
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *form.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.tables.Projects)

	doc, err := json.Marshal(toDocument(project))
	if err != nil {
		return fmt.Errorf("marshal project document: %w", err)
	}

	executor := GetExecutor(ctx, r.pool)
	_, err = executor.Exec(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		doc,
		project.CreatedAt,
		project.UpdatedAt,
	)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("project '%s' already exists", project.Name),
				ResourceType: "project",
				ResourceID:   project.ID,
			}
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id, userID string) (*form.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, name, document, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Projects)

	var (
		project form.Project
		raw     []byte
	)
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&raw,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	var doc projectDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal project document: %w", err)
	}
	doc.apply(&project)

	return &project, nil
}

// List retrieves all projects for a user, ordered by updated_at DESC.
// Only the relational columns are read; documents stay on disk.
func (r *PostgresProjectRepository) List(ctx context.Context, userID string) ([]form.ProjectSummary, error) {
	query := fmt.Sprintf(`
		SELECT id, name, document->>'description', document->>'icon', created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var summaries []form.ProjectSummary
	for rows.Next() {
		var (
			s           form.ProjectSummary
			description *string
			icon        *string
		)
		if err := rows.Scan(&s.ID, &s.Name, &description, &icon, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		if description != nil {
			s.Description = *description
		}
		if icon != nil {
			s.Icon = *icon
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	if summaries == nil {
		summaries = []form.ProjectSummary{}
	}

	return summaries, nil
}

// Replace overwrites the stored aggregate with the given state
func (r *PostgresProjectRepository) Replace(ctx context.Context, project *form.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $1, document = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5
	`, r.tables.Projects)

	doc, err := json.Marshal(toDocument(project))
	if err != nil {
		return fmt.Errorf("marshal project document: %w", err)
	}

	project.UpdatedAt = time.Now()

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		project.Name,
		doc,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return fmt.Errorf("replace project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a project
func (r *PostgresProjectRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
