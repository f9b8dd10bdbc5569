// Package project implements project lifecycle operations: CRUD,
// explicit version snapshots, restore, and audit-log export.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/domain/repositories"
	"isma/internal/service/survey"
)

type Service struct {
	repo   repositories.ProjectRepository
	tx     repositories.TransactionManager
	logger *slog.Logger
}

func NewService(repo repositories.ProjectRepository, tx repositories.TransactionManager, logger *slog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger}
}

// CreateInput is the payload for creating a project.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Description, validation.Length(0, 2000)),
	)
}

// formID derives the technical form identifier from the project name.
func formID(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('_')
		}
	}
	id := strings.Trim(sb.String(), "_")
	if id == "" {
		id = "formulaire"
	}
	return id
}

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*form.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now().UTC()
	project := &form.Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Icon:        in.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
		FormData: form.FormData{
			Settings: form.Settings{
				FormTitle:       in.Name,
				FormID:          formID(in.Name),
				Version:         "1",
				DefaultLanguage: "fr",
				Languages:       []string{"fr"},
			},
		},
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", project.ID, "name", project.Name)
	return project, nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (*form.Project, error) {
	return s.repo.GetByID(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]form.ProjectSummary, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// SaveVersion appends an immutable snapshot of the current form data.
// The read and the write run in one transaction so a concurrent turn
// cannot slip a mutation between them.
func (s *Service) SaveVersion(ctx context.Context, id, userID, comment string) (*form.Version, error) {
	var version form.Version
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		project, err := s.repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}

		version = form.Version{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UTC(),
			Comment:   comment,
			FormData:  project.FormData.Clone(),
		}
		project.Versions = append(project.Versions, version)

		return s.repo.Replace(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("version saved", "project_id", id, "version_id", version.ID)
	return &version, nil
}

// RestoreVersion replaces the live form data with a saved snapshot.
// The snapshot is validated before it is installed; the audit log
// records the restore as a user action. Versions, history and audit
// entries are never rewound.
func (s *Service) RestoreVersion(ctx context.Context, id, userID, versionID string) (*form.Project, error) {
	var project *form.Project
	err := s.tx.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		project, err = s.repo.GetByID(ctx, id, userID)
		if err != nil {
			return err
		}

		var snapshot *form.Version
		for i := range project.Versions {
			if project.Versions[i].ID == versionID {
				snapshot = &project.Versions[i]
				break
			}
		}
		if snapshot == nil {
			return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		if err := survey.CheckBalanced(snapshot.FormData.Survey); err != nil {
			return fmt.Errorf("%w: snapshot invalide: %v", domain.ErrValidation, err)
		}

		project.FormData = snapshot.FormData.Clone()
		project.AuditLog = append(project.AuditLog, form.NewAuditEntry(form.ActorUser, "restore_version", map[string]interface{}{
			"versionId": versionID,
			"comment":   snapshot.Comment,
		}))

		return s.repo.Replace(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("version restored", "project_id", id, "version_id", versionID)
	return project, nil
}
