package project

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/domain/repositories"
	"isma/internal/repository/memory"
)

func newTestService() *Service {
	return NewService(memory.NewProjectRepository(), memory.NewTransactionManager(), slog.New(slog.DiscardHandler))
}

// countingTxManager records how many transactions were executed.
type countingTxManager struct {
	calls int
}

func (m *countingTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	m.calls++
	return fn(ctx)
}

func TestCreate(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	t.Run("derives form settings from the name", func(t *testing.T) {
		p, err := s.Create(ctx, "u1", CreateInput{Name: "Enquête Ménages 2026", Icon: "📋"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if p.FormData.Settings.FormTitle != "Enquête Ménages 2026" {
			t.Errorf("form title = %q", p.FormData.Settings.FormTitle)
		}
		if p.FormData.Settings.FormID != "enqute_mnages_2026" {
			t.Errorf("form id = %q", p.FormData.Settings.FormID)
		}
		if p.FormData.Settings.DefaultLanguage != "fr" {
			t.Errorf("default language = %q", p.FormData.Settings.DefaultLanguage)
		}
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := s.Create(ctx, "u1", CreateInput{})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("want validation error, got %v", err)
		}
	})
}

func TestVersioning(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	p, err := s.Create(ctx, "u1", CreateInput{Name: "Projet"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	addQuestion := func(name string) {
		proj, err := s.Get(ctx, p.ID, "u1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		proj.FormData.Survey = append(proj.FormData.Survey, form.Question{
			UID: "u-" + name, Type: form.TypeText, Name: name,
			Label: form.LocalizedText{"fr": name},
		})
		if err := s.repo.Replace(ctx, proj); err != nil {
			t.Fatalf("Replace: %v", err)
		}
	}

	addQuestion("nom")
	v1, err := s.SaveVersion(ctx, p.ID, "u1", "première version")
	if err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}
	if len(v1.FormData.Survey) != 1 {
		t.Fatalf("snapshot survey = %d questions", len(v1.FormData.Survey))
	}

	addQuestion("age")

	t.Run("restore installs the snapshot and audits as user action", func(t *testing.T) {
		restored, err := s.RestoreVersion(ctx, p.ID, "u1", v1.ID)
		if err != nil {
			t.Fatalf("RestoreVersion: %v", err)
		}
		if len(restored.FormData.Survey) != 1 || restored.FormData.Survey[0].Name != "nom" {
			t.Errorf("restored survey = %+v", restored.FormData.Survey)
		}
		if len(restored.Versions) != 1 {
			t.Errorf("restore must not rewind versions")
		}
		last := restored.AuditLog[len(restored.AuditLog)-1]
		if last.Actor != form.ActorUser || last.Action != "restore_version" {
			t.Errorf("audit entry = %+v", last)
		}
	})

	t.Run("restore of an unknown version fails", func(t *testing.T) {
		_, err := s.RestoreVersion(ctx, p.ID, "u1", "ghost")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("want not-found, got %v", err)
		}
	})

	t.Run("snapshot is isolated from later edits", func(t *testing.T) {
		proj, _ := s.Get(ctx, p.ID, "u1")
		if len(proj.Versions[0].FormData.Survey) != 1 {
			t.Errorf("snapshot mutated by later edits")
		}
	})
}

func TestVersioningRunsInTransaction(t *testing.T) {
	tx := &countingTxManager{}
	s := NewService(memory.NewProjectRepository(), tx, slog.New(slog.DiscardHandler))
	ctx := context.Background()

	p, err := s.Create(ctx, "u1", CreateInput{Name: "Projet"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v, err := s.SaveVersion(ctx, p.ID, "u1", "v1")
	if err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}
	if tx.calls != 1 {
		t.Errorf("SaveVersion ran %d transactions, want 1", tx.calls)
	}

	if _, err := s.RestoreVersion(ctx, p.ID, "u1", v.ID); err != nil {
		t.Fatalf("RestoreVersion: %v", err)
	}
	if tx.calls != 2 {
		t.Errorf("RestoreVersion ran %d transactions, want 1", tx.calls-1)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	p, err := s.Create(ctx, "u1", CreateInput{Name: "Privé"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Get(ctx, p.ID, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-user read must be not-found, got %v", err)
	}
	if err := s.Delete(ctx, p.ID, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-user delete must be not-found, got %v", err)
	}
}
