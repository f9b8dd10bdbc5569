package actions

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

func testDispatcher() *Dispatcher {
	return NewDispatcher(NewRegistry(), slog.New(slog.DiscardHandler))
}

func TestDispatchOrderAndIsolation(t *testing.T) {
	d := testDispatcher()
	p := testProject()

	calls := []form.FunctionCall{
		{Name: "addQuestion", Args: map[string]interface{}{"type": "text", "name": "village", "label": "Village"}},
		{Name: "addQuestion", Args: map[string]interface{}{"type": "text", "name": "nom", "label": "Collision"}},
		{Name: "deleteQuestion", Args: map[string]interface{}{"questionName": "age"}},
	}
	messages := d.Dispatch(context.Background(), p, calls, nil)

	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3: %v", len(messages), messages)
	}
	if messages[0] != `Question "Village" ajoutée.` {
		t.Errorf("messages[0] = %q", messages[0])
	}
	if !strings.HasPrefix(messages[1], "Erreur lors de l'exécution de 'addQuestion':") {
		t.Errorf("messages[1] = %q", messages[1])
	}
	if messages[2] != `Question "age" supprimée.` {
		t.Errorf("messages[2] = %q", messages[2])
	}

	if len(p.AuditLog) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(p.AuditLog))
	}
	for _, e := range p.AuditLog {
		if e.Actor != form.ActorAI {
			t.Errorf("audit actor = %q", e.Actor)
		}
	}
	if p.AuditLog[0].Action != "addQuestion" || p.AuditLog[1].Action != "deleteQuestion" {
		t.Errorf("audit actions = %q, %q", p.AuditLog[0].Action, p.AuditLog[1].Action)
	}
}

func TestDispatchNilArgsIgnored(t *testing.T) {
	d := testDispatcher()
	p := testProject()

	messages := d.Dispatch(context.Background(), p, []form.FunctionCall{{Name: "deleteQuestion"}}, nil)
	want := "L'appel de fonction 'deleteQuestion' a été reçu sans arguments et a été ignoré."
	if len(messages) != 1 || messages[0] != want {
		t.Errorf("messages = %v", messages)
	}
	if len(p.FormData.Survey) != 3 || len(p.AuditLog) != 0 {
		t.Errorf("ignored call still touched the project")
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	d := testDispatcher()
	p := testProject()

	messages := d.Dispatch(context.Background(), p, []form.FunctionCall{
		{Name: "teleportQuestion", Args: map[string]interface{}{}},
	}, nil)
	if len(messages) != 1 || messages[0] != "Erreur lors de l'exécution de 'teleportQuestion': action inconnue." {
		t.Errorf("messages = %v", messages)
	}
}

func TestDispatchFollowUp(t *testing.T) {
	d := testDispatcher()

	t.Run("audit text is appended after the batch", func(t *testing.T) {
		p := testProject()
		var gotPrompt string
		assist := func(ctx context.Context, prompt string) (*agentsvc.Response, error) {
			gotPrompt = prompt
			return &agentsvc.Response{Text: "Le formulaire est cohérent."}, nil
		}

		messages := d.Dispatch(context.Background(), p, []form.FunctionCall{
			{Name: "auditForm", Args: map[string]interface{}{}},
		}, assist)

		if len(messages) != 2 {
			t.Fatalf("messages = %v", messages)
		}
		if messages[1] != "Le formulaire est cohérent." {
			t.Errorf("messages[1] = %q", messages[1])
		}
		if !strings.Contains(gotPrompt, "revue qualité") {
			t.Errorf("follow-up prompt = %q", gotPrompt)
		}
	})

	t.Run("recursion is capped", func(t *testing.T) {
		p := testProject()
		callCount := 0
		assist := func(ctx context.Context, prompt string) (*agentsvc.Response, error) {
			callCount++
			return &agentsvc.Response{
				FunctionCalls: []form.FunctionCall{{Name: "auditForm", Args: map[string]interface{}{}}},
			}, nil
		}

		messages := d.Dispatch(context.Background(), p, []form.FunctionCall{
			{Name: "auditForm", Args: map[string]interface{}{}},
		}, assist)

		if callCount > maxFollowUpDepth {
			t.Errorf("assist called %d times, cap is %d", callCount, maxFollowUpDepth)
		}
		last := messages[len(messages)-1]
		if !strings.Contains(last, "limite") {
			t.Errorf("last message = %q, want the depth-limit notice", last)
		}
	})

	t.Run("nil assist drops the follow-up silently", func(t *testing.T) {
		p := testProject()
		messages := d.Dispatch(context.Background(), p, []form.FunctionCall{
			{Name: "auditForm", Args: map[string]interface{}{}},
		}, nil)
		if len(messages) != 1 {
			t.Errorf("messages = %v", messages)
		}
	})
}
