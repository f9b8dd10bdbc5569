package actions

import (
	"context"
	"fmt"
	"log/slog"

	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

// maxFollowUpDepth bounds the follow-up chain a single user turn can
// trigger. Overflow is reported as a failed call, not a panic or a
// silent drop.
const maxFollowUpDepth = 3

// AssistFunc sends one follow-up instruction to the model against the
// post-mutation document and returns its response.
type AssistFunc func(ctx context.Context, prompt string) (*agentsvc.Response, error)

// Dispatcher runs the model's function calls against a project, in
// order, recording every applied call in the audit log.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch applies calls strictly in order. A failed call never stops
// the remaining calls, and each call's outcome (confirmation or error
// message) lands in the returned slice at the same rank as the call.
// Follow-ups requested by handlers run after the batch, against the
// already-mutated document, up to maxFollowUpDepth rounds deep.
func (d *Dispatcher) Dispatch(ctx context.Context, project *form.Project, calls []form.FunctionCall, assist AssistFunc) []string {
	return d.dispatch(ctx, project, calls, assist, 0)
}

func (d *Dispatcher) dispatch(ctx context.Context, project *form.Project, calls []form.FunctionCall, assist AssistFunc, depth int) []string {
	var messages []string
	var followUps []string

	for _, call := range calls {
		if call.Args == nil {
			messages = append(messages, fmt.Sprintf("L'appel de fonction '%s' a été reçu sans arguments et a été ignoré.", call.Name))
			continue
		}

		handler := d.registry.Get(call.Name)
		if handler == nil {
			d.logger.Warn("unknown action requested", "action", call.Name)
			messages = append(messages, fmt.Sprintf("Erreur lors de l'exécution de '%s': action inconnue.", call.Name))
			continue
		}

		result, err := handler.Apply(project, call.Args)
		if err != nil {
			d.logger.Warn("action failed", "action", call.Name, "error", err)
			messages = append(messages, fmt.Sprintf("Erreur lors de l'exécution de '%s': %v", call.Name, err))
			continue
		}

		project.AuditLog = append(project.AuditLog, form.NewAuditEntry(form.ActorAI, call.Name, result.Details))
		messages = append(messages, result.Confirmation)

		if result.FollowUp != "" {
			followUps = append(followUps, result.FollowUp)
		}
	}

	for _, prompt := range followUps {
		messages = append(messages, d.runFollowUp(ctx, project, prompt, assist, depth)...)
	}

	return messages
}

func (d *Dispatcher) runFollowUp(ctx context.Context, project *form.Project, prompt string, assist AssistFunc, depth int) []string {
	if assist == nil {
		return nil
	}
	if depth >= maxFollowUpDepth {
		d.logger.Warn("follow-up depth limit reached", "depth", depth)
		return []string{"La chaîne d'actions automatiques a atteint sa limite et a été interrompue."}
	}

	resp, err := assist(ctx, prompt)
	if err != nil {
		d.logger.Error("follow-up call failed", "error", err)
		return []string{fmt.Sprintf("Erreur lors de l'analyse de suivi: %v", err)}
	}

	var messages []string
	if len(resp.FunctionCalls) > 0 {
		messages = append(messages, d.dispatch(ctx, project, resp.FunctionCalls, assist, depth+1)...)
	}
	if resp.Text != "" {
		messages = append(messages, resp.Text)
	}
	return messages
}
