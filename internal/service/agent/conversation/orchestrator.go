// Package conversation runs one chat turn end to end: build the
// instruction string, call the model, apply its function calls to the
// document, and persist the resulting project state.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"isma/internal/domain"
	"isma/internal/domain/models/form"
	"isma/internal/domain/repositories"
	agentsvc "isma/internal/domain/services/agent"
	"isma/internal/service/agent/actions"
	"isma/internal/service/agent/prompt"
)

// providerErrorText is the synthetic model turn appended when the
// provider call fails, so the conversation stays well-formed.
const providerErrorText = "Désolé, je n'ai pas pu traiter votre demande. Veuillez réessayer dans un instant."

// TurnInput is one user message plus its UI context.
type TurnInput struct {
	ProjectID       string
	UserID          string
	Message         string
	Roles           []string
	CurrentQuestion string
	FormValues      map[string]interface{}
	GenerationMode  bool
}

// TurnResult is what a completed turn hands back to the transport
// layer: the messages appended to the conversation this turn, in
// order, and the saved project state.
type TurnResult struct {
	Messages []string
	Project  *form.Project
}

// Orchestrator serializes turns per project. A second message for a
// project whose turn is still in flight is rejected with a conflict
// instead of queued, matching a UI that disables input while waiting.
type Orchestrator struct {
	provider   agentsvc.ModelClient
	prompts    *prompt.Builder
	registry   *actions.Registry
	dispatcher *actions.Dispatcher
	repo       repositories.ProjectRepository
	logger     *slog.Logger

	mu     sync.Mutex
	active map[string]bool
}

func NewOrchestrator(
	provider agentsvc.ModelClient,
	prompts *prompt.Builder,
	registry *actions.Registry,
	dispatcher *actions.Dispatcher,
	repo repositories.ProjectRepository,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		prompts:    prompts,
		registry:   registry,
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger,
		active:     make(map[string]bool),
	}
}

func (o *Orchestrator) acquire(projectID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[projectID] {
		return false
	}
	o.active[projectID] = true
	return true
}

func (o *Orchestrator) release(projectID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, projectID)
}

// Run executes one turn. The user message is appended to the history
// before the model is called, so even a failed turn keeps what the
// user said. Function calls are applied before any free text from the
// model is appended, matching the order in which the user sees
// results.
func (o *Orchestrator) Run(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message vide", domain.ErrValidation)
	}
	if !o.acquire(in.ProjectID) {
		return nil, fmt.Errorf("%w: une réponse est déjà en cours pour ce projet", domain.ErrConflict)
	}
	defer o.release(in.ProjectID)

	project, err := o.repo.GetByID(ctx, in.ProjectID, in.UserID)
	if err != nil {
		return nil, err
	}

	project.ChatHistory = append(project.ChatHistory, form.TextTurn(form.RoleUser, in.Message))

	var current *form.Question
	if in.CurrentQuestion != "" {
		if idx := project.FormData.FindQuestion(in.CurrentQuestion); idx >= 0 {
			current = &project.FormData.Survey[idx]
		}
	}

	system := o.prompts.Build(prompt.Input{
		Roles:             in.Roles,
		Project:           project,
		CurrentQuestion:   current,
		FormValues:        in.FormValues,
		GenerationMode:    in.GenerationMode,
		ConversationDepth: len(project.ChatHistory),
	})

	resp, err := o.provider.Send(ctx, &agentsvc.Request{
		System:  system,
		History: project.ChatHistory,
		Tools:   o.registry.Tools(),
	})
	if err != nil {
		o.logger.Error("provider call failed", "provider", o.provider.Name(), "project_id", in.ProjectID, "error", err)
		project.ChatHistory = append(project.ChatHistory, form.TextTurn(form.RoleModel, providerErrorText))
		if saveErr := o.repo.Replace(ctx, project); saveErr != nil {
			return nil, saveErr
		}
		return &TurnResult{Messages: []string{providerErrorText}, Project: project}, nil
	}

	var messages []string
	if len(resp.FunctionCalls) > 0 {
		assist := o.assistFunc(in, project)
		messages = o.dispatcher.Dispatch(ctx, project, resp.FunctionCalls, assist)
		for i, call := range resp.FunctionCalls {
			project.ChatHistory = append(project.ChatHistory, form.ChatTurn{
				Role:  form.RoleModel,
				Parts: []form.Part{{FunctionCall: &form.FunctionCall{Name: call.Name, Args: call.Args}}},
			})
			if i < len(messages) {
				project.ChatHistory = append(project.ChatHistory, form.ChatTurn{
					Role: form.RoleUser,
					Parts: []form.Part{{FunctionResponse: &form.FunctionResponse{
						Name:     call.Name,
						Response: map[string]interface{}{"result": messages[i]},
					}}},
				})
			}
		}
		// Follow-up output (audit text, chained confirmations) past the
		// per-call slots is plain model text.
		for _, msg := range messages[min(len(resp.FunctionCalls), len(messages)):] {
			project.ChatHistory = append(project.ChatHistory, form.TextTurn(form.RoleModel, msg))
		}
	}
	if resp.Text != "" {
		project.ChatHistory = append(project.ChatHistory, form.TextTurn(form.RoleModel, resp.Text))
		messages = append(messages, resp.Text)
	}

	if err := o.repo.Replace(ctx, project); err != nil {
		return nil, err
	}
	return &TurnResult{Messages: messages, Project: project}, nil
}

// assistFunc serves follow-up requests from action handlers with a
// fresh prompt built against the post-mutation document.
func (o *Orchestrator) assistFunc(in TurnInput, project *form.Project) actions.AssistFunc {
	return func(ctx context.Context, followUp string) (*agentsvc.Response, error) {
		system := o.prompts.Build(prompt.Input{
			Roles:             in.Roles,
			Project:           project,
			ConversationDepth: len(project.ChatHistory),
		})
		history := append(append([]form.ChatTurn(nil), project.ChatHistory...), form.TextTurn(form.RoleUser, followUp))
		return o.provider.Send(ctx, &agentsvc.Request{
			System:  system,
			History: history,
			Tools:   o.registry.Tools(),
		})
	}
}
