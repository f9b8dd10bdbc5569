// Package actions interprets the model's structured function calls and
// applies them to the form document. The registry is closed: the model
// names an action as a free string, and anything outside the registered
// set is rejected explicitly instead of falling through.
package actions

import (
	"encoding/json"
	"fmt"

	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

// Result is the outcome of one successfully applied action.
type Result struct {
	// Confirmation is the one-line, user-visible description of what
	// changed, in the conversation language.
	Confirmation string

	// Details is the audit payload recorded for the action.
	Details map[string]interface{}

	// FollowUp, when non-empty, asks the orchestrating layer for one
	// additional model call against the post-mutation document.
	FollowUp string
}

// Handler applies one named action. Apply must either fully apply the
// mutation or leave the project untouched; partial application is
// never a permitted outcome.
type Handler interface {
	Name() string
	Tool() agentsvc.Tool
	Apply(project *form.Project, args map[string]interface{}) (*Result, error)
}

// Registry is the closed action-name table.
type Registry struct {
	ordered  []Handler
	handlers map[string]Handler
}

// NewRegistry creates a registry with every built-in action handler.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, h := range []Handler{
		&addQuestionHandler{},
		&addQuestionsBatchHandler{},
		&updateQuestionHandler{},
		&deleteQuestionHandler{},
		&reorderQuestionHandler{},
		&cloneQuestionHandler{},
		&createQuestionGroupHandler{},
		&addCalculatedFieldHandler{},
		&setQuestionConditionsHandler{},
		&batchUpdateQuestionsHandler{},
		&addChoiceHandler{},
		&updateChoiceHandler{},
		&removeChoiceHandler{},
		&updateProjectSettingsHandler{},
		&setRegionalSettingsHandler{},
		&setBrandingHandler{},
		&auditFormHandler{},
	} {
		r.register(h)
	}
	return r
}

func (r *Registry) register(h Handler) {
	r.ordered = append(r.ordered, h)
	r.handlers[h.Name()] = h
}

// Get retrieves a handler by action name. Returns nil when the name is
// not registered.
func (r *Registry) Get(name string) Handler {
	return r.handlers[name]
}

// Tools returns the function declarations for every registered action,
// in registration order, ready to hand to a provider.
func (r *Registry) Tools() []agentsvc.Tool {
	out := make([]agentsvc.Tool, len(r.ordered))
	for i, h := range r.ordered {
		out[i] = h.Tool()
	}
	return out
}

// decodeArgs maps a loosely typed argument object onto a typed request
// struct via JSON, so handlers validate real types instead of doing
// interface assertions field by field.
func decodeArgs(args map[string]interface{}, dest interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments illisibles: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("arguments invalides: %w", err)
	}
	return nil
}
