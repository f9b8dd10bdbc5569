package actions

import (
	"fmt"

	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

// auditForm does not mutate the document. It acknowledges the audit
// request and asks the orchestrator for one follow-up model call that
// produces the actual review against the current form structure.
type auditFormHandler struct{}

func (h *auditFormHandler) Name() string { return "auditForm" }

func (h *auditFormHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Lance une revue qualité du formulaire actuel: cohérence des types, logique, contraintes et formulation des questions.",
		Parameters: objectSchema(nil, map[string]interface{}{
			"focus": stringProp("Aspect particulier à examiner (optionnel)."),
		}),
	}
}

func (h *auditFormHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		Focus string `json:"focus"`
	}
	if err := decodeArgs(args, &a); err != nil {
		a.Focus = ""
	}

	followUp := "Examine la structure complète du formulaire ci-dessus et produis une revue qualité: types de questions adaptés, logique de pertinence cohérente, contraintes manquantes, formulations ambiguës. Termine par une liste d'améliorations concrètes."
	if a.Focus != "" {
		followUp = fmt.Sprintf("Examine la structure complète du formulaire ci-dessus, en particulier: %s. Produis une revue qualité et termine par une liste d'améliorations concrètes.", a.Focus)
	}

	return &Result{
		Confirmation: fmt.Sprintf("Audit du formulaire %q lancé.", project.FormData.Settings.FormTitle),
		Details:      map[string]interface{}{"focus": a.Focus, "questionCount": len(project.FormData.Survey)},
		FollowUp:     followUp,
	}, nil
}
