package actions

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"isma/internal/domain"
	"isma/internal/domain/models/form"
	agentsvc "isma/internal/domain/services/agent"
)

// findSelectQuestion resolves a select_one/select_multiple question for
// the choice actions.
func findSelectQuestion(project *form.Project, name string) (*form.Question, error) {
	idx := project.FormData.FindQuestion(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: question %q introuvable", domain.ErrValidation, name)
	}
	q := &project.FormData.Survey[idx]
	if !q.Type.IsSelect() {
		return nil, fmt.Errorf("%w: la question %q n'a pas de liste de choix", domain.ErrValidation, name)
	}
	return q, nil
}

// addChoice

type addChoiceHandler struct{}

func (h *addChoiceHandler) Name() string { return "addChoice" }

func (h *addChoiceHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Ajoute un choix à une question select_one ou select_multiple.",
		Parameters: objectSchema([]string{"questionName", "name", "label"}, map[string]interface{}{
			"questionName": stringProp("Le nom de la question."),
			"name":         stringProp("La valeur stockée pour le choix."),
			"label":        stringProp("Le texte affiché pour le choix."),
		}),
	}
}

func (h *addChoiceHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionName string `json:"questionName"`
		Name         string `json:"name"`
		Label        string `json:"label"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateStruct(&a,
		validation.Field(&a.QuestionName, validation.Required),
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Label, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	q, err := findSelectQuestion(project, a.QuestionName)
	if err != nil {
		return nil, err
	}
	for _, c := range q.Choices {
		if c.Name == a.Name {
			return nil, fmt.Errorf("%w: le choix %q existe déjà dans %q", domain.ErrValidation, a.Name, a.QuestionName)
		}
	}

	q.Choices = append(q.Choices, form.Choice{
		UID:   uuid.NewString(),
		Name:  a.Name,
		Label: form.LocalizedText{}.Set(project.DefaultLanguage(), a.Label),
	})

	return &Result{
		Confirmation: fmt.Sprintf("Choix %q ajouté à la question %q.", a.Label, a.QuestionName),
		Details:      map[string]interface{}{"questionName": a.QuestionName, "name": a.Name, "label": a.Label},
	}, nil
}

// updateChoice

type updateChoiceHandler struct{}

func (h *updateChoiceHandler) Name() string { return "updateChoice" }

func (h *updateChoiceHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Modifie le libellé ou la valeur d'un choix existant.",
		Parameters: objectSchema([]string{"questionName", "name"}, map[string]interface{}{
			"questionName": stringProp("Le nom de la question."),
			"name":         stringProp("La valeur actuelle du choix à modifier."),
			"newName":      stringProp("La nouvelle valeur stockée."),
			"newLabel":     stringProp("Le nouveau texte affiché."),
		}),
	}
}

func (h *updateChoiceHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionName string `json:"questionName"`
		Name         string `json:"name"`
		NewName      string `json:"newName"`
		NewLabel     string `json:"newLabel"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.QuestionName == "" || a.Name == "" {
		return nil, fmt.Errorf("%w: questionName et name sont requis", domain.ErrValidation)
	}
	if a.NewName == "" && a.NewLabel == "" {
		return nil, fmt.Errorf("%w: rien à modifier", domain.ErrValidation)
	}

	q, err := findSelectQuestion(project, a.QuestionName)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, c := range q.Choices {
		if c.Name == a.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: choix %q introuvable dans %q", domain.ErrValidation, a.Name, a.QuestionName)
	}
	if a.NewName != "" && a.NewName != a.Name {
		for _, c := range q.Choices {
			if c.Name == a.NewName {
				return nil, fmt.Errorf("%w: le choix %q existe déjà dans %q", domain.ErrValidation, a.NewName, a.QuestionName)
			}
		}
		q.Choices[idx].Name = a.NewName
	}
	if a.NewLabel != "" {
		q.Choices[idx].Label = q.Choices[idx].Label.Set(project.DefaultLanguage(), a.NewLabel)
	}

	return &Result{
		Confirmation: fmt.Sprintf("Choix %q de la question %q modifié.", a.Name, a.QuestionName),
		Details:      map[string]interface{}{"questionName": a.QuestionName, "name": a.Name, "newName": a.NewName, "newLabel": a.NewLabel},
	}, nil
}

// removeChoice

type removeChoiceHandler struct{}

func (h *removeChoiceHandler) Name() string { return "removeChoice" }

func (h *removeChoiceHandler) Tool() agentsvc.Tool {
	return agentsvc.Tool{
		Name:        h.Name(),
		Description: "Retire un choix d'une question select_one ou select_multiple.",
		Parameters: objectSchema([]string{"questionName", "name"}, map[string]interface{}{
			"questionName": stringProp("Le nom de la question."),
			"name":         stringProp("La valeur du choix à retirer."),
		}),
	}
}

func (h *removeChoiceHandler) Apply(project *form.Project, args map[string]interface{}) (*Result, error) {
	var a struct {
		QuestionName string `json:"questionName"`
		Name         string `json:"name"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if a.QuestionName == "" || a.Name == "" {
		return nil, fmt.Errorf("%w: questionName et name sont requis", domain.ErrValidation)
	}

	q, err := findSelectQuestion(project, a.QuestionName)
	if err != nil {
		return nil, err
	}
	if len(q.Choices) <= 1 {
		return nil, fmt.Errorf("%w: la question %q doit conserver au moins un choix", domain.ErrValidation, a.QuestionName)
	}

	for i, c := range q.Choices {
		if c.Name == a.Name {
			q.Choices = append(q.Choices[:i], q.Choices[i+1:]...)
			return &Result{
				Confirmation: fmt.Sprintf("Choix %q retiré de la question %q.", a.Name, a.QuestionName),
				Details:      map[string]interface{}{"questionName": a.QuestionName, "name": a.Name},
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: choix %q introuvable dans %q", domain.ErrValidation, a.Name, a.QuestionName)
}
